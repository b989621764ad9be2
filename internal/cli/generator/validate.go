package generator

import (
	"go/format"
	"go/parser"
	"go/token"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"golang.org/x/mod/modfile"
	"gopkg.in/yaml.v3"

	"github.com/servicekit/go-service-template/errors"
)

// Validate checks that an edited file still parses. Build files and shell
// scripts get a bracket balance check; prose is not checked.
func Validate(name string, content []byte) error {
	base := filepath.Base(name)
	switch {
	case base == "go.mod":
		f, err := modfile.Parse(name, content, nil)
		if err != nil {
			return errors.Wrapf(err, "%s does not parse", name)
		}
		if f.Module == nil {
			return errors.Newf("%s has no module directive", name)
		}
		return nil

	case strings.HasSuffix(base, ".go"):
		if _, err := parser.ParseFile(token.NewFileSet(), name, content, parser.AllErrors); err != nil {
			return errors.Wrapf(err, "%s does not parse", name)
		}
		return nil

	case strings.HasSuffix(base, ".toml"):
		var doc map[string]interface{}
		if err := toml.Unmarshal(content, &doc); err != nil {
			return errors.Wrapf(err, "%s is not valid TOML", name)
		}
		return nil

	case strings.HasSuffix(base, ".yaml"), strings.HasSuffix(base, ".yml"):
		var doc yaml.Node
		if err := yaml.Unmarshal(content, &doc); err != nil {
			return errors.Wrapf(err, "%s is not valid YAML", name)
		}
		return nil

	case base == "Makefile", base == "Dockerfile", strings.HasSuffix(base, ".sh"):
		if err := checkBalanced(string(content)); err != nil {
			return errors.Wrapf(err, "%s", name)
		}
		return nil

	default:
		return nil
	}
}

// Format gofmts Go source. Line-based edits can leave alignment or blank
// lines that gofmt would change.
func Format(name string, content []byte) ([]byte, error) {
	formatted, err := format.Source(content)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to format %s", name)
	}
	return formatted, nil
}

var closers = map[rune]rune{')': '(', ']': '[', '}': '{'}

// checkBalanced verifies (), [] and {} nest correctly
func checkBalanced(text string) error {
	var stack []rune
	line := 1
	for _, r := range text {
		switch r {
		case '\n':
			line++
		case '(', '[', '{':
			stack = append(stack, r)
		case ')', ']', '}':
			if len(stack) == 0 || stack[len(stack)-1] != closers[r] {
				return errors.Newf("unbalanced %q on line %d", r, line)
			}
			stack = stack[:len(stack)-1]
		}
	}
	if len(stack) > 0 {
		return errors.Newf("%d unclosed bracket(s), last %q", len(stack), stack[len(stack)-1])
	}
	return nil
}

// composeServices returns the service names and their depends_on lists
func composeServices(content []byte) (map[string][]string, error) {
	var doc struct {
		Services map[string]struct {
			DependsOn yaml.Node `yaml:"depends_on"`
		} `yaml:"services"`
	}
	if err := yaml.Unmarshal(content, &doc); err != nil {
		return nil, err
	}

	services := make(map[string][]string, len(doc.Services))
	for name, svc := range doc.Services {
		var deps []string
		switch svc.DependsOn.Kind {
		case yaml.SequenceNode:
			if err := svc.DependsOn.Decode(&deps); err != nil {
				return nil, err
			}
		case yaml.MappingNode:
			for i := 0; i < len(svc.DependsOn.Content); i += 2 {
				deps = append(deps, svc.DependsOn.Content[i].Value)
			}
		}
		services[name] = deps
	}
	return services, nil
}
