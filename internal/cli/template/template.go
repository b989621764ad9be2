// Package template locates the template tree a project is generated from.
//
// A source may be:
//   - a local directory: ./go-service-template, /src/template, ~/template
//   - a git URL: https://github.com/org/repo.git, git@github.com:org/repo.git
//   - GitHub shorthand: github.com/org/repo (detected by go-getter)
//   - an archive: https://example.com/template.tar.gz (extracted)
//
// Remote sources are fetched into a temporary directory that Cleanup removes.
package template

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/go-getter"
	"go.uber.org/zap"
	"golang.org/x/mod/modfile"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/internal/cli/generator"
)

// DefaultSource is fetched when no template is given and the working
// directory is not a checkout of the template.
const DefaultSource = "github.com/servicekit/go-service-template"

// Source is a resolved template tree
type Source struct {
	// Dir is the local template root
	Dir string
	// Input is what the user asked for
	Input string
	// Fetched reports whether Dir was downloaded
	Fetched bool

	cleanup func()
}

// Cleanup removes downloaded files. Safe to call more than once.
func (s *Source) Cleanup() {
	if s.cleanup != nil {
		s.cleanup()
		s.cleanup = nil
	}
}

// Resolve turns input into a local template directory. An empty input
// selects the working directory when it holds the template, DefaultSource
// otherwise.
func Resolve(ctx context.Context, input string, log *zap.SugaredLogger) (*Source, error) {
	pwd, err := os.Getwd()
	if err != nil {
		pwd = "."
	}

	if input == "" {
		if IsTemplate(pwd) {
			log.Debugw("Using working directory as template", "dir", pwd)
			return &Source{Dir: pwd, Input: pwd}, nil
		}
		input = DefaultSource
	}

	if local, ok, err := localDir(input, pwd); err != nil {
		return nil, err
	} else if ok {
		return &Source{Dir: local, Input: input}, nil
	}

	detected, err := getter.Detect(input, pwd, getter.Detectors)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "unrecognised template source %q: %v", input, err)
	}
	log.Debugw("go-getter detected source", "input", input, "detected", detected)

	if u, err := url.Parse(detected); err == nil && u.Scheme == "file" {
		return statDir(input, u.Path)
	}
	return fetch(ctx, input, detected, log)
}

// IsTemplate reports whether dir is a checkout of the template module
func IsTemplate(dir string) bool {
	raw, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return false
	}
	path := modfile.ModulePath(raw)
	return path == generator.TemplateModulePath
}

func localDir(input, pwd string) (string, bool, error) {
	path := input
	if strings.HasPrefix(path, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", false, errors.Wrap(err, "failed to expand home directory")
		}
		path = filepath.Join(home, path[2:])
	}
	isPath := filepath.IsAbs(path) || strings.HasPrefix(path, ".") || path != input
	if !isPath {
		info, err := os.Stat(filepath.Join(pwd, path))
		if err != nil || !info.IsDir() {
			return "", false, nil
		}
	}
	if !filepath.IsAbs(path) {
		path = filepath.Join(pwd, path)
	}
	src, err := statDir(input, path)
	if err != nil {
		return "", false, err
	}
	return src.Dir, true, nil
}

func statDir(input, path string) (*Source, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrNotFound, "template %s: %v", input, err)
	}
	if !info.IsDir() {
		return nil, errors.Wrapf(errors.ErrInvalidRequest, "template %s is not a directory", input)
	}
	return &Source{Dir: filepath.Clean(path), Input: input}, nil
}

func fetch(ctx context.Context, input, detected string, log *zap.SugaredLogger) (*Source, error) {
	tempDir, err := os.MkdirTemp("", "gsc-template-*")
	if err != nil {
		return nil, errors.Wrap(err, "failed to create temp directory")
	}
	dst := filepath.Join(tempDir, "template")

	log.Infow("Fetching template", "input", input, "detected", detected, "destination", dst)

	client := &getter.Client{
		Ctx:     ctx,
		Src:     detected,
		Dst:     dst,
		Pwd:     tempDir,
		Mode:    getter.ClientModeDir,
		Getters: getter.Getters,
	}
	if err := client.Get(); err != nil {
		os.RemoveAll(tempDir)
		return nil, errors.WithHint(
			errors.Wrapf(err, "failed to fetch template %s", input),
			"pass a local checkout with --template",
		)
	}

	return &Source{
		Dir:     dst,
		Input:   input,
		Fetched: true,
		cleanup: func() {
			if err := os.RemoveAll(tempDir); err != nil {
				log.Warnw("Failed to remove template download", "dir", tempDir, "error", err)
			}
		},
	}, nil
}
