// Package commands implements the gsc subcommands.
package commands

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/pterm/pterm"
	"go.uber.org/zap"
	"golang.org/x/mod/modfile"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/internal/cli/generator"
	"github.com/servicekit/go-service-template/internal/cli/git"
	"github.com/servicekit/go-service-template/internal/cli/template"
	"github.com/servicekit/go-service-template/version"
)

const (
	commitAuthor = "Go Service CLI"
	commitEmail  = "cli@localhost"
	remoteName   = "origin"
)

// projectOptions are the flags shared by create and scaffold
type projectOptions struct {
	name         string
	modulePath   string
	templateSrc  string
	withoutKafka bool
}

func kafkaSuffix(withoutKafka bool) string {
	if withoutKafka {
		return "without Kafka support"
	}
	return "with Kafka support"
}

func commitMessage(kind string, withoutKafka bool) string {
	return "feat: initial " + kind + " " + kafkaSuffix(withoutKafka)
}

// generateProject resolves the template and generates the project into target
func generateProject(ctx context.Context, opts projectOptions, id generator.Identity, target string, log *zap.SugaredLogger) error {
	src, err := template.Resolve(ctx, opts.templateSrc, log.Named("template"))
	if err != nil {
		return err
	}
	defer src.Cleanup()

	warnGoVersion(src.Dir, log)

	spinner, _ := pterm.DefaultSpinner.Start("Generating service files...")
	err = generator.Generate(ctx, generator.Options{
		Source:       src.Dir,
		Target:       target,
		Identity:     id,
		WithoutKafka: opts.withoutKafka,
		OnStep: func(step string) {
			spinner.UpdateText("Generating service files: " + step)
		},
		Logger: log.Named("generator"),
	})
	if err != nil {
		spinner.Fail("Failed to generate service files")
		return errors.Wrap(err, "failed to generate service files")
	}
	spinner.Success("Generated service " + kafkaSuffix(opts.withoutKafka))
	return nil
}

// commitProject initializes a repository in dir and records the initial commit
func commitProject(ctx context.Context, runner *git.Runner, message string) error {
	if err := runner.Init(ctx); err != nil {
		return errors.Wrap(err, "failed to initialize git repository")
	}
	if err := runner.AddAll(ctx); err != nil {
		return errors.Wrap(err, "failed to stage files")
	}
	if err := runner.Commit(ctx, message, commitAuthor, commitEmail); err != nil {
		return errors.Wrap(err, "failed to commit changes")
	}
	return nil
}

// warnGoVersion reports when the running toolchain is older than the
// template's go directive. Generation still proceeds.
func warnGoVersion(dir string, log *zap.SugaredLogger) {
	raw, err := os.ReadFile(filepath.Join(dir, "go.mod"))
	if err != nil {
		return
	}
	mod, err := modfile.ParseLax("go.mod", raw, nil)
	if err != nil || mod.Go == nil {
		return
	}
	ok, err := version.GoSatisfies(mod.Go.Version)
	if err != nil {
		log.Debugw("Could not compare Go versions", "required", mod.Go.Version, "error", err)
		return
	}
	if !ok {
		pterm.Warning.Printfln("The generated project requires Go %s or newer", mod.Go.Version)
	}
}

// resolveOutputPath returns the absolute scaffold target. The path must
// resolve inside cwd, symlinks included, and must not exist yet.
func resolveOutputPath(cwd, output, name string) (string, error) {
	if output == "" {
		output = name
	}
	target := output
	if !filepath.IsAbs(target) {
		target = filepath.Join(cwd, target)
	}
	target = filepath.Clean(target)

	root, err := canonical(cwd)
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve current directory")
	}
	resolved, err := canonical(target)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve output path %s", output)
	}

	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrInvalidRequest, "output path %s must be within the current directory", output),
			"choose a subdirectory of the current directory",
		)
	}

	if _, err := os.Lstat(target); err == nil {
		return "", errors.WithHint(
			errors.Wrapf(errors.ErrConflict, "output directory %s already exists", target),
			"remove it or choose a different location with --output",
		)
	} else if !os.IsNotExist(err) {
		return "", errors.Wrapf(err, "failed to check output path %s", target)
	}
	return target, nil
}

// canonical resolves symlinks in the longest existing prefix of path
func canonical(path string) (string, error) {
	var rest []string
	current := path
	for {
		resolved, err := filepath.EvalSymlinks(current)
		if err == nil {
			for i := len(rest) - 1; i >= 0; i-- {
				resolved = filepath.Join(resolved, rest[i])
			}
			return resolved, nil
		}
		if !os.IsNotExist(err) {
			return "", err
		}
		parent := filepath.Dir(current)
		if parent == current {
			return path, nil
		}
		rest = append(rest, filepath.Base(current))
		current = parent
	}
}
