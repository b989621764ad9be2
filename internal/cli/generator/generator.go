// Package generator creates new service projects from this template. It
// copies the template tree, optionally strips the Kafka integration, and
// renames the module, staging the result so a failed run leaves nothing
// behind.
package generator

import (
	"context"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/logger"
)

// Options configures one generation run
type Options struct {
	// Source is the template root
	Source string
	// Target is the output directory; it must not exist
	Target string
	// Identity names the new project
	Identity Identity
	// WithoutKafka strips the event streaming integration
	WithoutKafka bool
	// Exclusions overrides DefaultExclusions and the template's ignore
	// file when non-nil
	Exclusions []Exclusion
	// OnStep is called before each step with its name
	OnStep func(name string)
	Logger *zap.SugaredLogger
}

// Generate builds the project in a staging directory next to Target and
// renames it into place once every step has succeeded.
func Generate(ctx context.Context, opts Options) error {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if err := ValidateName(opts.Identity.Name); err != nil {
		return err
	}
	if opts.Identity.ImageName == "" {
		opts.Identity.ImageName = imageName(opts.Identity.Name)
	}

	target, err := filepath.Abs(opts.Target)
	if err != nil {
		return errors.Wrap(err, "failed to resolve output path")
	}
	if _, err := os.Lstat(target); err == nil {
		return errors.Wrapf(errors.ErrConflict, "output directory %s already exists", target)
	} else if !os.IsNotExist(err) {
		return errors.Wrapf(err, "failed to check output path %s", target)
	}
	if info, err := os.Stat(opts.Source); err != nil || !info.IsDir() {
		return errors.Newf("template directory %s is not readable", opts.Source)
	}

	parent := filepath.Dir(target)
	if err := os.MkdirAll(parent, 0755); err != nil {
		return errors.Wrapf(err, "failed to create %s", parent)
	}
	staging, err := os.MkdirTemp(parent, ".gsc-staging-*")
	if err != nil {
		return errors.Wrap(err, "failed to create staging directory")
	}
	published := false
	defer func() {
		if !published {
			os.RemoveAll(staging)
		}
	}()
	if err := os.Chmod(staging, 0755); err != nil {
		return errors.Wrap(err, "failed to set staging permissions")
	}

	rules := opts.Exclusions
	if rules == nil {
		if rules, err = LoadExclusions(opts.Source); err != nil {
			return err
		}
	}

	notify := func(name string) {
		log.Infow("Running generation step", logger.FieldStep, name)
		if opts.OnStep != nil {
			opts.OnStep(name)
		}
	}

	notify("copy-tree")
	if err := CopyTree(opts.Source, staging, rules, target, staging); err != nil {
		return errors.Wrap(err, "copy-tree")
	}

	ws := newWorkspace(staging, log)
	for _, step := range Plan(opts.Identity, opts.WithoutKafka) {
		if err := ctx.Err(); err != nil {
			return err
		}
		notify(step.Name)
		log.Debugw("Step contract", logger.FieldStep, step.Name, "pre", step.Pre, "post", step.Post)
		if err := step.Run(ws); err != nil {
			return errors.Wrap(err, step.Name)
		}
	}

	notify("validate")
	if err := ws.finish(); err != nil {
		return errors.Wrap(err, "validate")
	}

	if err := os.Rename(staging, target); err != nil {
		return errors.Wrapf(err, "failed to move project into %s", target)
	}
	published = true

	log.Infow("Project generated",
		"name", opts.Identity.Name,
		"module", opts.Identity.ModulePath,
		"path", target,
		"without_kafka", opts.WithoutKafka,
		logger.FieldCount, len(ws.Touched()),
	)
	return nil
}
