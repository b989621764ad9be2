// Package git drives the git binary for newly generated projects.
package git

import (
	"bytes"
	"context"
	"os/exec"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/kballard/go-shellquote"
	"go.uber.org/zap"

	"github.com/servicekit/go-service-template/errors"
)

// Runner runs git commands inside one working tree
type Runner struct {
	dir    string
	binary string
	logger *zap.SugaredLogger
}

// NewRunner creates a runner for dir
func NewRunner(dir string, logger *zap.SugaredLogger) *Runner {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	return &Runner{dir: dir, binary: "git", logger: logger}
}

// run executes git with args. A non-zero exit becomes an error carrying
// git's stderr; the full command line is attached as detail.
func (r *Runner) run(ctx context.Context, args ...string) error {
	cmdline := shellquote.Join(append([]string{r.binary}, args...)...)
	r.logger.Debugw("Running git", "command", cmdline, "dir", r.dir)

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.dir
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return errors.WithDetail(errors.Newf("git %s failed: %s", args[0], msg), cmdline)
	}
	return nil
}

// Init creates an empty repository
func (r *Runner) Init(ctx context.Context) error {
	return r.run(ctx, "init")
}

// AddAll stages every change
func (r *Runner) AddAll(ctx context.Context) error {
	return r.run(ctx, "add", ".")
}

// Commit records staged changes as the given author. The identity is
// written to the repository config so later commits keep it.
func (r *Runner) Commit(ctx context.Context, message, name, email string) error {
	if err := r.run(ctx, "config", "user.name", name); err != nil {
		return err
	}
	if err := r.run(ctx, "config", "user.email", email); err != nil {
		return err
	}
	return r.run(ctx, "commit", "-m", message)
}

// AddRemote registers a remote
func (r *Runner) AddRemote(ctx context.Context, name, url string) error {
	return r.run(ctx, "remote", "add", name, url)
}

// Push pushes branch to remote and sets upstream
func (r *Runner) Push(ctx context.Context, remote, branch string) error {
	return r.run(ctx, "push", "-u", remote, branch)
}

// PushWithFallback tries each branch in order and returns the one pushed.
// Repositories initialized by older git default to master rather than main.
func (r *Runner) PushWithFallback(ctx context.Context, remote string, branches ...string) (string, error) {
	var errs []error
	for _, branch := range branches {
		err := r.Push(ctx, remote, branch)
		if err == nil {
			return branch, nil
		}
		r.logger.Debugw("Push failed, trying next branch", "branch", branch, "error", err)
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return "", errors.New("no branch to push")
	}
	return "", errors.Join(errs...)
}

// HeadCommit returns the hash HEAD points at
func HeadCommit(dir string) (string, error) {
	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return "", errors.Wrap(err, "failed to open repository")
	}
	ref, err := repo.Head()
	if err != nil {
		return "", errors.Wrap(err, "failed to resolve HEAD")
	}
	return ref.Hash().String(), nil
}
