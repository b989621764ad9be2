package git

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func requireGit(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
}

func TestRunnerCommitAndPush(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	log := zaptest.NewLogger(t).Sugar()

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "README.md"), []byte("# svc\n"), 0644))

	r := NewRunner(dir, log)
	require.NoError(t, r.Init(ctx))
	require.NoError(t, r.AddAll(ctx))
	require.NoError(t, r.Commit(ctx, "feat: initial scaffold", "Go Service CLI", "cli@localhost"))

	head, err := HeadCommit(dir)
	require.NoError(t, err)
	assert.Len(t, head, 40)

	remote := t.TempDir()
	require.NoError(t, NewRunner(remote, log).run(ctx, "init", "--bare"))
	require.NoError(t, r.AddRemote(ctx, "origin", remote))

	branch, err := r.PushWithFallback(ctx, "origin", "no-such-branch", "main", "master")
	require.NoError(t, err)
	assert.Contains(t, []string{"main", "master"}, branch)
}

func TestRunnerErrors(t *testing.T) {
	requireGit(t)
	ctx := context.Background()
	r := NewRunner(t.TempDir(), zaptest.NewLogger(t).Sugar())
	require.NoError(t, r.Init(ctx))

	err := r.Push(ctx, "origin", "main")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "git push failed: ")

	_, err = r.PushWithFallback(ctx, "origin", "main", "master")
	assert.Error(t, err)

	_, err = r.PushWithFallback(ctx, "origin")
	assert.EqualError(t, err, "no branch to push")
}

func TestHeadCommitOutsideRepository(t *testing.T) {
	_, err := HeadCommit(t.TempDir())
	assert.Error(t, err)
}
