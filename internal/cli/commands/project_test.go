package commands

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/servicekit/go-service-template/errors"
)

func TestCommitMessage(t *testing.T) {
	assert.Equal(t, "feat: initial commit with Kafka support", commitMessage("commit", false))
	assert.Equal(t, "feat: initial commit without Kafka support", commitMessage("commit", true))
	assert.Equal(t, "feat: initial scaffold with Kafka support", commitMessage("scaffold", false))
	assert.Equal(t, "feat: initial scaffold without Kafka support", commitMessage("scaffold", true))
}

func TestResolveOutputPath(t *testing.T) {
	cwd := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, "services"), 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(cwd, "taken"), 0755))
	outside := t.TempDir()
	require.NoError(t, os.Symlink(outside, filepath.Join(cwd, "link")))

	t.Run("defaults to name", func(t *testing.T) {
		got, err := resolveOutputPath(cwd, "", "billing")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "billing"), got)
	})

	t.Run("nested relative path", func(t *testing.T) {
		got, err := resolveOutputPath(cwd, "services/billing", "billing")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "services", "billing"), got)
	})

	t.Run("absolute path inside", func(t *testing.T) {
		got, err := resolveOutputPath(cwd, filepath.Join(cwd, "a", "b"), "billing")
		require.NoError(t, err)
		assert.Equal(t, filepath.Join(cwd, "a", "b"), got)
	})

	escapes := map[string]string{
		"parent":          "../escape",
		"absolute":        filepath.Join(outside, "svc"),
		"current":         ".",
		"dotdot in path":  "services/../../escape",
		"through symlink": "link/svc",
	}
	for name, output := range escapes {
		t.Run(name, func(t *testing.T) {
			_, err := resolveOutputPath(cwd, output, "billing")
			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrInvalidRequest), "%v", err)
		})
	}

	t.Run("existing directory", func(t *testing.T) {
		_, err := resolveOutputPath(cwd, "taken", "billing")
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConflict))
	})
}

func TestCanonical(t *testing.T) {
	dir := t.TempDir()
	real, err := filepath.EvalSymlinks(dir)
	require.NoError(t, err)

	got, err := canonical(filepath.Join(dir, "missing", "deeper"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(real, "missing", "deeper"), got)
}
