package template

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/internal/cli/generator"
)

func writeModule(t *testing.T, dir, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "go.mod"), []byte("module "+path+"\n\ngo 1.24\n"), 0o644))
}

func TestResolveLocalDirectory(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	dir := t.TempDir()
	writeModule(t, dir, generator.TemplateModulePath)

	src, err := Resolve(context.Background(), dir, log)
	require.NoError(t, err)
	defer src.Cleanup()

	assert.Equal(t, filepath.Clean(dir), src.Dir)
	assert.False(t, src.Fetched)
	assert.True(t, IsTemplate(src.Dir))
}

func TestResolveRelativeDirectory(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	root := t.TempDir()
	writeModule(t, filepath.Join(root, "tmpl"), generator.TemplateModulePath)
	t.Chdir(root)

	for _, input := range []string{"./tmpl", "tmpl"} {
		t.Run(input, func(t *testing.T) {
			src, err := Resolve(context.Background(), input, log)
			require.NoError(t, err)
			assert.Equal(t, "tmpl", filepath.Base(src.Dir))
			assert.True(t, filepath.IsAbs(src.Dir))
		})
	}
}

func TestResolveEmptyUsesWorkingTemplate(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	root := t.TempDir()
	writeModule(t, root, generator.TemplateModulePath)
	t.Chdir(root)

	src, err := Resolve(context.Background(), "", log)
	require.NoError(t, err)
	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, wd, src.Dir)
	assert.False(t, src.Fetched)
}

func TestResolveErrors(t *testing.T) {
	log := zaptest.NewLogger(t).Sugar()
	root := t.TempDir()
	file := filepath.Join(root, "file.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	_, err := Resolve(context.Background(), filepath.Join(root, "missing"), log)
	assert.True(t, errors.Is(err, errors.ErrNotFound))

	_, err = Resolve(context.Background(), file, log)
	assert.True(t, errors.Is(err, errors.ErrInvalidRequest))
}

func TestIsTemplate(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, IsTemplate(dir))

	writeModule(t, dir, "example.com/other")
	assert.False(t, IsTemplate(dir))

	writeModule(t, dir, generator.TemplateModulePath)
	assert.True(t, IsTemplate(dir))
}

func TestCleanupIdempotent(t *testing.T) {
	calls := 0
	src := &Source{cleanup: func() { calls++ }}
	src.Cleanup()
	src.Cleanup()
	assert.Equal(t, 1, calls)
}
