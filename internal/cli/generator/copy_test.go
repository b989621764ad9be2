package generator

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, root string, files map[string]string) {
	t.Helper()
	for rel, content := range files {
		path := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func TestCopyTreeExclusions(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{
		"go.mod":                      "module x\n",
		"go.sum":                      "sum\n",
		".env":                        "SECRET=1\n",
		".env.example":                "SECRET=\n",
		".git/HEAD":                   "ref: refs/heads/main\n",
		"bin/server":                  "binary",
		".tmp/scratch":                "tmp",
		"internal/cli/generator/a.go": "package generator\n",
		"internal/clients/b.go":       "package clients\n",
		"cmd/gsc/main.go":             "package main\n",
		"cmd/server/main.go":          "package main\n",
		"binary/keep.txt":             "kept",
	})
	require.NoError(t, os.Chmod(filepath.Join(src, "go.mod"), 0755))

	dst := t.TempDir()
	require.NoError(t, CopyTree(src, dst, DefaultExclusions))

	for _, rel := range []string{"go.sum", ".env", ".git", "bin", ".tmp", "internal/cli", "cmd/gsc"} {
		assert.NoFileExists(t, filepath.Join(dst, rel))
		assert.NoDirExists(t, filepath.Join(dst, rel))
	}
	for _, rel := range []string{"go.mod", ".env.example", "internal/clients/b.go", "cmd/server/main.go", "binary/keep.txt"} {
		assert.FileExists(t, filepath.Join(dst, rel))
	}

	info, err := os.Stat(filepath.Join(dst, "go.mod"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestCopyTreeGuardsNestedTarget(t *testing.T) {
	src := t.TempDir()
	writeFiles(t, src, map[string]string{"a.txt": "a"})

	// Target nested in the source must not be walked into
	dst := filepath.Join(src, "out")
	writeFiles(t, dst, map[string]string{"stale.txt": "stale"})
	require.NoError(t, CopyTree(src, dst, DefaultExclusions, dst))

	assert.FileExists(t, filepath.Join(dst, "a.txt"))
	assert.NoDirExists(t, filepath.Join(dst, "out"))
}

func TestExcluded(t *testing.T) {
	assert.True(t, excluded(".git", true, DefaultExclusions))
	assert.True(t, excluded(".git/objects/ab", false, DefaultExclusions))
	assert.False(t, excluded(".github/workflows/ci.yml", false, DefaultExclusions))
	assert.False(t, excluded("go.sum", true, DefaultExclusions), "file rules do not match directories")
	assert.True(t, excluded("go.sum", false, DefaultExclusions))
}

func TestLoadExclusions(t *testing.T) {
	t.Run("no ignore file", func(t *testing.T) {
		rules, err := LoadExclusions(t.TempDir())
		require.NoError(t, err)
		assert.True(t, excluded(IgnoreFile, false, rules))
		assert.Len(t, rules, len(DefaultExclusions)+1)
	})

	t.Run("entries", func(t *testing.T) {
		src := t.TempDir()
		writeFiles(t, src, map[string]string{
			IgnoreFile: "# design notes\nnotes/\n\nTODO.md\n./scratch/\n",
		})
		rules, err := LoadExclusions(src)
		require.NoError(t, err)

		assert.True(t, excluded("notes", true, rules))
		assert.True(t, excluded("notes/a.md", false, rules))
		assert.True(t, excluded("TODO.md", false, rules))
		assert.True(t, excluded("scratch/x", false, rules))
		assert.False(t, excluded("README.md", false, rules))
		assert.True(t, excluded(".git", true, rules))
	})

	t.Run("escaping entry", func(t *testing.T) {
		src := t.TempDir()
		writeFiles(t, src, map[string]string{IgnoreFile: "../outside\n"})
		_, err := LoadExclusions(src)
		assert.Error(t, err)
	})
}

func TestGenerateHonorsIgnoreFile(t *testing.T) {
	src := newTemplate(t)
	writeFiles(t, src, map[string]string{
		IgnoreFile:       "notes/\n",
		"notes/plan.md":  "mentions KafkaConfig and EventProducer\n",
		"docs/README.md": "kept\n",
	})

	target, err := generate(t, src, mustIdentity(t, "svc", ""), true)
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(target, "notes"))
	assert.NoFileExists(t, filepath.Join(target, IgnoreFile))
	assert.FileExists(t, filepath.Join(target, "docs", "README.md"))
}
