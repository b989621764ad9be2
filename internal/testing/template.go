package testing

import (
	"os"
	"path/filepath"
	"testing"
)

// TemplateFiles are the template files generation edits, plus enough
// untouched files to check that everything else is left alone
var TemplateFiles = []string{
	"go.mod",
	"Makefile",
	"Dockerfile",
	"config.example.toml",
	"docker-compose.yaml",
	".env.example",
	"run.sh",
	"api/health.go",
	"api/routing.go",
	"cmd/server/main.go",
	"cmd/server/commands.go",
	"config/config.go",
	"config/defaults.go",
	"config/state.go",
	"domain/interfaces/event_producer.go",
	"domain/interfaces/task_repository.go",
	"domain/task/events.go",
	"domain/task/events_test.go",
	"domain/task/task.go",
	"infrastructure/kafka/producer.go",
	"infrastructure/kafka/publisher.go",
	"db/migrations/001_create_tasks.sql",
}

// excludedFiles must never reach a generated project
var excludedFiles = map[string]string{
	".git/HEAD":                   "ref: refs/heads/main\n",
	"bin/server":                  "binary",
	".tmp/scratch":                "tmp",
	".env":                        "JWT_SECRET=local\n",
	"go.sum":                      "github.com/google/uuid v1.6.0 h1:x\n",
	"cmd/gsc/main.go":             "package main\n",
	"internal/cli/generator/x.go": "package generator\n",
}

// CopyTemplate assembles a template tree in a temp dir from the real files
// under repoRoot plus the paths generation must exclude.
func CopyTemplate(t *testing.T, repoRoot string) string {
	t.Helper()
	root := t.TempDir()
	for _, rel := range TemplateFiles {
		raw, err := os.ReadFile(filepath.Join(repoRoot, filepath.FromSlash(rel)))
		if err != nil {
			t.Fatalf("Failed to read template file %s: %v", rel, err)
		}
		writeFile(t, root, rel, raw)
	}
	for rel, content := range excludedFiles {
		writeFile(t, root, rel, []byte(content))
	}
	return root
}

func writeFile(t *testing.T, root, rel string, content []byte) {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("Failed to create %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}
