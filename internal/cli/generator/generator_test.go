package generator

import (
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"golang.org/x/mod/modfile"

	"github.com/servicekit/go-service-template/errors"
	gsttest "github.com/servicekit/go-service-template/internal/testing"
)

// repoRoot is the template root relative to this package
const repoRoot = "../../.."

// newTemplate assembles a template tree from the real files
func newTemplate(t *testing.T) string {
	return gsttest.CopyTemplate(t, repoRoot)
}

func generate(t *testing.T, src string, id Identity, withoutKafka bool) (string, error) {
	t.Helper()
	target := filepath.Join(t.TempDir(), id.Name)
	err := Generate(context.Background(), Options{
		Source:       src,
		Target:       target,
		Identity:     id,
		WithoutKafka: withoutKafka,
		Logger:       zaptest.NewLogger(t).Sugar(),
	})
	return target, err
}

func mustIdentity(t *testing.T, name, module string) Identity {
	t.Helper()
	id, err := NewIdentity(name, module)
	require.NoError(t, err)
	return id
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	raw, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err, rel)
	return string(raw)
}

func TestGenerateWithoutKafka(t *testing.T) {
	src := newTemplate(t)
	id := mustIdentity(t, "billing-service", "github.com/acme/billing-service")

	target, err := generate(t, src, id, true)
	require.NoError(t, err)

	t.Run("feature files removed", func(t *testing.T) {
		for _, rel := range kafkaFiles {
			assert.NoFileExists(t, filepath.Join(target, rel))
			assert.NoDirExists(t, filepath.Join(target, rel))
		}
	})

	t.Run("no marker survives", func(t *testing.T) {
		err := filepath.WalkDir(target, func(path string, d fs.DirEntry, err error) error {
			require.NoError(t, err)
			if d.IsDir() {
				return nil
			}
			raw, err := os.ReadFile(path)
			require.NoError(t, err)
			for _, marker := range kafkaMarkers {
				assert.NotContains(t, string(raw), marker, path)
			}
			return nil
		})
		require.NoError(t, err)
	})

	t.Run("config keeps other sections", func(t *testing.T) {
		cfg := readFile(t, target, "config/config.go")
		assert.Contains(t, cfg, "type CORSConfig struct")
		assert.Contains(t, cfg, "type AuthConfig struct")
		assert.Contains(t, cfg, "func (c CORSConfig) MaxAge() time.Duration")
		assert.NotContains(t, cfg, "+optional")
		require.NoError(t, Validate("config.go", []byte(cfg)))

		defaults := readFile(t, target, "config/defaults.go")
		assert.NotContains(t, defaults, `"kafka.`)
		assert.Contains(t, defaults, `"cors.allowed_origins"`)
	})

	t.Run("entry point drops the producer", func(t *testing.T) {
		main := readFile(t, target, "cmd/server/main.go")
		assert.NotContains(t, main, "Initializing Kafka event producer")
		assert.NotContains(t, main, "infrastructure/kafka")
		assert.Contains(t, main, "state := &config.AppState{")
		assert.Contains(t, main, "health.CheckReadiness(ctx, state.TaskRepository); err != nil {")
		assert.Contains(t, main, `const serviceName = "billing_service"`)

		formatted, err := Format("main.go", []byte(main))
		require.NoError(t, err)
		assert.Equal(t, string(formatted), main, "stripped Go files are gofmt clean")
	})

	t.Run("readiness narrowed", func(t *testing.T) {
		assert.Contains(t, readFile(t, target, "api/health.go"), "health.CheckReadiness(ctx, s.state.TaskRepository); err != nil {")
	})

	t.Run("module renamed and kafka-go dropped", func(t *testing.T) {
		raw := readFile(t, target, "go.mod")
		f, err := modfile.Parse("go.mod", []byte(raw), nil)
		require.NoError(t, err)
		assert.Equal(t, "github.com/acme/billing-service", f.Module.Mod.Path)
		for _, req := range f.Require {
			assert.NotEqual(t, "github.com/segmentio/kafka-go", req.Mod.Path)
		}
		assert.Equal(t, 1, strings.Count(raw, "github.com/acme/billing-service"))
	})

	t.Run("deployment files", func(t *testing.T) {
		assert.NotContains(t, readFile(t, target, ".env.example"), "KAFKA")
		assert.NotContains(t, readFile(t, target, "run.sh"), "KAFKA")
		assert.NotContains(t, readFile(t, target, "config.example.toml"), "[kafka]")

		compose := readFile(t, target, "docker-compose.yaml")
		services, err := composeServices([]byte(compose))
		require.NoError(t, err)
		assert.Contains(t, services, "app")
		for _, name := range kafkaComposeServices {
			assert.NotContains(t, services, name)
		}
		assert.Contains(t, compose, "billing_service:latest")
	})

	t.Run("run.sh stays executable", func(t *testing.T) {
		info, err := os.Stat(filepath.Join(target, "run.sh"))
		require.NoError(t, err)
		srcInfo, err := os.Stat(filepath.Join(src, "run.sh"))
		require.NoError(t, err)
		assert.Equal(t, srcInfo.Mode().Perm(), info.Mode().Perm())
	})
}

// rewriteExpected applies the edits generation makes with Kafka kept
func rewriteExpected(rel, content string, id Identity) string {
	content = strings.ReplaceAll(content, TemplateModulePath, id.ModulePath)
	switch rel {
	case "cmd/server/main.go":
		content = strings.ReplaceAll(content, TemplateIdentifier, id.Identifier)
	case "docker-compose.yaml":
		content = strings.ReplaceAll(content, TemplateIdentifier, id.ImageName)
	case "Makefile":
		content = strings.ReplaceAll(content, TemplateIdentifier, id.ImageName)
		content = strings.Replace(content, gscMakeTarget, "", 1)
	case "Dockerfile":
		content, _ = LineFilter{Markers: []string{"./cmd/gsc"}}.Apply(content)
	}
	return content
}

func TestGenerateImageNames(t *testing.T) {
	src := newTemplate(t)
	id := mustIdentity(t, "Foo_Bar", "example.com/foo")

	target, err := generate(t, src, id, false)
	require.NoError(t, err)

	assert.Contains(t, readFile(t, target, "docker-compose.yaml"), "image: foo_bar:latest")
	assert.Contains(t, readFile(t, target, "Makefile"), "docker build -t foo_bar:")
	assert.Contains(t, readFile(t, target, "cmd/server/main.go"), `const serviceName = "Foo_Bar"`)
}

func TestGenerateWithKafkaPreservesTemplate(t *testing.T) {
	src := newTemplate(t)
	id := mustIdentity(t, "orders", "example.com/orders")

	target, err := generate(t, src, id, false)
	require.NoError(t, err)

	for _, rel := range gsttest.TemplateFiles {
		t.Run(rel, func(t *testing.T) {
			want := rewriteExpected(rel, readFile(t, src, rel), id)
			assert.Equal(t, want, readFile(t, target, rel))
		})
	}

	for _, rel := range []string{".git", "bin", ".tmp", ".env", "go.sum", "cmd/gsc", "internal/cli"} {
		_, err := os.Lstat(filepath.Join(target, rel))
		assert.True(t, os.IsNotExist(err), "%s must not be generated", rel)
	}

	assert.NotContains(t, readFile(t, target, "Makefile"), "cmd/gsc")
	assert.NotContains(t, readFile(t, target, "Dockerfile"), "cmd/gsc")
}

func TestGenerateRefusals(t *testing.T) {
	src := newTemplate(t)

	t.Run("existing output directory is untouched", func(t *testing.T) {
		target := t.TempDir()
		writeFiles(t, target, map[string]string{"keep.txt": "mine"})

		err := Generate(context.Background(), Options{
			Source:   src,
			Target:   target,
			Identity: mustIdentity(t, "svc", ""),
		})
		require.Error(t, err)
		assert.True(t, errors.Is(err, errors.ErrConflict))

		entries, err := os.ReadDir(target)
		require.NoError(t, err)
		require.Len(t, entries, 1)
		assert.Equal(t, "mine", readFile(t, target, "keep.txt"))
	})

	t.Run("forbidden name writes nothing", func(t *testing.T) {
		parent := t.TempDir()
		err := Generate(context.Background(), Options{
			Source:   src,
			Target:   filepath.Join(parent, "svc"),
			Identity: Identity{Name: "bad|name", Identifier: "bad|name", ModulePath: "svc"},
		})
		require.Error(t, err)

		entries, err := os.ReadDir(parent)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("marker drift fails and cleans up staging", func(t *testing.T) {
		drifted := newTemplate(t)
		cfgPath := filepath.Join(drifted, "config", "config.go")
		raw, err := os.ReadFile(cfgPath)
		require.NoError(t, err)
		broken := strings.Replace(string(raw), "// CORSConfig configures cross-origin access to the API", "// CORSConfig holds CORS settings", 1)
		require.NoError(t, os.WriteFile(cfgPath, []byte(broken), 0644))

		parent := t.TempDir()
		err = Generate(context.Background(), Options{
			Source:       drifted,
			Target:       filepath.Join(parent, "svc"),
			Identity:     mustIdentity(t, "svc", ""),
			WithoutKafka: true,
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "strip-kafka-config")

		entries, err := os.ReadDir(parent)
		require.NoError(t, err)
		assert.Empty(t, entries, "staging directory must be removed")
	})

	t.Run("cancelled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		parent := t.TempDir()
		err := Generate(ctx, Options{
			Source:   src,
			Target:   filepath.Join(parent, "svc"),
			Identity: mustIdentity(t, "svc", ""),
		})
		assert.ErrorIs(t, err, context.Canceled)
		_, statErr := os.Stat(filepath.Join(parent, "svc"))
		assert.True(t, os.IsNotExist(statErr))
	})
}

func TestGenerateIntoNestedTarget(t *testing.T) {
	src := newTemplate(t)
	target := filepath.Join(src, "generated", "svc")

	err := Generate(context.Background(), Options{
		Source:   src,
		Target:   target,
		Identity: mustIdentity(t, "svc", ""),
		Logger:   zaptest.NewLogger(t).Sugar(),
	})
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(target, "go.mod"))
	assert.NoDirExists(t, filepath.Join(target, "generated"))
}

func TestPlanOrder(t *testing.T) {
	id := mustIdentity(t, "svc", "")
	names := func(steps []Step) []string {
		var out []string
		for _, s := range steps {
			assert.NotEmpty(t, s.Pre, s.Name)
			assert.NotEmpty(t, s.Post, s.Name)
			out = append(out, s.Name)
		}
		return out
	}

	assert.Equal(t, []string{"strip-generator-registration", "rewrite-identity"}, names(Plan(id, false)))
	assert.Equal(t, []string{
		"strip-generator-registration",
		"remove-kafka-files",
		"strip-kafka-module",
		"strip-kafka-config",
		"narrow-readiness-checks",
		"strip-kafka-bootstrap",
		"strip-kafka-deployment",
		"verify-kafka-absent",
		"rewrite-identity",
	}, names(Plan(id, true)))
}
