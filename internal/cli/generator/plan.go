package generator

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/servicekit/go-service-template/errors"
)

// Step is one named stage of generation. Pre and Post state what the step
// expects of the workspace and what it guarantees afterwards; steps rely
// on their predecessors' postconditions, so order is significant.
type Step struct {
	Name string
	Pre  string
	Post string
	Run  func(w *Workspace) error
}

// Paths and markers of the optional Kafka event integration
var (
	kafkaFiles = []string{
		"infrastructure/kafka",
		"domain/interfaces/event_producer.go",
		"domain/task/events.go",
		"domain/task/events_test.go",
	}

	// kafkaMarkers must not survive anywhere in a project generated without Kafka
	kafkaMarkers = []string{"segmentio/kafka-go", "KafkaConfig", "EventProducer"}

	kafkaComposeServices = []string{"zookeeper", "kafka", "kafka-ui"}

	configBlock = BlockSkip{
		Start:      "// KafkaConfig configures the task event producer",
		Terminator: "// CORSConfig configures cross-origin access to the API",
		MinBlocks:  2,
		Field:      "Kafka KafkaConfig",
		Annotation: "// +optional",
	}

	readinessCallSites = map[string]ExactLineReplace{
		"api/health.go": {
			Old: "\tif err := health.CheckReadiness(ctx, s.state.TaskRepository, s.state.EventProducer); err != nil {",
			New: "\tif err := health.CheckReadiness(ctx, s.state.TaskRepository); err != nil {",
		},
		"cmd/server/main.go": {
			Old: "\tif err := health.CheckReadiness(ctx, state.TaskRepository, state.EventProducer); err != nil {",
			New: "\tif err := health.CheckReadiness(ctx, state.TaskRepository); err != nil {",
		},
	}

	entryPointBootstrap = SpanSkip{
		Start: `logger.Infow("Initializing Kafka event producer"`,
		End:   "state := &config.AppState{",
	}
)

// gscMakeTarget is the Makefile rule building the generator, which
// generated projects do not ship
const gscMakeTarget = "\n.PHONY: gsc\ngsc: ## Build the project generator CLI\n\tgo build -o bin/gsc ./cmd/gsc\n"

// entryPoint holds the service identifier that identity rewriting renames
const entryPoint = "cmd/server/main.go"

// Plan returns the ordered edit steps run after the template is copied
func Plan(id Identity, withoutKafka bool) []Step {
	steps := []Step{
		{
			Name: "strip-generator-registration",
			Pre:  "template copied without cmd/gsc or internal/cli",
			Post: "no build file references ./cmd/gsc",
			Run: func(w *Workspace) error {
				return w.EditIfExists("Dockerfile", LineFilter{Markers: []string{"./cmd/gsc"}})
			},
		},
	}

	if withoutKafka {
		steps = append(steps, kafkaSteps()...)
	}

	return append(steps, Step{
		Name: "rewrite-identity",
		Pre:  "go.mod declares the template module path; feature edits are complete",
		Post: "module path and service identifier name the new project; Makefile has no gsc target",
		Run:  func(w *Workspace) error { return rewriteIdentity(w, id) },
	})
}

func kafkaSteps() []Step {
	return []Step{
		{
			Name: "remove-kafka-files",
			Pre:  "template copied",
			Post: "producer package, EventProducer interface and task events are gone",
			Run: func(w *Workspace) error {
				for _, rel := range kafkaFiles {
					if err := w.Remove(rel); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name: "strip-kafka-module",
			Pre:  "go.mod requires segmentio/kafka-go",
			Post: "go.mod no longer requires kafka-go",
			Run: func(w *Workspace) error {
				return w.Edit("go.mod", LineFilter{Markers: []string{"segmentio/kafka-go"}})
			},
		},
		{
			Name: "strip-kafka-config",
			Pre:  "config package declares KafkaConfig, its defaults and the AppState producer field",
			Post: "config package has no Kafka settings and AppState has no producer",
			Run: func(w *Workspace) error {
				if err := w.EditGo("config/config.go", configBlock); err != nil {
					return err
				}
				if err := w.EditGo("config/defaults.go", LineFilter{Markers: []string{`"kafka.`}}); err != nil {
					return err
				}
				return w.EditGo("config/state.go", LineFilter{Markers: []string{"EventProducer"}})
			},
		},
		{
			Name: "narrow-readiness-checks",
			Pre:  "AppState producer field removed",
			Post: "readiness checks only the task repository",
			Run: func(w *Workspace) error {
				files := make([]string, 0, len(readinessCallSites))
				for rel := range readinessCallSites {
					files = append(files, rel)
				}
				sort.Strings(files)
				for _, rel := range files {
					if err := w.EditGo(rel, readinessCallSites[rel]); err != nil {
						return err
					}
				}
				return nil
			},
		},
		{
			Name: "strip-kafka-bootstrap",
			Pre:  "readiness call in the entry point narrowed",
			Post: "entry point neither imports nor constructs the producer",
			Run: func(w *Workspace) error {
				return w.EditGo(entryPoint,
					LineFilter{Markers: []string{`infrastructure/kafka"`}},
					entryPointBootstrap,
					LineFilter{Markers: []string{"EventProducer:"}},
				)
			},
		},
		{
			Name: "strip-kafka-deployment",
			Pre:  "template copied",
			Post: "env files, example config and compose file carry no Kafka settings or services",
			Run:  stripKafkaDeployment,
		},
		{
			Name: "verify-kafka-absent",
			Pre:  "all Kafka edits applied",
			Post: "no generated file mentions a Kafka marker",
			Run: func(w *Workspace) error {
				hits, err := w.grep(kafkaMarkers...)
				if err != nil {
					return err
				}
				if len(hits) > 0 {
					return errors.WithHint(
						errors.Newf("kafka references remain in %s", strings.Join(hits, ", ")),
						"a file outside the feature references the producer; add it to the strip plan",
					)
				}
				return nil
			},
		},
	}
}

func stripKafkaDeployment(w *Workspace) error {
	dropKafkaVars := LineFilter{Markers: []string{"KAFKA"}}

	if err := w.EditIfExists(".env.example", dropKafkaVars); err != nil {
		return err
	}
	if err := w.EditIfExists("run.sh", dropKafkaVars); err != nil {
		return err
	}
	if err := w.EditIfExists("config.example.toml", TOMLSectionRemove{Table: "kafka"}); err != nil {
		return err
	}

	const compose = "docker-compose.yaml"
	if !w.Exists(compose) {
		return nil
	}
	if err := w.Edit(compose, YAMLServiceRemove{Services: kafkaComposeServices}, dropKafkaVars); err != nil {
		return err
	}

	raw, err := os.ReadFile(filepath.Join(w.Root, compose))
	if err != nil {
		return errors.Wrapf(err, "failed to read %s", compose)
	}
	services, err := composeServices(raw)
	if err != nil {
		return errors.Wrapf(err, "%s is not valid YAML", compose)
	}
	for name, deps := range services {
		for _, dep := range deps {
			if _, ok := services[dep]; !ok {
				return errors.Newf("%s: service %q depends on removed service %q", compose, name, dep)
			}
		}
	}
	return nil
}

func rewriteIdentity(w *Workspace, id Identity) error {
	if id.ModulePath != TemplateModulePath {
		if err := w.Edit("go.mod", ReplaceFirst{
			Old: "module " + TemplateModulePath,
			New: "module " + id.ModulePath,
		}); err != nil {
			return err
		}

		files, err := w.TextFiles()
		if err != nil {
			return err
		}
		for _, rel := range files {
			if rel == "go.mod" {
				continue
			}
			if err := w.Edit(rel, ReplaceAll{Old: TemplateModulePath, New: id.ModulePath}); err != nil {
				return err
			}
		}
	}

	if err := w.Edit(entryPoint, ReplaceAll{Old: TemplateIdentifier, New: id.Identifier}); err != nil {
		return err
	}
	image := ReplaceAll{Old: TemplateIdentifier, New: id.ImageName}
	for _, rel := range []string{"Makefile", "docker-compose.yaml"} {
		if err := w.EditIfExists(rel, image); err != nil {
			return err
		}
	}
	return w.EditIfExists("Makefile", LiteralRemove{Literal: gscMakeTarget})
}
