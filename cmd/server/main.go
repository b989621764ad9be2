package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/servicekit/go-service-template/api"
	"github.com/servicekit/go-service-template/auth"
	"github.com/servicekit/go-service-template/config"
	"github.com/servicekit/go-service-template/db"
	"github.com/servicekit/go-service-template/domain/health"
	"github.com/servicekit/go-service-template/domain/interfaces"
	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/infrastructure"
	"github.com/servicekit/go-service-template/infrastructure/kafka"
	"github.com/servicekit/go-service-template/logger"
	"github.com/servicekit/go-service-template/version"
)

const serviceName = "go_service_template"

var (
	configPath string
	envPrefix  string
)

var rootCmd = &cobra.Command{
	Use:   serviceName,
	Short: "Task management HTTP service",
	Long: `Task management HTTP service backed by SQLite.

Running without a subcommand starts the server.

Examples:
  ` + serviceName + `                         # Serve using ./config.toml if present
  ` + serviceName + ` --config prod.toml      # Serve with an explicit config file
  ` + serviceName + ` migrate                 # Apply database migrations and exit
  ` + serviceName + ` token --subject <uuid>  # Issue a development JWT`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(false); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		return nil
	},
	RunE: runServe,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Path to the TOML config file")
	rootCmd.PersistentFlags().StringVar(&envPrefix, "env-prefix", config.DefaultEnvPrefix, "Prefix for environment overrides")

	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(tokenCmd)
	rootCmd.AddCommand(versionCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath, envPrefix)
	if err != nil {
		return errors.Wrap(err, "failed to load configuration")
	}
	if cfg.Log.JSON {
		if err := logger.Initialize(true); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}
	}
	if err := logger.SetLevel(cfg.Log.Level); err != nil {
		return err
	}
	defer logger.Cleanup()

	log := logger.ComponentLogger(serviceName)

	conn, err := db.OpenWithMigrations(cfg.Database.Path, log.Named("db"))
	if err != nil {
		return err
	}
	defer conn.Close()

	var repo interfaces.TaskRepository = infrastructure.NewSQLiteTaskRepository(conn, log.Named("repository"))

	logger.Infow("Initializing Kafka event producer", "enabled", cfg.Kafka.Enabled)
	var producer interfaces.EventProducer
	if cfg.Kafka.Enabled {
		p, err := kafka.NewProducer(cfg.Kafka, log.Named("kafka"))
		if err != nil {
			return errors.Wrap(err, "failed to create kafka producer")
		}
		defer p.Close()
		producer = p
		repo = kafka.NewPublishingRepository(repo, p, serviceName, log.Named("events"))
	}

	state := &config.AppState{
		Config:         cfg,
		TaskRepository: repo,
		EventProducer:  producer,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := health.CheckReadiness(ctx, state.TaskRepository, state.EventProducer); err != nil {
		logger.Warnw("Dependencies not ready at startup", "error", err)
	}

	var jwt *auth.JWTManager
	if cfg.Auth.Enabled {
		if jwt, err = auth.NewJWTManager(cfg.Auth); err != nil {
			return err
		}
	} else {
		logger.Warnw("Authentication is disabled, task endpoints are open")
	}

	srv := api.NewServer(state, jwt, log.Named("api"))

	if path := config.ResolvePath(configPath); path != "" {
		watcher, err := config.NewWatcher(path, envPrefix, log.Named("config"))
		if err != nil {
			logger.Warnw("Config hot reload unavailable", "error", err)
		} else {
			watcher.OnReload(func(next *config.Config) error {
				srv.ApplyConfig(next)
				return logger.SetLevel(next.Log.Level)
			})
			watcher.Start()
			defer watcher.Stop()
		}
	}

	logger.Infow("Starting server",
		"service", serviceName,
		"address", cfg.Server.Address(),
		"version", version.Get().Short(),
		"auth", cfg.Auth.Enabled,
	)
	return srv.ListenAndServe(ctx)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
