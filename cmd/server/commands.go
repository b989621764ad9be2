package main

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/servicekit/go-service-template/auth"
	"github.com/servicekit/go-service-template/config"
	"github.com/servicekit/go-service-template/db"
	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/logger"
	"github.com/servicekit/go-service-template/version"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply pending database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath, envPrefix)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}

		conn, err := db.OpenWithMigrations(cfg.Database.Path, logger.ComponentLogger("db"))
		if err != nil {
			return err
		}
		defer conn.Close()

		applied, err := db.AppliedVersions(conn)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Database %s is at migration %d\n", cfg.Database.Path, len(applied))
		for _, v := range applied {
			fmt.Fprintf(cmd.OutOrStdout(), "  %s\n", v)
		}
		return nil
	},
}

var tokenCmd = &cobra.Command{
	Use:   "token",
	Short: "Issue a signed JWT for local development",
	Long: `Issue a signed JWT using the configured secret, issuer and audience.

The subject becomes the owner of tasks created with the token when it is a UUID.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		subject, _ := cmd.Flags().GetString("subject")
		email, _ := cmd.Flags().GetString("email")
		ttl, _ := cmd.Flags().GetDuration("ttl")

		cfg, err := config.Load(configPath, envPrefix)
		if err != nil {
			return errors.Wrap(err, "failed to load configuration")
		}
		manager, err := auth.NewJWTManager(cfg.Auth)
		if err != nil {
			return errors.WithHint(err, "set auth.jwt_secret or JWT_SECRET")
		}

		if subject == "" {
			subject = uuid.NewString()
		}
		token, err := manager.GenerateToken(subject, email, ttl)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), token)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		info := version.Get()

		if jsonOutput {
			output, err := json.MarshalIndent(info, "", "  ")
			if err != nil {
				fmt.Fprintf(cmd.ErrOrStderr(), "Error formatting JSON: %v\n", err)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(output))
			return
		}
		fmt.Fprintln(cmd.OutOrStdout(), info.String(serviceName))
		fmt.Fprintf(cmd.OutOrStdout(), "Platform: %s\n", info.Platform)
		fmt.Fprintf(cmd.OutOrStdout(), "Go: %s\n", info.GoVersion)
	},
}

func init() {
	tokenCmd.Flags().String("subject", "", "Token subject (defaults to a new UUID)")
	tokenCmd.Flags().String("email", "", "Email claim")
	tokenCmd.Flags().Duration("ttl", 24*time.Hour, "Token lifetime")

	versionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}
