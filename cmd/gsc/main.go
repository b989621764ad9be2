package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/internal/cli/commands"
	"github.com/servicekit/go-service-template/logger"
)

var rootCmd = &cobra.Command{
	Use:   "gsc",
	Short: "Create Go services from the service template",
	Long: `gsc generates new services from go-service-template.

Available commands:
  create   - Create a GitHub repository and push a new service to it
  scaffold - Generate a new service into a local directory
  version  - Show build information

Examples:
  gsc scaffold billing                           # Generate ./billing
  gsc scaffold billing --without-kafka           # Generate without the Kafka integration
  gsc create billing --github-user octocat       # Create github.com/octocat/billing`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := logger.Initialize(false); err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		verbosity, _ := cmd.Flags().GetCount("verbose")
		logger.SetVerbosity(verbosity)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")

	rootCmd.AddCommand(commands.CreateCmd)
	rootCmd.AddCommand(commands.ScaffoldCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	logger.Cleanup()
	if err != nil {
		pterm.Error.Println(err.Error())
		for _, hint := range errors.GetAllHints(err) {
			pterm.Info.Println(hint)
		}
		stop()
		os.Exit(1)
	}
}
