package commands

import (
	"context"
	"os"
	"path/filepath"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/servicekit/go-service-template/errors"
	"github.com/servicekit/go-service-template/internal/cli/generator"
	"github.com/servicekit/go-service-template/internal/cli/git"
	"github.com/servicekit/go-service-template/logger"
)

// ScaffoldCmd generates a service into a local directory
var ScaffoldCmd = &cobra.Command{
	Use:   "scaffold <name>",
	Short: "Scaffold a new service locally",
	Long: `Generate a new service into a local directory and record an initial commit.
No remote repository is created.

The output directory defaults to ./<name>. It must be inside the current
directory and must not exist.

Examples:
  gsc scaffold billing
  gsc scaffold billing --output services/billing --without-kafka
  gsc scaffold billing --module github.com/acme/billing`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := scaffoldOptions{projectOptions: projectOptionsFromFlags(cmd, args[0])}
		opts.output, _ = cmd.Flags().GetString("output")
		return runScaffold(cmd.Context(), opts)
	},
}

func init() {
	ScaffoldCmd.Flags().StringP("output", "o", "", "Output directory (default ./<name>)")
	addProjectFlags(ScaffoldCmd)
}

type scaffoldOptions struct {
	projectOptions
	output string
}

func runScaffold(ctx context.Context, opts scaffoldOptions) error {
	log := logger.ComponentLogger("scaffold")

	id, err := generator.NewIdentity(opts.name, opts.modulePath)
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return errors.Wrap(err, "failed to get current directory")
	}
	target, err := resolveOutputPath(cwd, opts.output, id.Name)
	if err != nil {
		return err
	}

	pterm.Info.Printfln("Scaffolding service '%s'", id.Name)
	if err := generateProject(ctx, opts.projectOptions, id, target, log); err != nil {
		return err
	}

	runner := git.NewRunner(target, log.Named("git"))
	if err := commitProject(ctx, runner, commitMessage("scaffold", opts.withoutKafka)); err != nil {
		return err
	}
	if head, err := git.HeadCommit(target); err == nil {
		log.Infow("Initial commit recorded", "commit", head)
	}

	pterm.Println()
	pterm.Success.Println("Service scaffolded locally")
	pterm.Printfln("  Location: %s", target)
	pterm.Println()
	pterm.Info.Println("Next steps:")
	if rel, err := filepath.Rel(cwd, target); err == nil {
		pterm.Printfln("  cd %s", rel)
	}
	pterm.Println("  go mod tidy")
	pterm.Println("  docker compose up -d")
	pterm.Println("  make run")
	if opts.withoutKafka {
		pterm.Println()
		pterm.Info.Println("Kafka support has been excluded from this service")
	}
	return nil
}
