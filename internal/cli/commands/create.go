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
	"github.com/servicekit/go-service-template/internal/cli/github"
	"github.com/servicekit/go-service-template/logger"
)

// pushBranches are tried in order; git versions disagree on the default
var pushBranches = []string{"main", "master"}

// CreateCmd creates a GitHub repository and pushes a generated service to it
var CreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a GitHub repository with a new service",
	Long: `Create a GitHub repository and push a freshly generated service to it.

Requires GITHUB_TOKEN with the repo scope, issued to the --github-user user.
The service is generated into a temporary directory, committed, and pushed
to main (or master).

Examples:
  gsc create billing --github-user octocat
  gsc create billing --github-user acme/octocat --private
  gsc create billing --github-user octocat --without-kafka --description "Billing API"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := createOptions{projectOptions: projectOptionsFromFlags(cmd, args[0])}
		opts.githubUser, _ = cmd.Flags().GetString("github-user")
		opts.private, _ = cmd.Flags().GetBool("private")
		opts.description, _ = cmd.Flags().GetString("description")
		return runCreate(cmd.Context(), opts)
	},
}

func init() {
	CreateCmd.Flags().StringP("github-user", "g", "", "GitHub user, or org/user to create the repository in an organization")
	CreateCmd.Flags().BoolP("private", "p", false, "Create a private repository")
	CreateCmd.Flags().StringP("description", "d", "", "Repository description")
	addProjectFlags(CreateCmd)
	_ = CreateCmd.MarkFlagRequired("github-user")
}

type createOptions struct {
	projectOptions
	githubUser  string
	private     bool
	description string

	// githubOptions configure the API client; tests point it at a fake server
	githubOptions []github.Option
}

func runCreate(ctx context.Context, opts createOptions) error {
	log := logger.ComponentLogger("create")

	token, err := github.TokenFromEnv()
	if err != nil {
		return err
	}
	id, err := generator.NewIdentity(opts.name, opts.modulePath)
	if err != nil {
		return err
	}
	client, err := github.NewClient(token, opts.githubOptions...)
	if err != nil {
		return err
	}

	if err := client.CheckOwner(ctx, opts.githubUser); err != nil {
		return err
	}

	spinner, _ := pterm.DefaultSpinner.Start("Creating GitHub repository '" + opts.name + "'...")
	repo, err := client.CreateRepository(ctx, github.CreateRepoRequest{
		Name:        opts.name,
		Description: opts.description,
		Private:     opts.private,
		Owner:       opts.githubUser,
	})
	if err != nil {
		spinner.Fail("Failed to create GitHub repository")
		return errors.Wrap(err, "failed to create GitHub repository")
	}
	spinner.Success("Created repository: " + repo.HTMLURL)
	log.Infow("Repository created", "full_name", repo.FullName, "private", repo.Private)

	tempDir, err := os.MkdirTemp("", "gsc-create-*")
	if err != nil {
		return errors.Wrap(err, "failed to create temporary directory")
	}
	defer os.RemoveAll(tempDir)
	target := filepath.Join(tempDir, id.Name)

	if err := generateProject(ctx, opts.projectOptions, id, target, log); err != nil {
		return err
	}

	runner := git.NewRunner(target, log.Named("git"))
	if err := commitProject(ctx, runner, commitMessage("commit", opts.withoutKafka)); err != nil {
		return err
	}

	remoteURL := repo.CloneURL
	if remoteURL == "" {
		remoteURL = "https://github.com/" + repo.FullName + ".git"
	}
	if err := runner.AddRemote(ctx, remoteName, remoteURL); err != nil {
		return errors.Wrap(err, "failed to add git remote")
	}

	spinner, _ = pterm.DefaultSpinner.Start("Pushing to GitHub...")
	branch, err := runner.PushWithFallback(ctx, remoteName, pushBranches...)
	if err != nil {
		spinner.Fail("Push failed")
		return errors.WithHint(
			errors.Wrap(err, "failed to push to remote"),
			"check that your git credentials can push to "+remoteURL,
		)
	}
	spinner.Success("Pushed " + branch)

	pterm.Println()
	pterm.Success.Println("Repository created and pushed to GitHub")
	pterm.Printfln("  Repository URL: %s", repo.HTMLURL)
	pterm.Printfln("  Clone URL: %s", repo.SSHURL)
	if opts.withoutKafka {
		pterm.Println()
		pterm.Info.Println("Kafka support has been excluded from this service")
	}
	return nil
}
