package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/app"
	"github.com/pinehill-dev/pinehill/internal/buildinfo"
	"github.com/pinehill-dev/pinehill/internal/gitops"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var dir string

	rootCmd := &cobra.Command{
		Use:     "pinehill",
		Short:   "Rent and expense ledger fed by bank notifications",
		Version: buildinfo.String(),
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&dir, "dir", ".", "project directory")

	project := func() string { return dir }
	rootCmd.AddCommand(
		newInitCommand(),
		newIngestCommand(project),
		newTenantCommand(project),
		newUnitCommand(project),
		newExpenseCommand(project),
		newAttributeCommand(project),
		newStatusCommand(project),
		newPayCommand(project),
		newSweepCommand(project),
		newReportCommand(project),
		newServeCommand(project),
	)

	return rootCmd
}

// openApp opens the project selected by --dir.
func openApp(cmd *cobra.Command, dir string) (*app.App, error) {
	absDir, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving path: %w", err)
	}
	return app.New(cmd.Context(), absDir, app.Options{LogOutput: cmd.ErrOrStderr()})
}

func gitAuthor(a *app.App) gitops.Author {
	return gitops.Author{Name: a.Config.Git.AuthorName, Email: a.Config.Git.AuthorEmail}
}

// commitProject commits the project directory when it is a git repository.
func commitProject(cmd *cobra.Command, a *app.App, message string) error {
	if !gitops.IsRepo(a.Dir) {
		return nil
	}
	hash, err := gitops.CommitAll(cmd.Context(), a.Dir, message, gitAuthor(a))
	if err != nil {
		return err
	}
	if hash != "" {
		fmt.Fprintf(cmd.ErrOrStderr(), "Committed %s\n", hash)
	}
	return nil
}
