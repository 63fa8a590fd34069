package commands

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/pinehill-dev/pinehill/internal/app"
	"github.com/pinehill-dev/pinehill/internal/config"
	"github.com/pinehill-dev/pinehill/internal/gitops"
	"github.com/pinehill-dev/pinehill/internal/ledger"
)

func newInitCommand() *cobra.Command {
	var name string
	var bank string
	var useGit bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Initialize a new Pinehill project",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}

			absDir, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolving path: %w", err)
			}

			return runInit(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), absDir, name, bank, useGit)
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "building name (required)")
	_ = cmd.MarkFlagRequired("name")
	cmd.Flags().StringVar(&bank, "bank", "", "bank whose notifications are trusted (default 카카오뱅크)")
	cmd.Flags().BoolVar(&useGit, "git", false, "keep the project directory under git")

	return cmd
}

func runInit(ctx context.Context, out, logOut io.Writer, dir, name, bank string, useGit bool) error {
	// Create directory structure.
	dirs := []string{
		"logs",
		"exports",
		"import",
		filepath.Join("import", "processed"),
	}
	for _, d := range dirs {
		if err := os.MkdirAll(filepath.Join(dir, d), 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", d, err)
		}
	}

	// Write pinehill.yaml, keeping an existing one.
	cfgPath := filepath.Join(dir, config.FileName)
	if _, err := os.Stat(cfgPath); os.IsNotExist(err) {
		cfg := config.Default(name)
		if bank != "" {
			cfg.Bank.Name = bank
		}
		if err := config.Save(cfgPath, cfg); err != nil {
			return fmt.Errorf("writing config: %w", err)
		}
	}

	// Write .gitignore.
	gitignore := "pinehill.db*\n.env\n"
	if err := os.WriteFile(filepath.Join(dir, ".gitignore"), []byte(gitignore), 0o644); err != nil {
		return fmt.Errorf("writing .gitignore: %w", err)
	}

	// Write import/.gitkeep.
	if err := os.WriteFile(filepath.Join(dir, "import", ".gitkeep"), []byte{}, 0o644); err != nil {
		return fmt.Errorf("writing .gitkeep: %w", err)
	}

	// Create the ledger and seed the unit layout.
	a, err := app.New(ctx, dir, app.Options{LogOutput: logOut})
	if err != nil {
		return err
	}
	defer a.Close()

	seeded, err := a.Store.SeedUnits(ctx, ledger.DefaultUnits(a.Config.Property.Layout))
	if err != nil {
		return fmt.Errorf("seeding units: %w", err)
	}

	if !useGit {
		fmt.Fprintf(out, "Initialized Pinehill project at %s (%d units seeded)\n", dir, seeded)
		return nil
	}

	// Initialize git and create initial commit.
	if !gitops.IsRepo(dir) {
		if err := gitops.Init(ctx, dir); err != nil {
			return err
		}
	}
	hash, err := gitops.CommitAll(ctx, dir, "init: Initialize "+a.Config.Property.Name, gitAuthor(a))
	if err != nil {
		return fmt.Errorf("initial commit: %w", err)
	}
	fmt.Fprintf(out, "Initialized Pinehill project at %s (%d units seeded, %s)\n", dir, seeded, hash)
	return nil
}
