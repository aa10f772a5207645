package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/forumsearch/core/internal/config"
)

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a default forumsearch.yaml and create the data directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, force)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing forumsearch.yaml")
	return cmd
}

func runInit(cmd *cobra.Command, force bool) error {
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("resolve working directory: %w", err)
	}

	configPath := filepath.Join(cwd, "forumsearch.yaml")
	if !force {
		if _, err := os.Stat(configPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", configPath)
		}
	}

	settings := config.New()
	if err := settings.Validate(); err != nil {
		return fmt.Errorf("default configuration is invalid: %w", err)
	}
	if err := settings.WriteYAML(configPath); err != nil {
		return fmt.Errorf("write %s: %w", configPath, err)
	}

	for _, dir := range []string{
		settings.Storage.DataDir,
		filepath.Join(settings.Storage.DataDir, "indexes"),
		settings.AutocompleteDir(),
	} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", configPath)
	fmt.Fprintf(cmd.OutOrStdout(), "data directory: %s\n", settings.Storage.DataDir)
	return nil
}
