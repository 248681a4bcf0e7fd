package main

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ripple-dev/ripple/internal/config"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Create a ripple.json config file",
		Long: `Create a ripple.json config file with default settings.

The config controls the inspector address, Prometheus metric naming,
and the snapshot directory used by persistence.

Examples:
  ripple init
  ripple init ./my-app
  ripple init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing ripple.json")

	return cmd
}

func runInit(dir string, force bool) error {
	if config.Exists(dir) && !force {
		return fmt.Errorf("%s already exists in %s, use --force to overwrite", config.ConfigFileName, dir)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return err
	}

	cfg := config.New()
	cfg.Name = filepath.Base(abs)

	path := filepath.Join(dir, config.ConfigFileName)
	if err := cfg.SaveTo(path); err != nil {
		return err
	}

	success("Created %s", path)
	info("Inspector: %s", cfg.InspectorURL())
	info("Snapshots: %s", cfg.SnapshotDir())
	return nil
}
