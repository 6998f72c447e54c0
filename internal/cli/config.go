package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bitfsorg/poolescrow-go/config"
)

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or initialise the configuration file",
	}
	cmd.AddCommand(newConfigInitCommand(a), newConfigShowCommand(a))
	return cmd
}

func newConfigInitCommand(a *app) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to <data-dir>/config.toml",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.ConfigPath(a.cfg.DataDir)
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file %s already exists (use --force)", path)
			}
			if err := config.SaveConfig(path, a.cfg); err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]string{"path": path})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeJSON(cmd.OutOrStdout(), a.cfg)
		},
	}
}
