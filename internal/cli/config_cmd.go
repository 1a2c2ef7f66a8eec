package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rescale/dualpane/internal/config"
)

func newConfigCmd() *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect configuration",
		Long: `Show the effective configuration or where it is read from.

Settings are read from the file given with --config, or from the default
location, then overridden by DUALPANE_PROGRESS, DUALPANE_SHOW_HIDDEN and
DUALPANE_LOG_LEVEL.`,
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := GetConfig()
			out := cmd.OutOrStdout()
			if cfg.Source != "" {
				fmt.Fprintf(out, "; loaded from %s\n", cfg.Source)
			} else {
				fmt.Fprintln(out, "; built-in defaults")
			}
			_, err := cfg.WriteTo(out)
			return err
		},
	})

	configCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Print the default configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			path, err := config.DefaultConfigPath()
			if err != nil {
				return fmt.Errorf("failed to determine config path: %w", err)
			}
			fmt.Fprintln(cmd.OutOrStdout(), path)
			return nil
		},
	})

	return configCmd
}
