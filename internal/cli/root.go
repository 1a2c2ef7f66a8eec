// Package cli provides the command-line front end for dualpane.
package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rescale/dualpane/internal/config"
	"github.com/rescale/dualpane/internal/logging"
	"github.com/rescale/dualpane/internal/progress"
	"github.com/rescale/dualpane/internal/version"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	debug        bool
	jsonOutput   bool
	progressMode string

	// Global logger
	logger *logging.Logger

	// Effective configuration, loaded before every command
	appConfig *config.Config

	// Global context for signal handling
	rootContext context.Context
	cancelFunc  context.CancelFunc
)

// NewRootCmd creates the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "dualpane",
		Short: "Copy and move files between two directories",
		Long: `dualpane ` + version.String() + `
Two-pane file transfer: copy or move files and whole directory trees into a
destination directory. Every source gets its own result; one failing item
never stops the rest of the batch.

Examples:
  dualpane copy ~/reports/q1.pdf ~/reports/q2.pdf /mnt/backup
  dualpane move ./build /srv/releases
  dualpane transfer --modifier ./photos ~/Pictures   # drop with copy modifier held
  dualpane ls --hidden ~`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger = logging.NewLogger("cli", cmd.ErrOrStderr())

			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("progress") {
				if _, err := progress.ParseKind(progressMode); err != nil {
					return err
				}
				cfg.Transfer.Progress = progressMode
			}
			appConfig = cfg

			level, _ := logging.ParseLevel(cfg.Log.Level)
			if verbose || debug {
				level = zerolog.DebugLevel
			}
			logging.SetGlobalLevel(level)

			if cfg.Source != "" {
				logger.Debug().Str("path", cfg.Source).Msg("loaded configuration")
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "Configuration file path (default: user config dir)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Verbose output (shows debug messages)")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "Enable debug output (same as --verbose)")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Print results as JSON")
	rootCmd.PersistentFlags().StringVar(&progressMode, "progress", "", "Progress display: auto, bar, items or none (overrides config)")

	rootCmd.Version = version.String()

	completionCmd := &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion scripts",
		Long: `Generate shell completion scripts for dualpane.

QUICK TEST (current session only):
  source <(dualpane completion bash)
  source <(dualpane completion zsh)
  dualpane completion fish | source
  dualpane completion powershell | Out-String | Invoke-Expression`,
	}
	rootCmd.AddCommand(completionCmd)

	completionCmd.AddCommand(&cobra.Command{
		Use:   "bash",
		Short: "Generate bash completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenBashCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "zsh",
		Short: "Generate zsh completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenZshCompletion(cmd.OutOrStdout())
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "fish",
		Short: "Generate fish completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenFishCompletion(cmd.OutOrStdout(), true)
		},
	})
	completionCmd.AddCommand(&cobra.Command{
		Use:   "powershell",
		Short: "Generate PowerShell completion script",
		RunE: func(cmd *cobra.Command, args []string) error {
			return rootCmd.Root().GenPowerShellCompletion(cmd.OutOrStdout())
		},
	})

	// Disable default completion command (we're adding our own above)
	rootCmd.CompletionOptions.DisableDefaultCmd = true

	AddCommands(rootCmd)
	return rootCmd
}

// AddCommands adds all subcommands to the root command.
func AddCommands(rootCmd *cobra.Command) {
	rootCmd.AddCommand(newCopyCmd())
	rootCmd.AddCommand(newMoveCmd())
	rootCmd.AddCommand(newTransferCmd())
	rootCmd.AddCommand(newLsCmd())
	rootCmd.AddCommand(newConfigCmd())
}

// Execute runs the CLI.
func Execute() error {
	rootContext, cancelFunc = context.WithCancel(context.Background())
	defer cancelFunc()

	// Transfers are not interruptible mid-batch; a signal is reported and the
	// process exits once the current request has finished.
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	go func() {
		for sig := range sigChan {
			if sig != nil {
				fmt.Fprintf(os.Stderr, "\nReceived signal %v, finishing the current item list before exit...\n", sig)
				cancelFunc()
			}
		}
	}()

	err := NewRootCmd().ExecuteContext(rootContext)

	signal.Stop(sigChan)
	close(sigChan)
	return err
}

// GetLogger returns the global CLI logger.
func GetLogger() *logging.Logger {
	if logger == nil {
		logger = logging.NewDefaultCLILogger()
	}
	return logger
}

// GetConfig returns the configuration loaded for the running command.
func GetConfig() *config.Config {
	if appConfig == nil {
		appConfig = config.New()
	}
	return appConfig
}

// GetContext returns the global CLI context with signal handling.
func GetContext() context.Context {
	if rootContext == nil {
		return context.Background()
	}
	return rootContext
}
