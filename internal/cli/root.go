// Package cli provides the command-line interface for quantumctl.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/cli/commands"
	"github.com/quantum-rust/quantumctl/internal/cli/config"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "1.0.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "quantumctl",
		Short: "quantumctl - Quantum Rust toolchain deployment manager",
		Long: `quantumctl deploys the Quantum Rust distribution as the system-default
Rust toolchain. It installs wrapper shims for rustc and cargo ahead of the
real binaries on PATH, backs the originals up, wires shell rc files, emits
IDE configuration, and verifies the whole arrangement.

Everything quantumctl does is reversible: every install takes a timestamped
backup with a standalone restore script.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Root().PersistentFlags())
			if err != nil {
				return err
			}

			logger := slog.New(slog.DiscardHandler)
			if cfg.Verbose {
				logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
					Level: slog.LevelDebug,
				}))
				if configFile := config.GetConfigFileUsed(); configFile != "" {
					logger.Debug("using config file", "path", configFile)
				}
			}
			cmd.SetContext(config.WithLogger(cmd.Context(), logger))

			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Quantum Rust toolchain deployment manager
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./quantumctl.yaml)")
	rootCmd.PersistentFlags().String("home", "", "Quantum Rust home directory (QUANTUM_RUST_HOME)")
	rootCmd.PersistentFlags().String("bin-dir", "", "Directory for shim binaries (default: <home>/bin)")
	rootCmd.PersistentFlags().String("state", "", "Path to the receipts database (default: <home>/state.db)")
	rootCmd.PersistentFlags().String("backup-root", "", "Directory backups are created in (default: $HOME)")
	rootCmd.PersistentFlags().Bool("quiet", false, "Suppress shim banners")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output")
	rootCmd.PersistentFlags().StringP("output", "o", "", "Output format (auto|text|markdown|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("output", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"auto", "text", "markdown", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewInstallCommand())
	rootCmd.AddCommand(commands.NewUninstallCommand())
	rootCmd.AddCommand(commands.NewRestoreCommand())
	rootCmd.AddCommand(commands.NewBackupsCommand())
	rootCmd.AddCommand(commands.NewExecCommand())
	rootCmd.AddCommand(commands.NewIDECommand())
	rootCmd.AddCommand(commands.NewStatusCommand())
	rootCmd.AddCommand(commands.NewDoctorCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, BuildDate, GitCommit))

	return rootCmd
}

// Execute runs the root command and returns a process exit code. SIGINT and
// SIGTERM cancel the command context so watchers and child processes stop.
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rootCmd := NewRootCmd()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		if code, ok := commands.ExitCode(err); ok {
			return code
		}
		rootCmd.PrintErrln("Error:", err)
		return 1
	}
	return 0
}
