package commands

import (
	"errors"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/cli/config"
	"github.com/quantum-rust/quantumctl/internal/cli/output"
	"github.com/quantum-rust/quantumctl/internal/shim"
	"github.com/quantum-rust/quantumctl/internal/state"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext builds the shared command dependencies from the loaded
// config.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())
	mode := output.Mode(cfg.OutputFormat)
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), mode)

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: r,
	}
}

// getConfig returns the current configuration, falling back to pure defaults
// when the root command's PersistentPreRunE did not run (tests).
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}

	home := config.DefaultHome()
	return &config.Config{
		Home:         home,
		BinDir:       filepath.Join(home, config.DefaultBinDirName),
		StatePath:    filepath.Join(home, config.DefaultStateFile),
		BackupRoot:   config.DefaultBackupRoot(),
		Tools:        config.DefaultTools,
		RCFiles:      config.DefaultRCFiles(),
		OutputFormat: config.DefaultOutput,
	}
}

// openStore opens (and migrates) the receipts database. The caller must
// Close it.
func openStore(cfg *config.Config) (*state.SQLiteStore, error) {
	dir := filepath.Dir(cfg.StatePath)
	if dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, err
		}
	}

	store := state.NewSQLiteStore()
	if err := store.Open(cfg.StatePath); err != nil {
		return nil, err
	}
	if err := store.Migrate(); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}

// pathEnv returns the PATH value commands resolve tools against.
func pathEnv() string {
	return os.Getenv("PATH")
}

// ExitCode extracts a propagated wrapped-tool exit code from err.
func ExitCode(err error) (int, bool) {
	var exitErr *shim.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.Code, true
	}
	return 0, false
}
