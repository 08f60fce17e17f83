package commands

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/backup"
	"github.com/quantum-rust/quantumctl/internal/rcfile"
	"github.com/quantum-rust/quantumctl/internal/shim"
	"github.com/quantum-rust/quantumctl/internal/state"
	"github.com/quantum-rust/quantumctl/internal/toolchain"
)

// InstallOptions holds options for the install command.
type InstallOptions struct {
	Force  bool
	Tools  []string
	NoRC   bool
	DryRun bool
}

// NewInstallCommand creates the install command.
func NewInstallCommand() *cobra.Command {
	opts := &InstallOptions{}
	cmd := &cobra.Command{
		Use:   "install",
		Short: "Deploy the Quantum Rust shims as the system default toolchain",
		Long: `Install wrapper shims for the configured tools into the shim bin
directory and wire shell rc files so the shims win PATH resolution.

Before anything is written, the real binaries are copied into a timestamped
backup directory together with a standalone restore script, so the
deployment can always be undone:

  ~/.rust-system-backup-<timestamp>/
    rustc.backup
    cargo.backup
    manifest.json
    restore_system_rust.sh`,
		Example: `  # Standard deployment
  quantumctl install

  # Re-deploy over an existing installation
  quantumctl install --force

  # Wrap additional tools
  quantumctl install --tools rustc,cargo,rustfmt

  # Show what would happen without touching anything
  quantumctl install --dry-run`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInstall(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite an existing deployment")
	cmd.Flags().StringSliceVar(&opts.Tools, "tools", nil, "Tools to wrap (default from config)")
	cmd.Flags().BoolVar(&opts.NoRC, "no-rc", false, "Do not edit shell rc files")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Print the plan without changing anything")

	return cmd
}

func runInstall(cmd *cobra.Command, opts *InstallOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer
	logger := cmdCtx.Logger

	tools := opts.Tools
	if len(tools) == 0 {
		tools = cfg.Tools
	}

	// Resolve every real binary first; a missing tool aborts the install
	// before anything is modified.
	real := map[string]string{}
	for _, tool := range tools {
		path, err := toolchain.FindReal(tool, pathEnv(), cfg.BinDir)
		if err != nil {
			return fmt.Errorf("cannot install: %w (is the Rust toolchain installed?)", err)
		}
		real[tool] = path
		logger.Debug("resolved toolchain binary", "tool", tool, "path", path)
	}

	// Refuse to clobber an existing deployment silently.
	if !opts.Force {
		for _, tool := range tools {
			shimPath := filepath.Join(cfg.BinDir, tool)
			if _, err := os.Stat(shimPath); err == nil {
				return fmt.Errorf("shim for %s already installed at %s (use --force to re-deploy)", tool, shimPath)
			}
		}
	}

	if opts.DryRun {
		r.Println("Install plan (dry run):")
		for _, tool := range tools {
			r.StatusLine(tool, "ok", fmt.Sprintf("%s -> wraps %s", filepath.Join(cfg.BinDir, tool), real[tool]))
		}
		if !opts.NoRC {
			for _, rc := range cfg.RCFiles {
				if _, err := os.Stat(rc); err == nil {
					r.StatusLine(rc, "ok", "managed PATH block")
				}
			}
		}
		return nil
	}

	// 1. Backup
	mgr := backup.NewManager(cfg.BackupRoot)
	b, err := mgr.Create(real)
	if err != nil {
		return fmt.Errorf("backup failed, aborting install: %w", err)
	}
	r.Success(fmt.Sprintf("Backed up %d binaries to %s", len(b.Entries), b.Path))
	logger.Debug("backup created", "id", b.ID, "path", b.Path)

	// 2. Shims
	version := cmd.Root().Version
	for _, tool := range tools {
		spec := shim.Spec{
			Tool:     tool,
			RealPath: real[tool],
			Version:  version,
			Banner:   cfg.Banner,
		}
		path, err := spec.Write(cfg.BinDir)
		if err != nil {
			return err
		}
		r.StatusLine(tool, "success", path)
	}

	// 3. Shell rc files
	if !opts.NoRC {
		block := rcfile.Block(cfg.Home, cfg.BinDir)
		for _, rc := range cfg.RCFiles {
			if err := rcfile.Append(rc, block, false); err != nil {
				return err
			}
			if rcfile.HasBlock(rc) {
				r.StatusLine(rc, "success", "PATH block written")
			}
		}
	}

	// 4. Deployment metadata, matching the original distribution's
	// quantum-config.json convention.
	if err := writeDeploymentConfig(cfg.Home, version, tools); err != nil {
		return err
	}

	// 5. Receipt
	store, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("deployment succeeded but the receipt could not be stored: %w", err)
	}
	defer store.Close()
	if err := store.SaveReceipt(&state.Receipt{
		Kind:     state.KindInstall,
		Tools:    tools,
		ShimDir:  cfg.BinDir,
		BackupID: b.ID,
		Version:  version,
	}); err != nil {
		return err
	}

	r.Println("")
	r.Success("Quantum Rust deployed as system default toolchain")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Restart your shell (or source your rc file)")
	r.Println("  2. Run 'quantumctl status' to confirm the shims are active")
	r.Println("  3. Run 'quantumctl doctor' for a full health check")
	r.Printf("\nTo undo: quantumctl uninstall --restore (or run %s)\n", backup.RestoreScriptPath(b))

	return nil
}

// writeDeploymentConfig records the deployment in <home>/quantum-config.json.
func writeDeploymentConfig(home, version string, tools []string) error {
	if err := os.MkdirAll(home, 0o755); err != nil {
		return err
	}
	cfg := map[string]any{
		"version":            version + "-quantum",
		"tools":              tools,
		"quantum_features":   true,
		"arrow_optimization": true,
		"deployed_at":        time.Now().UTC().Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(home, "quantum-config.json")
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write deployment config: %w", err)
	}
	return nil
}
