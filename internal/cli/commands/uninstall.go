package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/backup"
	"github.com/quantum-rust/quantumctl/internal/rcfile"
	"github.com/quantum-rust/quantumctl/internal/shim"
	"github.com/quantum-rust/quantumctl/internal/state"
)

// UninstallOptions holds options for the uninstall command.
type UninstallOptions struct {
	Yes     bool
	Restore bool
}

// NewUninstallCommand creates the uninstall command.
func NewUninstallCommand() *cobra.Command {
	opts := &UninstallOptions{}
	cmd := &cobra.Command{
		Use:   "uninstall",
		Short: "Remove the shims and clean up shell rc files",
		Long: `Remove the installed shims from the shim bin directory and strip the
quantum-rust PATH block from shell rc files. Legacy entries written by the
original install scripts are removed too.

Backups are kept; pass --restore to also copy the original binaries back to
their recorded locations from the latest backup.`,
		Example: `  # Remove shims and rc entries
  quantumctl uninstall

  # Also restore the original binaries from the latest backup
  quantumctl uninstall --restore

  # Non-interactive
  quantumctl uninstall --yes`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runUninstall(cmd, opts)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "Skip the confirmation prompt")
	cmd.Flags().BoolVar(&opts.Restore, "restore", false, "Restore original binaries from the latest backup")

	return cmd
}

func runUninstall(cmd *cobra.Command, opts *UninstallOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	if !opts.Yes {
		ok, err := confirm(fmt.Sprintf("Remove the Quantum Rust deployment from %s?", cfg.BinDir))
		if err != nil {
			return err
		}
		if !ok {
			r.Println("Aborted.")
			return nil
		}
	}

	// 1. Remove shims. Only files that sniff as ours are deleted; anything
	// else in the bin dir is left alone.
	removed := 0
	for _, tool := range cfg.Tools {
		path := filepath.Join(cfg.BinDir, tool)
		if !shim.IsShim(path) {
			continue
		}
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove shim %s: %w", path, err)
		}
		r.StatusLine(tool, "success", "shim removed")
		removed++
	}
	if removed == 0 {
		r.Warning("no shims found to remove")
	}

	// 2. Clean rc files.
	for _, rc := range cfg.RCFiles {
		changed, err := rcfile.Remove(rc)
		if err != nil {
			return err
		}
		if changed {
			r.StatusLine(rc, "success", "quantum-rust entries removed")
		}
	}

	// 3. Optionally restore the original binaries.
	backupID := ""
	if opts.Restore {
		mgr := backup.NewManager(cfg.BackupRoot)
		latest, err := mgr.Latest()
		if err != nil {
			return err
		}
		if latest == nil {
			r.Warning("no backup found; original binaries were not restored")
		} else {
			if err := mgr.Restore(latest, false); err != nil {
				return err
			}
			backupID = latest.ID
			r.Success(fmt.Sprintf("Restored original binaries from backup %s", latest.ID))
		}
	}

	// 4. Receipt. Best effort: the deployment is gone either way.
	if store, err := openStore(cfg); err == nil {
		defer store.Close()
		_ = store.SaveReceipt(&state.Receipt{
			Kind:     state.KindUninstall,
			Tools:    cfg.Tools,
			ShimDir:  cfg.BinDir,
			BackupID: backupID,
			Version:  cmd.Root().Version,
		})
	}

	r.Println("")
	r.Success("Quantum Rust deployment removed")
	r.Println("Restart your shell for the PATH change to take effect.")
	return nil
}

// confirm asks a y/N question on the terminal.
func confirm(prompt string) (bool, error) {
	rl, err := readline.New(prompt + " [y/N]: ")
	if err != nil {
		return false, err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		// Ctrl-C / Ctrl-D mean no.
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return false, nil
		}
		return false, err
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
