package commands

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/backup"
	"github.com/quantum-rust/quantumctl/internal/state"
)

// RestoreOptions holds options for the restore command.
type RestoreOptions struct {
	Force bool
}

// NewRestoreCommand creates the restore command.
func NewRestoreCommand() *cobra.Command {
	opts := &RestoreOptions{}
	cmd := &cobra.Command{
		Use:   "restore [backup-id]",
		Short: "Restore the original toolchain binaries from a backup",
		Long: `Copy the original binaries from a backup directory back to their
recorded locations. Every file's checksum is verified against the backup
manifest first; a corrupt backup aborts the restore unless --force is given.

Without an argument an interactive picker lists the available backups.`,
		Example: `  # Pick a backup interactively
  quantumctl restore

  # Restore a specific backup
  quantumctl restore 20240315-104502

  # Restore even if checksums mismatch
  quantumctl restore 20240315-104502 --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRestore(cmd, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Force, "force", false, "Restore even when checksum verification fails")

	return cmd
}

func runRestore(cmd *cobra.Command, opts *RestoreOptions, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	mgr := backup.NewManager(cfg.BackupRoot)

	var b *backup.Backup
	if len(args) == 1 {
		found, err := mgr.Get(args[0])
		if err != nil {
			return err
		}
		b = found
	} else {
		picked, err := pickBackup(mgr)
		if err != nil {
			return err
		}
		if picked == nil {
			r.Println("Aborted.")
			return nil
		}
		b = picked
	}

	if err := mgr.Restore(b, opts.Force); err != nil {
		return err
	}

	for _, e := range b.Entries {
		r.StatusLine(e.Tool, "success", e.OriginalPath)
	}

	if store, err := openStore(cfg); err == nil {
		defer store.Close()
		_ = store.SaveReceipt(&state.Receipt{
			Kind:     state.KindRestore,
			ShimDir:  cfg.BinDir,
			BackupID: b.ID,
			Version:  cmd.Root().Version,
		})
	}

	r.Success(fmt.Sprintf("Restored %d binaries from backup %s", len(b.Entries), b.ID))
	return nil
}

// pickBackup lists backups and reads a choice with ID completion. Returns
// nil when the user aborts.
func pickBackup(mgr *backup.Manager) (*backup.Backup, error) {
	backups, err := mgr.List()
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, fmt.Errorf("no backups found under %s", mgr.Root)
	}

	fmt.Println("Available backups (newest first):")
	items := make([]readline.PrefixCompleterInterface, 0, len(backups))
	for i, b := range backups {
		fmt.Printf("  %2d. %s  (%d tools, %s)\n", i+1, b.ID, len(b.Entries), b.CreatedAt.Format("2006-01-02 15:04:05"))
		items = append(items, readline.PcItem(b.ID))
	}

	rl, err := readline.NewEx(&readline.Config{
		Prompt:       "backup id (or number, empty to abort): ",
		AutoComplete: readline.NewPrefixCompleter(items...),
	})
	if err != nil {
		return nil, err
	}
	defer rl.Close()

	line, err := rl.Readline()
	if err != nil {
		if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}

	choice := strings.TrimSpace(line)
	if choice == "" {
		return nil, nil
	}

	// Accept a 1-based list number as well as an ID.
	for i, b := range backups {
		if choice == b.ID || choice == fmt.Sprintf("%d", i+1) {
			return b, nil
		}
	}
	return nil, fmt.Errorf("no backup matches %q", choice)
}
