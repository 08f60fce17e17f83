package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/backup"
	"github.com/quantum-rust/quantumctl/internal/cli/output"
)

// NewBackupsCommand creates the backups command group.
func NewBackupsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List and prune toolchain backups",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackupsList(cmd)
		},
	}

	var keep int
	prune := &cobra.Command{
		Use:   "prune",
		Short: "Delete all but the newest backups",
		Example: `  # Keep the three newest backups
  quantumctl backups prune --keep 3`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBackupsPrune(cmd, keep)
		},
	}
	prune.Flags().IntVar(&keep, "keep", 3, "Number of backups to keep")

	cmd.AddCommand(prune)
	return cmd
}

func runBackupsList(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	mgr := backup.NewManager(cmdCtx.Cfg.BackupRoot)
	backups, err := mgr.List()
	if err != nil {
		return err
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(backups)
	}

	if len(backups) == 0 {
		r.Println("No backups found.")
		return nil
	}

	rows := make([][]string, 0, len(backups))
	for _, b := range backups {
		var size int64
		for _, e := range b.Entries {
			size += e.Size
		}
		rows = append(rows, []string{
			b.ID,
			b.CreatedAt.Format("2006-01-02 15:04:05"),
			fmt.Sprintf("%d", len(b.Entries)),
			fmt.Sprintf("%.1f MiB", float64(size)/(1024*1024)),
			b.Path,
		})
	}
	r.Table([]string{"ID", "Created", "Tools", "Size", "Path"}, rows)
	return nil
}

func runBackupsPrune(cmd *cobra.Command, keep int) error {
	cmdCtx := NewCommandContext(cmd)
	r := cmdCtx.Renderer

	mgr := backup.NewManager(cmdCtx.Cfg.BackupRoot)
	removed, err := mgr.Prune(keep)
	if err != nil {
		return err
	}

	if len(removed) == 0 {
		r.Println("Nothing to prune.")
		return nil
	}
	for _, id := range removed {
		r.StatusLine(id, "success", "removed")
	}
	r.Success(fmt.Sprintf("Pruned %d backup(s), kept %d", len(removed), keep))
	return nil
}
