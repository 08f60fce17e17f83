package backup

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"text/template"
)

// The restore script must work with nothing but a POSIX shell, so a user can
// undo the deployment even after deleting quantumctl itself.
var restoreTmpl = template.Must(template.New("restore").Parse(`#!/bin/sh
# Restore the original Rust toolchain from backup {{.ID}}.
# Generated by quantumctl; safe to run multiple times.
set -e

BACKUP_DIR="{{.Path}}"
{{range .Entries}}
if [ -f "$BACKUP_DIR/{{.BackupFile}}" ]; then
  cp "$BACKUP_DIR/{{.BackupFile}}" "{{.OriginalPath}}"
  chmod {{printf "%o" .Mode}} "{{.OriginalPath}}"
  echo "restored {{.Tool}} -> {{.OriginalPath}}"
else
  echo "missing $BACKUP_DIR/{{.BackupFile}}, skipping {{.Tool}}" >&2
fi
{{end}}
echo "System Rust toolchain restored."
`))

func (m *Manager) writeRestoreScript(b *Backup) error {
	var buf bytes.Buffer
	if err := restoreTmpl.Execute(&buf, b); err != nil {
		return fmt.Errorf("failed to render restore script: %w", err)
	}
	path := filepath.Join(b.Path, restoreScriptName)
	if err := os.WriteFile(path, buf.Bytes(), 0o755); err != nil {
		return fmt.Errorf("failed to write restore script: %w", err)
	}
	return nil
}

// RestoreScriptPath returns where the standalone restore script for a backup
// lives.
func RestoreScriptPath(b *Backup) string {
	return filepath.Join(b.Path, restoreScriptName)
}
