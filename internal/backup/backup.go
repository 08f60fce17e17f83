// Package backup implements the timestamped backup convention for the
// original toolchain binaries: a `.rust-system-backup-<timestamp>` directory
// holding `<tool>.backup` copies, a checksum manifest, and a generated
// restore script that works without quantumctl installed.
package backup

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

const (
	dirPrefix         = ".rust-system-backup-"
	timestampLayout   = "20060102-150405"
	manifestName      = "manifest.json"
	restoreScriptName = "restore_system_rust.sh"
)

// Entry records one backed-up binary.
type Entry struct {
	Tool         string      `json:"tool"`
	OriginalPath string      `json:"original_path"`
	BackupFile   string      `json:"backup_file"`
	SHA256       string      `json:"sha256"`
	Size         int64       `json:"size"`
	Mode         os.FileMode `json:"mode"`
}

// Backup is one timestamped backup directory.
type Backup struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	CreatedAt time.Time `json:"created_at"`
	Entries   []Entry   `json:"entries"`
}

// Manager creates, lists, restores, and prunes backups under Root.
type Manager struct {
	Root string
}

// NewManager returns a Manager rooted at root (typically the user's home).
func NewManager(root string) *Manager {
	return &Manager{Root: root}
}

// Create copies each tool's real binary into a fresh timestamped directory
// and writes the manifest plus a standalone restore script. tools maps tool
// name to the absolute path of the real binary.
func (m *Manager) Create(tools map[string]string) (*Backup, error) {
	if len(tools) == 0 {
		return nil, fmt.Errorf("nothing to back up")
	}

	if err := os.MkdirAll(m.Root, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create backup root: %w", err)
	}

	now := time.Now()
	id := now.Format(timestampLayout)
	dir := filepath.Join(m.Root, dirPrefix+id)
	for n := 2; ; n++ {
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			break
		}
		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to create backup directory: %w", err)
		}
		// Timestamps have second granularity; an existing directory means
		// another backup landed in the same second. Never reuse it.
		id = fmt.Sprintf("%s-%d", now.Format(timestampLayout), n)
		dir = filepath.Join(m.Root, dirPrefix+id)
	}

	b := &Backup{ID: id, Path: dir, CreatedAt: now}

	names := make([]string, 0, len(tools))
	for name := range tools {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		src := tools[name]
		dst := filepath.Join(dir, name+".backup")
		sum, size, mode, err := copyWithChecksum(src, dst)
		if err != nil {
			return nil, fmt.Errorf("failed to back up %s: %w", name, err)
		}
		b.Entries = append(b.Entries, Entry{
			Tool:         name,
			OriginalPath: src,
			BackupFile:   name + ".backup",
			SHA256:       sum,
			Size:         size,
			Mode:         mode,
		})
	}

	if err := m.writeManifest(b); err != nil {
		return nil, err
	}
	if err := m.writeRestoreScript(b); err != nil {
		return nil, err
	}
	return b, nil
}

// List returns all backups under Root, newest first. Directories matching
// the prefix but missing a manifest are skipped rather than failing the
// listing; foreign directories are none of our business.
func (m *Manager) List() ([]*Backup, error) {
	entries, err := os.ReadDir(m.Root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read backup root: %w", err)
	}

	var backups []*Backup
	for _, e := range entries {
		if !e.IsDir() || !strings.HasPrefix(e.Name(), dirPrefix) {
			continue
		}
		b, err := m.load(filepath.Join(m.Root, e.Name()))
		if err != nil {
			continue
		}
		backups = append(backups, b)
	}

	sort.Slice(backups, func(i, j int) bool {
		return backups[i].CreatedAt.After(backups[j].CreatedAt)
	})
	return backups, nil
}

// Get returns the backup with the given ID.
func (m *Manager) Get(id string) (*Backup, error) {
	b, err := m.load(filepath.Join(m.Root, dirPrefix+id))
	if err != nil {
		return nil, fmt.Errorf("backup %s: %w", id, err)
	}
	return b, nil
}

// Latest returns the most recent backup, or nil when none exist.
func (m *Manager) Latest() (*Backup, error) {
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(backups) == 0 {
		return nil, nil
	}
	return backups[0], nil
}

// Restore copies every entry back to its recorded original location. Each
// backup file's checksum is verified against the manifest first; a mismatch
// aborts the whole restore unless force is set.
func (m *Manager) Restore(b *Backup, force bool) error {
	if !force {
		for _, e := range b.Entries {
			src := filepath.Join(b.Path, e.BackupFile)
			sum, err := fileChecksum(src)
			if err != nil {
				return fmt.Errorf("failed to verify %s: %w", e.Tool, err)
			}
			if sum != e.SHA256 {
				return fmt.Errorf("checksum mismatch for %s: backup is corrupt (use force to restore anyway)", e.Tool)
			}
		}
	}

	for _, e := range b.Entries {
		src := filepath.Join(b.Path, e.BackupFile)
		mode := e.Mode
		if mode == 0 {
			mode = 0o755
		}
		if err := copyFile(src, e.OriginalPath, mode); err != nil {
			return fmt.Errorf("failed to restore %s to %s: %w", e.Tool, e.OriginalPath, err)
		}
	}
	return nil
}

// Prune deletes all but the keep newest backups and returns the IDs removed.
func (m *Manager) Prune(keep int) ([]string, error) {
	if keep < 0 {
		return nil, fmt.Errorf("keep must be non-negative")
	}
	backups, err := m.List()
	if err != nil {
		return nil, err
	}
	if len(backups) <= keep {
		return nil, nil
	}

	var removed []string
	for _, b := range backups[keep:] {
		if err := os.RemoveAll(b.Path); err != nil {
			return removed, fmt.Errorf("failed to remove backup %s: %w", b.ID, err)
		}
		removed = append(removed, b.ID)
	}
	return removed, nil
}

func (m *Manager) load(dir string) (*Backup, error) {
	data, err := os.ReadFile(filepath.Join(dir, manifestName))
	if err != nil {
		return nil, err
	}
	var b Backup
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("invalid manifest in %s: %w", dir, err)
	}
	// Path may have been recorded on another machine; trust where we found it.
	b.Path = dir
	return &b, nil
}

func (m *Manager) writeManifest(b *Backup) error {
	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return err
	}
	path := filepath.Join(b.Path, manifestName)
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return fmt.Errorf("failed to write manifest: %w", err)
	}
	return nil
}

func copyWithChecksum(src, dst string) (sum string, size int64, mode os.FileMode, err error) {
	info, err := os.Stat(src)
	if err != nil {
		return "", 0, 0, err
	}
	mode = info.Mode().Perm()

	in, err := os.Open(src)
	if err != nil {
		return "", 0, 0, err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return "", 0, 0, err
	}
	defer out.Close()

	h := sha256.New()
	size, err = io.Copy(io.MultiWriter(out, h), in)
	if err != nil {
		return "", 0, 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), size, mode, nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return err
	}
	out, err := os.OpenFile(dst, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, mode)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

func fileChecksum(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
