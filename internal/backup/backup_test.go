package backup

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeBinary(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o755))
	return path
}

func TestCreateAndGet(t *testing.T) {
	binDir := t.TempDir()
	rustc := writeBinary(t, binDir, "rustc", "rustc binary contents")
	cargo := writeBinary(t, binDir, "cargo", "cargo binary contents")

	m := NewManager(t.TempDir())
	b, err := m.Create(map[string]string{"rustc": rustc, "cargo": cargo})
	require.NoError(t, err)

	assert.Len(t, b.Entries, 2)
	assert.Equal(t, "cargo", b.Entries[0].Tool, "entries sorted by tool name")
	assert.Equal(t, "rustc", b.Entries[1].Tool)

	for _, e := range b.Entries {
		assert.FileExists(t, filepath.Join(b.Path, e.BackupFile))
		assert.NotEmpty(t, e.SHA256)
		assert.NotZero(t, e.Size)
	}
	assert.FileExists(t, filepath.Join(b.Path, "manifest.json"))
	assert.FileExists(t, RestoreScriptPath(b))

	got, err := m.Get(b.ID)
	require.NoError(t, err)
	assert.Equal(t, b.ID, got.ID)
	assert.Len(t, got.Entries, 2)
}

func TestCreateSameSecondCollision(t *testing.T) {
	binDir := t.TempDir()
	rustc := writeBinary(t, binDir, "rustc", "first install")

	m := NewManager(t.TempDir())
	b1, err := m.Create(map[string]string{"rustc": rustc})
	require.NoError(t, err)

	// Re-create the backup directory under the plain timestamp ID so the
	// next Create within the same second is guaranteed to collide.
	collide := filepath.Join(m.Root, dirPrefix+time.Now().Format(timestampLayout))
	if collide != b1.Path {
		require.NoError(t, os.Rename(b1.Path, collide))
		rewriteManifestID(t, collide, strings.TrimPrefix(filepath.Base(collide), dirPrefix))
	}

	require.NoError(t, os.WriteFile(rustc, []byte("second install"), 0o755))
	b2, err := m.Create(map[string]string{"rustc": rustc})
	require.NoError(t, err)

	assert.NotEqual(t, collide, b2.Path, "colliding backup must get its own directory")

	// The first backup's copy survives untouched.
	data, err := os.ReadFile(filepath.Join(collide, "rustc.backup"))
	require.NoError(t, err)
	assert.Equal(t, "first install", string(data))

	backups, err := m.List()
	require.NoError(t, err)
	assert.Len(t, backups, 2)
}

func TestCreateEmpty(t *testing.T) {
	m := NewManager(t.TempDir())
	_, err := m.Create(nil)
	assert.Error(t, err)
}

func TestRestore(t *testing.T) {
	binDir := t.TempDir()
	rustc := writeBinary(t, binDir, "rustc", "original rustc")

	m := NewManager(t.TempDir())
	b, err := m.Create(map[string]string{"rustc": rustc})
	require.NoError(t, err)

	// Simulate the installer replacing the binary.
	require.NoError(t, os.WriteFile(rustc, []byte("shim body"), 0o755))

	require.NoError(t, m.Restore(b, false))

	data, err := os.ReadFile(rustc)
	require.NoError(t, err)
	assert.Equal(t, "original rustc", string(data))

	info, err := os.Stat(rustc)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o755), info.Mode().Perm())
}

func TestRestoreDetectsCorruption(t *testing.T) {
	binDir := t.TempDir()
	rustc := writeBinary(t, binDir, "rustc", "original rustc")

	m := NewManager(t.TempDir())
	b, err := m.Create(map[string]string{"rustc": rustc})
	require.NoError(t, err)

	// Corrupt the backup copy.
	backupFile := filepath.Join(b.Path, "rustc.backup")
	require.NoError(t, os.WriteFile(backupFile, []byte("tampered"), 0o755))

	err = m.Restore(b, false)
	assert.ErrorContains(t, err, "checksum mismatch")

	// Forced restore writes the corrupt copy anyway.
	require.NoError(t, m.Restore(b, true))
	data, err := os.ReadFile(rustc)
	require.NoError(t, err)
	assert.Equal(t, "tampered", string(data))
}

func TestListOrderAndForeignDirs(t *testing.T) {
	root := t.TempDir()
	binDir := t.TempDir()
	rustc := writeBinary(t, binDir, "rustc", "bin")

	m := NewManager(root)

	b1, err := m.Create(map[string]string{"rustc": rustc})
	require.NoError(t, err)
	// Backup IDs have second granularity; force distinct timestamps.
	older := filepath.Join(root, ".rust-system-backup-20200101-000000")
	require.NoError(t, os.Rename(b1.Path, older))
	rewriteManifestID(t, older, "20200101-000000")

	b2, err := m.Create(map[string]string{"rustc": rustc})
	require.NoError(t, err)

	// Foreign and prefix-only dirs must be ignored.
	require.NoError(t, os.MkdirAll(filepath.Join(root, ".rust-system-backup-bogus"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "unrelated"), 0o755))

	backups, err := m.List()
	require.NoError(t, err)
	require.Len(t, backups, 2)
	assert.Equal(t, b2.ID, backups[0].ID, "newest first")

	latest, err := m.Latest()
	require.NoError(t, err)
	assert.Equal(t, b2.ID, latest.ID)
}

func TestListEmptyRoot(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "does-not-exist"))
	backups, err := m.List()
	require.NoError(t, err)
	assert.Empty(t, backups)

	latest, err := m.Latest()
	require.NoError(t, err)
	assert.Nil(t, latest)
}

func TestPrune(t *testing.T) {
	root := t.TempDir()
	binDir := t.TempDir()
	rustc := writeBinary(t, binDir, "rustc", "bin")

	m := NewManager(root)
	ids := []string{"20200101-000000", "20210101-000000", "20220101-000000"}
	for _, id := range ids {
		b, err := m.Create(map[string]string{"rustc": rustc})
		require.NoError(t, err)
		renamed := filepath.Join(root, ".rust-system-backup-"+id)
		require.NoError(t, os.Rename(b.Path, renamed))
		rewriteManifestID(t, renamed, id)
	}

	removed, err := m.Prune(1)
	require.NoError(t, err)
	assert.Equal(t, []string{"20210101-000000", "20200101-000000"}, removed)

	remaining, err := m.List()
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, "20220101-000000", remaining[0].ID)
}

// rewriteManifestID updates the ID and timestamp inside a renamed backup so
// the manifest matches the directory name the test gave it.
func rewriteManifestID(t *testing.T, dir, id string) {
	t.Helper()
	m := NewManager(filepath.Dir(dir))
	b, err := m.load(dir)
	require.NoError(t, err)
	b.ID = id
	ts, err := time.Parse("20060102-150405", id)
	require.NoError(t, err)
	b.CreatedAt = ts
	require.NoError(t, m.writeManifest(b))
}
