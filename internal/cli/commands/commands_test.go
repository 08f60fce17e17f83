// Package commands provides tests for CLI command creation and the
// install/uninstall lifecycle.
package commands

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/quantum-rust/quantumctl/internal/cli/config"
	"github.com/quantum-rust/quantumctl/internal/rcfile"
	"github.com/quantum-rust/quantumctl/internal/shim"
)

func TestNewInstallCommand(t *testing.T) {
	cmd := NewInstallCommand()

	assert.Equal(t, "install", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")

	flags := []string{"force", "tools", "no-rc", "dry-run"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewUninstallCommand(t *testing.T) {
	cmd := NewUninstallCommand()

	assert.Equal(t, "uninstall", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"yes", "restore"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewRestoreCommand(t *testing.T) {
	cmd := NewRestoreCommand()

	assert.Equal(t, "restore [backup-id]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotNil(t, cmd.Flags().Lookup("force"), "flag force should exist")
}

func TestNewBackupsCommand(t *testing.T) {
	cmd := NewBackupsCommand()

	assert.Equal(t, "backups", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	prune, _, err := cmd.Find([]string{"prune"})
	require.NoError(t, err)
	assert.Equal(t, "prune", prune.Use)
	assert.NotNil(t, prune.Flags().Lookup("keep"), "flag keep should exist")
}

func TestNewDoctorCommand(t *testing.T) {
	cmd := NewDoctorCommand()

	assert.Equal(t, "doctor", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")

	flags := []string{"format", "smoke", "watch"}
	for _, flag := range flags {
		assert.NotNil(t, cmd.Flags().Lookup(flag), "flag %q should exist", flag)
	}
}

func TestNewExecCommand(t *testing.T) {
	cmd := NewExecCommand()

	assert.Equal(t, "exec <tool> [-- args...]", cmd.Use)
	assert.NotEmpty(t, cmd.Short, "Short should not be empty")
	assert.NotEmpty(t, cmd.Example, "Example should not be empty")
}

// testDeployment writes a config file pointing every path at temp
// directories, fakes a system toolchain on PATH, and loads the config
// singleton the commands read.
func testDeployment(t *testing.T) *config.Config {
	t.Helper()

	tmp := t.TempDir()
	home := filepath.Join(tmp, "quantum-rust")
	systemBin := filepath.Join(tmp, "system-bin")
	require.NoError(t, os.MkdirAll(systemBin, 0o755))

	for _, tool := range []string{"rustc", "cargo"} {
		script := fmt.Sprintf("#!/bin/sh\necho %s 1.75.0\n", tool)
		require.NoError(t, os.WriteFile(filepath.Join(systemBin, tool), []byte(script), 0o755))
	}
	t.Setenv("PATH", systemBin)

	rc := filepath.Join(tmp, "bashrc")
	require.NoError(t, os.WriteFile(rc, []byte("export EDITOR=vi\n"), 0o644))

	cfgYAML := fmt.Sprintf(`home: %s
bin_dir: %s
state_path: %s
backup_root: %s
tools: [rustc, cargo]
rc_files: [%s]
output: text
`, home, filepath.Join(home, "bin"), filepath.Join(home, "state.db"), tmp, rc)
	cfgPath := filepath.Join(tmp, "quantumctl.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfgYAML), 0o644))

	config.ResetConfig()
	t.Cleanup(config.ResetConfig)
	cfg, err := config.LoadConfig(cfgPath, nil)
	require.NoError(t, err)
	return cfg
}

func TestInstallDryRun(t *testing.T) {
	cfg := testDeployment(t)

	cmd := NewInstallCommand()
	buf := new(bytes.Buffer)
	cmd.SetOut(buf)
	cmd.SetErr(buf)
	cmd.SetArgs([]string{"--dry-run"})

	require.NoError(t, cmd.Execute())

	// Nothing may be written during a dry run.
	_, err := os.Stat(cfg.BinDir)
	assert.True(t, os.IsNotExist(err), "dry run must not create the bin dir")
	assert.Contains(t, buf.String(), "dry run")
}

func TestInstallUninstallLifecycle(t *testing.T) {
	cfg := testDeployment(t)

	install := NewInstallCommand()
	buf := new(bytes.Buffer)
	install.SetOut(buf)
	install.SetErr(buf)
	install.SetArgs(nil)
	require.NoError(t, install.Execute())

	// Shims exist and record the real binaries.
	for _, tool := range []string{"rustc", "cargo"} {
		shimPath := filepath.Join(cfg.BinDir, tool)
		assert.True(t, shim.IsShim(shimPath), "%s should be a shim", tool)
		target, err := shim.Target(shimPath)
		require.NoError(t, err)
		assert.FileExists(t, target)
	}

	// rc file carries the managed block, deployment config exists.
	assert.True(t, rcfile.HasBlock(cfg.RCFiles[0]))
	assert.FileExists(t, filepath.Join(cfg.Home, "quantum-config.json"))

	// A second install without --force must refuse.
	again := NewInstallCommand()
	again.SetOut(new(bytes.Buffer))
	again.SetErr(new(bytes.Buffer))
	again.SetArgs(nil)
	err := again.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--force")

	// Uninstall removes shims and the rc block.
	uninstall := NewUninstallCommand()
	uninstall.SetOut(new(bytes.Buffer))
	uninstall.SetErr(new(bytes.Buffer))
	uninstall.SetArgs([]string{"--yes"})
	require.NoError(t, uninstall.Execute())

	for _, tool := range []string{"rustc", "cargo"} {
		assert.NoFileExists(t, filepath.Join(cfg.BinDir, tool))
	}
	assert.False(t, rcfile.HasBlock(cfg.RCFiles[0]))
}

func TestInstallMissingToolchain(t *testing.T) {
	testDeployment(t)
	t.Setenv("PATH", t.TempDir()) // no rustc or cargo anywhere

	cmd := NewInstallCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs(nil)

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot install")
}

func TestExecUnknownTool(t *testing.T) {
	testDeployment(t)

	cmd := NewExecCommand()
	cmd.SetOut(new(bytes.Buffer))
	cmd.SetErr(new(bytes.Buffer))
	cmd.SetArgs([]string{"rustfmt"})

	err := cmd.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "cannot exec")
}

func TestBackupsPruneKeepsNewest(t *testing.T) {
	cfg := testDeployment(t)

	// Two installs with --force produce two backups.
	for i := 0; i < 2; i++ {
		cmd := NewInstallCommand()
		cmd.SetOut(new(bytes.Buffer))
		cmd.SetErr(new(bytes.Buffer))
		cmd.SetArgs([]string{"--force"})
		require.NoError(t, cmd.Execute())
	}

	prune := NewBackupsCommand()
	prune.SetOut(new(bytes.Buffer))
	prune.SetErr(new(bytes.Buffer))
	prune.SetArgs([]string{"prune", "--keep", "1"})
	require.NoError(t, prune.Execute())

	entries, err := os.ReadDir(cfg.BackupRoot)
	require.NoError(t, err)
	count := 0
	for _, e := range entries {
		if e.IsDir() && strings.HasPrefix(e.Name(), ".rust-system-backup-") {
			count++
		}
	}
	assert.Equal(t, 1, count, "prune --keep 1 should leave one backup")
}
