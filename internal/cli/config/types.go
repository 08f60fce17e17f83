// Package config provides configuration management for the quantumctl CLI.
package config

import (
	"os"
	"path/filepath"

	"github.com/quantum-rust/quantumctl/internal/rcfile"
)

// Default configuration values.
const (
	DefaultHomeDirName = ".quantum-rust"
	DefaultBinDirName  = "bin"
	DefaultStateFile   = "state.db"
	DefaultOutput      = "auto" // Auto-detect: TTY=text, non-TTY=markdown
)

// DefaultTools are the toolchain binaries wrapped by a stock install.
var DefaultTools = []string{"rustc", "cargo"}

// Config holds all CLI configuration options.
type Config struct {
	Home         string   `koanf:"home"`        // QUANTUM_RUST_HOME
	BinDir       string   `koanf:"bin_dir"`     // shim directory, defaults to <home>/bin
	StatePath    string   `koanf:"state_path"`  // receipts database
	BackupRoot   string   `koanf:"backup_root"` // where .rust-system-backup-* dirs live
	Tools        []string `koanf:"tools"`
	RCFiles      []string `koanf:"rc_files"` // absolute paths of shell rc files to manage
	Banner       []string `koanf:"banner"`   // override the shim banner lines
	Quiet        bool     `koanf:"quiet"`
	Verbose      bool     `koanf:"verbose"`
	OutputFormat string   `koanf:"output"`
}

// DefaultHome returns the default QUANTUM_RUST_HOME for this user.
func DefaultHome() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, DefaultHomeDirName)
}

// DefaultRCFiles returns the shell rc files managed by default. Only files
// that exist are edited, but the default list always names all three.
func DefaultRCFiles() []string {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil
	}
	files := make([]string, 0, len(rcfile.DefaultFiles))
	for _, name := range rcfile.DefaultFiles {
		files = append(files, filepath.Join(home, name))
	}
	return files
}

// DefaultBackupRoot returns where backup directories are created. The
// original distribution put them directly in the user's home.
func DefaultBackupRoot() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return home
}
