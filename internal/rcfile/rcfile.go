// Package rcfile edits shell startup files so the shim bin directory wins
// PATH resolution. Edits are confined to a delimited marker block, making
// install idempotent and uninstall exact; removal also strips bare legacy
// lines left behind by the original distribution's install scripts.
package rcfile

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const (
	// BeginMarker and EndMarker delimit the managed block.
	BeginMarker = "# >>> quantum-rust >>>"
	EndMarker   = "# <<< quantum-rust <<<"

	// legacyNeedle matches lines written by the original shell installers,
	// which were removed with `sed '/quantum-rust/d'`.
	legacyNeedle = "quantum-rust"
)

// DefaultFiles are the rc files considered for editing, relative to the
// user's home directory. Only files that already exist are touched.
var DefaultFiles = []string{".bashrc", ".zshrc", ".profile"}

// Block renders the managed rc block for the given deployment home and shim
// bin directory.
func Block(home, binDir string) string {
	var b strings.Builder
	b.WriteString(BeginMarker + "\n")
	fmt.Fprintf(&b, "export QUANTUM_RUST_HOME=%q\n", home)
	// Reference binDir via the variable when it lives under home, so the
	// block survives a moved home directory.
	if rel, err := filepath.Rel(home, binDir); err == nil && !strings.HasPrefix(rel, "..") {
		fmt.Fprintf(&b, "export PATH=\"$QUANTUM_RUST_HOME/%s:$PATH\"\n", filepath.ToSlash(rel))
	} else {
		fmt.Fprintf(&b, "export PATH=%q\n", binDir+":$PATH")
	}
	b.WriteString(EndMarker + "\n")
	return b.String()
}

// Append writes the block to the rc file, replacing any existing managed
// block in place. The file is created only if create is set; installers pass
// false so machines without a .zshrc do not grow one.
func Append(path, block string, create bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		if !create {
			return nil
		}
		data = nil
	}

	lines := splitLines(string(data))
	kept, _ := stripManaged(lines, false)

	var out strings.Builder
	for _, line := range kept {
		out.WriteString(line + "\n")
	}
	if len(kept) > 0 && kept[len(kept)-1] != "" {
		out.WriteString("\n")
	}
	out.WriteString(block)

	return writeInPlace(path, []byte(out.String()))
}

// Remove strips the managed block and any legacy quantum-rust lines from the
// rc file. Reports whether anything changed.
func Remove(path string) (bool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read %s: %w", path, err)
	}

	lines := splitLines(string(data))
	kept, changed := stripManaged(lines, true)
	if !changed {
		return false, nil
	}

	var out strings.Builder
	for _, line := range kept {
		out.WriteString(line + "\n")
	}
	return true, writeInPlace(path, []byte(out.String()))
}

// HasBlock reports whether the rc file contains a managed block.
func HasBlock(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	return strings.Contains(string(data), BeginMarker)
}

// ContainsLegacy reports whether the rc file mentions quantum-rust outside a
// managed block, which indicates an install done by the original shell
// scripts.
func ContainsLegacy(path string) bool {
	data, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	inBlock := false
	for _, line := range splitLines(string(data)) {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == BeginMarker:
			inBlock = true
		case trimmed == EndMarker:
			inBlock = false
		case !inBlock && strings.Contains(line, legacyNeedle):
			return true
		}
	}
	return false
}

// stripManaged removes the managed block, and legacy lines too when
// stripLegacy is set. Returns the kept lines and whether anything was
// removed.
func stripManaged(lines []string, stripLegacy bool) ([]string, bool) {
	var kept []string
	changed := false
	inBlock := false
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		switch {
		case trimmed == BeginMarker:
			inBlock = true
			changed = true
		case trimmed == EndMarker:
			inBlock = false
		case inBlock:
			// dropped
		case stripLegacy && strings.Contains(line, legacyNeedle):
			changed = true
		default:
			kept = append(kept, line)
		}
	}
	// Trim trailing blank lines left behind by a removed block.
	for len(kept) > 0 && strings.TrimSpace(kept[len(kept)-1]) == "" {
		kept = kept[:len(kept)-1]
	}
	return kept, changed
}

func splitLines(s string) []string {
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}

// writeInPlace replaces the file atomically, preserving its permissions.
func writeInPlace(path string, data []byte) error {
	mode := os.FileMode(0o644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to stage %s: %w", path, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to chmod %s: %w", path, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to replace %s: %w", path, err)
	}
	return nil
}
