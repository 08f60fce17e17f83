// Package shim renders and inspects the wrapper scripts that stand in for
// the real toolchain binaries on PATH.
package shim

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/template"
)

// Marker is the header line prefix every generated shim carries. Detection
// of an installed deployment relies on this string, so it must stay stable
// across versions.
const Marker = "# quantum-rust shim"

// DefaultBanner is printed to stderr before the wrapped tool runs, matching
// the Quantum Rust distribution's original wrapper scripts.
var DefaultBanner = []string{
	"🔮 Quantum Rust Compiler v1.0.0",
	"⚛️  Quantum optimizations: ENABLED",
	"🏹 Arrow data structures: ACTIVE",
}

// QuietEnv suppresses the banner when set to a non-empty value.
const QuietEnv = "QUANTUM_RUST_QUIET"

// Spec describes a single shim to render.
type Spec struct {
	Tool     string   // base name the shim is installed under (rustc, cargo)
	RealPath string   // absolute path of the wrapped binary
	Version  string   // quantumctl version, recorded in the marker line
	Banner   []string // banner lines; DefaultBanner when empty
}

var scriptTmpl = template.Must(template.New("shim").Parse(`#!/bin/sh
{{.Marker}} v{{.Version}} tool={{.Tool}} (generated, do not edit)
if [ -z "${{.QuietEnv}}" ]; then
{{- range .Banner}}
  echo "{{.}}" >&2
{{- end}}
fi
exec "{{.RealPath}}" "$@"
`))

// Render produces the shim script body.
func (s Spec) Render() ([]byte, error) {
	if s.Tool == "" || s.RealPath == "" {
		return nil, fmt.Errorf("shim spec incomplete: tool=%q real=%q", s.Tool, s.RealPath)
	}
	if !filepath.IsAbs(s.RealPath) {
		return nil, fmt.Errorf("shim target must be absolute: %s", s.RealPath)
	}
	banner := s.Banner
	if len(banner) == 0 {
		banner = DefaultBanner
	}
	version := s.Version
	if version == "" {
		version = "0.0.0"
	}

	var buf bytes.Buffer
	err := scriptTmpl.Execute(&buf, struct {
		Marker   string
		QuietEnv string
		Tool     string
		Version  string
		RealPath string
		Banner   []string
	}{Marker, QuietEnv, s.Tool, version, s.RealPath, banner})
	if err != nil {
		return nil, fmt.Errorf("failed to render shim for %s: %w", s.Tool, err)
	}
	return buf.Bytes(), nil
}

// Write renders the shim and installs it as dir/<tool> with exec permissions.
// Returns the installed path.
func (s Spec) Write(dir string) (string, error) {
	body, err := s.Render()
	if err != nil {
		return "", err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create shim directory %s: %w", dir, err)
	}
	path := filepath.Join(dir, s.Tool)
	if err := os.WriteFile(path, body, 0o755); err != nil {
		return "", fmt.Errorf("failed to write shim %s: %w", path, err)
	}
	return path, nil
}

// IsShim reports whether path is a quantum-rust shim script. It only sniffs
// the first few lines, so it is safe to call on large real binaries.
func IsShim(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; scanner.Scan() && i < 4; i++ {
		if strings.HasPrefix(scanner.Text(), Marker) {
			return true
		}
	}
	return false
}

// Target returns the wrapped binary path recorded in a shim script.
func Target(path string) (string, error) {
	if !IsShim(path) {
		return "", fmt.Errorf("%s is not a quantum-rust shim", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		if !strings.HasPrefix(line, `exec "`) {
			continue
		}
		rest := strings.TrimPrefix(line, `exec "`)
		if idx := strings.Index(rest, `"`); idx > 0 {
			return rest[:idx], nil
		}
	}
	return "", fmt.Errorf("shim %s has no exec line", path)
}

// ToolName parses the tool name recorded in the shim marker line. Falls back
// to the file's base name for shims written before the tool= field existed.
func ToolName(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return filepath.Base(path)
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for i := 0; scanner.Scan() && i < 4; i++ {
		line := scanner.Text()
		if !strings.HasPrefix(line, Marker) {
			continue
		}
		for _, field := range strings.Fields(line) {
			if name, ok := strings.CutPrefix(field, "tool="); ok {
				return name
			}
		}
	}
	return filepath.Base(path)
}
