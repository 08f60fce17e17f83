// Package toolchain locates real toolchain binaries and shims on PATH and
// decides which deployment state the system is in.
package toolchain

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/quantum-rust/quantumctl/internal/shim"
)

// ErrNotFound is returned when no real binary for a tool exists anywhere on
// PATH. Installation aborts on this: there is nothing to wrap.
var ErrNotFound = errors.New("toolchain binary not found on PATH")

// Kind classifies a PATH candidate.
type Kind int

const (
	KindReal Kind = iota
	KindShim
	KindBroken // shim whose wrapped binary no longer exists
)

func (k Kind) String() string {
	switch k {
	case KindReal:
		return "real"
	case KindShim:
		return "shim"
	case KindBroken:
		return "broken"
	default:
		return "unknown"
	}
}

// Candidate is one executable found while walking PATH.
type Candidate struct {
	Path string
	Kind Kind
}

// Tool is the resolved deployment view of a single managed tool.
type Tool struct {
	Name     string
	RealPath string // first non-shim candidate, "" if none
	ShimPath string // shim in the managed bin dir, "" if not installed
	Active   bool   // a shim wins PATH resolution
	Broken   bool   // shim exists but its target is gone
}

// SplitPath returns the entries of a PATH-style value, dropping empties.
func SplitPath(pathEnv string) []string {
	var dirs []string
	for _, d := range strings.Split(pathEnv, string(os.PathListSeparator)) {
		if d != "" {
			dirs = append(dirs, d)
		}
	}
	return dirs
}

// LookAll finds every executable named name along pathEnv, in PATH order.
func LookAll(name, pathEnv string) []string {
	var found []string
	for _, dir := range SplitPath(pathEnv) {
		candidate := filepath.Join(dir, name)
		info, err := os.Stat(candidate)
		if err != nil || info.IsDir() {
			continue
		}
		if info.Mode()&0o111 == 0 {
			continue
		}
		found = append(found, candidate)
	}
	return found
}

// Classify decides whether a candidate is a shim, a broken shim, or a real
// binary.
func Classify(path string) Kind {
	if !shim.IsShim(path) {
		return KindReal
	}
	target, err := shim.Target(path)
	if err != nil {
		return KindBroken
	}
	if _, err := os.Stat(target); err != nil {
		return KindBroken
	}
	return KindShim
}

// Candidates classifies every PATH hit for a tool name.
func Candidates(name, pathEnv string) []Candidate {
	paths := LookAll(name, pathEnv)
	out := make([]Candidate, 0, len(paths))
	for _, p := range paths {
		out = append(out, Candidate{Path: p, Kind: Classify(p)})
	}
	return out
}

// FindReal returns the first real (non-shim) binary for name on pathEnv.
// Entries inside binDir are skipped even if they do not sniff as shims, so a
// half-written deployment can never wrap itself.
func FindReal(name, pathEnv, binDir string) (string, error) {
	absBin := ""
	if binDir != "" {
		absBin, _ = filepath.Abs(binDir)
	}
	for _, c := range Candidates(name, pathEnv) {
		if absBin != "" {
			if absDir, err := filepath.Abs(filepath.Dir(c.Path)); err == nil && absDir == absBin {
				continue
			}
		}
		if c.Kind == KindReal {
			return c.Path, nil
		}
		// Shims still know where the original lives; use it when PATH has
		// no plain copy left (system-default deployment replaced it).
		if c.Kind == KindShim {
			if target, err := shim.Target(c.Path); err == nil {
				return target, nil
			}
		}
	}
	return "", fmt.Errorf("%s: %w", name, ErrNotFound)
}

// Resolve builds the deployment view for one tool.
func Resolve(name, pathEnv, binDir string) Tool {
	t := Tool{Name: name}

	shimPath := filepath.Join(binDir, name)
	if info, err := os.Stat(shimPath); err == nil && !info.IsDir() {
		t.ShimPath = shimPath
		if Classify(shimPath) == KindBroken {
			t.Broken = true
		}
	}

	if real, err := FindReal(name, pathEnv, binDir); err == nil {
		t.RealPath = real
	}

	if cands := Candidates(name, pathEnv); len(cands) > 0 {
		first := cands[0]
		t.Active = first.Kind == KindShim || first.Kind == KindBroken
	}
	return t
}

// BinDirOnPath reports whether the shim bin dir appears on pathEnv.
func BinDirOnPath(binDir, pathEnv string) bool {
	absBin, err := filepath.Abs(binDir)
	if err != nil {
		return false
	}
	for _, dir := range SplitPath(pathEnv) {
		if abs, err := filepath.Abs(dir); err == nil && abs == absBin {
			return true
		}
	}
	return false
}
