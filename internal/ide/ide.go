// Package ide emits editor configuration pointing each supported IDE at the
// deployed shim toolchain.
package ide

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Paths carries the deployment locations a generator needs.
type Paths struct {
	Home      string // QUANTUM_RUST_HOME
	RustcPath string // shim rustc
	CargoPath string // shim cargo
}

// Generator emits configuration files for one editor under dir. It returns
// the paths it wrote.
type Generator interface {
	Name() string
	Generate(dir string, p Paths, force bool) ([]string, error)
}

// ErrExists is wrapped into errors returned when a target file already
// exists and force was not given.
var ErrExists = fmt.Errorf("configuration file already exists")

var registry = map[string]Generator{}

func register(g Generator) {
	registry[g.Name()] = g
}

// Get returns the generator for an editor name.
func Get(name string) (Generator, error) {
	g, ok := registry[name]
	if !ok {
		return nil, fmt.Errorf("unknown editor %q (supported: %v)", name, Names())
	}
	return g, nil
}

// Names lists the supported editors, sorted.
func Names() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// All returns every registered generator in name order.
func All() []Generator {
	gens := make([]Generator, 0, len(registry))
	for _, name := range Names() {
		gens = append(gens, registry[name])
	}
	return gens
}

// writeFile writes the config file, refusing to clobber without force, and
// creating parent directories as needed.
func writeFile(path string, data []byte, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%w: %s (use force to overwrite)", ErrExists, path)
		}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
