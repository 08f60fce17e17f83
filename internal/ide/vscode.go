package ide

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

func init() { register(vscode{}) }

type vscode struct{}

func (vscode) Name() string { return "vscode" }

// Generate merges the toolchain keys into .vscode/settings.json, preserving
// whatever other settings the workspace already has. VSCode tolerates no
// comments in files we rewrite, so a settings file that fails to parse is
// left alone unless force is given.
func (vscode) Generate(dir string, p Paths, force bool) ([]string, error) {
	path := filepath.Join(dir, ".vscode", "settings.json")

	settings := map[string]any{}
	if data, err := os.ReadFile(path); err == nil {
		if err := json.Unmarshal(data, &settings); err != nil {
			if !force {
				return nil, fmt.Errorf("existing %s is not valid JSON: %w", path, err)
			}
			settings = map[string]any{}
		}
	}

	settings["rust-analyzer.server.extraEnv"] = map[string]any{
		"QUANTUM_RUST_HOME": p.Home,
	}
	settings["rust-analyzer.cargo.extraEnv"] = map[string]any{
		"QUANTUM_RUST_HOME": p.Home,
	}
	settings["rust-analyzer.checkOnSave.overrideCommand"] = []string{
		p.CargoPath, "check", "--message-format=json",
	}
	settings["terminal.integrated.env.linux"] = map[string]any{
		"PATH": filepath.Dir(p.RustcPath) + ":${env:PATH}",
	}

	data, err := json.MarshalIndent(settings, "", "    ")
	if err != nil {
		return nil, err
	}
	data = append(data, '\n')

	// Merging counts as an intentional edit, so bypass the exists check.
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write %s: %w", path, err)
	}
	return []string{path}, nil
}
