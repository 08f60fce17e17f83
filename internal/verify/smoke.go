package verify

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"
)

// smokeTimeout bounds the sample build. A first cargo build fetches nothing
// (the sample has no dependencies) but still compiles.
const smokeTimeout = 2 * time.Minute

const sampleManifest = `[package]
name = "quantum-smoke"
version = "0.1.0"
edition = "2021"

[dependencies]
`

const sampleMain = `fn main() {
    let data: Vec<u64> = (0..64).collect();
    let sum: u64 = data.iter().sum();
    println!("quantum smoke ok: {sum}");
}
`

// ScaffoldSample writes a minimal cargo project under dir and returns the
// project root.
func ScaffoldSample(dir string) (string, error) {
	root := filepath.Join(dir, "quantum-smoke")
	if err := os.MkdirAll(filepath.Join(root, "src"), 0o755); err != nil {
		return "", fmt.Errorf("failed to scaffold sample project: %w", err)
	}
	if err := os.WriteFile(filepath.Join(root, "Cargo.toml"), []byte(sampleManifest), 0o644); err != nil {
		return "", err
	}
	if err := os.WriteFile(filepath.Join(root, "src", "main.rs"), []byte(sampleMain), 0o644); err != nil {
		return "", err
	}
	return root, nil
}

// SmokeCheck builds a throwaway cargo project through the deployed shims.
// It is opt-in (doctor --smoke): it spawns the real toolchain and can take
// minutes on a cold target dir.
func SmokeCheck(e Env) Check {
	return Check{
		ID:    "smoke-build",
		Name:  "Sample project builds through shims",
		Group: "smoke",
		Run: func(ctx context.Context) Result {
			cargoShim := filepath.Join(e.BinDir, "cargo")
			if _, err := os.Stat(cargoShim); err != nil {
				return warn("install first; the smoke test needs the cargo shim", "cargo shim not installed")
			}

			tmp, err := os.MkdirTemp("", "quantumctl-smoke-*")
			if err != nil {
				return fail("could not create a temp dir for the smoke build", err.Error())
			}
			defer os.RemoveAll(tmp)

			root, err := ScaffoldSample(tmp)
			if err != nil {
				return fail("could not scaffold the sample project", err.Error())
			}

			ctx, cancel := context.WithTimeout(ctx, smokeTimeout)
			defer cancel()

			cmd := exec.CommandContext(ctx, cargoShim, "build", "--quiet")
			cmd.Dir = root
			cmd.Env = append(os.Environ(), "QUANTUM_RUST_QUIET=1")
			out, err := cmd.CombinedOutput()
			if err != nil {
				return fail(
					"the shimmed toolchain cannot build a trivial project; run `quantumctl doctor` without --smoke for details",
					fmt.Sprintf("cargo build failed: %v", err),
					string(out),
				)
			}
			return pass("sample project compiled through the shims")
		},
	}
}
