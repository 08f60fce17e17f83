package toolchain

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"
)

// probeTimeout bounds how long a version query may hang; a wedged binary
// must not stall status and doctor output.
const probeTimeout = 5 * time.Second

// Probe runs `<path> --version` and returns the first output line. The shim
// banner goes to stderr, so probing through a shim still yields the real
// version string.
func Probe(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, path, "--version")
	cmd.Env = append(cmd.Environ(), "QUANTUM_RUST_QUIET=1")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("failed to probe %s: %w", path, err)
	}
	line, _, _ := strings.Cut(strings.TrimSpace(string(out)), "\n")
	return line, nil
}
