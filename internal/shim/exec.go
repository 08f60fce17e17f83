package shim

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// ExitError carries the wrapped tool's exit code up to main so quantumctl
// can exit with the same status the real compiler would have.
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("wrapped tool exited with status %d", e.Code)
}

// Passthrough runs the real tool with args unchanged, printing the banner to
// stderr first unless quiet. On unix the process image is replaced, so on
// success it never returns; the os/exec fallback returns an *ExitError when
// the tool fails.
func Passthrough(ctx context.Context, stderr io.Writer, realPath string, args []string, banner []string, quiet bool) error {
	PrintBanner(stderr, banner, quiet)
	return run(ctx, realPath, args)
}

// PrintBanner writes the quantum banner to w, honoring both the quiet flag
// and the QUANTUM_RUST_QUIET environment variable like the shell shims do.
func PrintBanner(w io.Writer, banner []string, quiet bool) {
	if quiet || os.Getenv(QuietEnv) != "" {
		return
	}
	if len(banner) == 0 {
		banner = DefaultBanner
	}
	for _, line := range banner {
		fmt.Fprintln(w, line)
	}
}

// runFallback executes the tool as a child process and maps its exit status
// to an *ExitError. Used on platforms without execve and as a safety net
// when the syscall fails.
func runFallback(ctx context.Context, realPath string, args []string) error {
	cmd := exec.CommandContext(ctx, realPath, args...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	err := cmd.Run()
	if err == nil {
		return nil
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return &ExitError{Code: exitErr.ExitCode()}
	}
	return fmt.Errorf("failed to run %s: %w", realPath, err)
}
