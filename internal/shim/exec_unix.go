//go:build unix

package shim

import (
	"context"
	"os"
	"syscall"
)

// run replaces the current process with the real tool. argv[0] keeps the
// tool's own name so its usage output and error messages look right.
func run(ctx context.Context, realPath string, args []string) error {
	argv := append([]string{realPath}, args...)
	if err := syscall.Exec(realPath, argv, os.Environ()); err != nil {
		// exec can fail for ETXTBSY and friends; fall back to a child process.
		return runFallback(ctx, realPath, args)
	}
	return nil
}
