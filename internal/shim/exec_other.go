//go:build !unix

package shim

import "context"

func run(ctx context.Context, realPath string, args []string) error {
	return runFallback(ctx, realPath, args)
}
