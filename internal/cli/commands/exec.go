package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/shim"
	"github.com/quantum-rust/quantumctl/internal/toolchain"
)

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "exec <tool> [-- args...]",
		Short: "Run a tool through the quantum wrapper without installing shims",
		Long: `Run the real toolchain binary with the quantum banner, exactly as an
installed shim would: arguments pass through unchanged and the tool's exit
code is propagated verbatim.

The tool is resolved like an installed shim resolves it: an installed shim's
recorded target wins, otherwise the first real binary on PATH.`,
		Example: `  # Compile through the wrapper
  quantumctl exec rustc -- --edition 2021 main.rs

  # Check a project
  quantumctl exec cargo -- check`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args[0], args[1:])
		},
	}
	return cmd
}

func runExec(cmd *cobra.Command, tool string, args []string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	// Prefer the installed shim's recorded target so exec and the shim
	// observably wrap the same binary.
	realPath := ""
	shimPath := filepath.Join(cfg.BinDir, tool)
	if shim.IsShim(shimPath) {
		if target, err := shim.Target(shimPath); err == nil {
			realPath = target
		}
	}
	if realPath == "" {
		found, err := toolchain.FindReal(tool, pathEnv(), cfg.BinDir)
		if err != nil {
			return fmt.Errorf("cannot exec: %w", err)
		}
		realPath = found
	}

	cmdCtx.Logger.Debug("exec pass-through", "tool", tool, "real", realPath, "args", args)
	return shim.Passthrough(cmd.Context(), cmd.ErrOrStderr(), realPath, args, cfg.Banner, cfg.Quiet)
}
