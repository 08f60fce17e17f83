package commands

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/ide"
)

// IDEOptions holds options for the ide command.
type IDEOptions struct {
	Dir   string
	Force bool
}

// NewIDECommand creates the ide command group.
func NewIDECommand() *cobra.Command {
	opts := &IDEOptions{}
	cmd := &cobra.Command{
		Use:   "ide <editor>",
		Short: "Generate IDE configuration pointing at the shim toolchain",
		Long: `Emit editor configuration files that make an IDE use the deployed
Quantum Rust shims instead of the system toolchain.

Supported editors: ` + fmt.Sprintf("%v", ide.Names()) + `, or "all".`,
		Example: `  # VSCode settings for the current project
  quantumctl ide vscode

  # Every supported editor into a specific directory
  quantumctl ide all --dir ~/myproject`,
		Args:      cobra.ExactArgs(1),
		ValidArgs: append(ide.Names(), "all"),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIDE(cmd, opts, args[0])
		},
	}

	cmd.Flags().StringVar(&opts.Dir, "dir", ".", "Directory to write configuration into")
	cmd.Flags().BoolVar(&opts.Force, "force", false, "Overwrite existing configuration files")

	return cmd
}

func runIDE(cmd *cobra.Command, opts *IDEOptions, editor string) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	paths := ide.Paths{
		Home:      cfg.Home,
		RustcPath: filepath.Join(cfg.BinDir, "rustc"),
		CargoPath: filepath.Join(cfg.BinDir, "cargo"),
	}

	var gens []ide.Generator
	if editor == "all" {
		gens = ide.All()
	} else {
		g, err := ide.Get(editor)
		if err != nil {
			return err
		}
		gens = []ide.Generator{g}
	}

	for _, g := range gens {
		files, err := g.Generate(opts.Dir, paths, opts.Force)
		if err != nil {
			return fmt.Errorf("%s: %w", g.Name(), err)
		}
		for _, f := range files {
			r.StatusLine(g.Name(), "success", f)
		}
	}

	r.Success("IDE configuration generated")
	return nil
}
