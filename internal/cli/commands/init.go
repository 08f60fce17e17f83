package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/quantum-rust/quantumctl/internal/cli/output"
	"github.com/quantum-rust/quantumctl/internal/verify"
)

// initConfig is the YAML shape written by init. It mirrors the koanf keys
// the loader reads, with only the values a new user is likely to touch.
type initConfig struct {
	Home       string   `yaml:"home"`
	BinDir     string   `yaml:"bin_dir"`
	StatePath  string   `yaml:"state_path"`
	BackupRoot string   `yaml:"backup_root"`
	Tools      []string `yaml:"tools"`
	RCFiles    []string `yaml:"rc_files"`
	Quiet      bool     `yaml:"quiet"`
	Output     string   `yaml:"output"`
}

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool
	var sample bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a starter quantumctl.yaml configuration",
		Long: `Write a quantumctl.yaml seeded with the current effective configuration.

Edit the generated file to change which tools are wrapped, where shims
and backups live, and which shell rc files are managed.

Use --sample to also scaffold a small Cargo project for smoke-testing
the deployment with 'quantumctl doctor --smoke'.`,
		Example: `  # Write quantumctl.yaml in the current directory
  quantumctl init

  # Write into a new directory, with a smoke-test crate
  quantumctl init my-setup --sample

  # Overwrite an existing config
  quantumctl init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			return runInit(cmd, dir, force, sample)
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	cmd.Flags().BoolVar(&sample, "sample", false, "Also scaffold a sample crate for smoke tests")

	return cmd
}

func runInit(cmd *cobra.Command, dir string, force, sample bool) error {
	cfg := getConfig()
	r := output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(cfg.OutputFormat))

	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	configPath := filepath.Join(dir, "quantumctl.yaml")
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("quantumctl.yaml already exists. Use --force to overwrite")
	}

	seed := initConfig{
		Home:       cfg.Home,
		BinDir:     cfg.BinDir,
		StatePath:  cfg.StatePath,
		BackupRoot: cfg.BackupRoot,
		Tools:      cfg.Tools,
		RCFiles:    cfg.RCFiles,
		Quiet:      cfg.Quiet,
		Output:     cfg.OutputFormat,
	}

	data, err := yaml.Marshal(&seed)
	if err != nil {
		return fmt.Errorf("failed to encode configuration: %w", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", configPath, err)
	}
	r.StatusLine(configPath, "success", "")

	if sample {
		sampleDir, err := verify.ScaffoldSample(dir)
		if err != nil {
			return fmt.Errorf("failed to scaffold sample crate: %w", err)
		}
		r.StatusLine(sampleDir, "success", "smoke-test crate")
	}

	r.Println("")
	r.Success("Configuration initialized!")
	r.Println("")
	r.Println("Next steps:")
	r.Println("  1. Review quantumctl.yaml")
	r.Println("  2. Run 'quantumctl install' to deploy the wrappers")
	r.Println("  3. Run 'quantumctl doctor' to verify the deployment")

	return nil
}
