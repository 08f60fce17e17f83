package commands

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/cli/config"
	"github.com/quantum-rust/quantumctl/internal/cli/output"
	"github.com/quantum-rust/quantumctl/internal/state"
	"github.com/quantum-rust/quantumctl/internal/verify"
)

// DoctorOptions holds options for the doctor command.
type DoctorOptions struct {
	Format string // Output format: text, json
	Smoke  bool   // Also compile a sample crate through the shims
	Watch  bool   // Re-run checks when the deployment changes on disk
}

// NewDoctorCommand creates the doctor command.
func NewDoctorCommand() *cobra.Command {
	opts := &DoctorOptions{}
	cmd := &cobra.Command{
		Use:   "doctor",
		Short: "Run a comprehensive deployment health check",
		Long: `Analyze the Quantum Rust deployment for potential issues.

The doctor command inspects the shim directory, the wrapped toolchain,
shell rc files, backups, and the receipts database, then reports:
- Health checks grouped by category (Toolchain, Shell, Recovery)
- Health score (0-100)
- Actionable recommendations

Output adapts to environment:
  - Terminal: Styled output with colors
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Run health check
  quantumctl doctor

  # Include a compile smoke test through the shims
  quantumctl doctor --smoke

  # Re-run automatically when the deployment changes
  quantumctl doctor --watch

  # Output as JSON
  quantumctl doctor --format json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDoctor(cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", "", "Output format: text, json")
	cmd.Flags().BoolVar(&opts.Smoke, "smoke", false, "Compile a sample crate through the installed shims")
	cmd.Flags().BoolVar(&opts.Watch, "watch", false, "Watch the deployment and re-run checks on change")

	return cmd
}

// DoctorOutput is the JSON output for the doctor command.
type DoctorOutput struct {
	Checks          []verify.CheckResult `json:"checks"`
	Score           int                  `json:"score"`
	Passed          int                  `json:"passed"`
	Warned          int                  `json:"warned"`
	Failed          int                  `json:"failed"`
	Recommendations []string             `json:"recommendations"`
}

func runDoctor(cmd *cobra.Command, opts *DoctorOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	if opts.Format != "" {
		r = output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), output.Mode(opts.Format))
	}

	env := verifyEnv(cfg)
	checks := verify.StandardChecks(env)
	if opts.Smoke {
		checks = append(checks, verify.SmokeCheck(env))
	}
	runner := verify.NewRunner(checks)

	runOnce := func() error {
		report := runner.Run(cmd.Context())
		recordVerification(cmdCtx, report)
		return renderDoctorReport(r, report)
	}

	if !opts.Watch {
		return runOnce()
	}

	r.Println("Watching deployment for changes, press Ctrl-C to stop")
	return verify.Watch(cmd.Context(), env, func() {
		r.Println("")
		if err := runOnce(); err != nil {
			r.Error(err.Error())
		}
	})
}

func verifyEnv(cfg *config.Config) verify.Env {
	return verify.Env{
		Tools:      cfg.Tools,
		BinDir:     cfg.BinDir,
		RCFiles:    cfg.RCFiles,
		BackupRoot: cfg.BackupRoot,
		StatePath:  cfg.StatePath,
		PathEnv:    pathEnv(),
	}
}

// recordVerification persists the run so status and future doctor runs can
// show the trend. Failures here never fail the doctor run itself.
func recordVerification(cmdCtx *CommandContext, report *verify.Report) {
	store, err := openStore(cmdCtx.Cfg)
	if err != nil {
		cmdCtx.Logger.Warn("skipping verification record", "error", err)
		return
	}
	defer store.Close()

	if err := store.SaveVerification(&state.Verification{
		Score:  report.Score,
		Passed: report.Passed,
		Warned: report.Warned,
		Failed: report.Failed,
	}); err != nil {
		cmdCtx.Logger.Warn("failed to record verification", "error", err)
	}
}

func renderDoctorReport(r *output.Renderer, report *verify.Report) error {
	out := &DoctorOutput{
		Checks:          report.Checks,
		Score:           report.Score,
		Passed:          report.Passed,
		Warned:          report.Warned,
		Failed:          report.Failed,
		Recommendations: report.Recommendations(),
	}

	switch r.EffectiveMode() {
	case output.ModeJSON:
		return r.JSON(out)
	case output.ModeMarkdown:
		return renderDoctorMarkdown(r, out)
	default:
		return renderDoctorText(r, out)
	}
}

func renderDoctorText(r *output.Renderer, out *DoctorOutput) error {
	styles := r.Styles()

	r.Println("")
	r.Println(styles.Title.Render("Quantum Rust Deployment Health Report"))
	r.Println(styles.Dim.Render(strings.Repeat("=", 55)))
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println(styles.Bold.Render("   " + titleCaser.String(currentGroup)))
			r.Println(styles.Dim.Render("   " + strings.Repeat("-", 40)))
		}

		icon := styles.Success.Render("✓")
		switch check.Result.Status {
		case verify.StatusWarn:
			icon = styles.Warning.Render("!")
		case verify.StatusError:
			icon = styles.Error.Render("✗")
		}
		r.Printf("   %s %s\n", icon, check.Name)

		for i, detail := range check.Result.Details {
			if i >= 3 {
				r.Println(styles.Dim.Render(fmt.Sprintf("       ... and %d more", len(check.Result.Details)-3)))
				break
			}
			r.Println(styles.Dim.Render("       - " + detail))
		}
	}
	r.Println("")

	r.Println(styles.Dim.Render(strings.Repeat("=", 55)))
	scoreStyle := styles.Success
	if out.Score < 70 {
		scoreStyle = styles.Warning
	}
	if out.Score < 50 {
		scoreStyle = styles.Error
	}
	r.Printf("   Health Score: %s (%d passed, %d warnings, %d failed)\n",
		scoreStyle.Render(fmt.Sprintf("%d/100", out.Score)), out.Passed, out.Warned, out.Failed)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println(styles.Bold.Render("Recommendations"))
		for i, rec := range out.Recommendations {
			r.Printf("   %d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}

func renderDoctorMarkdown(r *output.Renderer, out *DoctorOutput) error {
	r.Println("# Quantum Rust Deployment Health Report")
	r.Println("")

	r.Println("## Health Checks")
	r.Println("")

	currentGroup := ""
	titleCaser := cases.Title(language.English)
	for _, check := range out.Checks {
		if check.Group != currentGroup {
			currentGroup = check.Group
			r.Println("### " + titleCaser.String(currentGroup))
			r.Println("")
		}
		marker := "PASS"
		switch check.Result.Status {
		case verify.StatusWarn:
			marker = "WARN"
		case verify.StatusError:
			marker = "FAIL"
		}
		r.Printf("- **%s** %s\n", marker, check.Name)
		for _, detail := range check.Result.Details {
			r.Printf("  - %s\n", detail)
		}
	}
	r.Println("")

	r.Printf("**Health Score:** %d/100 (%d passed, %d warnings, %d failed)\n",
		out.Score, out.Passed, out.Warned, out.Failed)
	r.Println("")

	if len(out.Recommendations) > 0 {
		r.Println("## Recommendations")
		r.Println("")
		for i, rec := range out.Recommendations {
			r.Printf("%d. %s\n", i+1, rec)
		}
		r.Println("")
	}

	return nil
}
