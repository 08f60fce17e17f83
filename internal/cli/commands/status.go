package commands

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/quantum-rust/quantumctl/internal/cli/output"
	"github.com/quantum-rust/quantumctl/internal/rcfile"
	"github.com/quantum-rust/quantumctl/internal/state"
	"github.com/quantum-rust/quantumctl/internal/toolchain"
)

// StatusOutput is the JSON shape of the status command.
type StatusOutput struct {
	Active       bool                `json:"active"`
	BinDir       string              `json:"bin_dir"`
	OnPath       bool                `json:"bin_dir_on_path"`
	Tools        []ToolStatus        `json:"tools"`
	RCFiles      []RCStatus          `json:"rc_files"`
	LastInstall  *state.Receipt      `json:"last_install,omitempty"`
	LastVerified *state.Verification `json:"last_verified,omitempty"`
}

// ToolStatus describes one managed tool.
type ToolStatus struct {
	Name     string `json:"name"`
	ShimPath string `json:"shim_path,omitempty"`
	RealPath string `json:"real_path,omitempty"`
	Version  string `json:"version,omitempty"`
	State    string `json:"state"` // active, inactive, broken, missing
}

// RCStatus describes one managed rc file.
type RCStatus struct {
	Path    string `json:"path"`
	Exists  bool   `json:"exists"`
	Managed bool   `json:"managed"`
	Legacy  bool   `json:"legacy"`
}

// NewStatusCommand creates the status command.
func NewStatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show the current deployment state",
		Example: `  # Human-readable status
  quantumctl status

  # Machine-readable
  quantumctl status -o json`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runStatus(cmd)
		},
	}
	return cmd
}

func runStatus(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg
	r := cmdCtx.Renderer

	st := StatusOutput{
		BinDir: cfg.BinDir,
		OnPath: toolchain.BinDirOnPath(cfg.BinDir, pathEnv()),
	}

	allActive := len(cfg.Tools) > 0
	for _, name := range cfg.Tools {
		tool := toolchain.Resolve(name, pathEnv(), cfg.BinDir)
		ts := ToolStatus{
			Name:     name,
			ShimPath: tool.ShimPath,
			RealPath: tool.RealPath,
		}
		switch {
		case tool.Broken:
			ts.State = "broken"
		case tool.ShimPath == "":
			ts.State = "missing"
		case tool.Active:
			ts.State = "active"
		default:
			ts.State = "inactive"
		}
		if ts.State != "active" {
			allActive = false
		}
		if tool.RealPath != "" {
			if v, err := toolchain.Probe(cmd.Context(), tool.RealPath); err == nil {
				ts.Version = v
			}
		}
		st.Tools = append(st.Tools, ts)
	}
	st.Active = allActive && st.OnPath

	// Receipts are read only when the state db already exists; status must
	// not create files.
	if _, err := os.Stat(cfg.StatePath); err == nil {
		if store, err := openStore(cfg); err == nil {
			st.LastInstall, _ = store.LastReceipt(state.KindInstall)
			st.LastVerified, _ = store.LastVerification()
			store.Close()
		}
	}

	for _, rc := range cfg.RCFiles {
		_, statErr := os.Stat(rc)
		st.RCFiles = append(st.RCFiles, RCStatus{
			Path:    rc,
			Exists:  statErr == nil,
			Managed: rcfile.HasBlock(rc),
			Legacy:  rcfile.ContainsLegacy(rc),
		})
	}

	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(st)
	}

	if st.Active {
		r.Success("Quantum Rust deployment is ACTIVE")
	} else {
		r.Warning("Quantum Rust deployment is NOT active")
	}
	r.Println("")

	rows := make([][]string, 0, len(st.Tools))
	for _, t := range st.Tools {
		rows = append(rows, []string{t.Name, t.State, orDash(t.ShimPath), orDash(t.RealPath), orDash(t.Version)})
	}
	r.Table([]string{"Tool", "State", "Shim", "Real binary", "Version"}, rows)

	r.Println("")
	r.StatusLine(cfg.BinDir, boolStatus(st.OnPath, "ok", "warn"), "shim directory on PATH")
	for _, rc := range st.RCFiles {
		if !rc.Exists {
			continue
		}
		detail := "no quantum-rust entries"
		status := "none"
		switch {
		case rc.Managed && rc.Legacy:
			detail, status = "managed block + legacy lines", "warn"
		case rc.Managed:
			detail, status = "managed block", "ok"
		case rc.Legacy:
			detail, status = "legacy lines only", "warn"
		}
		r.StatusLine(rc.Path, status, detail)
	}

	if st.LastInstall != nil || st.LastVerified != nil {
		r.Println("")
		if st.LastInstall != nil {
			r.Printf("Last install: %s (v%s)\n",
				st.LastInstall.CreatedAt.Format("2006-01-02 15:04:05"), st.LastInstall.Version)
		}
		if st.LastVerified != nil {
			r.Printf("Last doctor run: %s, score %d/100\n",
				st.LastVerified.CreatedAt.Format("2006-01-02 15:04:05"), st.LastVerified.Score)
		}
	}

	return nil
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func boolStatus(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
