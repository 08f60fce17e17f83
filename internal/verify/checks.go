package verify

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/quantum-rust/quantumctl/internal/backup"
	"github.com/quantum-rust/quantumctl/internal/rcfile"
	"github.com/quantum-rust/quantumctl/internal/shim"
	"github.com/quantum-rust/quantumctl/internal/state"
	"github.com/quantum-rust/quantumctl/internal/toolchain"
)

// Env is everything the standard checks inspect.
type Env struct {
	Tools      []string
	BinDir     string
	RCFiles    []string
	BackupRoot string
	StatePath  string
	PathEnv    string
}

// StandardChecks builds the doctor's check set for a deployment.
func StandardChecks(e Env) []Check {
	return []Check{
		toolchainPresent(e),
		shimsIntact(e),
		binDirOnPath(e),
		rcBlocksConsistent(e),
		backupsValid(e),
		stateReachable(e),
	}
}

func toolchainPresent(e Env) Check {
	return Check{
		ID:    "toolchain-present",
		Name:  "Real toolchain binaries resolvable",
		Group: "toolchain",
		Run: func(ctx context.Context) Result {
			var missing, details []string
			for _, tool := range e.Tools {
				real, err := toolchain.FindReal(tool, e.PathEnv, e.BinDir)
				if err != nil {
					missing = append(missing, tool)
					continue
				}
				details = append(details, fmt.Sprintf("%s -> %s", tool, real))
			}
			if len(missing) > 0 {
				return fail(
					"install the missing toolchain binaries (e.g. via rustup) before deploying",
					fmt.Sprintf("missing: %v", missing),
				)
			}
			return pass(details...)
		},
	}
}

func binDirOnPath(e Env) Check {
	return Check{
		ID:    "bindir-on-path",
		Name:  "Shim directory on PATH",
		Group: "environment",
		Run: func(ctx context.Context) Result {
			if toolchain.BinDirOnPath(e.BinDir, e.PathEnv) {
				return pass(e.BinDir)
			}
			return warn(
				"restart your shell or source your rc file so the PATH change takes effect",
				fmt.Sprintf("%s is not on PATH", e.BinDir),
			)
		},
	}
}

func shimsIntact(e Env) Check {
	return Check{
		ID:    "shims-intact",
		Name:  "Installed shims intact",
		Group: "toolchain",
		Run: func(ctx context.Context) Result {
			var details []string
			var broken, missing int
			for _, tool := range e.Tools {
				path := filepath.Join(e.BinDir, tool)
				info, err := os.Stat(path)
				switch {
				case err != nil:
					missing++
					details = append(details, fmt.Sprintf("%s: no shim installed", tool))
				case info.IsDir() || !shim.IsShim(path):
					broken++
					details = append(details, fmt.Sprintf("%s: %s is not a quantum-rust shim", tool, path))
				default:
					if target, err := shim.Target(path); err != nil {
						broken++
						details = append(details, fmt.Sprintf("%s: unreadable exec target", tool))
					} else if _, err := os.Stat(target); err != nil {
						broken++
						details = append(details, fmt.Sprintf("%s: wrapped binary %s is gone", tool, target))
					} else {
						details = append(details, fmt.Sprintf("%s -> %s", tool, target))
					}
				}
			}
			switch {
			case broken > 0:
				return fail("run `quantumctl install --force` to rewrite the broken shims", details...)
			case missing == len(e.Tools):
				return warn("run `quantumctl install` to deploy", "no shims installed")
			case missing > 0:
				return warn("run `quantumctl install` to install the missing shims", details...)
			default:
				return pass(details...)
			}
		},
	}
}

func rcBlocksConsistent(e Env) Check {
	return Check{
		ID:    "rc-blocks",
		Name:  "Shell rc files consistent",
		Group: "environment",
		Run: func(ctx context.Context) Result {
			var details []string
			var legacy int
			blocks := 0
			existing := 0
			for _, rc := range e.RCFiles {
				if _, err := os.Stat(rc); err != nil {
					continue
				}
				existing++
				if rcfile.HasBlock(rc) {
					blocks++
					details = append(details, fmt.Sprintf("%s: managed block present", rc))
				}
				if rcfile.ContainsLegacy(rc) {
					legacy++
					details = append(details, fmt.Sprintf("%s: legacy quantum-rust lines", rc))
				}
			}
			if legacy > 0 {
				return warn("run `quantumctl install` to migrate legacy rc entries to a managed block", details...)
			}
			if existing > 0 && blocks == 0 {
				return warn("run `quantumctl install` to add the PATH block (or pass --no-rc intentionally)", "no rc file carries the managed block")
			}
			return pass(details...)
		},
	}
}

func backupsValid(e Env) Check {
	return Check{
		ID:    "backups-valid",
		Name:  "Backups readable",
		Group: "recovery",
		Run: func(ctx context.Context) Result {
			mgr := backup.NewManager(e.BackupRoot)
			backups, err := mgr.List()
			if err != nil {
				return fail("check permissions on the backup root", err.Error())
			}
			if len(backups) == 0 {
				return warn("no backups exist; the next install will create one", "nothing to restore from")
			}
			latest := backups[0]
			for _, entry := range latest.Entries {
				if _, err := os.Stat(filepath.Join(latest.Path, entry.BackupFile)); err != nil {
					return fail(
						"the latest backup is incomplete; keep an older one or re-create it",
						fmt.Sprintf("backup %s is missing %s", latest.ID, entry.BackupFile),
					)
				}
			}
			return pass(fmt.Sprintf("%d backup(s), latest %s", len(backups), latest.ID))
		},
	}
}

func stateReachable(e Env) Check {
	return Check{
		ID:    "state-db",
		Name:  "State database reachable",
		Group: "state",
		Run: func(ctx context.Context) Result {
			if _, err := os.Stat(e.StatePath); err != nil {
				return warn("the state database is created on first install", "no state database yet")
			}
			store := state.NewSQLiteStore()
			if err := store.Open(e.StatePath); err != nil {
				return fail("delete or repair the state database; receipts will be rebuilt", err.Error())
			}
			defer store.Close()
			if err := store.Migrate(); err != nil {
				return fail("state database schema is unusable", err.Error())
			}
			if last, err := store.LastReceipt(state.KindInstall); err == nil && last != nil {
				return pass(fmt.Sprintf("last install %s", last.CreatedAt.Format("2006-01-02 15:04:05")))
			}
			return pass("reachable, no installs recorded")
		},
	}
}
