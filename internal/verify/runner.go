package verify

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentChecks bounds parallel check execution; some checks stat the
// same files and a few spawn processes.
const maxConcurrentChecks = 4

// Runner executes a set of checks.
type Runner struct {
	checks []Check
}

// NewRunner creates a runner for the given checks.
func NewRunner(checks []Check) *Runner {
	return &Runner{checks: checks}
}

// Run executes every check concurrently and aggregates the report. Check
// order in the report matches registration order regardless of completion
// order.
func (r *Runner) Run(ctx context.Context) *Report {
	report := &Report{Checks: make([]CheckResult, len(r.checks))}

	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)

	for i, check := range r.checks {
		g.Go(func() error {
			res := check.Run(ctx)
			mu.Lock()
			report.Checks[i] = CheckResult{
				ID:     check.ID,
				Name:   check.Name,
				Group:  check.Group,
				Result: res,
			}
			mu.Unlock()
			return nil
		})
	}
	// Checks never return errors, they report them.
	_ = g.Wait()

	for _, c := range report.Checks {
		switch c.Result.Status {
		case StatusPass:
			report.Passed++
		case StatusWarn:
			report.Warned++
		default:
			report.Failed++
		}
	}
	report.Score = score(report.Passed, report.Warned, report.Failed)
	return report
}

// score maps check outcomes to 0-100: a warn is worth half a pass.
func score(passed, warned, failed int) int {
	total := passed + warned + failed
	if total == 0 {
		return 100
	}
	return (passed*2 + warned) * 100 / (total * 2)
}
