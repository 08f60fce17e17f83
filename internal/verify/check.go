// Package verify runs deployment health checks and computes an overall
// health score for the doctor command.
package verify

import "context"

// Status is the outcome of a single check.
type Status string

const (
	StatusPass  Status = "pass"
	StatusWarn  Status = "warn"
	StatusError Status = "error"
)

// Result is what a check reports.
type Result struct {
	Status         Status   `json:"status"`
	Details        []string `json:"details,omitempty"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Check is one named health check.
type Check struct {
	ID    string
	Name  string
	Group string
	Run   func(ctx context.Context) Result
}

// CheckResult pairs a check with its outcome.
type CheckResult struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Group  string `json:"group"`
	Result Result `json:"result"`
}

// Report aggregates a doctor run.
type Report struct {
	Checks []CheckResult `json:"checks"`
	Score  int           `json:"score"`
	Passed int           `json:"passed"`
	Warned int           `json:"warned"`
	Failed int           `json:"failed"`
}

// Recommendations collects the non-empty recommendations of failing checks.
func (r *Report) Recommendations() []string {
	var recs []string
	for _, c := range r.Checks {
		if c.Result.Status != StatusPass && c.Result.Recommendation != "" {
			recs = append(recs, c.Result.Recommendation)
		}
	}
	return recs
}

func pass(details ...string) Result {
	return Result{Status: StatusPass, Details: details}
}

func warn(rec string, details ...string) Result {
	return Result{Status: StatusWarn, Details: details, Recommendation: rec}
}

func fail(rec string, details ...string) Result {
	return Result{Status: StatusError, Details: details, Recommendation: rec}
}
