package commitflow

import "time"

// Outcome is the per-group result of a run.
type Outcome string

const (
	OutcomeCommitted Outcome = "committed"
	OutcomeSkipped   Outcome = "skipped"
	OutcomeFailed    Outcome = "failed"
)

// PushOutcome records what happened to the push step.
type PushOutcome string

const (
	PushNotAttempted PushOutcome = "not-attempted"
	PushSucceeded    PushOutcome = "pushed"
	PushFailed       PushOutcome = "failed"
)

// CommitResult is the outcome of one group.
type CommitResult struct {
	Group   Group
	Outcome Outcome
	Message string // Final commit message when committed
	SHA     string // Commit hash when committed
	Err     error  // Set when Outcome is OutcomeFailed
}

// RunReport summarizes an entire run. Commits already made are never
// un-reported by later failures; a failed push leaves Results intact.
type RunReport struct {
	Results  []CommitResult
	Push     PushOutcome
	PushErr  error
	Started  time.Time
	Finished time.Time
}

// Committed returns the results that produced a commit, in run order.
func (r *RunReport) Committed() []CommitResult {
	var out []CommitResult
	for _, res := range r.Results {
		if res.Outcome == OutcomeCommitted {
			out = append(out, res)
		}
	}
	return out
}

// CommitCount is the number of commits made this run.
func (r *RunReport) CommitCount() int {
	return len(r.Committed())
}

// Failed reports whether any group failed to commit.
func (r *RunReport) Failed() bool {
	for _, res := range r.Results {
		if res.Outcome == OutcomeFailed {
			return true
		}
	}
	return false
}
