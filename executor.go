package commitflow

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/randalmurphal/commitflow/git"
)

// Executor turns selected groups into commits, one commit per group, in
// partition order. A failure in one group is recorded and does not abort
// the remaining groups; commits already made stay made.
type Executor struct {
	git      *git.Context
	selector *Selector
	logger   *slog.Logger
	remote   string
}

// ExecutorOption configures an Executor.
type ExecutorOption func(*Executor)

// WithExecutorLogger sets the logger.
func WithExecutorLogger(logger *slog.Logger) ExecutorOption {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithRemote sets the push target. Defaults to origin.
func WithRemote(remote string) ExecutorOption {
	return func(e *Executor) {
		if remote != "" {
			e.remote = remote
		}
	}
}

// NewExecutor creates an executor over a git context and a selector.
func NewExecutor(gitCtx *git.Context, selector *Selector, opts ...ExecutorOption) *Executor {
	e := &Executor{
		git:      gitCtx,
		selector: selector,
		logger:   slog.Default(),
		remote:   "origin",
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Execute runs the commit loop over every group in partition order and
// then, when push is requested, pushes once at the end. Groups the
// selection excludes are recorded as skipped; so are the remaining groups
// when the user declines to continue or the run is cancelled mid-way.
// A push failure is recorded in the report without demoting any commit
// result. Full cancellation before the first commit returns
// ErrRunCancelled.
func (e *Executor) Execute(ctx context.Context, cs *ChangeSet, groups []Group, sel GroupSelection, push bool) (*RunReport, error) {
	report := &RunReport{
		Push:    PushNotAttempted,
		Started: time.Now(),
	}
	defer func() { report.Finished = time.Now() }()

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			skipGroups(report, groups[i:])
			return report, err
		}

		if !sel.Includes(group) {
			report.Results = append(report.Results, CommitResult{
				Group: group, Outcome: OutcomeSkipped,
			})
			continue
		}

		res, err := e.selector.SelectMessage(ctx, cs, group)
		if err != nil {
			if errors.Is(err, ErrRunCancelled) || ctx.Err() != nil {
				skipGroups(report, groups[i:])
				if report.CommitCount() == 0 {
					return report, ErrRunCancelled
				}
				// Keep what was committed so far.
				break
			}
			report.Results = append(report.Results, CommitResult{
				Group: group, Outcome: OutcomeFailed, Err: err,
			})
			e.logger.Error("message selection failed",
				"group", group.Label, "error", err)
			continue
		}
		if res.Skipped {
			report.Results = append(report.Results, CommitResult{
				Group: group, Outcome: OutcomeSkipped,
			})
			e.logger.Info("group skipped", "group", group.Label)
			continue
		}

		sha, err := e.commitGroup(group, res.Message)
		if err != nil {
			report.Results = append(report.Results, CommitResult{
				Group: group, Outcome: OutcomeFailed, Err: err,
			})
			e.logger.Error("commit failed", "group", group.Label, "error", err)
			continue
		}

		report.Results = append(report.Results, CommitResult{
			Group:   group,
			Outcome: OutcomeCommitted,
			Message: res.Message,
			SHA:     sha,
		})
		e.logger.Info("committed group",
			"group", group.Label, "sha", sha, "files", len(group.Files))

		if sel.ConfirmEach && hasSelectedAfter(groups, sel, i) {
			cont, err := e.selector.ui.Confirm("Continue with the next group?", true)
			if err != nil || !cont {
				skipGroups(report, groups[i+1:])
				break
			}
		}
	}

	if push {
		e.pushIfNeeded(report)
	}
	return report, nil
}

// skipGroups marks every remaining group as skipped.
func skipGroups(report *RunReport, groups []Group) {
	for _, g := range groups {
		report.Results = append(report.Results, CommitResult{
			Group: g, Outcome: OutcomeSkipped,
		})
	}
}

// hasSelectedAfter reports whether any group past index i is still slated
// to commit.
func hasSelectedAfter(groups []Group, sel GroupSelection, i int) bool {
	for _, g := range groups[i+1:] {
		if sel.Includes(g) {
			return true
		}
	}
	return false
}

// commitGroup commits exactly the group's files. The files are already
// staged; passing them as pathspecs confines the commit to the group.
func (e *Executor) commitGroup(group Group, message string) (string, error) {
	return e.git.Commit(message, group.Files...)
}

// pushIfNeeded pushes the current branch. Only a run that produced at
// least one commit may push; the upstream check then short-circuits when
// the branch is somehow already in sync.
func (e *Executor) pushIfNeeded(report *RunReport) {
	if report.CommitCount() == 0 {
		return
	}
	if !e.git.HasCommitsToPush() {
		e.logger.Info("branch already in sync with upstream, skipping push")
		report.Push = PushSucceeded
		return
	}

	if err := e.git.Push(e.remote, true); err != nil {
		report.Push = PushFailed
		report.PushErr = err
		e.logger.Error("push failed", "error", err)
		return
	}
	report.Push = PushSucceeded
	e.logger.Info("pushed branch")
}
