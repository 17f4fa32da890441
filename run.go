package commitflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	nanoid "github.com/matoous/go-nanoid/v2"

	"github.com/randalmurphal/commitflow/changelog"
	"github.com/randalmurphal/commitflow/git"
	"github.com/randalmurphal/commitflow/notify"
	"github.com/randalmurphal/commitflow/pr"
)

// Options configures a single run.
type Options struct {
	// Policy selects the partitioning strategy. Empty or PolicyAsk lets
	// the run resolve it from the change set, prompting when needed.
	Policy Policy

	// Targets are explicit paths for PolicyFiles.
	Targets []string

	// StageAll stages changes before collecting: every working-tree
	// change, or exactly the Targets when given. Without it, Targets
	// only filter what is already staged.
	StageAll bool

	// FilesMode is the PolicyFiles sub-mode.
	FilesMode FilesMode

	// Excludes are pathspec patterns removed from the change set.
	Excludes []string

	// Count is the number of message candidates per group.
	Count int

	// Style is the commit message style.
	Style Style

	// Locale is the output language for generated messages.
	Locale string

	// Push pushes the branch after committing.
	Push bool

	// Remote is the push target. Defaults to "origin".
	Remote string

	// Changelog writes a changelog entry for the run's changes.
	Changelog bool

	// ChangelogDir is where changelog entries are written.
	ChangelogDir string

	// CreatePR opens a pull request after a successful push.
	CreatePR bool

	// PRBase is the target branch for the pull request.
	PRBase string
}

// Runner wires the collector, partitioner, generator, selector and executor
// into a full interactive run.
type Runner struct {
	git      *git.Context
	provider Provider
	ui       UI
	logger   *slog.Logger
	notifier notify.Notifier
	prOpener func(remoteURL string) (pr.Provider, error)
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithLogger sets the runner's logger.
func WithLogger(logger *slog.Logger) RunnerOption {
	return func(r *Runner) {
		r.logger = logger
	}
}

// WithNotifier sets a notifier for run events.
func WithNotifier(n notify.Notifier) RunnerOption {
	return func(r *Runner) {
		r.notifier = n
	}
}

// WithPROpener overrides how a PR provider is built from a remote URL.
// The default uses tokens from the environment.
func WithPROpener(fn func(remoteURL string) (pr.Provider, error)) RunnerOption {
	return func(r *Runner) {
		r.prOpener = fn
	}
}

// NewRunner creates a runner over a repository, an AI provider and a UI.
func NewRunner(gitCtx *git.Context, provider Provider, ui UI, opts ...RunnerOption) *Runner {
	r := &Runner{
		git:      gitCtx,
		provider: provider,
		ui:       ui,
		logger:   slog.Default(),
		notifier: notify.NopNotifier{},
		prOpener: pr.ProviderFromEnv,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes one full commit flow: collect staged changes, partition them,
// generate and select messages, commit group by group, then optionally push,
// write a changelog entry and open a pull request.
//
// Returns ErrEmptyChangeSet when nothing is staged and ErrRunCancelled when
// the user backs out before anything is committed.
func (r *Runner) Run(ctx context.Context, opts Options) (*RunReport, error) {
	runID := nanoid.MustGenerate(groupIDAlphabet, 10)
	logger := r.logger.With("run_id", runID)

	if opts.StageAll {
		if err := r.stage(opts.Targets, logger); err != nil {
			return nil, err
		}
	}

	cs, err := NewCollector(r.git, opts.Excludes).Collect()
	if err != nil {
		return nil, err
	}
	logger.Info("collected staged changes", "files", cs.Len())

	r.emit(ctx, notify.Event{
		Type: notify.EventRunStarted, RunID: runID, Repo: r.git.RepoPath(),
		Message: "commit run started", Severity: notify.SeverityInfo,
		Metadata: map[string]any{"files": cs.Len()},
	})

	policy := opts.Policy
	if policy == "" || policy == PolicyAsk {
		filesMode := len(opts.Targets) > 0
		if filesMode {
			policy = PolicyFiles
		} else {
			policy, err = ResolvePolicy("", PolicyAsk, cs, false, r.ui)
			if err != nil {
				return nil, err
			}
		}
	}
	logger.Info("partitioning changes", "policy", policy)

	partitioner := NewPartitioner(r.provider, WithPartitionLogger(logger))
	gen := NewGenerator(r.provider,
		WithCandidateCount(opts.Count),
		WithStyle(opts.Style),
		WithLocale(opts.Locale),
		WithGeneratorLogger(logger),
	)
	selector := NewSelector(r.ui, gen, logger)

	var part *Partition
	var sel GroupSelection
	for {
		part, err = partitioner.Partition(ctx, cs, policy, PartitionOptions{
			Targets: opts.Targets,
			Mode:    opts.FilesMode,
			Count:   opts.Count,
			Style:   opts.Style,
		})
		if err != nil {
			r.emitFailure(ctx, runID, err)
			return nil, err
		}

		sel, err = selector.SelectGroups(part, policy == PolicyRelated)
		if err != nil {
			r.emitFailure(ctx, runID, err)
			return nil, err
		}
		if !sel.Regenerate {
			break
		}
		logger.Info("regenerating grouping at user request")
	}

	executor := NewExecutor(r.git, selector,
		WithExecutorLogger(logger),
		WithRemote(opts.Remote),
	)
	report, err := executor.Execute(ctx, cs, part.Groups, sel, opts.Push)
	if err != nil {
		r.emitFailure(ctx, runID, err)
		return report, err
	}

	r.afterRun(ctx, runID, cs, report, opts, logger)
	return report, nil
}

// stage puts changes into the index before collection: the explicit
// targets when given, otherwise everything in the working tree.
func (r *Runner) stage(targets []string, logger *slog.Logger) error {
	if len(targets) > 0 {
		logger.Info("staging targets", "count", len(targets))
		return r.git.Stage(targets...)
	}
	logger.Info("staging all changes")
	return r.git.StageAll()
}

// afterRun handles the post-commit steps: notifications, changelog entry
// and pull request. None of them can fail the run.
func (r *Runner) afterRun(ctx context.Context, runID string, cs *ChangeSet, report *RunReport, opts Options, logger *slog.Logger) {
	branch, _ := r.git.CurrentBranch()

	for _, res := range report.Committed() {
		r.emit(ctx, notify.Event{
			Type: notify.EventCommitCreated, RunID: runID, Repo: r.git.RepoPath(),
			Branch: branch, Message: res.Message, Severity: notify.SeverityInfo,
			Metadata: map[string]any{"sha": res.SHA, "group": res.Group.Label},
		})
	}

	if opts.Changelog && report.CommitCount() > 0 {
		r.writeChangelog(ctx, cs, opts, logger)
	}

	switch report.Push {
	case PushSucceeded:
		r.emit(ctx, notify.Event{
			Type: notify.EventPushCompleted, RunID: runID, Repo: r.git.RepoPath(),
			Branch: branch, Message: "pushed branch", Severity: notify.SeverityInfo,
		})
		if opts.CreatePR {
			r.openPullRequest(ctx, runID, branch, report, opts, logger)
		}
	case PushFailed:
		r.emit(ctx, notify.Event{
			Type: notify.EventPushFailed, RunID: runID, Repo: r.git.RepoPath(),
			Branch: branch, Message: report.PushErr.Error(), Severity: notify.SeverityError,
		})
	}

	eventType := notify.EventRunCompleted
	severity := notify.SeverityInfo
	if report.Failed() {
		eventType = notify.EventRunFailed
		severity = notify.SeverityError
	}
	r.emit(ctx, notify.Event{
		Type: eventType, RunID: runID, Repo: r.git.RepoPath(), Branch: branch,
		Message:  "commit run finished",
		Severity: severity,
		Metadata: map[string]any{"commits": report.CommitCount()},
	})
}

// writeChangelog stores a changelog entry summarizing the run's full
// diff corpus.
func (r *Runner) writeChangelog(ctx context.Context, cs *ChangeSet, opts Options, logger *slog.Logger) {
	summarizer, ok := r.provider.(changelog.Summarizer)
	if !ok {
		logger.Warn("provider cannot summarize diffs, skipping changelog")
		return
	}

	dir := opts.ChangelogDir
	if dir == "" {
		dir = "changelogs"
	}
	writer := changelog.NewWriter(dir, summarizer)
	path, err := writer.Generate(ctx, cs.Diff())
	if err != nil {
		logger.Warn("changelog generation failed", "error", err)
		return
	}
	logger.Info("wrote changelog entry", "path", path)
}

// openPullRequest creates a PR for the pushed branch.
func (r *Runner) openPullRequest(ctx context.Context, runID, branch string, report *RunReport, opts Options, logger *slog.Logger) {
	remote := opts.Remote
	if remote == "" {
		remote = "origin"
	}
	remoteURL, err := r.git.GetRemoteURL(remote)
	if err != nil {
		logger.Warn("cannot resolve remote URL, skipping PR", "error", err)
		return
	}

	provider, err := r.prOpener(remoteURL)
	if err != nil {
		logger.Warn("no PR provider available", "error", err)
		return
	}

	committed := report.Committed()
	var messages []string
	for _, res := range committed {
		messages = append(messages, res.Message)
	}

	title := committed[0].Message
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}

	created, err := provider.CreatePR(ctx, pr.Options{
		Title: title,
		Body:  pr.SummaryBody(messages),
		Base:  opts.PRBase,
		Head:  branch,
	})
	if err != nil {
		if errors.Is(err, pr.ErrExists) {
			logger.Info("pull request already exists for branch", "branch", branch)
			return
		}
		logger.Warn("pull request creation failed", "error", err)
		return
	}

	logger.Info("created pull request", "url", created.URL)
	r.emit(ctx, notify.Event{
		Type: notify.EventPRCreated, RunID: runID, Repo: r.git.RepoPath(),
		Branch: branch, Message: created.Title, Severity: notify.SeverityInfo,
		Metadata: map[string]any{"url": created.URL, "id": created.ID},
	})
}

func (r *Runner) emit(ctx context.Context, event notify.Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	// Notification failures never fail the run.
	_ = r.notifier.Notify(ctx, event)
}

func (r *Runner) emitFailure(ctx context.Context, runID string, err error) {
	if errors.Is(err, ErrRunCancelled) {
		return
	}
	r.emit(ctx, notify.Event{
		Type: notify.EventRunFailed, RunID: runID, Repo: r.git.RepoPath(),
		Message: err.Error(), Severity: notify.SeverityError,
	})
}
