package workflow

import (
	"fmt"
	"strings"
	"time"

	"github.com/randalmurphal/flowgraph/pkg/flowgraph"

	commitflow "github.com/randalmurphal/commitflow"
	cfcontext "github.com/randalmurphal/commitflow/context"
	"github.com/randalmurphal/commitflow/notify"
	"github.com/randalmurphal/commitflow/pr"
)

// CollectNode gathers the staged change set.
//
// Prerequisites: git.Context in context
// Updates: state.ChangeSet, state.Branch
func CollectNode(ctx flowgraph.Context, state State) (State, error) {
	gitCtx := cfcontext.Git(ctx)
	if gitCtx == nil {
		return state, fmt.Errorf("git.Context not found in context")
	}

	cs, err := commitflow.NewCollector(gitCtx, state.Excludes).Collect()
	if err != nil {
		state.SetError(err)
		return state, err
	}
	state.ChangeSet = cs

	if branch, err := gitCtx.CurrentBranch(); err == nil {
		state.Branch = branch
	}
	return state, nil
}

// PartitionNode splits the change set under the state's policy.
//
// Prerequisites: state.ChangeSet; Provider in context for PolicyRelated
// Updates: state.Partition
func PartitionNode(ctx flowgraph.Context, state State) (State, error) {
	if state.ChangeSet == nil {
		return state, fmt.Errorf("change set not collected")
	}

	partitioner := commitflow.NewPartitioner(cfcontext.Provider(ctx))
	part, err := partitioner.Partition(ctx, state.ChangeSet, state.Policy, commitflow.PartitionOptions{
		Count: state.Count,
		Style: state.Style,
	})
	if err != nil {
		state.SetError(err)
		return state, err
	}
	state.Partition = part
	return state, nil
}

// GenerateNode produces a commit message per group. Unattended runs take
// the first candidate.
//
// Prerequisites: state.Partition; Provider in context
// Updates: state.Messages
func GenerateNode(ctx flowgraph.Context, state State) (State, error) {
	if state.Partition == nil {
		return state, fmt.Errorf("partition not built")
	}

	gen := commitflow.NewGenerator(cfcontext.MustProvider(ctx),
		commitflow.WithCandidateCount(state.Count),
		commitflow.WithStyle(state.Style),
	)

	state.Messages = make(map[string]string, len(state.Partition.Groups))
	for _, group := range state.Partition.Groups {
		candidates, err := gen.Generate(ctx, state.ChangeSet, group)
		if err != nil {
			state.SetError(err)
			return state, err
		}
		state.Messages[group.ID] = candidates[0].Text
	}
	return state, nil
}

// CommitNode commits each group with its generated message, in partition
// order. A failed group is recorded and the later groups still commit.
//
// Prerequisites: state.Messages
// Updates: state.Report
func CommitNode(ctx flowgraph.Context, state State) (State, error) {
	gitCtx := cfcontext.MustGit(ctx)

	report := &commitflow.RunReport{
		Push:    commitflow.PushNotAttempted,
		Started: time.Now(),
	}
	for _, group := range state.Partition.Groups {
		message, ok := state.Messages[group.ID]
		if !ok || message == "" {
			report.Results = append(report.Results, commitflow.CommitResult{
				Group: group, Outcome: commitflow.OutcomeSkipped,
			})
			continue
		}

		sha, err := gitCtx.Commit(message, group.Files...)
		if err != nil {
			report.Results = append(report.Results, commitflow.CommitResult{
				Group: group, Outcome: commitflow.OutcomeFailed, Err: err,
			})
			continue
		}
		report.Results = append(report.Results, commitflow.CommitResult{
			Group: group, Outcome: commitflow.OutcomeCommitted, Message: message, SHA: sha,
		})
	}
	report.Finished = time.Now()

	state.Report = report
	return state, nil
}

// PushNode pushes the branch when requested and at least one commit was
// made this run.
//
// Prerequisites: state.Report
// Updates: state.Report.Push
func PushNode(ctx flowgraph.Context, state State) (State, error) {
	if !state.Push || state.CommitCount() == 0 {
		return state, nil
	}

	gitCtx := cfcontext.MustGit(ctx)
	remote := state.Remote
	if remote == "" {
		remote = "origin"
	}
	if err := gitCtx.Push(remote, true); err != nil {
		// Commits stay reported even when the push fails.
		state.Report.Push = commitflow.PushFailed
		state.Report.PushErr = err
		state.SetError(err)
		return state, nil
	}
	state.Report.Push = commitflow.PushSucceeded
	return state, nil
}

// CreatePRNode opens a pull request for the pushed branch.
//
// Prerequisites: state.Report.Push == PushSucceeded; pr.Provider in context
// Updates: state.PR, state.PRCreated
func CreatePRNode(ctx flowgraph.Context, state State) (State, error) {
	if !state.OpenPR || state.Report == nil || state.Report.Push != commitflow.PushSucceeded {
		return state, nil
	}

	provider := cfcontext.PR(ctx)
	if provider == nil {
		return state, fmt.Errorf("pr.Provider not found in context")
	}

	var messages []string
	for _, res := range state.Report.Committed() {
		messages = append(messages, res.Message)
	}
	title := messages[0]
	if i := strings.IndexByte(title, '\n'); i >= 0 {
		title = title[:i]
	}

	created, err := provider.CreatePR(ctx, pr.Options{
		Title: title,
		Body:  pr.SummaryBody(messages),
		Base:  state.PRBase,
		Head:  state.Branch,
	})
	if err != nil {
		state.SetError(err)
		return state, err
	}

	state.PR = created
	state.PRCreated = time.Now()
	return state, nil
}

// NotifyNode sends a completion notification. If no notifier is configured
// in the context, this is a no-op.
//
// Updates: None (only sends notification)
func NotifyNode(ctx flowgraph.Context, state State) (State, error) {
	notifier := cfcontext.Notifier(ctx)
	if notifier == nil {
		return state, nil
	}

	event := notify.Event{
		RunID:     state.RunID,
		Branch:    state.Branch,
		Timestamp: time.Now(),
		Metadata:  buildMetadata(state),
	}
	if gitCtx := cfcontext.Git(ctx); gitCtx != nil {
		event.Repo = gitCtx.RepoPath()
	}

	if state.HasError() {
		event.Type = notify.EventRunFailed
		event.Severity = notify.SeverityError
		event.Message = state.Error
	} else {
		event.Type = notify.EventRunCompleted
		event.Severity = notify.SeverityInfo
		event.Message = "commit pipeline completed"
	}

	// Notify but don't fail the pipeline on notification errors
	_ = notifier.Notify(ctx, event)

	return state, nil
}

// buildMetadata builds notification metadata from state
func buildMetadata(state State) map[string]any {
	meta := make(map[string]any)

	meta["commits"] = state.CommitCount()
	if state.Partition != nil {
		meta["groups"] = len(state.Partition.Groups)
	}
	if state.PR != nil {
		meta["prUrl"] = state.PR.URL
	}

	return meta
}

// NewPipeline builds the standard unattended pipeline graph:
// collect -> partition -> generate -> commit -> push -> create-pr -> notify.
func NewPipeline() *flowgraph.Graph[State] {
	return flowgraph.NewGraph[State]().
		AddNode("collect", CollectNode).
		AddNode("partition", PartitionNode).
		AddNode("generate", GenerateNode).
		AddNode("commit", CommitNode).
		AddNode("push", PushNode).
		AddNode("create-pr", CreatePRNode).
		AddNode("notify", NotifyNode).
		AddEdge("collect", "partition").
		AddEdge("partition", "generate").
		AddEdge("generate", "commit").
		AddEdge("commit", "push").
		AddEdge("push", "create-pr").
		AddEdge("create-pr", "notify").
		AddEdge("notify", flowgraph.END).
		SetEntry("collect")
}
