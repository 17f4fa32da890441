// Package workflow provides a flowgraph pipeline for unattended commit
// runs, for CI jobs and other embedders that can't prompt a user.
//
// Core types:
//   - State: Pipeline state with the change set, partition, messages and report
//
// Pipeline nodes:
//   - CollectNode: Gathers the staged change set
//   - PartitionNode: Splits the change set into groups
//   - GenerateNode: Generates a commit message per group
//   - CommitNode: Commits each group in order
//   - PushNode: Pushes the branch when commits were made
//   - CreatePRNode: Opens a pull request for the pushed branch
//   - NotifyNode: Sends a completion notification
//
// Example usage:
//
//	graph, err := workflow.NewPipeline().Compile()
//	ctx = cfcontext.WithGit(ctx, gitCtx)
//	ctx = cfcontext.WithProvider(ctx, provider)
//	result, err := graph.Run(ctx, workflow.NewState().WithPush())
package workflow
