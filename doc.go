// Package commitflow turns a working tree's staged changes into one or more
// well-formed commits, using an AI provider to propose commit messages and,
// optionally, to group related changes together.
//
// The root package is the orchestration engine: it decides how changed files
// are partitioned into groups (one commit per group), obtains and presents
// message candidates, drives the interactive select/regenerate/cancel loop,
// and realizes the chosen groups as a sequence of commits with an optional
// push at the end. All I/O goes through collaborator interfaces so the engine
// itself is fully unit-testable:
//
//   - git: exec-based git operations (status, diff, stage, commit, push)
//   - config: hierarchical settings resolution (defaults, files, environment)
//   - prompt: prompt template loading
//   - pr: optional pull request creation after push
//   - notify: run-completion notifications (Slack, webhook)
//   - task: task-based model selection
//   - workflow: flowgraph pipeline for embedding runs in larger automations
//   - testutil: test fixtures (temp repos, scripted UI, fake provider)
//
// # Quick Start
//
//	gitCtx, _ := git.NewContext(".")
//	provider, _ := commitflow.NewClaudeCLI(commitflow.ClaudeConfig{})
//
//	runner := commitflow.NewRunner(gitCtx, provider, ui,
//	    commitflow.WithRunLogger(slog.Default()))
//
//	report, err := runner.Run(ctx, commitflow.Options{Push: true})
//
// See individual package documentation for detailed usage.
package commitflow
