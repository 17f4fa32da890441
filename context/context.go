// Package context injects commitflow services into a context.Context so
// that workflow nodes can reach them without threading every dependency
// through node signatures.
package context

import (
	"context"

	commitflow "github.com/randalmurphal/commitflow"
	"github.com/randalmurphal/commitflow/git"
	"github.com/randalmurphal/commitflow/notify"
	"github.com/randalmurphal/commitflow/pr"
	"github.com/randalmurphal/commitflow/prompt"
)

// serviceContextKey is a private type for context keys to avoid collisions
type serviceContextKey string

// Context keys for commitflow services
const (
	gitServiceKey      serviceContextKey = "commitflow.git"
	promptServiceKey   serviceContextKey = "commitflow.prompts"
	runnerServiceKey   serviceContextKey = "commitflow.runner"
	prServiceKey       serviceContextKey = "commitflow.pr"
	notifierServiceKey serviceContextKey = "commitflow.notifier"
	aiServiceKey       serviceContextKey = "commitflow.provider"
)

// WithGit adds a Git context to the context
func WithGit(ctx context.Context, gitCtx *git.Context) context.Context {
	return context.WithValue(ctx, gitServiceKey, gitCtx)
}

// Git extracts Git context from context
func Git(ctx context.Context) *git.Context {
	if gitCtx, ok := ctx.Value(gitServiceKey).(*git.Context); ok {
		return gitCtx
	}
	return nil
}

// MustGit extracts Git context or panics
func MustGit(ctx context.Context) *git.Context {
	gitCtx := Git(ctx)
	if gitCtx == nil {
		panic("commitflow/context: git.Context not found in context")
	}
	return gitCtx
}

// WithPrompt adds a prompt loader to the context
func WithPrompt(ctx context.Context, loader *prompt.Loader) context.Context {
	return context.WithValue(ctx, promptServiceKey, loader)
}

// Prompt extracts prompt loader from context
func Prompt(ctx context.Context) *prompt.Loader {
	if loader, ok := ctx.Value(promptServiceKey).(*prompt.Loader); ok {
		return loader
	}
	return nil
}

// WithRunner adds a command runner to the context.
// This allows nodes to execute git through a mockable interface.
func WithRunner(ctx context.Context, runner git.CommandRunner) context.Context {
	return context.WithValue(ctx, runnerServiceKey, runner)
}

// Runner extracts command runner from context.
// Returns nil if not set - callers should fall back to ExecRunner.
func Runner(ctx context.Context) git.CommandRunner {
	if runner, ok := ctx.Value(runnerServiceKey).(git.CommandRunner); ok {
		return runner
	}
	return nil
}

// GetRunner returns the command runner from context, or a default ExecRunner.
func GetRunner(ctx context.Context) git.CommandRunner {
	if runner := Runner(ctx); runner != nil {
		return runner
	}
	return git.NewExecRunner()
}

// WithPR adds a PR provider to the context
func WithPR(ctx context.Context, provider pr.Provider) context.Context {
	return context.WithValue(ctx, prServiceKey, provider)
}

// PR extracts PR provider from context
func PR(ctx context.Context) pr.Provider {
	if provider, ok := ctx.Value(prServiceKey).(pr.Provider); ok {
		return provider
	}
	return nil
}

// WithProvider adds an AI provider to the context
func WithProvider(ctx context.Context, p commitflow.Provider) context.Context {
	return context.WithValue(ctx, aiServiceKey, p)
}

// Provider extracts the AI provider from context
func Provider(ctx context.Context) commitflow.Provider {
	if p, ok := ctx.Value(aiServiceKey).(commitflow.Provider); ok {
		return p
	}
	return nil
}

// MustProvider extracts the AI provider or panics
func MustProvider(ctx context.Context) commitflow.Provider {
	p := Provider(ctx)
	if p == nil {
		panic("commitflow/context: Provider not found in context")
	}
	return p
}

// WithNotifier adds a Notifier to the context
func WithNotifier(ctx context.Context, n notify.Notifier) context.Context {
	return context.WithValue(ctx, notifierServiceKey, n)
}

// Notifier extracts the Notifier from context.
// Returns nil if no notifier is configured.
func Notifier(ctx context.Context) notify.Notifier {
	if n, ok := ctx.Value(notifierServiceKey).(notify.Notifier); ok {
		return n
	}
	return nil
}
