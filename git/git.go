package git

import (
	"fmt"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
)

// Context manages git operations for a repository.
type Context struct {
	repoPath string        // Absolute path to the repository root
	workDir  string        // Working directory for commands (defaults to repoPath)
	runner   CommandRunner // Command runner (defaults to ExecRunner)
}

// Option configures Context.
type Option func(*Context)

// NewContext creates a new git context for the repository.
// It validates that the path is a git repository and applies any options.
func NewContext(repoPath string, opts ...Option) (*Context, error) {
	absPath, err := filepath.Abs(repoPath)
	if err != nil {
		return nil, fmt.Errorf("resolve path: %w", err)
	}

	// Verify it's a git repository and anchor at its top level
	cmd := exec.Command("git", "rev-parse", "--show-toplevel")
	cmd.Dir = absPath
	out, err := cmd.Output()
	if err != nil {
		return nil, ErrNotGitRepo
	}
	root := strings.TrimSpace(string(out))

	g := &Context{
		repoPath: root,
		workDir:  root,
		runner:   NewExecRunner(),
	}

	for _, opt := range opts {
		opt(g)
	}

	return g, nil
}

// WithRunner sets a custom command runner for git operations.
// This is primarily used for testing to inject mock command execution.
func WithRunner(runner CommandRunner) Option {
	return func(g *Context) {
		g.runner = runner
	}
}

// RepoPath returns the path to the repository root.
func (g *Context) RepoPath() string {
	return g.repoPath
}

// excludePathspec converts an exclusion pattern to a git pathspec.
func excludePathspec(pattern string) string {
	return ":(exclude)" + pattern
}

// ExcludeArgs converts exclusion patterns to pathspec arguments.
func ExcludeArgs(patterns []string) []string {
	args := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p = strings.TrimSpace(p); p != "" {
			args = append(args, excludePathspec(p))
		}
	}
	return args
}

// StagedEntries returns the staged paths with their change codes, skipping
// anything matching the exclusion patterns. Returns ErrNothingStaged when the
// staging area is empty after exclusions.
func (g *Context) StagedEntries(excludes []string) ([]StatusEntry, error) {
	args := []string{"diff", "--cached", "--name-status", "--diff-algorithm=minimal", "--"}
	args = append(args, ExcludeArgs(excludes)...)

	out, err := g.runGit(args...)
	if err != nil {
		return nil, &Error{Op: "list staged", Output: out, Err: err}
	}
	entries := ParseNameStatus(out)
	if len(entries) == 0 {
		return nil, ErrNothingStaged
	}
	return entries, nil
}

// DiffStaged returns the full staged diff, minus excluded paths.
func (g *Context) DiffStaged(excludes []string) (string, error) {
	args := []string{"diff", "--cached", "--diff-algorithm=minimal", "--"}
	args = append(args, ExcludeArgs(excludes)...)

	diff, err := g.runGit(args...)
	if err != nil {
		return "", &Error{Op: "diff staged", Err: err}
	}
	return diff, nil
}

// DiffFor returns the staged diff restricted to the given paths.
func (g *Context) DiffFor(paths, excludes []string) (string, error) {
	if len(paths) == 0 {
		return "", nil
	}
	args := []string{"diff", "--cached", "--diff-algorithm=minimal", "--"}
	args = append(args, paths...)
	args = append(args, ExcludeArgs(excludes)...)

	diff, err := g.runGit(args...)
	if err != nil {
		return "", &Error{Op: "diff files", Err: err}
	}
	return diff, nil
}

// Stage adds the given paths to the staging area. Directories stage their
// contents recursively.
func (g *Context) Stage(paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	if out, err := g.runGit(args...); err != nil {
		return &Error{Op: "stage files", Output: out, Err: err}
	}
	return nil
}

// StageAll stages all changes (git add -A).
func (g *Context) StageAll() error {
	if out, err := g.runGit("add", "-A"); err != nil {
		return &Error{Op: "stage all", Output: out, Err: err}
	}
	return nil
}

// Commit creates a commit with the given message, restricted to paths when
// provided, and returns the new commit SHA.
// Returns ErrNothingToCommit if there are no matching staged changes.
func (g *Context) Commit(message string, paths ...string) (string, error) {
	args := []string{"commit", "-m", message}
	if len(paths) > 0 {
		args = append(args, "--")
		args = append(args, paths...)
	}

	output, err := g.runGit(args...)
	if err != nil {
		if strings.Contains(output, "nothing to commit") ||
			strings.Contains(err.Error(), "nothing to commit") {
			return "", ErrNothingToCommit
		}
		return "", &Error{Op: "commit", Output: output, Err: err}
	}

	sha, err := g.HeadCommit()
	if err != nil {
		return "", err
	}
	return sha, nil
}

// CurrentBranch returns the current branch name.
func (g *Context) CurrentBranch() (string, error) {
	branch, err := g.runGit("rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", &Error{Op: "get current branch", Err: err}
	}
	return branch, nil
}

// HeadCommit returns the current HEAD commit SHA.
func (g *Context) HeadCommit() (string, error) {
	sha, err := g.runGit("rev-parse", "HEAD")
	if err != nil {
		return "", &Error{Op: "get HEAD commit", Err: err}
	}
	return sha, nil
}

// HasCommits reports whether the repository has any commits.
func (g *Context) HasCommits() bool {
	_, err := g.runGit("rev-parse", "HEAD")
	return err == nil
}

// GetRemoteURL returns the URL of the specified remote.
// Returns ErrNoRemote if the remote is not configured.
func (g *Context) GetRemoteURL(remote string) (string, error) {
	url, err := g.runGit("remote", "get-url", remote)
	if err != nil {
		return "", ErrNoRemote
	}
	return url, nil
}

// AheadCount returns how many commits the current branch is ahead of its
// upstream. Returns ErrNoUpstream when no upstream tracking branch exists.
func (g *Context) AheadCount() (int, error) {
	upstream, err := g.runGit("rev-parse", "--abbrev-ref", "@{upstream}")
	if err != nil {
		return 0, ErrNoUpstream
	}

	out, err := g.runGit("rev-list", "--count", upstream+"..HEAD")
	if err != nil {
		return 0, &Error{Op: "count unpushed commits", Err: err}
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, &Error{Op: "count unpushed commits", Err: err}
	}
	return n, nil
}

// HasCommitsToPush reports whether the current branch is ahead of its
// upstream. A branch with no upstream is treated as having commits to
// push; a repository with no commits at all has nothing to push.
func (g *Context) HasCommitsToPush() bool {
	if !g.HasCommits() {
		return false
	}
	n, err := g.AheadCount()
	if err != nil {
		return true
	}
	return n > 0
}

// Push pushes the current branch to the remote.
// If setUpstream is true, uses -u to set upstream tracking.
func (g *Context) Push(remote string, setUpstream bool) error {
	branch, err := g.CurrentBranch()
	if err != nil {
		return err
	}

	args := []string{"push"}
	if setUpstream {
		args = append(args, "-u")
	}
	args = append(args, remote, branch)

	if out, err := g.runGit(args...); err != nil {
		return &Error{Op: "push", Output: out, Err: ErrPushFailed}
	}
	return nil
}

// runGit executes a git command and returns stdout.
func (g *Context) runGit(args ...string) (string, error) {
	return g.runner.Run(g.workDir, "git", args...)
}
