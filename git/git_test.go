package git

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

// mockRunner scripts git command output by matching on the subcommand.
type mockRunner struct {
	responses map[string]string // keyed by first git argument sequence prefix
	errs      map[string]error
	calls     [][]string
}

func (m *mockRunner) Run(dir, name string, args ...string) (string, error) {
	m.calls = append(m.calls, args)
	key := strings.Join(args, " ")
	for prefix, err := range m.errs {
		if strings.HasPrefix(key, prefix) {
			return m.responses[prefix], err
		}
	}
	for prefix, out := range m.responses {
		if strings.HasPrefix(key, prefix) {
			return out, nil
		}
	}
	return "", nil
}

func setupRepo(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, args := range [][]string{
		{"init"},
		{"config", "user.email", "test@example.com"},
		{"config", "user.name", "Test User"},
	} {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}
	return dir
}

func writeFile(t *testing.T, dir, path, content string) {
	t.Helper()
	full := filepath.Join(dir, path)
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func mockContext(t *testing.T, runner *mockRunner) *Context {
	t.Helper()
	g, err := NewContext(setupRepo(t), WithRunner(runner))
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return g
}

func TestNewContext(t *testing.T) {
	t.Run("valid repository", func(t *testing.T) {
		dir := setupRepo(t)
		g, err := NewContext(dir)
		if err != nil {
			t.Fatalf("NewContext failed: %v", err)
		}
		if g.RepoPath() == "" {
			t.Error("RepoPath is empty")
		}
	})

	t.Run("anchors at the repository root", func(t *testing.T) {
		dir := setupRepo(t)
		writeFile(t, dir, "sub/file.txt", "x")
		g, err := NewContext(filepath.Join(dir, "sub"))
		if err != nil {
			t.Fatalf("NewContext failed: %v", err)
		}
		if filepath.Base(g.RepoPath()) == "sub" {
			t.Errorf("RepoPath = %q, want repository root", g.RepoPath())
		}
	})

	t.Run("not a repository", func(t *testing.T) {
		_, err := NewContext(t.TempDir())
		if !errors.Is(err, ErrNotGitRepo) {
			t.Errorf("err = %v, want ErrNotGitRepo", err)
		}
	})
}

func TestStagedEntries(t *testing.T) {
	t.Run("lists staged paths with codes", func(t *testing.T) {
		dir := setupRepo(t)
		writeFile(t, dir, "a.txt", "hello")
		writeFile(t, dir, "lib/b.txt", "world")
		g, err := NewContext(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.StageAll(); err != nil {
			t.Fatalf("StageAll failed: %v", err)
		}

		entries, err := g.StagedEntries(nil)
		if err != nil {
			t.Fatalf("StagedEntries failed: %v", err)
		}
		if len(entries) != 2 {
			t.Fatalf("got %d entries, want 2", len(entries))
		}
		if entries[0].Path != "a.txt" || entries[0].Code != "A" {
			t.Errorf("entry 0 = %+v", entries[0])
		}
	})

	t.Run("nothing staged", func(t *testing.T) {
		g, err := NewContext(setupRepo(t))
		if err != nil {
			t.Fatal(err)
		}
		_, err = g.StagedEntries(nil)
		if !errors.Is(err, ErrNothingStaged) {
			t.Errorf("err = %v, want ErrNothingStaged", err)
		}
	})

	t.Run("exclusions filter paths", func(t *testing.T) {
		dir := setupRepo(t)
		writeFile(t, dir, "main.go", "package main")
		writeFile(t, dir, "vendor/dep.go", "package dep")
		g, err := NewContext(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.StageAll(); err != nil {
			t.Fatal(err)
		}

		entries, err := g.StagedEntries([]string{"vendor/*"})
		if err != nil {
			t.Fatalf("StagedEntries failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Path != "main.go" {
			t.Errorf("entries = %+v", entries)
		}
	})
}

func TestCommit(t *testing.T) {
	t.Run("commits staged changes and returns SHA", func(t *testing.T) {
		dir := setupRepo(t)
		writeFile(t, dir, "a.txt", "hello")
		g, err := NewContext(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.StageAll(); err != nil {
			t.Fatal(err)
		}

		sha, err := g.Commit("add a.txt")
		if err != nil {
			t.Fatalf("Commit failed: %v", err)
		}
		if len(sha) != 40 {
			t.Errorf("sha = %q, want 40-char hash", sha)
		}
	})

	t.Run("pathspec confines the commit", func(t *testing.T) {
		dir := setupRepo(t)
		writeFile(t, dir, "a.txt", "hello")
		writeFile(t, dir, "b.txt", "world")
		g, err := NewContext(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.StageAll(); err != nil {
			t.Fatal(err)
		}

		if _, err := g.Commit("add a only", "a.txt"); err != nil {
			t.Fatalf("Commit failed: %v", err)
		}

		entries, err := g.StagedEntries(nil)
		if err != nil {
			t.Fatalf("StagedEntries failed: %v", err)
		}
		if len(entries) != 1 || entries[0].Path != "b.txt" {
			t.Errorf("remaining staged = %+v", entries)
		}
	})

	t.Run("nothing to commit", func(t *testing.T) {
		dir := setupRepo(t)
		writeFile(t, dir, "a.txt", "hello")
		g, err := NewContext(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.StageAll(); err != nil {
			t.Fatal(err)
		}
		if _, err := g.Commit("first"); err != nil {
			t.Fatal(err)
		}

		_, err = g.Commit("empty")
		if !errors.Is(err, ErrNothingToCommit) {
			t.Errorf("err = %v, want ErrNothingToCommit", err)
		}
	})
}

func TestCurrentBranch(t *testing.T) {
	dir := setupRepo(t)
	writeFile(t, dir, "a.txt", "hello")
	g, err := NewContext(dir)
	if err != nil {
		t.Fatal(err)
	}
	if err := g.StageAll(); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Commit("first"); err != nil {
		t.Fatal(err)
	}

	branch, err := g.CurrentBranch()
	if err != nil {
		t.Fatalf("CurrentBranch failed: %v", err)
	}
	if branch == "" || branch == "HEAD" {
		t.Errorf("branch = %q", branch)
	}
}

func TestAheadCount(t *testing.T) {
	t.Run("no upstream", func(t *testing.T) {
		dir := setupRepo(t)
		writeFile(t, dir, "a.txt", "hello")
		g, err := NewContext(dir)
		if err != nil {
			t.Fatal(err)
		}
		if err := g.StageAll(); err != nil {
			t.Fatal(err)
		}
		if _, err := g.Commit("first"); err != nil {
			t.Fatal(err)
		}

		_, err = g.AheadCount()
		if !errors.Is(err, ErrNoUpstream) {
			t.Errorf("err = %v, want ErrNoUpstream", err)
		}
		// No upstream means the branch counts as pushable.
		if !g.HasCommitsToPush() {
			t.Error("HasCommitsToPush = false, want true")
		}
	})

	t.Run("empty repository has nothing to push", func(t *testing.T) {
		dir := setupRepo(t)
		g, err := NewContext(dir)
		if err != nil {
			t.Fatal(err)
		}
		if g.HasCommitsToPush() {
			t.Error("HasCommitsToPush = true, want false")
		}
	})

	t.Run("counts commits past upstream", func(t *testing.T) {
		runner := &mockRunner{responses: map[string]string{
			"rev-parse --abbrev-ref @{upstream}": "origin/main",
			"rev-list --count":                   "2",
		}}
		g := mockContext(t, runner)

		n, err := g.AheadCount()
		if err != nil {
			t.Fatalf("AheadCount failed: %v", err)
		}
		if n != 2 {
			t.Errorf("AheadCount = %d, want 2", n)
		}
	})
}

func TestGetRemoteURL(t *testing.T) {
	dir := setupRepo(t)
	g, err := NewContext(dir)
	if err != nil {
		t.Fatal(err)
	}

	if _, err := g.GetRemoteURL("origin"); !errors.Is(err, ErrNoRemote) {
		t.Errorf("err = %v, want ErrNoRemote", err)
	}

	cmd := exec.Command("git", "remote", "add", "origin", "https://github.com/acme/widgets.git")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git remote add: %v\n%s", err, out)
	}

	url, err := g.GetRemoteURL("origin")
	if err != nil {
		t.Fatalf("GetRemoteURL failed: %v", err)
	}
	if url != "https://github.com/acme/widgets.git" {
		t.Errorf("url = %q", url)
	}
}

func TestPush(t *testing.T) {
	t.Run("pushes current branch with upstream flag", func(t *testing.T) {
		runner := &mockRunner{responses: map[string]string{
			"rev-parse --abbrev-ref HEAD": "feature",
		}}
		g := mockContext(t, runner)

		if err := g.Push("origin", true); err != nil {
			t.Fatalf("Push failed: %v", err)
		}

		last := runner.calls[len(runner.calls)-1]
		want := []string{"push", "-u", "origin", "feature"}
		if !reflect.DeepEqual(last, want) {
			t.Errorf("push args = %v, want %v", last, want)
		}
	})

	t.Run("failure wraps ErrPushFailed", func(t *testing.T) {
		runner := &mockRunner{
			responses: map[string]string{
				"rev-parse --abbrev-ref HEAD": "feature",
			},
			errs: map[string]error{
				"push": fmt.Errorf("remote rejected"),
			},
		}
		g := mockContext(t, runner)

		err := g.Push("origin", false)
		if !errors.Is(err, ErrPushFailed) {
			t.Errorf("err = %v, want ErrPushFailed", err)
		}
	})
}

func TestExcludeArgs(t *testing.T) {
	got := ExcludeArgs([]string{"vendor/*", "  ", "*.lock"})
	want := []string{":(exclude)vendor/*", ":(exclude)*.lock"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExcludeArgs = %v, want %v", got, want)
	}
}

func TestParseNameStatus(t *testing.T) {
	out := "A\tnew.go\nM\tchanged.go\nD\tgone.go\nR100\told.go\trenamed.go\n\n"
	entries := ParseNameStatus(out)
	if len(entries) != 4 {
		t.Fatalf("got %d entries, want 4", len(entries))
	}

	if entries[0].Code != "A" || entries[0].Path != "new.go" {
		t.Errorf("entry 0 = %+v", entries[0])
	}
	r := entries[3]
	if !r.Renamed() || r.OldPath != "old.go" || r.Path != "renamed.go" {
		t.Errorf("rename entry = %+v", r)
	}
	if entries[1].Renamed() {
		t.Error("modified entry reported as renamed")
	}
}
