package integrationtest

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	commitflow "github.com/randalmurphal/commitflow"
	cfcontext "github.com/randalmurphal/commitflow/context"
	"github.com/randalmurphal/commitflow/git"
	"github.com/randalmurphal/flowgraph/pkg/flowgraph"
)

// setupTempRepo creates a temporary git repository with one initial commit.
func setupTempRepo(t *testing.T) string {
	t.Helper()

	dir := t.TempDir()
	run := func(args ...string) {
		cmd := exec.Command("git", args...)
		cmd.Dir = dir
		if out, err := cmd.CombinedOutput(); err != nil {
			t.Fatalf("git %v: %v\n%s", args, err, out)
		}
	}

	run("init")
	run("config", "user.email", "test@example.com")
	run("config", "user.name", "Test User")

	readme := filepath.Join(dir, "README.md")
	if err := os.WriteFile(readme, []byte("# Test Repo\n"), 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	run("add", ".")
	run("commit", "-m", "Initial commit")

	return dir
}

// stageFiles writes and stages files without committing them.
func stageFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()

	for path, content := range files {
		full := filepath.Join(dir, path)
		if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(full, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	cmd := exec.Command("git", "add", ".")
	cmd.Dir = dir
	if out, err := cmd.CombinedOutput(); err != nil {
		t.Fatalf("git add: %v\n%s", err, out)
	}
}

// setupContext creates a flowgraph.Context with the services the pipeline
// nodes expect.
func setupContext(t *testing.T, repoPath string, provider commitflow.Provider) flowgraph.Context {
	t.Helper()

	baseCtx := context.Background()

	gitCtx, err := git.NewContext(repoPath)
	if err != nil {
		t.Fatalf("git.NewContext: %v", err)
	}
	baseCtx = cfcontext.WithGit(baseCtx, gitCtx)

	if provider != nil {
		baseCtx = cfcontext.WithProvider(baseCtx, provider)
	}

	return flowgraph.NewContext(baseCtx)
}

// scriptedProvider answers generation and grouping requests from fixed
// message sets.
type scriptedProvider struct {
	messages [][]string
	calls    int
}

func (p *scriptedProvider) GenerateMessages(ctx context.Context, req commitflow.GenerateRequest) ([]string, error) {
	if p.calls >= len(p.messages) {
		return nil, fmt.Errorf("scriptedProvider: no message sets left")
	}
	msgs := p.messages[p.calls]
	p.calls++
	return msgs, nil
}

func (p *scriptedProvider) InferGroups(ctx context.Context, req commitflow.GroupingRequest) (*commitflow.PartitionProposal, error) {
	groups := make([]commitflow.ProposedGroup, 0, 1)
	groups = append(groups, commitflow.ProposedGroup{
		Name:  "all-related",
		Files: req.Files,
		Type:  "chore",
	})
	return &commitflow.PartitionProposal{Groups: groups}, nil
}
