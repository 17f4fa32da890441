package commitflow

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"reflect"
	"testing"

	"github.com/randalmurphal/commitflow/testutil"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestPartitionGlobal(t *testing.T) {
	cs := testChangeSet("api/handler.go", "docs/readme.md")
	p := NewPartitioner(nil, WithPartitionLogger(quietLogger()))

	part, err := p.Partition(context.Background(), cs, PolicyGlobal, PartitionOptions{})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}
	if len(part.Groups) != 1 {
		t.Fatalf("got %d groups, want 1", len(part.Groups))
	}

	g := part.Groups[0]
	if g.Label != "all-changes" {
		t.Errorf("Label = %q, want all-changes", g.Label)
	}
	if !reflect.DeepEqual(g.Files, cs.Paths()) {
		t.Errorf("Files = %v, want %v", g.Files, cs.Paths())
	}
	if g.ID == "" {
		t.Error("group ID is empty")
	}
}

func TestPartitionEmptyChangeSet(t *testing.T) {
	p := NewPartitioner(nil, WithPartitionLogger(quietLogger()))

	_, err := p.Partition(context.Background(), testChangeSet(), PolicyGlobal, PartitionOptions{})
	if !errors.Is(err, ErrEmptyChangeSet) {
		t.Errorf("err = %v, want ErrEmptyChangeSet", err)
	}
}

func TestPartitionDirectory(t *testing.T) {
	cs := testChangeSet(
		"web/index.html",
		"api/handler.go",
		"api/routes.go",
		"Makefile",
	)
	p := NewPartitioner(nil, WithPartitionLogger(quietLogger()))

	part, err := p.Partition(context.Background(), cs, PolicyDirectory, PartitionOptions{})
	if err != nil {
		t.Fatalf("Partition failed: %v", err)
	}

	// Directories sorted lexicographically, root files under their own group.
	wantLabels := []string{"api", "root", "web"}
	var labels []string
	for _, g := range part.Groups {
		labels = append(labels, g.Label)
	}
	if !reflect.DeepEqual(labels, wantLabels) {
		t.Fatalf("labels = %v, want %v", labels, wantLabels)
	}

	if got := part.Groups[0].Files; !reflect.DeepEqual(got, []string{"api/handler.go", "api/routes.go"}) {
		t.Errorf("api group files = %v", got)
	}

	// Every changed file appears exactly once across the partition.
	assertTotalPartition(t, part, cs)
}

func TestPartitionTargets(t *testing.T) {
	cs := testChangeSet(
		"api/handler.go",
		"api/routes.go",
		"web/index.html",
		"Makefile",
	)
	p := NewPartitioner(nil, WithPartitionLogger(quietLogger()))
	ctx := context.Background()

	t.Run("file targets become singleton groups", func(t *testing.T) {
		part, err := p.Partition(ctx, cs, PolicyFiles, PartitionOptions{
			Targets: []string{"Makefile", "web/index.html"},
		})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if len(part.Groups) != 2 {
			t.Fatalf("got %d groups, want 2", len(part.Groups))
		}
		if !reflect.DeepEqual(part.Groups[0].Files, []string{"Makefile"}) {
			t.Errorf("first group files = %v", part.Groups[0].Files)
		}
	})

	t.Run("directory target forms one group", func(t *testing.T) {
		part, err := p.Partition(ctx, cs, PolicyFiles, PartitionOptions{
			Targets: []string{"api/"},
		})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if len(part.Groups) != 1 {
			t.Fatalf("got %d groups, want 1", len(part.Groups))
		}
		want := []string{"api/handler.go", "api/routes.go"}
		if !reflect.DeepEqual(part.Groups[0].Files, want) {
			t.Errorf("files = %v, want %v", part.Groups[0].Files, want)
		}
	})

	t.Run("unmatched targets dropped with remainder kept", func(t *testing.T) {
		part, err := p.Partition(ctx, cs, PolicyFiles, PartitionOptions{
			Targets: []string{"nonexistent/", "Makefile"},
		})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if len(part.Groups) != 1 {
			t.Fatalf("got %d groups, want 1", len(part.Groups))
		}
	})

	t.Run("no matches at all", func(t *testing.T) {
		_, err := p.Partition(ctx, cs, PolicyFiles, PartitionOptions{
			Targets: []string{"nope.go", "missing/"},
		})
		if !errors.Is(err, ErrNoMatchingFiles) {
			t.Errorf("err = %v, want ErrNoMatchingFiles", err)
		}
	})

	t.Run("global sub-mode collapses file targets", func(t *testing.T) {
		part, err := p.Partition(ctx, cs, PolicyFiles, PartitionOptions{
			Targets: []string{"Makefile", "web/index.html", "api/"},
			Mode:    FilesGlobal,
		})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		// api/ stays its own group, the two files merge.
		if len(part.Groups) != 2 {
			t.Fatalf("got %d groups, want 2", len(part.Groups))
		}
		last := part.Groups[len(part.Groups)-1]
		if last.Label != "selected-files" {
			t.Errorf("Label = %q, want selected-files", last.Label)
		}
		want := []string{"Makefile", "web/index.html"}
		if !reflect.DeepEqual(last.Files, want) {
			t.Errorf("files = %v, want %v", last.Files, want)
		}
	})

	t.Run("duplicate targets counted once", func(t *testing.T) {
		part, err := p.Partition(ctx, cs, PolicyFiles, PartitionOptions{
			Targets: []string{"Makefile", "Makefile"},
		})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if len(part.Groups) != 1 {
			t.Errorf("got %d groups, want 1", len(part.Groups))
		}
	})
}

func TestPartitionRelated(t *testing.T) {
	ctx := context.Background()
	cs := testChangeSet("api/handler.go", "api/routes.go", "docs/readme.md")

	t.Run("promotes valid proposal", func(t *testing.T) {
		provider := &fakeProvider{proposals: []*PartitionProposal{{
			Groups: []ProposedGroup{
				{
					Name:        "API handlers",
					Files:       []string{"api/handler.go", "api/routes.go"},
					Description: "Rework request routing",
					Type:        "refactor",
					Messages:    []string{"refactor api routing"},
				},
				{
					Name:  "Docs",
					Files: []string{"docs/readme.md"},
					Type:  "docs",
				},
			},
		}}}
		p := NewPartitioner(provider, WithPartitionLogger(quietLogger()))

		part, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{Count: 3})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if len(part.Groups) != 2 {
			t.Fatalf("got %d groups, want 2", len(part.Groups))
		}

		g := part.Groups[0]
		if g.Label != "api-handlers" {
			t.Errorf("Label = %q, want api-handlers", g.Label)
		}
		if g.Kind != KindRefactor {
			t.Errorf("Kind = %q, want refactor", g.Kind)
		}
		if g.Summary != "Rework request routing" {
			t.Errorf("Summary = %q", g.Summary)
		}
		if !reflect.DeepEqual(g.Messages, []string{"refactor api routing"}) {
			t.Errorf("Messages = %v", g.Messages)
		}
		if provider.groupCalls != 1 {
			t.Errorf("groupCalls = %d, want 1", provider.groupCalls)
		}
		if !reflect.DeepEqual(provider.lastGrouping.Files, cs.Paths()) {
			t.Errorf("request files = %v", provider.lastGrouping.Files)
		}
		assertTotalPartition(t, part, cs)
	})

	t.Run("unknown paths trigger re-request", func(t *testing.T) {
		invalid := &PartitionProposal{Groups: []ProposedGroup{
			{Name: "bad", Files: []string{"invented.go"}},
		}}
		valid := &PartitionProposal{Groups: []ProposedGroup{
			{Name: "all", Files: cs.Paths()},
		}}
		provider := &fakeProvider{proposals: []*PartitionProposal{invalid, valid}}
		p := NewPartitioner(provider, WithPartitionLogger(quietLogger()))

		part, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if provider.groupCalls != 2 {
			t.Errorf("groupCalls = %d, want 2", provider.groupCalls)
		}
		if len(part.Groups) != 1 {
			t.Errorf("got %d groups, want 1", len(part.Groups))
		}
	})

	t.Run("falls back to global when retries exhausted", func(t *testing.T) {
		invalid := &PartitionProposal{Groups: []ProposedGroup{
			{Name: "bad", Files: []string{"invented.go"}},
		}}
		provider := &fakeProvider{proposals: []*PartitionProposal{invalid, invalid}}
		p := NewPartitioner(provider,
			WithPartitionLogger(quietLogger()), WithProposalRetries(1))

		part, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if provider.groupCalls != 2 {
			t.Errorf("groupCalls = %d, want 2", provider.groupCalls)
		}
		if len(part.Groups) != 1 || part.Groups[0].Label != "all-changes" {
			t.Errorf("expected global fallback, got %+v", part.Groups)
		}
	})

	t.Run("provider errors surface unretried", func(t *testing.T) {
		wantErr := NewGenerationError(GenerationAuth, errors.New("no api key"))
		provider := &fakeProvider{groupErrs: []error{wantErr}}
		p := NewPartitioner(provider, WithPartitionLogger(quietLogger()))

		_, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{})
		if !errors.Is(err, wantErr) {
			t.Errorf("err = %v, want %v", err, wantErr)
		}
		if provider.groupCalls != 1 {
			t.Errorf("groupCalls = %d, want 1", provider.groupCalls)
		}
	})

	t.Run("duplicate assignment keeps first occurrence", func(t *testing.T) {
		provider := &fakeProvider{proposals: []*PartitionProposal{{
			Groups: []ProposedGroup{
				{Name: "first", Files: []string{"api/handler.go", "docs/readme.md"}},
				{Name: "second", Files: []string{"docs/readme.md", "api/routes.go"}},
			},
		}}}
		p := NewPartitioner(provider, WithPartitionLogger(quietLogger()))

		part, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if got := part.Groups[0].Files; !reflect.DeepEqual(got, []string{"api/handler.go", "docs/readme.md"}) {
			t.Errorf("first group files = %v", got)
		}
		if got := part.Groups[1].Files; !reflect.DeepEqual(got, []string{"api/routes.go"}) {
			t.Errorf("second group files = %v", got)
		}
		assertTotalPartition(t, part, cs)
	})

	t.Run("omitted paths fold into unclassified group", func(t *testing.T) {
		provider := &fakeProvider{proposals: []*PartitionProposal{{
			Groups: []ProposedGroup{
				{Name: "api", Files: []string{"api/handler.go", "api/routes.go"}},
			},
		}}}
		p := NewPartitioner(provider, WithPartitionLogger(quietLogger()))

		part, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		last := part.Groups[len(part.Groups)-1]
		if last.Label != "unclassified" || last.Kind != KindUnclassified {
			t.Errorf("trailing group = %+v", last)
		}
		if !reflect.DeepEqual(last.Files, []string{"docs/readme.md"}) {
			t.Errorf("trailing files = %v", last.Files)
		}
		assertTotalPartition(t, part, cs)
	})

	t.Run("duplicate labels disambiguated", func(t *testing.T) {
		provider := &fakeProvider{proposals: []*PartitionProposal{{
			Groups: []ProposedGroup{
				{Name: "Cleanup", Files: []string{"api/handler.go"}},
				{Name: "cleanup!", Files: []string{"api/routes.go", "docs/readme.md"}},
			},
		}}}
		p := NewPartitioner(provider, WithPartitionLogger(quietLogger()))

		part, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{})
		if err != nil {
			t.Fatalf("Partition failed: %v", err)
		}
		if part.Groups[0].Label != "cleanup" || part.Groups[1].Label != "cleanup-1" {
			t.Errorf("labels = %q, %q", part.Groups[0].Label, part.Groups[1].Label)
		}
	})

	t.Run("nil provider rejected", func(t *testing.T) {
		p := NewPartitioner(nil, WithPartitionLogger(quietLogger()))
		if _, err := p.Partition(ctx, cs, PolicyRelated, PartitionOptions{}); err == nil {
			t.Error("expected error for nil provider")
		}
	})
}

func TestKindFromString(t *testing.T) {
	cases := map[string]Kind{
		"feature":  KindFeature,
		" Bugfix ": KindBugfix,
		"DOCS":     KindDocs,
		"banana":   KindUnclassified,
		"":         KindUnclassified,
	}
	for in, want := range cases {
		if got := kindFromString(in); got != want {
			t.Errorf("kindFromString(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestSlugify(t *testing.T) {
	cases := map[string]string{
		"API Handlers":   "api-handlers",
		"fix/login bug!": "fix-login-bug",
		"---":            "changes",
	}
	for in, want := range cases {
		if got := slugify(in); got != want {
			t.Errorf("slugify(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestResolvePolicy(t *testing.T) {
	multi := testChangeSet("api/a.go", "web/b.js")
	single := testChangeSet("api/a.go", "api/b.go")

	t.Run("override wins", func(t *testing.T) {
		got, err := ResolvePolicy(PolicyRelated, PolicyDirectory, multi, false, nil)
		if err != nil || got != PolicyRelated {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("configured default applies", func(t *testing.T) {
		got, err := ResolvePolicy("", PolicyDirectory, multi, false, nil)
		if err != nil || got != PolicyDirectory {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("single directory auto-selects global", func(t *testing.T) {
		got, err := ResolvePolicy("", PolicyAsk, single, false, nil)
		if err != nil || got != PolicyGlobal {
			t.Errorf("got %q, %v", got, err)
		}
	})

	t.Run("multiple directories prompt", func(t *testing.T) {
		ui := &testutil.ScriptedUI{ChooseAnswers: []int{1}}
		got, err := ResolvePolicy("", PolicyAsk, multi, false, ui)
		if err != nil {
			t.Fatalf("ResolvePolicy failed: %v", err)
		}
		if got != PolicyDirectory {
			t.Errorf("got %q, want directory", got)
		}
	})

	t.Run("prompt error propagates", func(t *testing.T) {
		ui := &testutil.ScriptedUI{}
		if _, err := ResolvePolicy("", PolicyAsk, multi, false, ui); err == nil {
			t.Error("expected error from exhausted script")
		}
	})
}

// assertTotalPartition checks every change set path appears exactly once.
func assertTotalPartition(t *testing.T, part *Partition, cs *ChangeSet) {
	t.Helper()
	seen := make(map[string]int)
	for _, path := range part.Paths() {
		seen[path]++
	}
	for _, path := range cs.Paths() {
		if seen[path] != 1 {
			t.Errorf("path %s assigned %d times, want 1", path, seen[path])
		}
	}
	if len(seen) != cs.Len() {
		t.Errorf("partition covers %d paths, change set has %d", len(seen), cs.Len())
	}
}
