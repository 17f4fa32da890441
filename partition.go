package commitflow

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"sort"
	"strings"

	nanoid "github.com/matoous/go-nanoid/v2"
)

// Kind classifies what a group of changes accomplishes.
type Kind string

const (
	KindFeature      Kind = "feature"
	KindBugfix       Kind = "bugfix"
	KindRefactor     Kind = "refactor"
	KindConfig       Kind = "config"
	KindDocs         Kind = "docs"
	KindTest         Kind = "test"
	KindChore        Kind = "chore"
	KindUnclassified Kind = "unclassified"
)

// kindFromString maps a proposal's free-form type to a Kind.
func kindFromString(s string) Kind {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindFeature, KindBugfix, KindRefactor, KindConfig, KindDocs, KindTest, KindChore:
		return Kind(strings.ToLower(strings.TrimSpace(s)))
	default:
		return KindUnclassified
	}
}

// Group is a non-overlapping subset of changed files slated to become one
// commit. File membership is fixed once the partition is built; only the
// Summary may be filled in later.
type Group struct {
	ID       string   // Stable within a run
	Label    string   // Short slug for display
	Kind     Kind     // Change classification
	Files    []string // Non-empty subset of the change set's paths
	Summary  string   // Human description, optional until generated
	Messages []string // Pre-generated candidates from a grouping proposal
}

// Partition is the full ordered list of Groups covering a ChangeSet.
type Partition struct {
	Groups []Group
}

// Paths returns every path assigned to a group, in partition order.
func (p *Partition) Paths() []string {
	var paths []string
	for _, g := range p.Groups {
		paths = append(paths, g.Files...)
	}
	return paths
}

// Policy selects how a change set is split into groups.
type Policy string

const (
	// PolicyGlobal puts all files in one group.
	PolicyGlobal Policy = "global"

	// PolicyDirectory groups files by their top-level directory.
	PolicyDirectory Policy = "directory"

	// PolicyFiles groups by explicit caller-supplied targets.
	PolicyFiles Policy = "files"

	// PolicyRelated asks the AI provider to group related changes.
	PolicyRelated Policy = "related"

	// PolicyAsk is the configured sentinel meaning "prompt interactively".
	PolicyAsk Policy = "auto"
)

// FilesMode is the sub-mode for PolicyFiles.
type FilesMode string

const (
	// FilesPerPath makes each explicit file a singleton group.
	FilesPerPath FilesMode = "per-path"

	// FilesGlobal collapses all explicit files into a single group.
	// Explicit directories still form one group each.
	FilesGlobal FilesMode = "global"
)

// PartitionOptions carries per-policy inputs.
type PartitionOptions struct {
	// Targets are explicit paths or directories for PolicyFiles.
	Targets []string

	// Mode is the PolicyFiles sub-mode. Defaults to FilesPerPath.
	Mode FilesMode

	// Count and Style are forwarded to grouping requests for PolicyRelated.
	Count int
	Style Style
}

const groupIDAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"

func newGroupID() string {
	return nanoid.MustGenerate(groupIDAlphabet, 8)
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// slugify converts a name to a short kebab-case label.
func slugify(name string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	s = strings.Trim(s, "-")
	if s == "" {
		return "changes"
	}
	return s
}

// proposalRetries bounds re-requests for invalid grouping proposals before
// falling back to the global policy.
const proposalRetries = 2

// Partitioner converts a ChangeSet into an ordered Partition.
type Partitioner struct {
	provider Provider
	logger   *slog.Logger
	retries  int
}

// PartitionerOption configures a Partitioner.
type PartitionerOption func(*Partitioner)

// WithPartitionLogger sets the logger for partition warnings.
func WithPartitionLogger(logger *slog.Logger) PartitionerOption {
	return func(p *Partitioner) {
		p.logger = logger
	}
}

// WithProposalRetries overrides the bounded re-request count for invalid
// grouping proposals.
func WithProposalRetries(n int) PartitionerOption {
	return func(p *Partitioner) {
		p.retries = n
	}
}

// NewPartitioner creates a partitioner. The provider is only consulted for
// PolicyRelated and may be nil for the other policies.
func NewPartitioner(provider Provider, opts ...PartitionerOption) *Partitioner {
	p := &Partitioner{
		provider: provider,
		logger:   slog.Default(),
		retries:  proposalRetries,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Partition splits the change set under the given policy.
// Returns ErrEmptyChangeSet for an empty change set and ErrNoMatchingFiles
// when PolicyFiles targets resolve to zero changed files.
func (p *Partitioner) Partition(ctx context.Context, cs *ChangeSet, policy Policy, opts PartitionOptions) (*Partition, error) {
	if cs.Empty() {
		return nil, ErrEmptyChangeSet
	}

	switch policy {
	case PolicyGlobal:
		return p.global(cs), nil
	case PolicyDirectory:
		return p.byDirectory(cs), nil
	case PolicyFiles:
		return p.byTargets(cs, opts)
	case PolicyRelated:
		return p.related(ctx, cs, opts)
	default:
		return nil, fmt.Errorf("unknown partition policy %q", policy)
	}
}

// global returns a single group covering every file.
func (p *Partitioner) global(cs *ChangeSet) *Partition {
	return &Partition{Groups: []Group{{
		ID:    newGroupID(),
		Label: "all-changes",
		Kind:  KindUnclassified,
		Files: cs.Paths(),
	}}}
}

// byDirectory groups files by their top-level path segment, directories
// ordered lexicographically. Files at the repo root form their own group.
func (p *Partitioner) byDirectory(cs *ChangeSet) *Partition {
	byDir := make(map[string][]string)
	for _, path := range cs.Paths() {
		dir := TopDirectory(path)
		byDir[dir] = append(byDir[dir], path)
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	part := &Partition{}
	for _, dir := range dirs {
		part.Groups = append(part.Groups, Group{
			ID:    newGroupID(),
			Label: slugify(dir),
			Kind:  KindUnclassified,
			Files: byDir[dir],
		})
	}
	return part
}

// byTargets resolves explicit paths and directories against the change set.
// A target that equals a changed path is a file; a target with changed files
// underneath it is a directory. Targets matching nothing are dropped with a
// warning.
func (p *Partitioner) byTargets(cs *ChangeSet, opts PartitionOptions) (*Partition, error) {
	mode := opts.Mode
	if mode == "" {
		mode = FilesPerPath
	}

	assigned := make(map[string]bool)
	var fileTargets []string
	part := &Partition{}

	for _, target := range opts.Targets {
		target = strings.TrimSuffix(strings.TrimSpace(target), "/")
		if target == "" {
			continue
		}

		if cs.Contains(target) {
			if !assigned[target] {
				assigned[target] = true
				fileTargets = append(fileTargets, target)
			}
			continue
		}

		// Directory target: every changed file under it becomes one group,
		// regardless of sub-mode.
		var under []string
		prefix := target + "/"
		for _, path := range cs.Paths() {
			if strings.HasPrefix(path, prefix) && !assigned[path] {
				assigned[path] = true
				under = append(under, path)
			}
		}
		if len(under) == 0 {
			p.logger.Warn("target matches no changed files, skipping", "target", target)
			continue
		}
		part.Groups = append(part.Groups, Group{
			ID:    newGroupID(),
			Label: slugify(target),
			Kind:  KindUnclassified,
			Files: under,
		})
	}

	switch {
	case len(fileTargets) == 0:
		// nothing to add
	case mode == FilesGlobal:
		part.Groups = append(part.Groups, Group{
			ID:    newGroupID(),
			Label: "selected-files",
			Kind:  KindUnclassified,
			Files: fileTargets,
		})
	default:
		for _, path := range fileTargets {
			part.Groups = append(part.Groups, Group{
				ID:    newGroupID(),
				Label: slugify(path),
				Kind:  KindUnclassified,
				Files: []string{path},
			})
		}
	}

	if len(part.Groups) == 0 {
		return nil, ErrNoMatchingFiles
	}
	return part, nil
}

// related asks the provider to group related changes and validates the
// proposal. An invalid proposal (unknown paths) is re-requested a bounded
// number of times; when the budget is exhausted the partitioner falls back
// to the global policy rather than failing the run.
func (p *Partitioner) related(ctx context.Context, cs *ChangeSet, opts PartitionOptions) (*Partition, error) {
	if p.provider == nil {
		return nil, fmt.Errorf("related policy requires a provider")
	}

	req := GroupingRequest{
		Files: cs.Paths(),
		Diffs: make(map[string]string, cs.Len()),
		Count: opts.Count,
		Style: opts.Style,
	}
	for _, c := range cs.Changes() {
		req.Diffs[c.Path] = c.Diff
	}

	for attempt := 0; attempt <= p.retries; attempt++ {
		proposal, err := p.provider.InferGroups(ctx, req)
		if err != nil {
			return nil, err
		}

		part, verr := p.promote(proposal, cs)
		if verr == nil {
			return part, nil
		}
		p.logger.Warn("rejecting grouping proposal",
			"attempt", attempt+1, "error", verr)
	}

	p.logger.Warn("grouping proposals exhausted, falling back to global policy")
	return p.global(cs), nil
}

// promote validates a proposal against the total-partition invariant and
// converts it to Groups. Duplicate assignments keep their first occurrence;
// paths the proposal omits are folded into one trailing unclassified group.
// Unknown paths invalidate the whole proposal.
func (p *Partitioner) promote(proposal *PartitionProposal, cs *ChangeSet) (*Partition, error) {
	verr := &ValidationError{}
	assigned := make(map[string]bool, cs.Len())
	part := &Partition{}
	labels := make(map[string]int)

	for _, pg := range proposal.Groups {
		var files []string
		for _, path := range pg.Files {
			if !cs.Contains(path) {
				verr.Unknown = append(verr.Unknown, path)
				continue
			}
			if assigned[path] {
				// First assignment wins.
				verr.Duplicated = append(verr.Duplicated, path)
				continue
			}
			assigned[path] = true
			files = append(files, path)
		}
		if len(files) == 0 {
			continue
		}

		label := slugify(pg.Name)
		if n := labels[label]; n > 0 {
			label = fmt.Sprintf("%s-%d", label, n)
		}
		labels[slugify(pg.Name)]++

		part.Groups = append(part.Groups, Group{
			ID:       newGroupID(),
			Label:    label,
			Kind:     kindFromString(pg.Type),
			Files:    files,
			Summary:  pg.Description,
			Messages: pg.Messages,
		})
	}

	// Unknown paths mean the provider invented files; never commit those.
	if len(verr.Unknown) > 0 {
		return nil, verr
	}
	if len(part.Groups) == 0 {
		return nil, &ValidationError{Missing: cs.Paths()}
	}

	// Fold anything the proposal omitted into a trailing unclassified group.
	var leftover []string
	for _, path := range cs.Paths() {
		if !assigned[path] {
			leftover = append(leftover, path)
		}
	}
	if len(leftover) > 0 {
		p.logger.Warn("grouping proposal omitted files, folding into unclassified group",
			"count", len(leftover))
		part.Groups = append(part.Groups, Group{
			ID:      newGroupID(),
			Label:   "unclassified",
			Kind:    KindUnclassified,
			Files:   leftover,
			Summary: "Changes not assigned to any group",
		})
	}

	return part, nil
}

// ResolvePolicy applies the mode resolution precedence: an explicit override
// always wins; otherwise the configured default applies; when the configured
// default is PolicyAsk and more than one top-level directory changed (or
// explicit targets are in play), the user is prompted; with a single
// directory, global is auto-selected without prompting.
func ResolvePolicy(override Policy, configured Policy, cs *ChangeSet, filesMode bool, ui UI) (Policy, error) {
	if override != "" {
		return override, nil
	}

	switch configured {
	case PolicyGlobal, PolicyDirectory, PolicyRelated:
		return configured, nil
	case PolicyFiles:
		return PolicyFiles, nil
	}

	if !filesMode && len(cs.Directories()) <= 1 {
		return PolicyGlobal, nil
	}

	options := []string{
		"One commit for all changes",
		"Separate commits per directory",
		"Group related changes together",
	}
	idx, err := ui.Choose("Commit strategy", options)
	if err != nil {
		return "", err
	}
	switch idx {
	case 1:
		return PolicyDirectory, nil
	case 2:
		return PolicyRelated, nil
	default:
		return PolicyGlobal, nil
	}
}
