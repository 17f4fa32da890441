package commitflow

import (
	"sort"
	"strings"

	"github.com/randalmurphal/commitflow/git"
)

// Status describes how a file changed.
type Status string

const (
	StatusAdded    Status = "added"
	StatusModified Status = "modified"
	StatusDeleted  Status = "deleted"
	StatusRenamed  Status = "renamed"
)

// FileChange is one changed file. Immutable once collected.
type FileChange struct {
	Path   string // Repo-relative path
	Status Status
	Diff   string // Unified diff text; empty for binary files
}

// ChangeSet is the ordered set of changed files under consideration,
// unique by path. Produced once per run and read-only afterward.
type ChangeSet struct {
	changes []FileChange
	byPath  map[string]int
	diff    string
}

// NewChangeSet builds a ChangeSet, keeping the first occurrence of each path.
func NewChangeSet(changes []FileChange) *ChangeSet {
	cs := &ChangeSet{byPath: make(map[string]int, len(changes))}
	for _, c := range changes {
		if _, ok := cs.byPath[c.Path]; ok {
			continue
		}
		cs.byPath[c.Path] = len(cs.changes)
		cs.changes = append(cs.changes, c)
	}
	return cs
}

// Len returns the number of changed files.
func (cs *ChangeSet) Len() int {
	return len(cs.changes)
}

// Empty reports whether the change set has no files.
func (cs *ChangeSet) Empty() bool {
	return cs == nil || len(cs.changes) == 0
}

// Changes returns the changes in collection order.
func (cs *ChangeSet) Changes() []FileChange {
	out := make([]FileChange, len(cs.changes))
	copy(out, cs.changes)
	return out
}

// Paths returns all paths in collection order.
func (cs *ChangeSet) Paths() []string {
	paths := make([]string, len(cs.changes))
	for i, c := range cs.changes {
		paths[i] = c.Path
	}
	return paths
}

// Contains reports whether path is in the change set.
func (cs *ChangeSet) Contains(path string) bool {
	_, ok := cs.byPath[path]
	return ok
}

// Get returns the change for path.
func (cs *ChangeSet) Get(path string) (FileChange, bool) {
	i, ok := cs.byPath[path]
	if !ok {
		return FileChange{}, false
	}
	return cs.changes[i], true
}

// DiffFor concatenates the diffs of the given paths, in change-set order.
func (cs *ChangeSet) DiffFor(paths []string) string {
	want := make(map[string]bool, len(paths))
	for _, p := range paths {
		want[p] = true
	}
	var b strings.Builder
	for _, c := range cs.changes {
		if want[c.Path] && c.Diff != "" {
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(c.Diff)
		}
	}
	return b.String()
}

// Diff returns the complete staged diff captured at collection, falling
// back to the concatenated per-file diffs.
func (cs *ChangeSet) Diff() string {
	if cs.diff != "" {
		return cs.diff
	}
	return cs.DiffFor(cs.Paths())
}

// Directories returns the distinct top-level directories of the change set,
// sorted lexicographically. Files at the repo root report RootDirectory.
func (cs *ChangeSet) Directories() []string {
	seen := make(map[string]bool)
	for _, c := range cs.changes {
		seen[TopDirectory(c.Path)] = true
	}
	dirs := make([]string, 0, len(seen))
	for d := range seen {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

// RootDirectory is the synthetic directory name for files at the repo root.
const RootDirectory = "root"

// TopDirectory returns the first path segment of a repo-relative path, or
// RootDirectory for files directly at the repo root.
func TopDirectory(path string) string {
	if i := strings.IndexByte(path, '/'); i > 0 {
		return path[:i]
	}
	return RootDirectory
}

// statusFromCode maps a git name-status code to a Status.
func statusFromCode(entry git.StatusEntry) Status {
	switch {
	case entry.Renamed():
		return StatusRenamed
	case strings.HasPrefix(entry.Code, "A"):
		return StatusAdded
	case strings.HasPrefix(entry.Code, "D"):
		return StatusDeleted
	default:
		return StatusModified
	}
}

// Collector builds ChangeSets from the staging area.
type Collector struct {
	git      *git.Context
	excludes []string
}

// NewCollector creates a collector with the given exclusion patterns.
// Patterns are applied as git pathspec exclusions during listing and diffing.
func NewCollector(gitCtx *git.Context, excludes []string) *Collector {
	return &Collector{git: gitCtx, excludes: excludes}
}

// Collect reads the staged changes and their diffs.
// Returns ErrEmptyChangeSet when nothing is staged after exclusions.
func (c *Collector) Collect() (*ChangeSet, error) {
	entries, err := c.git.StagedEntries(c.excludes)
	if err != nil {
		if err == git.ErrNothingStaged {
			return nil, ErrEmptyChangeSet
		}
		return nil, err
	}

	changes := make([]FileChange, 0, len(entries))
	for _, e := range entries {
		diff, err := c.git.DiffFor([]string{e.Path}, c.excludes)
		if err != nil {
			return nil, err
		}
		changes = append(changes, FileChange{
			Path:   e.Path,
			Status: statusFromCode(e),
			Diff:   diff,
		})
	}

	cs := NewChangeSet(changes)
	full, err := c.git.DiffStaged(c.excludes)
	if err != nil {
		return nil, err
	}
	cs.diff = full
	return cs, nil
}
