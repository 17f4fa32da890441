package commitflow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
)

// SelectionResult is the outcome of choosing a message for one group.
type SelectionResult struct {
	// Message is the final commit message. Empty when Skipped.
	Message string

	// Skipped marks a group the user declined to commit.
	Skipped bool
}

// Selector walks the user through picking a commit message per group:
// present candidates, optionally regenerate or enter a custom message,
// or skip the group entirely.
type Selector struct {
	ui     UI
	gen    *Generator
	logger *slog.Logger
}

// NewSelector creates a selector over the given UI and generator.
func NewSelector(ui UI, gen *Generator, logger *slog.Logger) *Selector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Selector{ui: ui, gen: gen, logger: logger}
}

const (
	choiceRegenerate = "Regenerate suggestions"
	choiceCustom     = "Write my own message"
	choiceSkip       = "Skip this group"

	choiceCommitAll  = "Commit all groups"
	choiceSelectSome = "Select specific groups"
	choiceRegroup    = "Regenerate grouping"
)

// GroupSelection is the outcome of the multi-group menu.
type GroupSelection struct {
	// Selected marks the group IDs slated to commit. Nil selects every
	// group.
	Selected map[string]bool

	// ConfirmEach asks before moving on to each next group. Set when the
	// user picked a specific subset.
	ConfirmEach bool

	// Regenerate requests a fresh grouping instead of committing.
	Regenerate bool
}

// Includes reports whether the group is slated to commit.
func (sel GroupSelection) Includes(g Group) bool {
	return sel.Selected == nil || sel.Selected[g.ID]
}

// SelectGroups runs the multi-group menu: commit every group without
// further per-group confirmation, pick a specific subset (confirming
// between groups), or request a fresh grouping when the partition came
// from the provider. A single-group partition is taken as-is without
// prompting. An empty subset or a cancelled prompt surfaces as
// ErrRunCancelled.
func (s *Selector) SelectGroups(part *Partition, canRegroup bool) (GroupSelection, error) {
	if len(part.Groups) <= 1 {
		return GroupSelection{}, nil
	}

	menu := []string{choiceCommitAll, choiceSelectSome}
	if canRegroup {
		menu = append(menu, choiceRegroup)
	}

	prompt := fmt.Sprintf("%d groups to commit", len(part.Groups))
	idx, err := s.ui.Choose(prompt, menu)
	if err != nil {
		return GroupSelection{}, s.asCancelled(err)
	}
	switch {
	case idx == 0:
		return GroupSelection{}, nil
	case idx == 2 && canRegroup:
		return GroupSelection{Regenerate: true}, nil
	}

	options := make([]string, len(part.Groups))
	for i, g := range part.Groups {
		options[i] = fmt.Sprintf("%s (%d files)", g.Label, len(g.Files))
	}

	indices, err := s.ui.MultiSelect("Select groups to commit", options)
	if err != nil {
		return GroupSelection{}, s.asCancelled(err)
	}
	if len(indices) == 0 {
		return GroupSelection{}, ErrRunCancelled
	}

	selected := make(map[string]bool, len(indices))
	for _, i := range indices {
		if i < 0 || i >= len(part.Groups) {
			continue
		}
		selected[part.Groups[i].ID] = true
	}
	return GroupSelection{Selected: selected, ConfirmEach: true}, nil
}

// SelectMessage runs the choose/regenerate/custom loop for one group until
// a message is accepted, the group is skipped, or the user cancels.
// Regeneration is atomic: when it fails, the previous candidates are kept
// and re-presented.
func (s *Selector) SelectMessage(ctx context.Context, cs *ChangeSet, group Group) (SelectionResult, error) {
	candidates, err := s.gen.Generate(ctx, cs, group)
	if err != nil {
		if ctx.Err() != nil {
			return SelectionResult{}, err
		}
		s.logger.Warn("message generation failed",
			"group", group.Label, "error", err)
		return s.manualFallback(group, err)
	}

	for {
		options := make([]string, 0, len(candidates)+3)
		for _, c := range candidates {
			options = append(options, c.Text)
		}
		options = append(options, choiceRegenerate, choiceCustom, choiceSkip)

		prompt := fmt.Sprintf("Commit message for %s", group.Label)
		idx, err := s.ui.Choose(prompt, options)
		if err != nil {
			return SelectionResult{}, s.asCancelled(err)
		}

		switch {
		case idx >= 0 && idx < len(candidates):
			return SelectionResult{Message: candidates[idx].Text}, nil

		case idx == len(candidates): // regenerate
			fresh, err := s.regenerate(ctx, cs, group)
			if err != nil {
				if errors.Is(err, ctx.Err()) && ctx.Err() != nil {
					return SelectionResult{}, err
				}
				s.logger.Warn("regeneration failed, keeping previous suggestions",
					"group", group.Label, "error", err)
				continue
			}
			candidates = fresh

		case idx == len(candidates)+1: // custom message
			text, err := s.ui.FreeText("Enter commit message")
			if err != nil {
				return SelectionResult{}, s.asCancelled(err)
			}
			text = strings.TrimSpace(text)
			if text == "" {
				continue
			}
			return SelectionResult{Message: text}, nil

		default: // skip
			return SelectionResult{Skipped: true}, nil
		}
	}
}

// manualFallback offers a hand-written message or a skip when no
// candidates could be generated.
func (s *Selector) manualFallback(group Group, genErr error) (SelectionResult, error) {
	prompt := fmt.Sprintf("Could not generate messages for %s: %v", group.Label, genErr)
	for {
		idx, err := s.ui.Choose(prompt, []string{choiceCustom, choiceSkip})
		if err != nil {
			return SelectionResult{}, s.asCancelled(err)
		}
		if idx != 0 {
			return SelectionResult{Skipped: true}, nil
		}

		text, err := s.ui.FreeText("Enter commit message")
		if err != nil {
			return SelectionResult{}, s.asCancelled(err)
		}
		if text = strings.TrimSpace(text); text != "" {
			return SelectionResult{Message: text}, nil
		}
	}
}

// regenerate requests a fresh candidate set, bypassing any pre-generated
// messages attached to the group.
func (s *Selector) regenerate(ctx context.Context, cs *ChangeSet, group Group) ([]Candidate, error) {
	group.Messages = nil
	return s.gen.Generate(ctx, cs, group)
}

func (s *Selector) asCancelled(err error) error {
	if errors.Is(err, ErrRunCancelled) {
		return err
	}
	return fmt.Errorf("%w: %v", ErrRunCancelled, err)
}
