// Package task maps the engine's AI tasks to model tiers, so that change
// grouping gets a reasoning model while message generation stays on the
// default tier.
package task

import (
	"github.com/randalmurphal/llmkit/model"
)

// Type represents the kind of AI task being performed.
type Type string

const (
	// Grouping analyzes diffs to group related changes. Needs reasoning.
	Grouping Type = "grouping"

	// Message generates commit message candidates for one group.
	Message Type = "message"

	// Changelog summarizes a diff into a changelog entry.
	Changelog Type = "changelog"

	// Summarize produces short one-line summaries. Can use smaller models.
	Summarize Type = "summarize"
)

// DefaultModelMap maps task types to default models.
var DefaultModelMap = map[Type]model.ModelName{
	Grouping:  model.ModelOpus,
	Message:   model.ModelSonnet,
	Changelog: model.ModelSonnet,
	Summarize: model.ModelHaiku,
}

// TierForTask returns the appropriate tier for a task type.
func TierForTask(t Type) model.Tier {
	switch t {
	case Grouping:
		return model.TierThinking
	case Summarize:
		return model.TierFast
	default:
		return model.TierDefault
	}
}

// NewSelector creates a model selector configured for commit workflow tasks.
func NewSelector(opts ...model.SelectorOption) *model.Selector {
	allOpts := append([]model.SelectorOption{
		model.WithTierFunc(func(task any) model.Tier {
			if t, ok := task.(Type); ok {
				return TierForTask(t)
			}
			return model.TierDefault
		}),
	}, opts...)

	return model.NewSelector(allOpts...)
}

// SelectModel selects the appropriate model for a task type.
func SelectModel(t Type) model.ModelName {
	if m, ok := DefaultModelMap[t]; ok {
		return m
	}
	switch TierForTask(t) {
	case model.TierThinking:
		return model.ModelOpus
	case model.TierFast:
		return model.ModelHaiku
	default:
		return model.ModelSonnet
	}
}
