package commitflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
)

// Candidate is one proposed commit message for a group.
type Candidate struct {
	GroupID string
	Index   int
	Text    string
}

// transientRetries bounds automatic retries on transient generation errors.
const transientRetries = 2

// Generator produces commit message candidates for a group by delegating to
// a Provider. Transient provider errors are retried with a short backoff;
// auth and malformed errors surface immediately.
type Generator struct {
	provider Provider
	logger   *slog.Logger
	count    int
	style    Style
	locale   string
	retries  int
	backoff  time.Duration
}

// GeneratorOption configures a Generator.
type GeneratorOption func(*Generator)

// WithCandidateCount sets how many candidates to request per group.
func WithCandidateCount(n int) GeneratorOption {
	return func(g *Generator) {
		if n > 0 {
			g.count = n
		}
	}
}

// WithStyle sets the message style.
func WithStyle(style Style) GeneratorOption {
	return func(g *Generator) {
		g.style = style
	}
}

// WithLocale sets the output language for generated messages.
func WithLocale(locale string) GeneratorOption {
	return func(g *Generator) {
		g.locale = locale
	}
}

// WithGeneratorLogger sets the logger for retry warnings.
func WithGeneratorLogger(logger *slog.Logger) GeneratorOption {
	return func(g *Generator) {
		g.logger = logger
	}
}

// WithTransientRetries overrides the retry budget for transient errors.
func WithTransientRetries(n int) GeneratorOption {
	return func(g *Generator) {
		g.retries = n
	}
}

// NewGenerator creates a generator with the default candidate count of 3
// and the general message style.
func NewGenerator(provider Provider, opts ...GeneratorOption) *Generator {
	g := &Generator{
		provider: provider,
		logger:   slog.Default(),
		count:    3,
		style:    StyleGeneral,
		locale:   "en",
		retries:  transientRetries,
		backoff:  time.Second,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Generate returns commit message candidates for the group. When the group
// carries pre-generated messages from a grouping proposal those are used
// directly and the provider is not consulted.
func (g *Generator) Generate(ctx context.Context, cs *ChangeSet, group Group) ([]Candidate, error) {
	if len(group.Messages) > 0 {
		return g.candidates(group.ID, group.Messages), nil
	}

	req := GenerateRequest{
		Diff:   cs.DiffFor(group.Files),
		Files:  group.Files,
		Count:  g.count,
		Style:  g.style,
		Locale: g.locale,
	}

	var lastErr error
	for attempt := 0; attempt <= g.retries; attempt++ {
		if attempt > 0 {
			g.logger.Warn("retrying message generation",
				"group", group.Label, "attempt", attempt+1, "error", lastErr)
			select {
			case <-time.After(g.backoff * time.Duration(attempt)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		messages, err := g.provider.GenerateMessages(ctx, req)
		if err == nil {
			messages = sanitizeMessages(messages)
			if len(messages) == 0 {
				lastErr = NewGenerationError(GenerationMalformed,
					errors.New("provider returned no usable messages"))
				continue
			}
			return g.candidates(group.ID, messages), nil
		}

		var genErr *GenerationError
		if errors.As(err, &genErr) && genErr.Retryable() {
			lastErr = err
			continue
		}
		return nil, err
	}
	return nil, lastErr
}

func (g *Generator) candidates(groupID string, messages []string) []Candidate {
	out := make([]Candidate, len(messages))
	for i, msg := range messages {
		out[i] = Candidate{GroupID: groupID, Index: i, Text: msg}
	}
	return out
}

// sanitizeMessages strips whitespace, surrounding quotes, list markers and
// empty entries from raw provider output.
func sanitizeMessages(raw []string) []string {
	var out []string
	for _, msg := range raw {
		msg = strings.TrimSpace(msg)
		msg = strings.TrimPrefix(msg, "- ")
		msg = strings.TrimPrefix(msg, "* ")
		msg = trimNumberPrefix(msg)
		msg = strings.Trim(msg, `"'`)
		msg = strings.TrimSpace(msg)
		if msg == "" {
			continue
		}
		out = append(out, msg)
	}
	return out
}

// trimNumberPrefix removes a leading "1." / "2)" style list marker.
func trimNumberPrefix(s string) string {
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 || i >= len(s) {
		return s
	}
	if s[i] == '.' || s[i] == ')' {
		return strings.TrimSpace(s[i+1:])
	}
	return s
}
