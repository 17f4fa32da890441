// Package changelog generates and stores per-run changelog entries.
// Each entry is a timestamped markdown file written to the configured
// changelog directory.
package changelog

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Summarizer turns a diff into changelog markdown. The engine's AI provider
// satisfies this through an adapter.
type Summarizer interface {
	SummarizeDiff(ctx context.Context, diff string) (string, error)
}

// Writer generates changelog entries into a directory.
type Writer struct {
	dir        string
	summarizer Summarizer
	now        func() time.Time
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithClock overrides the time source used for filenames.
func WithClock(now func() time.Time) WriterOption {
	return func(w *Writer) {
		w.now = now
	}
}

// NewWriter creates a changelog writer. The directory is created on first
// write.
func NewWriter(dir string, summarizer Summarizer, opts ...WriterOption) *Writer {
	w := &Writer{
		dir:        dir,
		summarizer: summarizer,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Generate summarizes the diff and writes the entry, returning the path of
// the written file.
func (w *Writer) Generate(ctx context.Context, diff string) (string, error) {
	content, err := w.summarizer.SummarizeDiff(ctx, diff)
	if err != nil {
		return "", fmt.Errorf("summarize diff: %w", err)
	}
	return w.Write(content)
}

// Write stores a pre-built entry under a timestamped filename.
func (w *Writer) Write(content string) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("create changelog dir: %w", err)
	}

	filename := w.now().Format("2006-01-02_15-04-05") + ".md"
	path := filepath.Join(w.dir, filename)

	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return "", fmt.Errorf("write changelog: %w", err)
	}
	return path, nil
}
