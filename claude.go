package commitflow

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"github.com/randalmurphal/llmkit/model"

	"github.com/randalmurphal/commitflow/prompt"
	"github.com/randalmurphal/commitflow/task"
)

// Claude CLI errors
var (
	// ErrClaudeNotFound indicates the claude CLI binary was not found.
	ErrClaudeNotFound = errors.New("claude CLI not found")
)

// diffLimit caps the per-file diff size sent in grouping prompts.
const diffLimit = 3000

// ClaudeCLI implements Provider by invoking the claude CLI binary.
type ClaudeCLI struct {
	binaryPath string
	model      string // Override; empty = per-task selection
	timeout    time.Duration
	prompts    *prompt.Loader
	selector   *model.Selector
}

// ClaudeConfig configures the Claude CLI provider.
type ClaudeConfig struct {
	BinaryPath string        // Path to claude binary (default: "claude")
	Model      string        // Fixed model (empty = select per task)
	Timeout    time.Duration // Per-invocation timeout (default: 2m)
	PromptDir  string        // Extra directory searched for prompt overrides
	ProjectDir string        // Project root for prompt resolution
}

// NewClaudeCLI creates a Claude CLI provider.
// Returns ErrClaudeNotFound if the claude binary is not installed.
func NewClaudeCLI(cfg ClaudeConfig) (*ClaudeCLI, error) {
	binaryPath := cfg.BinaryPath
	if binaryPath == "" {
		binaryPath = "claude"
	}
	if _, err := exec.LookPath(binaryPath); err != nil {
		return nil, ErrClaudeNotFound
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 2 * time.Minute
	}

	projectDir := cfg.ProjectDir
	if projectDir == "" {
		projectDir = "."
	}
	loader := prompt.NewLoader(projectDir)
	if cfg.PromptDir != "" {
		loader.AddSearchDir(cfg.PromptDir)
	}

	return &ClaudeCLI{
		binaryPath: binaryPath,
		model:      cfg.Model,
		timeout:    timeout,
		prompts:    loader,
		selector:   task.NewSelector(),
	}, nil
}

// GenerateMessages produces commit message candidates for one group's diff.
func (c *ClaudeCLI) GenerateMessages(ctx context.Context, req GenerateRequest) ([]string, error) {
	count := req.Count
	if count <= 0 {
		count = 3
	}
	locale := req.Locale
	if locale == "" {
		locale = "en"
	}

	p, err := c.prompts.Render("message", map[string]any{
		"Count":  count,
		"Style":  string(req.Style),
		"Locale": locale,
		"Files":  req.Files,
		"Diff":   req.Diff,
	})
	if err != nil {
		return nil, fmt.Errorf("build message prompt: %w", err)
	}

	out, err := c.invoke(ctx, p, task.Message)
	if err != nil {
		return nil, err
	}

	messages, err := parseMessageList(out)
	if err != nil {
		return nil, err
	}
	if len(messages) > count {
		messages = messages[:count]
	}
	return messages, nil
}

// InferGroups asks the model to group related changes.
func (c *ClaudeCLI) InferGroups(ctx context.Context, req GroupingRequest) (*PartitionProposal, error) {
	count := req.Count
	if count <= 0 {
		count = 3
	}

	b := prompt.NewBuilder()
	for _, path := range req.Files {
		diff := req.Diffs[path]
		if len(diff) > diffLimit {
			diff = diff[:diffLimit] + "\n... [truncated]"
		}
		b.AddDiff(path, diff)
	}

	maxGroups := len(req.Files) / 3
	if maxGroups < 2 {
		maxGroups = 2
	}
	if maxGroups > 5 {
		maxGroups = 5
	}

	p, err := c.prompts.Render("grouping", map[string]any{
		"FileCount": len(req.Files),
		"MaxGroups": maxGroups,
		"Count":     count,
		"Style":     string(req.Style),
		"Files":     req.Files,
		"Diffs":     b.Build(),
	})
	if err != nil {
		return nil, fmt.Errorf("build grouping prompt: %w", err)
	}

	out, err := c.invoke(ctx, p, task.Grouping)
	if err != nil {
		return nil, err
	}
	return ParseProposal(out)
}

// SummarizeDiff produces changelog markdown for a diff.
func (c *ClaudeCLI) SummarizeDiff(ctx context.Context, diff string) (string, error) {
	p, err := c.prompts.Render("changelog", map[string]any{
		"Diff": diff,
	})
	if err != nil {
		return "", fmt.Errorf("build changelog prompt: %w", err)
	}
	return c.invoke(ctx, p, task.Changelog)
}

// invoke runs the claude CLI with the given prompt and returns the result
// text. Failures are classified into GenerationError kinds so callers can
// decide whether to retry.
func (c *ClaudeCLI) invoke(ctx context.Context, promptText string, t task.Type) (string, error) {
	args := []string{"--print", "--output-format", "json"}
	args = append(args, "--model", c.modelFor(t))
	args = append(args, "-p", promptText)

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, c.binaryPath, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", NewGenerationError(GenerationTransient,
				fmt.Errorf("claude CLI timed out after %v", c.timeout))
		}
		if errors.Is(ctx.Err(), context.Canceled) {
			return "", ctx.Err()
		}
		return "", classifyCLIError(strings.TrimSpace(stderr.String()), err)
	}

	return parseResultText(stdout.Bytes()), nil
}

// modelFor returns the configured model, or selects one per task tier.
func (c *ClaudeCLI) modelFor(t task.Type) string {
	if c.model != "" {
		return c.model
	}
	if c.selector != nil {
		return string(c.selector.Select(t))
	}
	return string(task.SelectModel(t))
}

// classifyCLIError maps claude CLI failures to GenerationError kinds based
// on stderr content. Auth failures are never retried; rate limits and
// network problems are.
func classifyCLIError(stderr string, err error) error {
	lower := strings.ToLower(stderr)
	cause := err
	if stderr != "" {
		cause = fmt.Errorf("%s", stderr)
	}

	for _, marker := range []string{"api key", "authentication", "unauthorized", "401", "403", "please log in", "login"} {
		if strings.Contains(lower, marker) {
			return NewGenerationError(GenerationAuth, cause)
		}
	}
	return NewGenerationError(GenerationTransient, cause)
}

// claudeJSONOutput is the shape of claude CLI's --output-format json.
type claudeJSONOutput struct {
	Result string `json:"result"`
}

// parseResultText extracts the result field from the CLI's JSON output,
// falling back to the raw output when no JSON is present.
func parseResultText(data []byte) string {
	data = bytes.TrimSpace(data)

	var output claudeJSONOutput
	if err := json.Unmarshal(data, &output); err == nil && output.Result != "" {
		return output.Result
	}

	// The JSON object may be surrounded by other content.
	start := bytes.Index(data, []byte("{"))
	end := bytes.LastIndex(data, []byte("}"))
	if start >= 0 && end > start {
		if err := json.Unmarshal(data[start:end+1], &output); err == nil && output.Result != "" {
			return output.Result
		}
	}

	return string(data)
}

// parseMessageList decodes a JSON array of commit messages, tolerating
// markdown fences and surrounding prose. Plain-text fallback: non-empty
// lines are treated as one message each.
func parseMessageList(raw string) ([]string, error) {
	cleaned := strings.TrimSpace(raw)
	if strings.HasPrefix(cleaned, "```") {
		cleaned = strings.TrimPrefix(cleaned, "```json")
		cleaned = strings.TrimPrefix(cleaned, "```")
		cleaned = strings.TrimSuffix(strings.TrimSpace(cleaned), "```")
		cleaned = strings.TrimSpace(cleaned)
	}

	start := strings.IndexByte(cleaned, '[')
	end := strings.LastIndexByte(cleaned, ']')
	if start >= 0 && end > start {
		var messages []string
		if err := json.Unmarshal([]byte(cleaned[start:end+1]), &messages); err == nil {
			return messages, nil
		}
	}

	// Some models answer with a bare list of lines.
	var messages []string
	for _, line := range strings.Split(cleaned, "\n") {
		line = strings.TrimSpace(line)
		if line != "" {
			messages = append(messages, line)
		}
	}
	if len(messages) == 0 {
		return nil, NewGenerationError(GenerationMalformed,
			errors.New("no commit messages in response"))
	}
	return messages, nil
}
