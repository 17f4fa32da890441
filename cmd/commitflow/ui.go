package main

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	commitflow "github.com/randalmurphal/commitflow"
)

// terminalUI implements the engine's UI over stdin/stdout with lipgloss
// styling.
type terminalUI struct {
	in  *bufio.Reader
	out io.Writer

	promptStyle lipgloss.Style
	optionStyle lipgloss.Style
	numberStyle lipgloss.Style
	dimStyle    lipgloss.Style
	okStyle     lipgloss.Style
	failStyle   lipgloss.Style
}

func newTerminalUI(in io.Reader, out io.Writer, noColor bool) *terminalUI {
	ui := &terminalUI{
		in:  bufio.NewReader(in),
		out: out,
	}
	if noColor {
		ui.promptStyle = lipgloss.NewStyle()
		ui.optionStyle = lipgloss.NewStyle()
		ui.numberStyle = lipgloss.NewStyle()
		ui.dimStyle = lipgloss.NewStyle()
		ui.okStyle = lipgloss.NewStyle()
		ui.failStyle = lipgloss.NewStyle()
		return ui
	}

	ui.promptStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ffff"))
	ui.optionStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffffff"))
	ui.numberStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
	ui.dimStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666"))
	ui.okStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#00ff00"))
	ui.failStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff0000"))
	return ui
}

// Choose presents numbered options and reads a selection. Invalid input
// re-prompts; EOF or "q" cancels.
func (t *terminalUI) Choose(prompt string, options []string) (int, error) {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.promptStyle.Render(prompt))
	for i, opt := range options {
		fmt.Fprintf(t.out, "  %s %s\n",
			t.numberStyle.Render(fmt.Sprintf("%d)", i+1)),
			t.optionStyle.Render(opt))
	}

	for {
		fmt.Fprint(t.out, t.dimStyle.Render("> "))
		line, err := t.readLine()
		if err != nil {
			return 0, commitflow.ErrRunCancelled
		}
		if line == "q" {
			return 0, commitflow.ErrRunCancelled
		}

		n, err := strconv.Atoi(line)
		if err != nil || n < 1 || n > len(options) {
			fmt.Fprintln(t.out, t.dimStyle.Render(
				fmt.Sprintf("Enter a number between 1 and %d, or q to quit", len(options))))
			continue
		}
		return n - 1, nil
	}
}

// MultiSelect presents numbered options and reads a comma-separated list of
// selections; "all" selects everything. An empty selection re-prompts.
func (t *terminalUI) MultiSelect(prompt string, options []string) ([]int, error) {
	fmt.Fprintln(t.out)
	fmt.Fprintln(t.out, t.promptStyle.Render(prompt))
	for i, opt := range options {
		fmt.Fprintf(t.out, "  %s %s\n",
			t.numberStyle.Render(fmt.Sprintf("%d)", i+1)),
			t.optionStyle.Render(opt))
	}
	fmt.Fprintln(t.out, t.dimStyle.Render("Comma-separated numbers, or 'all'"))

	for {
		fmt.Fprint(t.out, t.dimStyle.Render("> "))
		line, err := t.readLine()
		if err != nil {
			return nil, commitflow.ErrRunCancelled
		}
		if line == "q" {
			return nil, commitflow.ErrRunCancelled
		}

		if line == "all" {
			indices := make([]int, len(options))
			for i := range options {
				indices[i] = i
			}
			return indices, nil
		}

		indices, ok := parseSelection(line, len(options))
		if !ok || len(indices) == 0 {
			fmt.Fprintln(t.out, t.dimStyle.Render("Select at least one option"))
			continue
		}
		return indices, nil
	}
}

// Confirm asks a yes/no question.
func (t *terminalUI) Confirm(prompt string, defaultYes bool) (bool, error) {
	hint := "[Y/n]"
	if !defaultYes {
		hint = "[y/N]"
	}
	fmt.Fprintf(t.out, "%s %s ", t.promptStyle.Render(prompt), t.dimStyle.Render(hint))

	line, err := t.readLine()
	if err != nil {
		return false, commitflow.ErrRunCancelled
	}
	switch strings.ToLower(line) {
	case "":
		return defaultYes, nil
	case "y", "yes":
		return true, nil
	default:
		return false, nil
	}
}

// FreeText reads one line of input.
func (t *terminalUI) FreeText(prompt string) (string, error) {
	fmt.Fprintf(t.out, "%s ", t.promptStyle.Render(prompt))
	line, err := t.readLine()
	if err != nil {
		return "", commitflow.ErrRunCancelled
	}
	return line, nil
}

func (t *terminalUI) readLine() (string, error) {
	line, err := t.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

// parseSelection parses "1,3,4" into zero-based unique indices.
func parseSelection(line string, max int) ([]int, bool) {
	seen := make(map[int]bool)
	var indices []int
	for _, part := range strings.Split(line, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil || n < 1 || n > max {
			return nil, false
		}
		if seen[n] {
			continue
		}
		seen[n] = true
		indices = append(indices, n-1)
	}
	return indices, true
}

// printReport summarizes the run for the user.
func (t *terminalUI) printReport(report *commitflow.RunReport) {
	fmt.Fprintln(t.out)
	for _, res := range report.Results {
		switch res.Outcome {
		case commitflow.OutcomeCommitted:
			sha := res.SHA
			if len(sha) > 7 {
				sha = sha[:7]
			}
			fmt.Fprintf(t.out, "%s %s %s\n",
				t.okStyle.Render("committed"), t.dimStyle.Render(sha), res.Message)
		case commitflow.OutcomeSkipped:
			fmt.Fprintf(t.out, "%s %s\n", t.dimStyle.Render("skipped"), res.Group.Label)
		case commitflow.OutcomeFailed:
			fmt.Fprintf(t.out, "%s %s: %v\n",
				t.failStyle.Render("failed"), res.Group.Label, res.Err)
		}
	}

	switch report.Push {
	case commitflow.PushSucceeded:
		fmt.Fprintln(t.out, t.okStyle.Render("pushed"))
	case commitflow.PushFailed:
		fmt.Fprintf(t.out, "%s %v\n", t.failStyle.Render("push failed:"), report.PushErr)
	}
}
