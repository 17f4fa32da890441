package git

import (
	"fmt"
	"os/exec"
	"strings"
)

// CommandRunner executes external commands. The single implementation used in
// production is ExecRunner; tests substitute a mock to script git behavior.
type CommandRunner interface {
	// Run executes name with args in dir and returns trimmed stdout.
	// On failure the returned error message includes combined output.
	Run(dir, name string, args ...string) (string, error)
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates the default command runner.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Run implements CommandRunner.
func (r *ExecRunner) Run(dir, name string, args ...string) (string, error) {
	cmd := exec.Command(name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	output := strings.TrimSpace(string(out))
	if err != nil {
		if output != "" {
			return output, fmt.Errorf("%s %s: %s", name, strings.Join(args, " "), output)
		}
		return output, fmt.Errorf("%s %s: %w", name, strings.Join(args, " "), err)
	}
	return output, nil
}
