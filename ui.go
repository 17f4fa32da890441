package commitflow

// UI abstracts the interactive prompts the engine needs. The cmd package
// supplies a terminal implementation; tests use a scripted one.
type UI interface {
	// Choose presents options and returns the index of the chosen one.
	Choose(prompt string, options []string) (int, error)

	// MultiSelect presents options with checkboxes and returns the indices
	// of the chosen ones. Implementations must not return an empty
	// selection; re-prompt until at least one option is picked or the user
	// cancels.
	MultiSelect(prompt string, options []string) ([]int, error)

	// Confirm asks a yes/no question.
	Confirm(prompt string, defaultYes bool) (bool, error)

	// FreeText reads a free-form line, e.g. a custom commit message.
	FreeText(prompt string) (string, error)
}
