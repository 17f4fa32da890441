package testutil

import (
	"errors"
	"fmt"
)

// ErrScriptExhausted is returned when a ScriptedUI runs out of answers.
var ErrScriptExhausted = errors.New("scripted UI: no answers left")

// ScriptedUI answers prompts from pre-recorded scripts. It satisfies the
// engine's UI interface without importing it.
type ScriptedUI struct {
	// ChooseAnswers are consumed in order by Choose calls.
	ChooseAnswers []int

	// MultiAnswers are consumed in order by MultiSelect calls.
	MultiAnswers [][]int

	// ConfirmAnswers are consumed in order by Confirm calls.
	ConfirmAnswers []bool

	// TextAnswers are consumed in order by FreeText calls.
	TextAnswers []string

	// Prompts records every prompt shown, for assertions.
	Prompts []string
}

// Choose pops the next scripted choice.
func (s *ScriptedUI) Choose(prompt string, options []string) (int, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.ChooseAnswers) == 0 {
		return 0, fmt.Errorf("%w: Choose(%q)", ErrScriptExhausted, prompt)
	}
	answer := s.ChooseAnswers[0]
	s.ChooseAnswers = s.ChooseAnswers[1:]
	return answer, nil
}

// MultiSelect pops the next scripted selection.
func (s *ScriptedUI) MultiSelect(prompt string, options []string) ([]int, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.MultiAnswers) == 0 {
		return nil, fmt.Errorf("%w: MultiSelect(%q)", ErrScriptExhausted, prompt)
	}
	answer := s.MultiAnswers[0]
	s.MultiAnswers = s.MultiAnswers[1:]
	return answer, nil
}

// Confirm pops the next scripted yes/no answer, or the default when the
// script has none left.
func (s *ScriptedUI) Confirm(prompt string, defaultYes bool) (bool, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.ConfirmAnswers) == 0 {
		return defaultYes, nil
	}
	answer := s.ConfirmAnswers[0]
	s.ConfirmAnswers = s.ConfirmAnswers[1:]
	return answer, nil
}

// FreeText pops the next scripted line.
func (s *ScriptedUI) FreeText(prompt string) (string, error) {
	s.Prompts = append(s.Prompts, prompt)
	if len(s.TextAnswers) == 0 {
		return "", fmt.Errorf("%w: FreeText(%q)", ErrScriptExhausted, prompt)
	}
	answer := s.TextAnswers[0]
	s.TextAnswers = s.TextAnswers[1:]
	return answer, nil
}
