package components

import (
	"strings"

	"charm.land/bubbles/v2/textarea"
	tea "charm.land/bubbletea/v2"
)

// Commands a candidate can type as the whole answer.
const (
	CommandPause = ":pause"
	CommandQuit  = ":quit"
)

// AnswerInput wraps bubbles/textarea for multi-line answers.
type AnswerInput struct {
	Model textarea.Model
}

// NewAnswerInput creates a focused answer box.
func NewAnswerInput(placeholder string, width int) AnswerInput {
	ta := textarea.New()
	ta.Placeholder = placeholder
	ta.ShowLineNumbers = false
	ta.SetWidth(width)
	ta.SetHeight(6)
	ta.Focus()
	return AnswerInput{Model: ta}
}

// Update handles messages.
func (a AnswerInput) Update(msg tea.Msg) (AnswerInput, tea.Cmd) {
	var cmd tea.Cmd
	a.Model, cmd = a.Model.Update(msg)
	return a, cmd
}

// View renders the answer box.
func (a AnswerInput) View() string {
	return a.Model.View()
}

// Value returns the answer with surrounding blank space removed.
func (a AnswerInput) Value() string {
	return strings.TrimSpace(a.Model.Value())
}

// SetValue replaces the answer text.
func (a *AnswerInput) SetValue(s string) {
	a.Model.SetValue(s)
}

// Command returns CommandPause or CommandQuit when the box holds only
// that command, and "" otherwise.
func (a AnswerInput) Command() string {
	switch v := a.Value(); v {
	case CommandPause, CommandQuit:
		return v
	}
	return ""
}
