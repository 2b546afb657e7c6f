package components

import (
	"fmt"
	"strconv"
	"strings"

	"charm.land/bubbles/v2/textinput"
	tea "charm.land/bubbletea/v2"
)

// TextInput wraps bubbles/textinput with optional integer validation.
type TextInput struct {
	Model       textinput.Model
	NumericOnly bool
	Min, Max    int
}

// NewTextInput creates a focused text input.
func NewTextInput(placeholder string, charLimit int) TextInput {
	ti := textinput.New()
	ti.Placeholder = placeholder
	if charLimit > 0 {
		ti.CharLimit = charLimit
	}
	ti.Focus()
	return TextInput{Model: ti}
}

// NewNumberInput creates a focused input accepting integers in [min, max].
func NewNumberInput(placeholder string, min, max int) TextInput {
	t := NewTextInput(placeholder, len(strconv.Itoa(max)))
	t.NumericOnly = true
	t.Min, t.Max = min, max
	return t
}

// Update handles messages. Non-digit keys are dropped for numeric inputs.
func (t TextInput) Update(msg tea.Msg) (TextInput, tea.Cmd) {
	if t.NumericOnly {
		if kmsg, ok := msg.(tea.KeyMsg); ok {
			key := kmsg.String()
			if len(key) == 1 && (key[0] < '0' || key[0] > '9') {
				return t, nil
			}
		}
	}

	var cmd tea.Cmd
	t.Model, cmd = t.Model.Update(msg)
	return t, cmd
}

// View renders the input.
func (t TextInput) View() string {
	return t.Model.View()
}

// Value returns the trimmed input value.
func (t TextInput) Value() string {
	return strings.TrimSpace(t.Model.Value())
}

// Focus focuses the input.
func (t *TextInput) Focus() tea.Cmd {
	return t.Model.Focus()
}

// Blur removes focus.
func (t *TextInput) Blur() {
	t.Model.Blur()
}

// Int parses the value and checks it against the input's bounds.
func (t TextInput) Int() (int, error) {
	n, err := strconv.Atoi(t.Value())
	if err != nil {
		return 0, fmt.Errorf("enter a whole number")
	}
	if t.NumericOnly && (n < t.Min || n > t.Max) {
		return 0, fmt.Errorf("must be between %d and %d", t.Min, t.Max)
	}
	return n, nil
}
