package components

import (
	"strings"
	"testing"

	tea "charm.land/bubbletea/v2"
)

func TestMenuSkipsDisabled(t *testing.T) {
	m := NewMenu([]MenuItem{
		{Label: "Locked", Disabled: true},
		{Label: "Dashboard"},
		{Label: "Hidden", Disabled: true},
		{Label: "Quit"},
	})
	if m.Selected != 1 {
		t.Fatalf("initial selection = %d, want 1", m.Selected)
	}

	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyDown})
	if m.Selected != 3 {
		t.Errorf("after down = %d, want 3", m.Selected)
	}
	m, _ = m.Update(tea.KeyPressMsg{Code: tea.KeyUp})
	if m.Selected != 1 {
		t.Errorf("after up = %d, want 1", m.Selected)
	}
}

func TestMenuEnterRunsAction(t *testing.T) {
	ran := false
	m := NewMenu([]MenuItem{{Label: "Go", Action: func() tea.Cmd {
		ran = true
		return nil
	}}})
	m.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if !ran {
		t.Error("expected action to run on enter")
	}
}

func TestProgressBarClamps(t *testing.T) {
	out := ProgressBar{Label: "Grammar", Percent: 140, Width: 40}.View()
	if strings.Contains(out, "░") {
		t.Errorf("over-full bar has empty cells: %q", out)
	}
	out = ProgressBar{Percent: -5, Width: 20}.View()
	if strings.Contains(out, "█") {
		t.Errorf("negative bar has filled cells: %q", out)
	}
}

func TestNumberInputBounds(t *testing.T) {
	in := NewNumberInput("score", 0, 100)
	in.Model.SetValue("101")
	if _, err := in.Int(); err == nil {
		t.Error("expected out-of-range error")
	}
	in.Model.SetValue("85")
	n, err := in.Int()
	if err != nil || n != 85 {
		t.Errorf("Int() = %d, %v", n, err)
	}
}

func TestNumberInputDropsLetters(t *testing.T) {
	in := NewNumberInput("score", 0, 100)
	in, _ = in.Update(tea.KeyPressMsg{Code: 'a', Text: "a"})
	if in.Value() != "" {
		t.Errorf("value = %q, want empty", in.Value())
	}
}
