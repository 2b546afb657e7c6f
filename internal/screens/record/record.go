// Package record is the form for logging a finished exercise from the
// terminal.
package record

import (
	"context"
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/router"
	"github.com/sertugser/assessai/internal/screen"
	"github.com/sertugser/assessai/internal/ui/components"
	"github.com/sertugser/assessai/internal/ui/layout"
	"github.com/sertugser/assessai/internal/ui/theme"
)

// Saver persists a new activity.
type Saver interface {
	Save(ctx context.Context, in activity.ActivityInput) (activity.UserActivity, error)
}

type savedMsg struct {
	Activity activity.UserActivity
	Err      error
}

const (
	fieldType = iota
	fieldScore
	fieldCourse
	fieldDetail
	fieldCount
)

// RecordScreen collects an activity and saves it.
type RecordScreen struct {
	saver   Saver
	typeIdx int
	focus   int
	score   components.TextInput
	course  components.TextInput
	detail  components.TextInput
	saving  bool
	errMsg  string
}

var _ screen.Screen = (*RecordScreen)(nil)
var _ screen.KeyHintProvider = (*RecordScreen)(nil)

// New creates the form.
func New(saver Saver) *RecordScreen {
	s := &RecordScreen{
		saver:  saver,
		score:  components.NewNumberInput("0-100", 0, 100),
		course: components.NewTextInput("e.g. Present Perfect", 80),
		detail: components.NewNumberInput("optional", 0, 99999),
	}
	s.score.Blur()
	s.course.Blur()
	s.detail.Blur()
	return s
}

func (s *RecordScreen) kind() activity.Type {
	return activity.Types[s.typeIdx]
}

func (s *RecordScreen) detailLabel() string {
	switch s.kind() {
	case activity.Writing:
		return "Word count"
	case activity.Speaking:
		return "Duration (s)"
	default:
		return "Questions"
	}
}

func (s *RecordScreen) Init() tea.Cmd {
	return nil
}

func (s *RecordScreen) Title() string {
	return "Record Activity"
}

func (s *RecordScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Tab", Description: "Next field"},
		{Key: "←→", Description: "Type"},
		{Key: "Enter", Description: "Save"},
		{Key: "Esc", Description: "Cancel"},
	}
}

func (s *RecordScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case savedMsg:
		s.saving = false
		if msg.Err != nil {
			s.errMsg = msg.Err.Error()
			return s, nil
		}
		return s, tea.Batch(
			func() tea.Msg { return router.PopScreenMsg{} },
			func() tea.Msg { return screen.RefreshRequestMsg{} },
		)

	case tea.KeyMsg:
		if s.saving {
			return s, nil
		}
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "tab", "down":
			return s, s.setFocus((s.focus + 1) % fieldCount)
		case "shift+tab", "up":
			return s, s.setFocus((s.focus + fieldCount - 1) % fieldCount)
		case "enter":
			return s, s.submit()
		case "left", "right":
			if s.focus == fieldType {
				n := len(activity.Types)
				if msg.String() == "left" {
					s.typeIdx = (s.typeIdx + n - 1) % n
				} else {
					s.typeIdx = (s.typeIdx + 1) % n
				}
				return s, nil
			}
		}
	}

	var cmd tea.Cmd
	switch s.focus {
	case fieldScore:
		s.score, cmd = s.score.Update(msg)
	case fieldCourse:
		s.course, cmd = s.course.Update(msg)
	case fieldDetail:
		s.detail, cmd = s.detail.Update(msg)
	}
	return s, cmd
}

func (s *RecordScreen) setFocus(f int) tea.Cmd {
	s.focus = f
	s.score.Blur()
	s.course.Blur()
	s.detail.Blur()
	switch f {
	case fieldScore:
		return s.score.Focus()
	case fieldCourse:
		return s.course.Focus()
	case fieldDetail:
		return s.detail.Focus()
	}
	return nil
}

// input builds the activity from the form, or reports the first bad field.
func (s *RecordScreen) input() (activity.ActivityInput, error) {
	score, err := s.score.Int()
	if err != nil {
		return activity.ActivityInput{}, fmt.Errorf("score: %w", err)
	}
	in := activity.ActivityInput{Type: s.kind(), Score: score, CourseTitle: s.course.Value()}

	if s.detail.Value() != "" {
		n, err := s.detail.Int()
		if err != nil {
			return activity.ActivityInput{}, fmt.Errorf("%s: %w", strings.ToLower(s.detailLabel()), err)
		}
		switch in.Type {
		case activity.Writing:
			in.WordCount = n
		case activity.Speaking:
			in.Duration = n
		case activity.Quiz:
			in.TotalQuestions = n
			in.CorrectAnswers = (n*score + 50) / 100
		}
	}
	return in, in.Validate()
}

func (s *RecordScreen) submit() tea.Cmd {
	in, err := s.input()
	if err != nil {
		s.errMsg = err.Error()
		return nil
	}
	s.errMsg = ""
	s.saving = true
	saver := s.saver
	return func() tea.Msg {
		a, err := saver.Save(context.Background(), in)
		return savedMsg{Activity: a, Err: err}
	}
}

func (s *RecordScreen) View(width, height int) string {
	label := func(f int, text string) string {
		style := theme.Label
		if s.focus == f {
			style = style.Foreground(theme.Primary).Bold(true)
		}
		return style.Render(text)
	}

	var types []string
	for i, t := range activity.Types {
		if i == s.typeIdx {
			types = append(types, theme.Selected.Render("["+string(t)+"]"))
		} else {
			types = append(types, theme.Unselected.Render(" "+string(t)+" "))
		}
	}

	rows := []string{
		theme.CardTitle.Render("New activity"),
		"",
		label(fieldType, "Type") + strings.Join(types, " "),
		label(fieldScore, "Score") + s.score.View(),
		label(fieldCourse, "Course / topic") + s.course.View(),
		label(fieldDetail, s.detailLabel()) + s.detail.View(),
	}
	switch {
	case s.saving:
		rows = append(rows, "", theme.Hint.Render("Saving..."))
	case s.errMsg != "":
		rows = append(rows, "", theme.ErrorText.Render(s.errMsg))
	}

	card := theme.Card.Width(min(width-4, 70)).Render(strings.Join(rows, "\n"))
	return lipgloss.PlaceHorizontal(width, lipgloss.Center, "\n"+card)
}
