package history

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/router"
	"github.com/sertugser/assessai/internal/screen"
	"github.com/sertugser/assessai/internal/ui/layout"
	"github.com/sertugser/assessai/internal/ui/theme"
)

// HistoryScreen lists past activities, newest first.
type HistoryScreen struct {
	activities []activity.UserActivity
	now        time.Time
	selected   int
	offset     int
	expanded   map[string]bool
}

var _ screen.Screen = (*HistoryScreen)(nil)
var _ screen.KeyHintProvider = (*HistoryScreen)(nil)

// New creates a HistoryScreen over a snapshot of activities.
func New(activities []activity.UserActivity, now time.Time) *HistoryScreen {
	s := &HistoryScreen{expanded: make(map[string]bool)}
	s.set(activities, now)
	return s
}

func (s *HistoryScreen) set(activities []activity.UserActivity, now time.Time) {
	sorted := make([]activity.UserActivity, len(activities))
	copy(sorted, activities)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Date.After(sorted[j].Date) })
	s.activities = sorted
	s.now = now
	if s.selected >= len(sorted) {
		s.selected = max(len(sorted)-1, 0)
	}
}

func (s *HistoryScreen) Init() tea.Cmd {
	return nil
}

func (s *HistoryScreen) Title() string {
	return "History"
}

func (s *HistoryScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "Enter", Description: "Details"},
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *HistoryScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.RefreshMsg:
		if msg.Err == nil {
			s.set(msg.Activities, msg.Now)
		}
		return s, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "esc":
			return s, func() tea.Msg { return router.PopScreenMsg{} }
		case "up", "k":
			if s.selected > 0 {
				s.selected--
			}
		case "down", "j":
			if s.selected < len(s.activities)-1 {
				s.selected++
			}
		case "enter":
			if s.selected < len(s.activities) {
				id := s.activities[s.selected].ID
				s.expanded[id] = !s.expanded[id]
			}
		}
	}
	return s, nil
}

func (s *HistoryScreen) View(width, height int) string {
	if len(s.activities) == 0 {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).Italic(true).
			Render("\n\n  No activities yet. Finish a quiz, essay or speaking task to see it here.")
	}

	visible := height - 2
	if visible < 1 {
		visible = 1
	}
	if s.selected < s.offset {
		s.offset = s.selected
	}
	if s.selected >= s.offset+visible {
		s.offset = s.selected - visible + 1
	}

	var lines []string
	for i := s.offset; i < len(s.activities) && len(lines) < visible; i++ {
		a := s.activities[i]
		prefix := "  "
		style := theme.Unselected
		if i == s.selected {
			prefix = "> "
			style = theme.Selected
		}

		line := fmt.Sprintf("%s%-16s %-9s %s  %s",
			prefix, a.Date.In(s.now.Location()).Format("Jan 02 15:04"), a.Type, theme.Score(a.Score), describe(a))
		lines = append(lines, style.Render(line))

		if s.expanded[a.ID] {
			for _, d := range details(a) {
				lines = append(lines, theme.Hint.Render("      "+d))
			}
		}
	}
	return "\n" + strings.Join(lines, "\n")
}

func describe(a activity.UserActivity) string {
	switch a.Type {
	case activity.Quiz:
		title := a.CourseTitle
		if title == "" {
			title = a.CourseID
		}
		if a.TotalQuestions > 0 {
			return fmt.Sprintf("%s (%d/%d)", title, a.CorrectAnswers, a.TotalQuestions)
		}
		return title
	case activity.Writing:
		if a.CEFRLevel != "" {
			return fmt.Sprintf("%d words · %s", a.WordCount, a.CEFRLevel)
		}
		return fmt.Sprintf("%d words", a.WordCount)
	case activity.Speaking:
		return fmt.Sprintf("%d:%02d spoken", a.Duration/60, a.Duration%60)
	}
	return ""
}

func details(a activity.UserActivity) []string {
	var out []string
	if a.Category != activity.CategoryNone {
		out = append(out, "Category: "+string(a.Category))
	}
	if a.CourseID != "" {
		out = append(out, "Course: "+a.CourseID)
	}
	if a.EssayText != "" {
		out = append(out, "Essay: "+truncate(strings.Join(strings.Fields(a.EssayText), " "), 70))
	}
	if summary := feedbackSummary(a.Feedback); summary != "" {
		out = append(out, "Feedback: "+truncate(summary, 70))
	}
	if len(out) == 0 {
		out = append(out, "No further details")
	}
	return out
}

// feedbackSummary pulls a readable line out of a stored feedback payload.
func feedbackSummary(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var fb struct {
		Summary      string   `json:"summary"`
		Improvements []string `json:"improvements"`
		Tips         []string `json:"tips"`
	}
	if err := json.Unmarshal(raw, &fb); err != nil {
		return ""
	}
	switch {
	case fb.Summary != "":
		return fb.Summary
	case len(fb.Improvements) > 0:
		return fb.Improvements[0]
	case len(fb.Tips) > 0:
		return fb.Tips[0]
	}
	return ""
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
