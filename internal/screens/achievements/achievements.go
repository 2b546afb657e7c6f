package achievements

import (
	"fmt"
	"strings"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sertugser/assessai/internal/achievements"
	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
	"github.com/sertugser/assessai/internal/router"
	"github.com/sertugser/assessai/internal/screen"
	"github.com/sertugser/assessai/internal/ui/components"
	"github.com/sertugser/assessai/internal/ui/layout"
	"github.com/sertugser/assessai/internal/ui/theme"
)

// AchievementsScreen shows every badge with its progress.
type AchievementsScreen struct {
	badges   []achievements.Achievement
	selected int
}

var _ screen.Screen = (*AchievementsScreen)(nil)
var _ screen.KeyHintProvider = (*AchievementsScreen)(nil)

// New creates the screen from the current stats.
func New(stats progress.Stats, activities []activity.UserActivity) *AchievementsScreen {
	return &AchievementsScreen{badges: achievements.Evaluate(stats, activities)}
}

func (s *AchievementsScreen) Init() tea.Cmd {
	return nil
}

func (s *AchievementsScreen) Title() string {
	return fmt.Sprintf("Achievements %d/%d", achievements.Unlocked(s.badges), len(s.badges))
}

func (s *AchievementsScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Esc", Description: "Back"},
	}
}

func (s *AchievementsScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	switch msg := msg.(type) {
	case screen.RefreshMsg:
		if msg.Err == nil {
			stats := progress.ComputeStats(msg.Activities, msg.Now)
			s.badges = achievements.Evaluate(stats, msg.Activities)
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
			if s.selected < len(s.badges)-1 {
				s.selected++
			}
		}
	}
	return s, nil
}

func (s *AchievementsScreen) View(width, height int) string {
	barWidth := width/2 - 4
	if barWidth > 40 {
		barWidth = 40
	}

	var b strings.Builder
	b.WriteString("\n")
	for i, a := range s.badges {
		marker := "  "
		if i == s.selected {
			marker = "> "
		}

		name := theme.Locked.Render(a.Title)
		if a.Unlocked {
			name = theme.Unlocked.Render(a.Title + " ✓")
		}

		line := lipgloss.JoinHorizontal(lipgloss.Top,
			marker+a.Icon+" ",
			lipgloss.NewStyle().Width(26).Render(name),
			components.ProgressBar{Percent: a.Progress, Width: barWidth}.View(),
			theme.Subtitle.Render(fmt.Sprintf("  %d/%d", a.Current, a.Requirement)),
		)
		b.WriteString(line + "\n")
		if i == s.selected {
			b.WriteString(theme.Hint.Render("     "+a.Description) + "\n")
		}
	}
	return b.String()
}
