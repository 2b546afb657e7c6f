// Package dashboard is the landing screen: live stats, skills, the weekly
// chart and navigation to the other screens.
package dashboard

import (
	"fmt"
	"strings"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
	"github.com/sertugser/assessai/internal/router"
	"github.com/sertugser/assessai/internal/screen"
	achievementsscreen "github.com/sertugser/assessai/internal/screens/achievements"
	"github.com/sertugser/assessai/internal/screens/history"
	"github.com/sertugser/assessai/internal/screens/record"
	"github.com/sertugser/assessai/internal/ui/components"
	"github.com/sertugser/assessai/internal/ui/layout"
	"github.com/sertugser/assessai/internal/ui/theme"
)

// DashboardScreen renders the progress snapshot for the current learner.
type DashboardScreen struct {
	menu       components.Menu
	activities []activity.UserActivity
	snap       progress.Snapshot
	updated    time.Time
	loaded     bool
	errMsg     string
}

var _ screen.Screen = (*DashboardScreen)(nil)
var _ screen.KeyHintProvider = (*DashboardScreen)(nil)

// New creates the dashboard. saver may be nil, which disables recording.
func New(saver record.Saver) *DashboardScreen {
	d := &DashboardScreen{}
	d.menu = components.NewMenu([]components.MenuItem{
		{Label: "History", Hint: "browse past activities", Action: func() tea.Cmd {
			return push(history.New(d.activities, d.updated))
		}},
		{Label: "Achievements", Hint: "badges and progress", Action: func() tea.Cmd {
			return push(achievementsscreen.New(d.snap.Stats, d.activities))
		}},
		{Label: "Record activity", Hint: "log a finished exercise", Disabled: saver == nil, Action: func() tea.Cmd {
			return push(record.New(saver))
		}},
		{Label: "Quit", Action: func() tea.Cmd { return tea.Quit }},
	})
	return d
}

func push(s screen.Screen) tea.Cmd {
	return func() tea.Msg { return router.PushScreenMsg{Screen: s} }
}

func (d *DashboardScreen) Init() tea.Cmd {
	return nil
}

func (d *DashboardScreen) Title() string {
	return "Dashboard"
}

func (d *DashboardScreen) KeyHints() []layout.KeyHint {
	return []layout.KeyHint{
		{Key: "↑↓", Description: "Navigate"},
		{Key: "Enter", Description: "Open"},
		{Key: "Ctrl+C", Description: "Quit"},
	}
}

func (d *DashboardScreen) Update(msg tea.Msg) (screen.Screen, tea.Cmd) {
	if msg, ok := msg.(screen.RefreshMsg); ok {
		d.loaded = true
		if msg.Err != nil {
			d.errMsg = msg.Err.Error()
			return d, nil
		}
		d.errMsg = ""
		d.activities = msg.Activities
		d.updated = msg.Now
		d.snap = progress.Compute(msg.Activities, msg.Now)
		return d, nil
	}

	var cmd tea.Cmd
	d.menu, cmd = d.menu.Update(msg)
	return d, cmd
}

func (d *DashboardScreen) View(width, height int) string {
	if !d.loaded {
		return lipgloss.NewStyle().
			Width(width).Align(lipgloss.Center).Foreground(theme.TextDim).
			Render("\n\n  Loading progress...")
	}

	cardWidth := width/2 - 2
	if layout.IsCompactWidth(width) {
		cardWidth = width - 4
	}

	stats := theme.Card.Width(cardWidth).Render(renderStats(d.snap.Stats))
	skills := theme.Card.Width(cardWidth).Render(renderSkills(d.snap.Skills, cardWidth-6))

	var top string
	if layout.IsCompactWidth(width) {
		top = lipgloss.JoinVertical(lipgloss.Left, stats, skills)
	} else {
		top = lipgloss.JoinHorizontal(lipgloss.Top, stats, " ", skills)
	}

	weekly := theme.Card.Width(cardWidth).Render(renderWeekly(d.snap.Weekly))
	menu := theme.Card.Width(cardWidth).Render(theme.CardTitle.Render("Go to") + "\n" + d.menu.View())
	var bottom string
	if layout.IsCompactWidth(width) {
		bottom = lipgloss.JoinVertical(lipgloss.Left, menu, weekly)
	} else {
		bottom = lipgloss.JoinHorizontal(lipgloss.Top, menu, " ", weekly)
	}

	sections := []string{top, bottom}
	if focus := renderFocus(d.snap.Weaknesses); focus != "" {
		sections = append(sections, focus)
	}
	if d.errMsg != "" {
		sections = append(sections, theme.ErrorText.Render("  refresh failed: "+d.errMsg))
	}
	return strings.Join(sections, "\n")
}

func renderStats(s progress.Stats) string {
	row := func(label, value string) string {
		return theme.Label.Render(label) + theme.Body.Render(value) + "\n"
	}

	var b strings.Builder
	b.WriteString(theme.CardTitle.Render("Overview") + "\n")
	b.WriteString(row("Activities", fmt.Sprintf("%d  (%d quiz · %d writing · %d speaking)",
		s.TotalActivities, s.QuizCount, s.WritingCount, s.SpeakingCount)))
	b.WriteString(theme.Label.Render("Average score") + theme.Score(s.AverageScore) + "\n")
	b.WriteString(row("Level", fmt.Sprintf("%d  (%d pts, %d%% to next)",
		s.Level, s.TotalPoints, progress.LevelProgress(s.TotalPoints))))
	b.WriteString(row("Streak", fmt.Sprintf("%d days (best %d)", s.CurrentStreak, s.LongestStreak)))
	b.WriteString(row("Words written", fmt.Sprintf("%d", s.TotalWords)))
	b.WriteString(row("Minutes spoken", fmt.Sprintf("%d", s.TotalSpeakingMinutes)))
	return strings.TrimRight(b.String(), "\n")
}

func renderSkills(skills []progress.SkillScore, width int) string {
	lines := []string{theme.CardTitle.Render("Skills")}
	for _, sk := range skills {
		lines = append(lines, components.ProgressBar{
			Label:      sk.Name,
			LabelWidth: 11,
			Percent:    sk.Score,
			Width:      width,
			Graded:     true,
		}.View())
	}
	return strings.Join(lines, "\n")
}

const chartHeight = 5

func renderWeekly(days []progress.DayPoint) string {
	maxCount := 1
	for _, d := range days {
		if d.Activities > maxCount {
			maxCount = d.Activities
		}
	}

	rows := make([]string, 0, chartHeight+2)
	rows = append(rows, theme.CardTitle.Render("This week"))
	bar := lipgloss.NewStyle().Foreground(theme.Secondary)
	for level := chartHeight; level >= 1; level-- {
		var b strings.Builder
		for _, d := range days {
			filled := (d.Activities*chartHeight + maxCount - 1) / maxCount
			if filled >= level {
				b.WriteString(bar.Render(" ██ "))
			} else {
				b.WriteString("    ")
			}
		}
		rows = append(rows, b.String())
	}

	var labels strings.Builder
	for _, d := range days {
		labels.WriteString(fmt.Sprintf(" %-3s", d.Day))
	}
	rows = append(rows, theme.Subtitle.Render(labels.String()))
	return strings.Join(rows, "\n")
}

func renderFocus(w progress.WeaknessReport) string {
	if len(w.Suggestions) == 0 {
		return ""
	}
	lines := []string{theme.CardTitle.Render("  Focus next")}
	for i, s := range w.Suggestions {
		if i == 3 {
			break
		}
		lines = append(lines, theme.Body.Render("  • "+s))
	}
	return strings.Join(lines, "\n")
}
