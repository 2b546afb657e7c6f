package components

import (
	"fmt"
	"strings"

	"charm.land/lipgloss/v2"

	"github.com/sertugser/assessai/internal/ui/theme"
)

// ProgressBar displays a horizontal 0..100 bar.
type ProgressBar struct {
	Label      string
	LabelWidth int
	Percent    int
	Width      int

	// Graded colors the bar by score instead of the secondary color.
	Graded bool
}

// View renders the progress bar.
func (p ProgressBar) View() string {
	var result string
	if p.Label != "" {
		style := lipgloss.NewStyle().Foreground(theme.Text)
		if p.LabelWidth > 0 {
			style = style.Width(p.LabelWidth)
		}
		result = style.Render(p.Label) + " "
	}

	const percentWidth = 6
	barWidth := p.Width - lipgloss.Width(result) - percentWidth
	if barWidth < 4 {
		barWidth = 4
	}

	pct := p.Percent
	if pct < 0 {
		pct = 0
	}
	if pct > 100 {
		pct = 100
	}
	filled := barWidth * pct / 100
	empty := barWidth - filled

	fill := theme.Secondary
	if p.Graded {
		fill = theme.ScoreColor(pct)
	}

	result += lipgloss.NewStyle().Foreground(fill).Render(strings.Repeat("█", filled)) +
		lipgloss.NewStyle().Foreground(theme.Border).Render(strings.Repeat("░", empty))

	return result + lipgloss.NewStyle().Foreground(theme.TextDim).Render(fmt.Sprintf(" %4d%%", p.Percent))
}
