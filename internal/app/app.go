package app

import (
	"context"
	"fmt"
	"time"

	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
	"github.com/sertugser/assessai/internal/router"
	"github.com/sertugser/assessai/internal/screen"
	"github.com/sertugser/assessai/internal/screens/dashboard"
	"github.com/sertugser/assessai/internal/ui/layout"
)

// Options holds the dependencies for the TUI.
type Options struct {
	// Activities is the current learner's store.
	Activities *activity.Store

	// Refresh is how often activities are re-read.
	Refresh time.Duration

	// Now overrides the clock. Defaults to time.Now.
	Now func() time.Time
}

type tickMsg time.Time

// AppModel is the root Bubble Tea model.
type AppModel struct {
	router  *router.Router
	source  screen.Source
	refresh time.Duration
	now     func() time.Time
	header  layout.HeaderStats
	width   int
	height  int
}

func newAppModel(source screen.Source, saver interface {
	Save(context.Context, activity.ActivityInput) (activity.UserActivity, error)
}, refresh time.Duration, now func() time.Time) AppModel {
	if refresh <= 0 {
		refresh = 2 * time.Second
	}
	if now == nil {
		now = time.Now
	}
	return AppModel{
		router:  router.New(dashboard.New(saver)),
		source:  source,
		refresh: refresh,
		now:     now,
	}
}

func (m AppModel) Init() tea.Cmd {
	return tea.Batch(m.load(), m.tick())
}

func (m AppModel) tick() tea.Cmd {
	return tea.Tick(m.refresh, func(t time.Time) tea.Msg { return tickMsg(t) })
}

func (m AppModel) load() tea.Cmd {
	source, now := m.source, m.now
	return func() tea.Msg {
		acts, err := source.List(context.Background())
		return screen.RefreshMsg{Activities: acts, Now: now(), Err: err}
	}
}

func (m AppModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.load(), m.tick())

	case screen.RefreshRequestMsg:
		return m, m.load()

	case screen.RefreshMsg:
		if msg.Err == nil {
			stats := progress.ComputeStats(msg.Activities, msg.Now)
			m.header = layout.HeaderStats{Level: stats.Level, Points: stats.TotalPoints, Streak: stats.CurrentStreak}
		}
		return m, m.router.Broadcast(msg)

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c":
			return m, tea.Quit
		case "q":
			if m.router.Depth() == 1 {
				return m, tea.Quit
			}
		}
	}

	cmd := m.router.Update(msg)
	return m, cmd
}

func (m AppModel) View() tea.View {
	v := tea.NewView("")
	v.AltScreen = true

	if m.width == 0 || m.height == 0 {
		return v
	}

	if layout.IsTooSmall(m.width, m.height) {
		v.SetContent(layout.RenderMinSizeMessage(m.width, m.height))
		return v
	}

	active := m.router.Active()
	title := ""
	var hints []layout.KeyHint
	if active != nil {
		title = active.Title()
		if p, ok := active.(screen.KeyHintProvider); ok {
			hints = p.KeyHints()
		}
	}
	if hints == nil {
		hints = []layout.KeyHint{{Key: "Esc", Description: "Back"}, {Key: "Ctrl+C", Description: "Quit"}}
	}

	header := layout.RenderHeader(title, m.header, m.width)
	footer := layout.RenderFooter(hints, m.width)

	contentHeight := m.height - lipgloss.Height(header) - lipgloss.Height(footer)
	if contentHeight < 0 {
		contentHeight = 0
	}

	content := m.router.View(m.width, contentHeight)
	v.SetContent(layout.RenderFrame(header, content, footer, m.width, m.height))
	return v
}

// Run starts the Bubble Tea program and blocks until it exits.
func Run(opts Options) error {
	if opts.Activities == nil {
		return fmt.Errorf("app: activity store is required")
	}
	p := tea.NewProgram(newAppModel(opts.Activities, opts.Activities, opts.Refresh, opts.Now))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running dashboard: %w", err)
	}
	return nil
}
