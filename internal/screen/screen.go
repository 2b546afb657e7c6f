package screen

import (
	"context"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/ui/layout"
)

// Screen defines the interface for all application screens.
type Screen interface {
	// Init returns an initial command when the screen is first created.
	Init() tea.Cmd

	// Update handles messages and returns updated screen + command.
	Update(msg tea.Msg) (Screen, tea.Cmd)

	// View renders the screen content (excluding header/footer).
	View(width, height int) string

	// Title returns the screen name for the header.
	Title() string
}

// KeyHintProvider is an optional interface that screens can implement
// to provide custom footer key hints.
type KeyHintProvider interface {
	KeyHints() []layout.KeyHint
}

// RefreshMsg is broadcast on every dashboard tick with a fresh read of the
// learner's activities.
type RefreshMsg struct {
	Activities []activity.UserActivity
	Now        time.Time
	Err        error
}

// Source reads the current learner's activities.
type Source interface {
	List(ctx context.Context) ([]activity.UserActivity, error)
}

// RefreshRequestMsg asks the app to reload activities now instead of
// waiting for the next tick.
type RefreshRequestMsg struct{}
