package dashboard

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "charm.land/bubbletea/v2"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/router"
	"github.com/sertugser/assessai/internal/screen"
)

var now = time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC)

func refresh(acts ...activity.UserActivity) screen.RefreshMsg {
	return screen.RefreshMsg{Activities: acts, Now: now}
}

func TestDashboard_LoadingThenLoaded(t *testing.T) {
	d := New(nil)
	if !strings.Contains(d.View(120, 30), "Loading") {
		t.Error("expected loading state before first refresh")
	}

	d.Update(refresh(
		activity.UserActivity{ID: "1", Type: activity.Quiz, Score: 40, Date: now, CourseTitle: "Grammar: articles"},
		activity.UserActivity{ID: "2", Type: activity.Writing, Score: 90, Date: now, WordCount: 180},
	))
	view := d.View(120, 30)
	for _, want := range []string{"Overview", "Skills", "This week", "Grammar", "180"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}
	if d.snap.Stats.TotalActivities != 2 {
		t.Errorf("total = %d", d.snap.Stats.TotalActivities)
	}
}

func TestDashboard_RecordDisabledWithoutSaver(t *testing.T) {
	d := New(nil)
	if !d.menu.Items[2].Disabled {
		t.Error("record entry should be disabled without a saver")
	}
}

func TestDashboard_OpensHistory(t *testing.T) {
	d := New(nil)
	d.Update(refresh(activity.UserActivity{ID: "1", Type: activity.Speaking, Score: 70, Date: now, Duration: 90}))

	_, cmd := d.Update(tea.KeyPressMsg{Code: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("expected push command")
	}
	push, ok := cmd().(router.PushScreenMsg)
	if !ok {
		t.Fatalf("msg = %T", cmd())
	}
	if push.Screen.Title() != "History" {
		t.Errorf("pushed %q", push.Screen.Title())
	}
}

func TestDashboard_RefreshErrorShown(t *testing.T) {
	d := New(nil)
	d.Update(screen.RefreshMsg{Err: errors.New("database is locked")})
	if !strings.Contains(d.View(120, 30), "database is locked") {
		t.Error("expected refresh error in view")
	}
}

func TestRenderWeekly_Scales(t *testing.T) {
	d := New(nil)
	d.Update(refresh(
		activity.UserActivity{ID: "1", Type: activity.Quiz, Score: 60, Date: now},
		activity.UserActivity{ID: "2", Type: activity.Quiz, Score: 60, Date: now},
	))
	chart := renderWeekly(d.snap.Weekly)
	if strings.Count(chart, "██") != chartHeight {
		t.Errorf("today's column should fill the chart:\n%s", chart)
	}
}
