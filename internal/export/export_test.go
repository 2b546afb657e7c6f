package export

import (
	"bytes"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/sertugser/assessai/internal/activity"
)

func sampleActivities(now time.Time) []activity.UserActivity {
	return []activity.UserActivity{
		{ID: "a1", Type: activity.Quiz, Score: 80, Date: now.Add(-2 * time.Hour), CourseTitle: "Grammar Basics", CorrectAnswers: 8, TotalQuestions: 10},
		{ID: "a2", Type: activity.Writing, Score: 70, Date: now.Add(-time.Hour), WordCount: 150, CEFRLevel: "B1"},
		{ID: "a3", Type: activity.Speaking, Score: 90, Date: now, Duration: 120},
	}
}

func TestWrite_Sheets(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "alice", sampleActivities(now), now))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetActivities, SheetSummary, SheetSkills, SheetWeekly}, f.GetSheetList())

	rows, err := f.GetRows(SheetActivities)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, []string{"a1", "2026-03-10 10:00", "quiz", "80", "Grammar Basics"}, rows[1][:5])
	assert.Equal(t, "B1", rows[2][6])

	summary, err := f.GetRows(SheetSummary)
	require.NoError(t, err)
	values := map[string]string{}
	for _, r := range summary[1:] {
		values[r[0]] = r[1]
	}
	assert.Equal(t, "alice", values["User"])
	assert.Equal(t, "3", values["Total activities"])
	assert.Equal(t, "80", values["Average score"])
	assert.Equal(t, "150", values["Total words"])
	assert.Equal(t, "2", values["Speaking minutes"])

	weekly, err := f.GetRows(SheetWeekly)
	require.NoError(t, err)
	assert.Len(t, weekly, 8)
	assert.Equal(t, "2026-03-10", weekly[7][0])
	assert.Equal(t, "3", weekly[7][2])
}

func TestSave_Empty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.xlsx")
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	require.NoError(t, Save(path, "local", nil, now))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetActivities)
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	skills, err := f.GetRows(SheetSkills)
	require.NoError(t, err)
	assert.Equal(t, []string{"Skill", "Score"}, skills[0])
}
