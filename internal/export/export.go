// Package export writes a learner's history and progress to an XLSX workbook.
package export

import (
	"fmt"
	"io"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
)

// Sheet names.
const (
	SheetActivities = "Activities"
	SheetSummary    = "Summary"
	SheetSkills     = "Skills"
	SheetWeekly     = "Weekly"
)

var activityHeader = []interface{}{
	"ID", "Date", "Type", "Score", "Course", "Category", "CEFR",
	"Words", "Duration (s)", "Correct", "Questions",
}

// Workbook builds the export for one user as of now.
func Workbook(userID string, activities []activity.UserActivity, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetActivities); err != nil {
		return nil, err
	}
	for _, name := range []string{SheetSummary, SheetSkills, SheetWeekly} {
		if _, err := f.NewSheet(name); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("create sheet %s: %w", name, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		_ = f.Close()
		return nil, err
	}

	snap := progress.Compute(activities, now)
	steps := []func() error{
		func() error { return writeActivities(f, activities, now.Location()) },
		func() error { return writeSummary(f, userID, snap.Stats, now) },
		func() error { return writeSkills(f, snap.Skills) },
		func() error { return writeWeekly(f, snap.Weekly) },
	}
	for _, step := range steps {
		if err := step(); err != nil {
			_ = f.Close()
			return nil, err
		}
	}

	for _, sheet := range []string{SheetActivities, SheetSummary, SheetSkills, SheetWeekly} {
		if err := f.SetRowStyle(sheet, 1, 1, bold); err != nil {
			_ = f.Close()
			return nil, err
		}
	}
	_ = f.SetColWidth(SheetActivities, "A", "A", 22)
	_ = f.SetColWidth(SheetActivities, "B", "B", 20)
	_ = f.SetColWidth(SheetActivities, "E", "E", 28)
	_ = f.SetColWidth(SheetSummary, "A", "A", 24)

	f.SetActiveSheet(0)
	return f, nil
}

// Write builds the workbook and writes it to w.
func Write(w io.Writer, userID string, activities []activity.UserActivity, now time.Time) error {
	f, err := Workbook(userID, activities, now)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// Save builds the workbook and saves it to path.
func Save(path, userID string, activities []activity.UserActivity, now time.Time) error {
	f, err := Workbook(userID, activities, now)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}

func writeActivities(f *excelize.File, activities []activity.UserActivity, loc *time.Location) error {
	if err := f.SetSheetRow(SheetActivities, "A1", &activityHeader); err != nil {
		return err
	}
	for i, a := range activities {
		course := a.CourseTitle
		if course == "" {
			course = a.CourseID
		}
		row := []interface{}{
			a.ID,
			a.Date.In(loc).Format("2006-01-02 15:04"),
			string(a.Type),
			a.Score,
			course,
			string(a.Category),
			a.CEFRLevel,
			a.WordCount,
			a.Duration,
			a.CorrectAnswers,
			a.TotalQuestions,
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(SheetActivities, cell, &row); err != nil {
			return fmt.Errorf("activity row %d: %w", i+1, err)
		}
	}
	return nil
}

func writeSummary(f *excelize.File, userID string, s progress.Stats, now time.Time) error {
	rows := [][]interface{}{
		{"Metric", "Value"},
		{"User", userID},
		{"Exported", now.Format(time.RFC3339)},
		{"Total activities", s.TotalActivities},
		{"Average score", s.AverageScore},
		{"Best score", s.BestScore},
		{"Quizzes", s.QuizCount},
		{"Writing", s.WritingCount},
		{"Speaking", s.SpeakingCount},
		{"Total points", s.TotalPoints},
		{"Level", s.Level},
		{"Current streak", s.CurrentStreak},
		{"Longest streak", s.LongestStreak},
		{"Total words", s.TotalWords},
		{"Speaking minutes", s.TotalSpeakingMinutes},
	}
	return writeRows(f, SheetSummary, rows)
}

func writeSkills(f *excelize.File, skills []progress.SkillScore) error {
	rows := [][]interface{}{{"Skill", "Score"}}
	for _, sk := range skills {
		rows = append(rows, []interface{}{sk.Name, sk.Score})
	}
	return writeRows(f, SheetSkills, rows)
}

func writeWeekly(f *excelize.File, days []progress.DayPoint) error {
	rows := [][]interface{}{{"Date", "Day", "Activities", "Average score"}}
	for _, d := range days {
		rows = append(rows, []interface{}{d.Date, d.Day, d.Activities, d.AverageScore})
	}
	return writeRows(f, SheetWeekly, rows)
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}) error {
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &rows[i]); err != nil {
			return fmt.Errorf("%s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}
