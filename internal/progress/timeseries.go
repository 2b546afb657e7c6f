package progress

import (
	"time"

	"github.com/sertugser/assessai/internal/activity"
)

// DayPoint is one day of the weekly chart.
type DayPoint struct {
	Day          string `json:"day"`  // Mon, Tue, ...
	Date         string `json:"date"` // YYYY-MM-DD
	Activities   int    `json:"activities"`
	AverageScore int    `json:"averageScore"`
}

// MonthPoint is one month of the monthly chart.
type MonthPoint struct {
	Month      string `json:"month"` // Jan, Feb, ...
	Year       int    `json:"year"`
	Activities int    `json:"activities"`
}

// TypeShare is one activity type's share of the history.
type TypeShare struct {
	Type       activity.Type `json:"type"`
	Count      int           `json:"count"`
	Percentage int           `json:"percentage"`
}

// WeeklyProgress returns exactly 7 days, oldest first, ending today in
// now's location.
func WeeklyProgress(activities []activity.UserActivity, now time.Time) []DayPoint {
	loc := now.Location()
	y, m, d := now.Date()

	byDay := map[string][]activity.UserActivity{}
	for _, a := range activities {
		key := a.Date.In(loc).Format(time.DateOnly)
		byDay[key] = append(byDay[key], a)
	}

	out := make([]DayPoint, 0, 7)
	for i := 6; i >= 0; i-- {
		day := time.Date(y, m, d-i, 0, 0, 0, 0, loc)
		key := day.Format(time.DateOnly)
		acts := byDay[key]
		out = append(out, DayPoint{
			Day:          day.Format("Mon"),
			Date:         key,
			Activities:   len(acts),
			AverageScore: mean(acts),
		})
	}
	return out
}

// MonthlyProgress returns exactly 6 calendar months, oldest first, ending
// with the current month.
func MonthlyProgress(activities []activity.UserActivity, now time.Time) []MonthPoint {
	loc := now.Location()
	y, m, _ := now.Date()

	type ym struct {
		year  int
		month time.Month
	}
	counts := map[ym]int{}
	for _, a := range activities {
		t := a.Date.In(loc)
		counts[ym{t.Year(), t.Month()}]++
	}

	out := make([]MonthPoint, 0, 6)
	for i := 5; i >= 0; i-- {
		first := time.Date(y, m-time.Month(i), 1, 0, 0, 0, 0, loc)
		out = append(out, MonthPoint{
			Month:      first.Format("Jan"),
			Year:       first.Year(),
			Activities: counts[ym{first.Year(), first.Month()}],
		})
	}
	return out
}

// ActivityDistribution returns the quiz, writing and speaking shares with
// integer-rounded percentages. The percentages are not renormalized, so
// they may sum to 99 or 101.
func ActivityDistribution(activities []activity.UserActivity) []TypeShare {
	out := make([]TypeShare, 0, len(activity.Types))
	for _, t := range activity.Types {
		n := len(activity.OfType(activities, t))
		pct := 0
		if len(activities) > 0 {
			pct = roundInt(float64(n) * 100 / float64(len(activities)))
		}
		out = append(out, TypeShare{Type: t, Count: n, Percentage: pct})
	}
	return out
}
