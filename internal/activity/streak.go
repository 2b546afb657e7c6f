package activity

import (
	"sort"
	"time"
)

// StreakData is the cached streak summary. It is always re-derivable from
// the activity list.
type StreakData struct {
	CurrentStreak    int    `json:"currentStreak"`
	LastActivityDate string `json:"lastActivityDate"` // YYYY-MM-DD, empty when no activity
	LongestStreak    int    `json:"longestStreak"`
}

// dayNumber maps t to a day count in loc, so consecutive calendar days
// differ by exactly one regardless of DST.
func dayNumber(t time.Time, loc *time.Location) int {
	y, m, d := t.In(loc).Date()
	return int(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// activeDays returns the distinct activity days, newest first. Days after
// maxDay are dropped.
func activeDays(activities []UserActivity, loc *time.Location, maxDay int) []int {
	seen := make(map[int]struct{}, len(activities))
	for _, a := range activities {
		n := dayNumber(a.Date, loc)
		if n > maxDay {
			continue
		}
		seen[n] = struct{}{}
	}
	days := make([]int, 0, len(seen))
	for n := range seen {
		days = append(days, n)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(days)))
	return days
}

// CurrentStreak counts the consecutive calendar days with activity ending on
// the most recent active day. The streak is 0 when that day is neither today
// nor yesterday. Days are taken in now's location; activities dated after
// today are ignored.
func CurrentStreak(activities []UserActivity, now time.Time) int {
	loc := now.Location()
	today := dayNumber(now, loc)
	days := activeDays(activities, loc, today)
	if len(days) == 0 || today-days[0] > 1 {
		return 0
	}

	streak := 1
	for i := 1; i < len(days); i++ {
		if days[i] != days[i-1]-1 {
			break
		}
		streak++
	}
	return streak
}

// LongestStreak returns the longest run of consecutive active days anywhere
// in the history up to today, with days taken in now's location.
func LongestStreak(activities []UserActivity, now time.Time) int {
	days := activeDays(activities, now.Location(), dayNumber(now, now.Location()))
	if len(days) == 0 {
		return 0
	}

	longest, run := 1, 1
	for i := 1; i < len(days); i++ {
		if days[i] == days[i-1]-1 {
			run++
		} else {
			run = 1
		}
		if run > longest {
			longest = run
		}
	}
	return longest
}

// ComputeStreakData derives the full streak summary as of now. Activities
// dated after today count toward none of the fields.
func ComputeStreakData(activities []UserActivity, now time.Time) StreakData {
	loc := now.Location()
	today := dayNumber(now, loc)
	data := StreakData{
		CurrentStreak: CurrentStreak(activities, now),
		LongestStreak: LongestStreak(activities, now),
	}

	var latest time.Time
	for _, a := range activities {
		if dayNumber(a.Date, loc) <= today && a.Date.After(latest) {
			latest = a.Date
		}
	}
	if !latest.IsZero() {
		data.LastActivityDate = latest.In(loc).Format(time.DateOnly)
	}
	return data
}
