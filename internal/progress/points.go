// Package progress derives statistics, skill scores, weaknesses and chart
// series from a user's activity list. Every function is pure and total.
package progress

import (
	"math"

	"github.com/sertugser/assessai/internal/activity"
)

// Point weights per activity type.
const (
	QuizWeight     = 10
	WritingWeight  = 15
	SpeakingWeight = 12
)

// PointsPerLevelUnit scales the level curve: level n starts at
// PointsPerLevelUnit * (n-1)^2 points.
const PointsPerLevelUnit = 50

func weight(t activity.Type) int {
	switch t {
	case activity.Quiz:
		return QuizWeight
	case activity.Writing:
		return WritingWeight
	case activity.Speaking:
		return SpeakingWeight
	}
	return 0
}

// TotalPoints returns the weighted score sum over all activities.
func TotalPoints(activities []activity.UserActivity) int {
	total := 0
	for _, a := range activities {
		total += a.Score * weight(a.Type)
	}
	return total
}

// Level maps a point total to a level, starting at 1.
func Level(points int) int {
	if points <= 0 {
		return 1
	}
	lvl := int(math.Floor(math.Sqrt(float64(points)/PointsPerLevelUnit) + 1))
	if lvl < 1 {
		return 1
	}
	return lvl
}

// PointsForNextLevel returns the point total at which level+1 begins.
func PointsForNextLevel(level int) int {
	if level < 1 {
		level = 1
	}
	return PointsPerLevelUnit * level * level
}

// LevelProgress returns how far points are through the current level, 0..100.
func LevelProgress(points int) int {
	lvl := Level(points)
	start := PointsPerLevelUnit * (lvl - 1) * (lvl - 1)
	end := PointsForNextLevel(lvl)
	if points <= start {
		return 0
	}
	return roundInt(float64(points-start) * 100 / float64(end-start))
}

// roundInt rounds halves up.
func roundInt(x float64) int {
	return int(math.Floor(x + 0.5))
}

func mean(activities []activity.UserActivity) int {
	if len(activities) == 0 {
		return 0
	}
	sum := 0
	for _, a := range activities {
		sum += a.Score
	}
	return roundInt(float64(sum) / float64(len(activities)))
}
