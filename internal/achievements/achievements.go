// Package achievements evaluates the fixed badge set against live stats.
package achievements

import (
	"math"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
)

// Achievement is a badge's computed state. It is never persisted.
type Achievement struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
	Unlocked    bool   `json:"unlocked"`
	Progress    int    `json:"progress"` // 0..100
	Current     int    `json:"current"`
	Requirement int    `json:"requirement"`
}

// Definition is a badge threshold and the stat it measures.
type Definition struct {
	ID          string
	Title       string
	Description string
	Icon        string
	Requirement int
	Measure     func(progress.Stats, []activity.UserActivity) int
}

// Definitions is the fixed badge set in display order.
var Definitions = []Definition{
	{
		ID: "first-steps", Title: "First Steps", Icon: "🎯",
		Description: "Complete your first activity",
		Requirement: 1,
		Measure:     func(s progress.Stats, _ []activity.UserActivity) int { return s.TotalActivities },
	},
	{
		ID: "week-warrior", Title: "Week Warrior", Icon: "🔥",
		Description: "Keep a 7-day learning streak",
		Requirement: 7,
		Measure:     func(s progress.Stats, _ []activity.UserActivity) int { return s.CurrentStreak },
	},
	{
		ID: "month-master", Title: "Month Master", Icon: "📅",
		Description: "Keep a 30-day learning streak",
		Requirement: 30,
		Measure:     func(s progress.Stats, _ []activity.UserActivity) int { return s.CurrentStreak },
	},
	{
		ID: "point-collector", Title: "Point Collector", Icon: "💎",
		Description: "Earn 1,000 points",
		Requirement: 1000,
		Measure:     func(s progress.Stats, _ []activity.UserActivity) int { return s.TotalPoints },
	},
	{
		ID: "quiz-enthusiast", Title: "Quiz Enthusiast", Icon: "🧠",
		Description: "Complete 10 quizzes",
		Requirement: 10,
		Measure:     func(s progress.Stats, _ []activity.UserActivity) int { return s.QuizCount },
	},
	{
		ID: "writing-pro", Title: "Writing Pro", Icon: "✍️",
		Description: "Complete 10 writing exercises",
		Requirement: 10,
		Measure:     func(s progress.Stats, _ []activity.UserActivity) int { return s.WritingCount },
	},
	{
		ID: "speaking-star", Title: "Speaking Star", Icon: "🎤",
		Description: "Complete 10 speaking exercises",
		Requirement: 10,
		Measure:     func(s progress.Stats, _ []activity.UserActivity) int { return s.SpeakingCount },
	},
	{
		ID: "perfectionist", Title: "Perfectionist", Icon: "⭐",
		Description: "Score 100% on any activity",
		Requirement: 100,
		Measure:     bestScore,
	},
	{
		ID: "quiz-champion", Title: "Quiz Champion", Icon: "🏆",
		Description: "Score 100% on a quiz",
		Requirement: 100,
		Measure:     bestQuizScore,
	},
}

func bestScore(s progress.Stats, acts []activity.UserActivity) int {
	best := s.BestScore
	for _, a := range acts {
		if a.Score > best {
			best = a.Score
		}
	}
	return best
}

func bestQuizScore(s progress.Stats, acts []activity.UserActivity) int {
	best := s.BestQuizScore
	for _, a := range activity.OfType(acts, activity.Quiz) {
		if a.Score > best {
			best = a.Score
		}
	}
	return best
}

// Evaluate computes every badge. Progress is capped at 100, and at 99 while
// the badge is locked; Current is not capped.
func Evaluate(stats progress.Stats, activities []activity.UserActivity) []Achievement {
	out := make([]Achievement, 0, len(Definitions))
	for _, d := range Definitions {
		out = append(out, evaluate(d, d.Measure(stats, activities)))
	}
	return out
}

func evaluate(d Definition, current int) Achievement {
	unlocked := current >= d.Requirement
	pct := 0
	if d.Requirement > 0 && current > 0 {
		pct = int(math.Floor(float64(current)*100/float64(d.Requirement) + 0.5))
	}
	switch {
	case unlocked:
		pct = 100
	case pct > 99:
		// A locked badge never reads as complete.
		pct = 99
	}
	return Achievement{
		ID:          d.ID,
		Title:       d.Title,
		Description: d.Description,
		Icon:        d.Icon,
		Unlocked:    unlocked,
		Progress:    pct,
		Current:     current,
		Requirement: d.Requirement,
	}
}

// Unlocked counts the unlocked badges.
func Unlocked(list []Achievement) int {
	n := 0
	for _, a := range list {
		if a.Unlocked {
			n++
		}
	}
	return n
}
