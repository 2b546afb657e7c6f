package progress

import (
	"time"

	"github.com/sertugser/assessai/internal/activity"
)

// Stats is the statistics bundle the dashboards read.
type Stats struct {
	TotalActivities      int `json:"totalActivities"`
	AverageScore         int `json:"averageScore"`
	QuizCount            int `json:"quizCount"`
	WritingCount         int `json:"writingCount"`
	SpeakingCount        int `json:"speakingCount"`
	TotalPoints          int `json:"totalPoints"`
	Level                int `json:"level"`
	CurrentStreak        int `json:"currentStreak"`
	LongestStreak        int `json:"longestStreak"`
	BestScore            int `json:"bestScore"`
	BestQuizScore        int `json:"bestQuizScore"`
	AverageQuizScore     int `json:"averageQuizScore"`
	AverageWritingScore  int `json:"averageWritingScore"`
	AverageSpeakingScore int `json:"averageSpeakingScore"`
	TotalWords           int `json:"totalWords"`
	TotalSpeakingMinutes int `json:"totalSpeakingMinutes"`
}

// ComputeStats builds the statistics bundle as of now.
func ComputeStats(activities []activity.UserActivity, now time.Time) Stats {
	quizzes := activity.OfType(activities, activity.Quiz)
	writing := activity.OfType(activities, activity.Writing)
	speaking := activity.OfType(activities, activity.Speaking)

	points := TotalPoints(activities)
	s := Stats{
		TotalActivities:      len(activities),
		AverageScore:         mean(activities),
		QuizCount:            len(quizzes),
		WritingCount:         len(writing),
		SpeakingCount:        len(speaking),
		TotalPoints:          points,
		Level:                Level(points),
		CurrentStreak:        activity.CurrentStreak(activities, now),
		LongestStreak:        activity.LongestStreak(activities, now),
		BestScore:            maxScore(activities),
		BestQuizScore:        maxScore(quizzes),
		AverageQuizScore:     mean(quizzes),
		AverageWritingScore:  mean(writing),
		AverageSpeakingScore: mean(speaking),
	}

	for _, w := range writing {
		s.TotalWords += w.WordCount
	}
	seconds := 0
	for _, sp := range speaking {
		seconds += sp.Duration
	}
	s.TotalSpeakingMinutes = roundInt(float64(seconds) / 60)
	return s
}

func maxScore(activities []activity.UserActivity) int {
	best := 0
	for _, a := range activities {
		if a.Score > best {
			best = a.Score
		}
	}
	return best
}

// Snapshot bundles every derived view of one user's progress.
type Snapshot struct {
	Stats        Stats          `json:"stats"`
	Skills       []SkillScore   `json:"skills"`
	Weaknesses   WeaknessReport `json:"weaknesses"`
	Weekly       []DayPoint     `json:"weekly"`
	Monthly      []MonthPoint   `json:"monthly"`
	Distribution []TypeShare    `json:"distribution"`
}

// Compute derives a Snapshot as of now.
func Compute(activities []activity.UserActivity, now time.Time) Snapshot {
	return Snapshot{
		Stats:        ComputeStats(activities, now),
		Skills:       SkillsBreakdown(activities),
		Weaknesses:   AnalyzeWeaknesses(activities),
		Weekly:       WeeklyProgress(activities, now),
		Monthly:      MonthlyProgress(activities, now),
		Distribution: ActivityDistribution(activities),
	}
}
