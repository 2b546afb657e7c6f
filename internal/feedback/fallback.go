package feedback

import (
	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
)

const fallbackScore = 70

func fallbackWriting(in WritingInput) WritingFeedback {
	return WritingFeedback{
		OverallScore:    fallbackScore,
		CEFRLevel:       "B1",
		GrammarScore:    fallbackScore,
		VocabularyScore: fallbackScore,
		CoherenceScore:  fallbackScore,
		Strengths:       []string{"You completed the writing task."},
		Improvements: []string{
			"Detailed AI feedback is unavailable right now. Re-read your essay and check verb tenses and articles.",
			"Try linking your paragraphs with connectors such as however, therefore and in addition.",
		},
		Corrections: []Correction{},
		WordCount:   wordCount(in.Text),
		Fallback:    true,
	}
}

func fallbackSpeaking() SpeakingFeedback {
	return SpeakingFeedback{
		OverallScore:       fallbackScore,
		FluencyScore:       fallbackScore,
		PronunciationScore: fallbackScore,
		GrammarScore:       fallbackScore,
		VocabularyScore:    fallbackScore,
		Tips: []string{
			"Detailed AI feedback is unavailable right now. Record yourself again and listen for pauses.",
			"Speak in full sentences and keep a steady pace.",
		},
		Fallback: true,
	}
}

// fallbackRecommendations reuses the rule-based suggestions.
func fallbackRecommendations(activities []activity.UserActivity) []Recommendation {
	report := progress.AnalyzeWeaknesses(activities)
	out := make([]Recommendation, 0, len(report.Suggestions))
	for i, s := range report.Suggestions {
		t := report.Targets[i]
		out = append(out, Recommendation{
			Title:        titleFor(t),
			Description:  s,
			ActivityType: string(t),
			Priority:     priorityFor(i),
			Fallback:     true,
		})
	}
	if len(out) == 0 {
		out = append(out, Recommendation{
			Title:        "Keep practicing",
			Description:  "Complete a quiz, a writing task and a speaking task this week to keep your skills balanced.",
			ActivityType: string(activity.Quiz),
			Priority:     "medium",
			Fallback:     true,
		})
	}
	return out
}

func titleFor(t activity.Type) string {
	switch t {
	case activity.Writing:
		return "Practice writing"
	case activity.Speaking:
		return "Practice speaking"
	}
	return "Take a targeted quiz"
}

func priorityFor(i int) string {
	switch {
	case i == 0:
		return "high"
	case i < 3:
		return "medium"
	}
	return "low"
}

// fallbackDifficulty derives a level from the average score.
func fallbackDifficulty(activities []activity.UserActivity) DifficultyReport {
	avg := 0
	if len(activities) > 0 {
		sum := 0
		for _, a := range activities {
			sum += a.Score
		}
		avg = sum / len(activities)
	}
	level := levelForScore(avg)
	recommended := level
	if avg >= 80 {
		recommended = nextLevel(level)
	}

	focus := []string{}
	for _, s := range progress.AnalyzeWeaknesses(activities).WeakAreas {
		focus = append(focus, s.Name)
	}
	return DifficultyReport{
		CurrentLevel:     level,
		RecommendedLevel: recommended,
		Rationale:        "Estimated from your average score while detailed analysis is unavailable.",
		FocusAreas:       focus,
		Fallback:         true,
	}
}

func fallbackMistakes() MistakeReport {
	return MistakeReport{
		Summary:  "Mistake analysis is unavailable right now. Review the corrections on your recent essays.",
		Patterns: []MistakePattern{},
		Fallback: true,
	}
}

var cefrLevels = []string{"A1", "A2", "B1", "B2", "C1", "C2"}

func levelForScore(score int) string {
	switch {
	case score >= 90:
		return "C1"
	case score >= 75:
		return "B2"
	case score >= 60:
		return "B1"
	case score >= 40:
		return "A2"
	}
	return "A1"
}

func nextLevel(level string) string {
	for i, l := range cefrLevels {
		if l == level && i+1 < len(cefrLevels) {
			return cefrLevels[i+1]
		}
	}
	return level
}
