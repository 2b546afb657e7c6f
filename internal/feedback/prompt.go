package feedback

import (
	"fmt"
	"strings"
	"time"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/progress"
)

const writingSystemPrompt = `You are an experienced English examiner scoring learner essays against the CEFR scale.

Rules:
- Score each dimension from 0 to 100. Be consistent: a typical B1 essay scores around 60-70 overall.
- Judge only the text given. Do not invent content the learner did not write.
- Strengths and improvements are short, concrete sentences addressed to the learner.
- Corrections quote the learner's original wording exactly, followed by a corrected version and a one-line reason.
- Return at most 5 corrections, most important first.`

const speakingSystemPrompt = `You are an English speaking coach. You receive an automatic transcript of a learner's spoken answer.

Rules:
- Score each dimension from 0 to 100.
- Transcription errors often signal pronunciation problems; weigh them in the pronunciation score.
- Filler words, restarts and very short answers lower the fluency score.
- Give at most 4 short, practical tips.`

const recommendationsSystemPrompt = `You are a study planner for an English-learning app with three activity types: quiz, writing and speaking.

Rules:
- Recommend 3 to 5 next steps, most urgent first.
- Base every recommendation on the learner summary. Prefer the weakest areas.
- Titles are under 8 words. Descriptions are one or two sentences.`

const difficultySystemPrompt = `You place English learners on the CEFR scale (A1-C2) from their recent results.

Rules:
- currentLevel is where the learner performs now. recommendedLevel is where they should practice next.
- Move at most one level from currentLevel.
- List 2 to 4 focus areas.`

const mistakesSystemPrompt = `You analyze an English learner's recent essays for recurring mistakes.

Rules:
- Report patterns that appear more than once, most frequent first, at most 6.
- Quote a real example from the essays for each pattern.
- The fix is one sentence the learner can apply.`

// maxEssayChars bounds each essay excerpt sent for mistake analysis.
const maxEssayChars = 1200

// maxEssays bounds how many recent essays are sent.
const maxEssays = 5

func buildWritingMessage(in WritingInput) string {
	var b strings.Builder
	if in.Prompt != "" {
		fmt.Fprintf(&b, "Task: %s\n", in.Prompt)
	}
	if in.TargetLevel != "" {
		fmt.Fprintf(&b, "Target level: %s\n", in.TargetLevel)
	}
	fmt.Fprintf(&b, "Word count: %d\n\nEssay:\n%s", wordCount(in.Text), strings.TrimSpace(in.Text))
	return b.String()
}

func buildSpeakingMessage(in SpeakingInput) string {
	var b strings.Builder
	if in.Prompt != "" {
		fmt.Fprintf(&b, "Question: %s\n", in.Prompt)
	}
	if in.DurationSeconds > 0 {
		fmt.Fprintf(&b, "Duration: %ds\n", in.DurationSeconds)
	}
	fmt.Fprintf(&b, "\nTranscript:\n%s", strings.TrimSpace(in.Transcript))
	return b.String()
}

// buildLearnerSummary renders the aggregates the planning prompts share.
func buildLearnerSummary(activities []activity.UserActivity, now time.Time) string {
	stats := progress.ComputeStats(activities, now)
	weak := progress.AnalyzeWeaknesses(activities)

	var b strings.Builder
	fmt.Fprintf(&b, "Activities: %d (quiz %d, writing %d, speaking %d)\n",
		stats.TotalActivities, stats.QuizCount, stats.WritingCount, stats.SpeakingCount)
	fmt.Fprintf(&b, "Average score: %d%%\n", stats.AverageScore)
	fmt.Fprintf(&b, "Averages by type: quiz %d%%, writing %d%%, speaking %d%%\n",
		stats.AverageQuizScore, stats.AverageWritingScore, stats.AverageSpeakingScore)
	fmt.Fprintf(&b, "Level %d, current streak %d days\n", stats.Level, stats.CurrentStreak)

	b.WriteString("\nSkills:\n")
	for _, s := range progress.SkillsBreakdown(activities) {
		fmt.Fprintf(&b, "- %s: %d%%\n", s.Name, s.Score)
	}

	b.WriteString("\nWeak quiz topics:\n")
	if len(weak.WeakQuizTopics) == 0 {
		b.WriteString("None\n")
	}
	for _, t := range weak.WeakQuizTopics {
		fmt.Fprintf(&b, "- %s: %d%% over %d attempts\n", t.Topic, t.AverageScore, t.Attempts)
	}

	if levels := recentLevels(activities, 5); len(levels) > 0 {
		fmt.Fprintf(&b, "\nRecent CEFR levels: %s\n", strings.Join(levels, ", "))
	}
	return b.String()
}

func buildMistakesMessage(activities []activity.UserActivity) string {
	essays := recentEssays(activities, maxEssays)
	var b strings.Builder
	for i, e := range essays {
		fmt.Fprintf(&b, "Essay %d:\n%s\n\n", i+1, truncate(e, maxEssayChars))
	}
	return b.String()
}

// recentEssays returns up to n essay texts, newest first.
func recentEssays(activities []activity.UserActivity, n int) []string {
	var out []string
	for i := len(activities) - 1; i >= 0 && len(out) < n; i-- {
		a := activities[i]
		if a.Type == activity.Writing && strings.TrimSpace(a.EssayText) != "" {
			out = append(out, strings.TrimSpace(a.EssayText))
		}
	}
	return out
}

func recentLevels(activities []activity.UserActivity, n int) []string {
	var out []string
	for i := len(activities) - 1; i >= 0 && len(out) < n; i-- {
		if lvl := activities[i].CEFRLevel; lvl != "" {
			out = append(out, lvl)
		}
	}
	return out
}

func wordCount(s string) int {
	return len(strings.Fields(s))
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n]) + "..."
}
