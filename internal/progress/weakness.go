package progress

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sertugser/assessai/internal/activity"
)

// WeakThreshold is the score below which a skill or topic needs work.
const WeakThreshold = 70

// MaxWeakTopics caps the weak quiz topics reported.
const MaxWeakTopics = 5

// GeneralTopic groups quizzes without a course label.
const GeneralTopic = "General"

// QuizTopic is one course's quiz average.
type QuizTopic struct {
	Topic        string `json:"topic"`
	AverageScore int    `json:"averageScore"`
	Attempts     int    `json:"attempts"`
}

// WeaknessReport lists weak skills and topics with ordered suggestions.
type WeaknessReport struct {
	WeakAreas      []SkillScore `json:"weakAreas"`
	WeakQuizTopics []QuizTopic  `json:"weakQuizTopics"`
	Suggestions    []string     `json:"suggestions"`

	// Targets[i] is the activity type Suggestions[i] points the learner at.
	Targets []activity.Type `json:"-"`
}

// AnalyzeWeaknesses thresholds skill and topic averages and builds
// suggestions in a fixed priority order: weakest skill, weakest topic,
// writing, speaking, then a quiz nudge.
func AnalyzeWeaknesses(activities []activity.UserActivity) WeaknessReport {
	report := WeaknessReport{
		WeakAreas:      weakAreas(SkillsBreakdown(activities)),
		WeakQuizTopics: weakQuizTopics(activity.OfType(activities, activity.Quiz)),
		Suggestions:    []string{},
	}
	suggest := func(t activity.Type, text string) {
		report.Suggestions = append(report.Suggestions, text)
		report.Targets = append(report.Targets, t)
	}

	if len(report.WeakAreas) > 0 {
		s := report.WeakAreas[0]
		suggest(skillTarget(s.Name), fmt.Sprintf(
			"Focus on %s: your average is %d%%. Practice more %s exercises to strengthen this skill.",
			s.Name, s.Score, strings.ToLower(s.Name)))
	}

	if len(report.WeakQuizTopics) > 0 {
		t := report.WeakQuizTopics[0]
		suggest(activity.Quiz, fmt.Sprintf(
			"Review %q: you averaged %d%% on these quizzes. Retake them after revisiting the lesson.",
			t.Topic, t.AverageScore))
	}

	writing := activity.OfType(activities, activity.Writing)
	switch avg := mean(writing); {
	case len(writing) == 0:
		suggest(activity.Writing,
			"You haven't tried a writing exercise yet. Write a short essay to get feedback on grammar and vocabulary.")
	case avg < WeakThreshold:
		suggest(activity.Writing, fmt.Sprintf(
			"Your writing average is %d%%. Outline your ideas before writing and check sentence structure.", avg))
	}

	speaking := activity.OfType(activities, activity.Speaking)
	switch avg := mean(speaking); {
	case len(speaking) == 0:
		suggest(activity.Speaking,
			"You haven't tried a speaking exercise yet. Record a short answer to get fluency and pronunciation feedback.")
	case avg < WeakThreshold:
		suggest(activity.Speaking, fmt.Sprintf(
			"Your speaking average is %d%%. Practice speaking for a few minutes every day.", avg))
	}

	if len(activity.OfType(activities, activity.Quiz)) == 0 {
		suggest(activity.Quiz,
			"Take a quiz to test your knowledge and discover which topics need attention.")
	}

	return report
}

func skillTarget(name string) activity.Type {
	switch name {
	case SkillWriting:
		return activity.Writing
	case SkillSpeaking:
		return activity.Speaking
	}
	return activity.Quiz
}

func weakAreas(skills []SkillScore) []SkillScore {
	out := []SkillScore{}
	for _, s := range skills {
		if s.Score > 0 && s.Score < WeakThreshold {
			out = append(out, s)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Score < out[j].Score })
	return out
}

func topicOf(a activity.UserActivity) string {
	if t := strings.TrimSpace(a.CourseTitle); t != "" {
		return t
	}
	if id := strings.TrimSpace(a.CourseID); id != "" {
		return id
	}
	return GeneralTopic
}

func weakQuizTopics(quizzes []activity.UserActivity) []QuizTopic {
	var order []string
	groups := map[string][]activity.UserActivity{}
	for _, q := range quizzes {
		topic := topicOf(q)
		if _, ok := groups[topic]; !ok {
			order = append(order, topic)
		}
		groups[topic] = append(groups[topic], q)
	}

	out := []QuizTopic{}
	for _, topic := range order {
		avg := mean(groups[topic])
		if avg < WeakThreshold {
			out = append(out, QuizTopic{Topic: topic, AverageScore: avg, Attempts: len(groups[topic])})
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].AverageScore < out[j].AverageScore })
	if len(out) > MaxWeakTopics {
		out = out[:MaxWeakTopics]
	}
	return out
}
