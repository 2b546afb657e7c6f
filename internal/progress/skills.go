package progress

import (
	"strings"

	"github.com/sertugser/assessai/internal/activity"
)

// Skill names in display order.
const (
	SkillGrammar    = "Grammar"
	SkillVocabulary = "Vocabulary"
	SkillReading    = "Reading"
	SkillListening  = "Listening"
	SkillSpeaking   = "Speaking"
	SkillWriting    = "Writing"
)

// Skills is the fixed category order of SkillsBreakdown.
var Skills = []string{SkillGrammar, SkillVocabulary, SkillReading, SkillListening, SkillSpeaking, SkillWriting}

// SkillScore is one category's rounded mean score.
type SkillScore struct {
	Name  string `json:"name"`
	Score int    `json:"score"`
}

var quizSkills = []struct {
	name     string
	category activity.Category
}{
	{SkillGrammar, activity.CategoryGrammar},
	{SkillVocabulary, activity.CategoryVocabulary},
	{SkillReading, activity.CategoryReading},
	{SkillListening, activity.CategoryListening},
}

// matchesCategory reports whether a quiz counts toward cat. An explicit
// category wins; otherwise the course id or title must contain the keyword.
// Keyword matching may place one quiz in several buckets.
func matchesCategory(a activity.UserActivity, cat activity.Category) bool {
	if a.Category != activity.CategoryNone {
		return a.Category == cat
	}
	kw := string(cat)
	return strings.Contains(strings.ToLower(a.CourseID), kw) ||
		strings.Contains(strings.ToLower(a.CourseTitle), kw)
}

// SkillsBreakdown returns the six skill categories in fixed order. Quiz
// skills average only matching quizzes and are 0 without one.
func SkillsBreakdown(activities []activity.UserActivity) []SkillScore {
	quizzes := activity.OfType(activities, activity.Quiz)

	out := make([]SkillScore, 0, len(Skills))
	for _, qs := range quizSkills {
		var matched []activity.UserActivity
		for _, q := range quizzes {
			if matchesCategory(q, qs.category) {
				matched = append(matched, q)
			}
		}
		out = append(out, SkillScore{Name: qs.name, Score: mean(matched)})
	}

	out = append(out,
		SkillScore{Name: SkillSpeaking, Score: mean(activity.OfType(activities, activity.Speaking))},
		SkillScore{Name: SkillWriting, Score: mean(activity.OfType(activities, activity.Writing))},
	)
	return out
}
