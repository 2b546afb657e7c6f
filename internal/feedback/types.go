// Package feedback turns learner work into AI-scored feedback and
// recommendations. Provider failures degrade to canned results.
package feedback

import "errors"

// ErrEmptyInput is returned when there is no text to analyze.
var ErrEmptyInput = errors.New("feedback: empty input")

// Correction is one suggested rewrite.
type Correction struct {
	Original    string `json:"original"`
	Suggestion  string `json:"suggestion"`
	Explanation string `json:"explanation"`
}

// WritingInput is an essay submitted for scoring.
type WritingInput struct {
	Text        string `json:"text"`
	Prompt      string `json:"prompt,omitempty"`
	TargetLevel string `json:"targetLevel,omitempty"`
}

// WritingFeedback is the scored result for an essay.
type WritingFeedback struct {
	OverallScore    int          `json:"overallScore"`
	CEFRLevel       string       `json:"cefrLevel"`
	GrammarScore    int          `json:"grammarScore"`
	VocabularyScore int          `json:"vocabularyScore"`
	CoherenceScore  int          `json:"coherenceScore"`
	Strengths       []string     `json:"strengths"`
	Improvements    []string     `json:"improvements"`
	Corrections     []Correction `json:"corrections"`
	WordCount       int          `json:"wordCount"`
	Fallback        bool         `json:"fallback"`
}

// SpeakingInput is a transcript of a spoken answer.
type SpeakingInput struct {
	Transcript      string `json:"transcript"`
	Prompt          string `json:"prompt,omitempty"`
	DurationSeconds int    `json:"durationSeconds,omitempty"`
}

// SpeakingFeedback is the scored result for a spoken answer.
type SpeakingFeedback struct {
	OverallScore       int      `json:"overallScore"`
	FluencyScore       int      `json:"fluencyScore"`
	PronunciationScore int      `json:"pronunciationScore"`
	GrammarScore       int      `json:"grammarScore"`
	VocabularyScore    int      `json:"vocabularyScore"`
	Tips               []string `json:"tips"`
	Fallback           bool     `json:"fallback"`
}

// Recommendation is one suggested next step.
type Recommendation struct {
	Title        string `json:"title"`
	Description  string `json:"description"`
	ActivityType string `json:"activityType"`
	Priority     string `json:"priority"`
	Fallback     bool   `json:"fallback,omitempty"`
}

// DifficultyReport suggests the level a learner should practice at.
type DifficultyReport struct {
	CurrentLevel     string   `json:"currentLevel"`
	RecommendedLevel string   `json:"recommendedLevel"`
	Rationale        string   `json:"rationale"`
	FocusAreas       []string `json:"focusAreas"`
	Fallback         bool     `json:"fallback"`
}

// MistakePattern is a recurring error across a learner's work.
type MistakePattern struct {
	Pattern   string `json:"pattern"`
	Category  string `json:"category"`
	Frequency string `json:"frequency"`
	Example   string `json:"example"`
	Fix       string `json:"fix"`
}

// MistakeReport groups recurring mistakes.
type MistakeReport struct {
	Summary  string           `json:"summary"`
	Patterns []MistakePattern `json:"patterns"`
	Fallback bool             `json:"fallback"`
}
