// Package activity persists completed exercises and the streak cache derived
// from them.
package activity

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Type is the kind of exercise an activity records.
type Type string

const (
	Quiz     Type = "quiz"
	Writing  Type = "writing"
	Speaking Type = "speaking"
)

// Types lists every activity type in display order.
var Types = []Type{Quiz, Writing, Speaking}

// Valid reports whether t is one of the known activity types.
func (t Type) Valid() bool {
	switch t {
	case Quiz, Writing, Speaking:
		return true
	}
	return false
}

// Category is an explicit skill tag set by the course catalog. When present
// it replaces keyword inference from the course labels.
type Category string

const (
	CategoryNone       Category = ""
	CategoryGrammar    Category = "grammar"
	CategoryVocabulary Category = "vocabulary"
	CategoryReading    Category = "reading"
	CategoryListening  Category = "listening"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryNone, CategoryGrammar, CategoryVocabulary, CategoryReading, CategoryListening:
		return true
	}
	return false
}

var (
	ErrInvalidType     = errors.New("invalid activity type")
	ErrInvalidScore    = errors.New("score must be between 0 and 100")
	ErrInvalidCategory = errors.New("invalid activity category")
)

// UserActivity is one completed exercise. Records are append-only.
type UserActivity struct {
	ID          string    `json:"id"`
	Type        Type      `json:"type"`
	Score       int       `json:"score"`
	Date        time.Time `json:"date"`
	CourseID    string    `json:"courseId,omitempty"`
	CourseTitle string    `json:"courseTitle,omitempty"`
	Category    Category  `json:"category,omitempty"`

	WordCount      int    `json:"wordCount,omitempty"`
	Duration       int    `json:"duration,omitempty"` // seconds
	CorrectAnswers int    `json:"correctAnswers,omitempty"`
	TotalQuestions int    `json:"totalQuestions,omitempty"`
	CEFRLevel      string `json:"cefrLevel,omitempty"`

	// Payloads kept so a past result can be reopened.
	EssayText       string          `json:"essayText,omitempty"`
	QuizQuestions   json.RawMessage `json:"quizQuestions,omitempty"`
	QuizUserAnswers json.RawMessage `json:"quizUserAnswers,omitempty"`
	Feedback        json.RawMessage `json:"feedback,omitempty"`
}

// ActivityInput is a completed exercise before it is saved.
type ActivityInput struct {
	Type        Type     `json:"type"`
	Score       int      `json:"score"`
	CourseID    string   `json:"courseId,omitempty"`
	CourseTitle string   `json:"courseTitle,omitempty"`
	Category    Category `json:"category,omitempty"`

	WordCount      int    `json:"wordCount,omitempty"`
	Duration       int    `json:"duration,omitempty"`
	CorrectAnswers int    `json:"correctAnswers,omitempty"`
	TotalQuestions int    `json:"totalQuestions,omitempty"`
	CEFRLevel      string `json:"cefrLevel,omitempty"`

	EssayText       string          `json:"essayText,omitempty"`
	QuizQuestions   json.RawMessage `json:"quizQuestions,omitempty"`
	QuizUserAnswers json.RawMessage `json:"quizUserAnswers,omitempty"`
	Feedback        json.RawMessage `json:"feedback,omitempty"`
}

// Validate checks the closed fields of the input.
func (in ActivityInput) Validate() error {
	if !in.Type.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidType, in.Type)
	}
	if in.Score < 0 || in.Score > 100 {
		return fmt.Errorf("%w: got %d", ErrInvalidScore, in.Score)
	}
	if !in.Category.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidCategory, in.Category)
	}
	return nil
}

// ParseType converts user input such as "Quiz" to a Type.
func ParseType(s string) (Type, error) {
	t := Type(strings.ToLower(strings.TrimSpace(s)))
	if !t.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidType, s)
	}
	return t, nil
}

// ParseCategory normalizes s the way ParseType does. An empty s is
// CategoryNone.
func ParseCategory(s string) (Category, error) {
	c := Category(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidCategory, s)
	}
	return c, nil
}

func (in ActivityInput) record(id string, at time.Time) UserActivity {
	return UserActivity{
		ID:              id,
		Type:            in.Type,
		Score:           in.Score,
		Date:            at,
		CourseID:        in.CourseID,
		CourseTitle:     in.CourseTitle,
		Category:        in.Category,
		WordCount:       in.WordCount,
		Duration:        in.Duration,
		CorrectAnswers:  in.CorrectAnswers,
		TotalQuestions:  in.TotalQuestions,
		CEFRLevel:       in.CEFRLevel,
		EssayText:       in.EssayText,
		QuizQuestions:   in.QuizQuestions,
		QuizUserAnswers: in.QuizUserAnswers,
		Feedback:        in.Feedback,
	}
}

// OfType returns the activities of type t, preserving order.
func OfType(activities []UserActivity, t Type) []UserActivity {
	var out []UserActivity
	for _, a := range activities {
		if a.Type == t {
			out = append(out, a)
		}
	}
	return out
}
