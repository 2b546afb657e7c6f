package feedback

import "github.com/sertugser/assessai/internal/llm"

func scoreProp(desc string) map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100, "description": desc}
}

func stringList(desc string) map[string]any {
	return map[string]any{"type": "array", "items": map[string]any{"type": "string"}, "description": desc}
}

var cefrEnum = []any{"A1", "A2", "B1", "B2", "C1", "C2"}

// WritingSchema is the structured output for essay scoring.
var WritingSchema = &llm.Schema{
	Name:        "writing-feedback",
	Description: "Scores and feedback for an English essay",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overallScore":    scoreProp("Overall score from 0 to 100"),
			"cefrLevel":       map[string]any{"type": "string", "enum": cefrEnum, "description": "Estimated CEFR level of the essay"},
			"grammarScore":    scoreProp("Grammatical accuracy"),
			"vocabularyScore": scoreProp("Range and precision of vocabulary"),
			"coherenceScore":  scoreProp("Organisation and cohesion"),
			"strengths":       stringList("What the learner did well"),
			"improvements":    stringList("Concrete things to improve"),
			"corrections": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"original":    map[string]any{"type": "string"},
						"suggestion":  map[string]any{"type": "string"},
						"explanation": map[string]any{"type": "string"},
					},
					"required":             []any{"original", "suggestion", "explanation"},
					"additionalProperties": false,
				},
				"description": "Up to 5 corrected sentences or phrases",
			},
		},
		"required":             []any{"overallScore", "cefrLevel", "grammarScore", "vocabularyScore", "coherenceScore", "strengths", "improvements", "corrections"},
		"additionalProperties": false,
	},
}

// SpeakingSchema is the structured output for spoken answer scoring.
var SpeakingSchema = &llm.Schema{
	Name:        "speaking-feedback",
	Description: "Scores and tips for a transcribed spoken English answer",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"overallScore":       scoreProp("Overall score from 0 to 100"),
			"fluencyScore":       scoreProp("Flow and pace, judged from the transcript"),
			"pronunciationScore": scoreProp("Likely intelligibility, judged from transcription errors"),
			"grammarScore":       scoreProp("Grammatical accuracy"),
			"vocabularyScore":    scoreProp("Range and precision of vocabulary"),
			"tips":               stringList("Short practice tips"),
		},
		"required":             []any{"overallScore", "fluencyScore", "pronunciationScore", "grammarScore", "vocabularyScore", "tips"},
		"additionalProperties": false,
	},
}

// RecommendationsSchema is the structured output for study recommendations.
var RecommendationsSchema = &llm.Schema{
	Name:        "study-recommendations",
	Description: "Personalised next steps for an English learner",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"recommendations": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":        map[string]any{"type": "string"},
						"description":  map[string]any{"type": "string"},
						"activityType": map[string]any{"type": "string", "enum": []any{"quiz", "writing", "speaking"}},
						"priority":     map[string]any{"type": "string", "enum": []any{"high", "medium", "low"}},
					},
					"required":             []any{"title", "description", "activityType", "priority"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"recommendations"},
		"additionalProperties": false,
	},
}

// DifficultySchema is the structured output for level placement.
var DifficultySchema = &llm.Schema{
	Name:        "difficulty-analysis",
	Description: "Which CEFR level the learner should practice at next",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"currentLevel":     map[string]any{"type": "string", "enum": cefrEnum},
			"recommendedLevel": map[string]any{"type": "string", "enum": cefrEnum},
			"rationale":        map[string]any{"type": "string"},
			"focusAreas":       stringList("Skills to focus on at the recommended level"),
		},
		"required":             []any{"currentLevel", "recommendedLevel", "rationale", "focusAreas"},
		"additionalProperties": false,
	},
}

// MistakesSchema is the structured output for recurring mistake analysis.
var MistakesSchema = &llm.Schema{
	Name:        "mistake-analysis",
	Description: "Recurring mistakes across a learner's recent work",
	Definition: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"summary": map[string]any{"type": "string"},
			"patterns": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"pattern":   map[string]any{"type": "string"},
						"category":  map[string]any{"type": "string", "enum": []any{"grammar", "vocabulary", "spelling", "punctuation", "style"}},
						"frequency": map[string]any{"type": "string", "enum": []any{"frequent", "occasional", "rare"}},
						"example":   map[string]any{"type": "string"},
						"fix":       map[string]any{"type": "string"},
					},
					"required":             []any{"pattern", "category", "frequency", "example", "fix"},
					"additionalProperties": false,
				},
			},
		},
		"required":             []any{"summary", "patterns"},
		"additionalProperties": false,
	},
}
