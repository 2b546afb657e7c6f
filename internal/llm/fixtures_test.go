package llm

import "encoding/json"

// Test schemas mirror the shapes the feedback service asks for. Names are
// distinct from the feedback package's so the compile cache never mixes them.

func score() map[string]any {
	return map[string]any{"type": "integer", "minimum": 0, "maximum": 100}
}

func essaySchema() *Schema {
	return &Schema{
		Name:        "test-essay-score",
		Description: "Scores for an English essay",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"overallScore": score(),
				"cefrLevel":    map[string]any{"type": "string", "enum": []any{"A1", "A2", "B1", "B2", "C1", "C2"}},
				"improvements": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required":             []any{"overallScore", "cefrLevel", "improvements"},
			"additionalProperties": false,
		},
	}
}

func speakingSchema() *Schema {
	return &Schema{
		Name: "test-speaking-score",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"fluencyScore": score(),
				"tips":         map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			},
			"required":             []any{"fluencyScore", "tips"},
			"additionalProperties": false,
		},
	}
}

func recommendationSchema() *Schema {
	return &Schema{
		Name: "test-recommendations",
		Definition: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"recommendations": map[string]any{
					"type": "array",
					"items": map[string]any{
						"type": "object",
						"properties": map[string]any{
							"title":        map[string]any{"type": "string"},
							"activityType": map[string]any{"type": "string", "enum": []any{"quiz", "writing", "speaking"}},
							"priority":     map[string]any{"type": "string", "enum": []any{"high", "medium", "low"}},
						},
						"required":             []any{"title", "activityType", "priority"},
						"additionalProperties": false,
					},
				},
			},
			"required":             []any{"recommendations"},
			"additionalProperties": false,
		},
	}
}

const (
	essayJSON          = `{"overallScore":68,"cefrLevel":"B1","improvements":["Use the past simple for finished events"]}`
	speakingJSON       = `{"fluencyScore":74,"tips":["Pause at commas, not mid-phrase"]}`
	recommendationJSON = `{"recommendations":[{"title":"Past tense drill","activityType":"quiz","priority":"high"}]}`
)

func essayRequest() Request {
	return NewRequest(PurposeWritingFeedback, "You are an English writing examiner.",
		"Essay:\nYesterday I go to the market and buyed apples.", essaySchema())
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }
