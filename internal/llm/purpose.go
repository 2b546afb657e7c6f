package llm

import "context"

// Purpose labels recorded with every request event.
const (
	PurposeWritingFeedback  = "writing-feedback"
	PurposeSpeakingFeedback = "speaking-feedback"
	PurposeRecommendations  = "recommendations"
	PurposeDifficulty       = "difficulty-analysis"
	PurposeMistakes         = "mistake-analysis"
)

// Profile holds the generation limits for one purpose.
type Profile struct {
	MaxTokens   int
	Temperature float64
}

var profiles = map[string]Profile{
	PurposeWritingFeedback:  {MaxTokens: 1200, Temperature: 0.1},
	PurposeSpeakingFeedback: {MaxTokens: 800, Temperature: 0.1},
	PurposeRecommendations:  {MaxTokens: 900, Temperature: 0.5},
	PurposeDifficulty:       {MaxTokens: 500, Temperature: 0},
	PurposeMistakes:         {MaxTokens: 1200, Temperature: 0.2},
}

var defaultProfile = Profile{MaxTokens: 1024, Temperature: 0.2}

// ProfileFor returns the limits for purpose, or the default profile.
func ProfileFor(purpose string) Profile {
	if p, ok := profiles[purpose]; ok {
		return p
	}
	return defaultProfile
}

// NewRequest builds a single user-turn request shaped by the purpose profile.
func NewRequest(purpose, system, user string, schema *Schema) Request {
	p := ProfileFor(purpose)
	return Request{
		System:      system,
		Messages:    []Message{{Role: RoleUser, Content: user}},
		Schema:      schema,
		MaxTokens:   p.MaxTokens,
		Temperature: p.Temperature,
	}
}

type contextKey struct{}

// WithPurpose tags ctx with a purpose label.
func WithPurpose(ctx context.Context, purpose string) context.Context {
	return context.WithValue(ctx, contextKey{}, purpose)
}

// PurposeFrom returns the purpose label of ctx, or "unknown".
func PurposeFrom(ctx context.Context) string {
	if v, ok := ctx.Value(contextKey{}).(string); ok && v != "" {
		return v
	}
	return "unknown"
}
