// Package llm talks to hosted language models on behalf of the feedback
// service. Every call asks for structured JSON and the package guarantees the
// content it returns has been validated against the requested schema.
package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Provider generates one structured completion.
type Provider interface {
	Generate(ctx context.Context, req Request) (*Response, error)
	ModelID() string
}

// Request is a single-turn prompt. Build it with NewRequest so the purpose
// profile fills the generation limits.
type Request struct {
	System   string
	Messages []Message

	// Schema, when set, switches the vendor to its structured output mode
	// and the content is validated before it is returned.
	Schema *Schema

	MaxTokens   int
	Temperature float64
}

// Message is one conversation turn.
type Message struct {
	Role    Role
	Content string
}

// Role is the message sender.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// StopReason says why the model stopped generating.
type StopReason string

const (
	StopEnd       StopReason = "end"
	StopMaxTokens StopReason = "max_tokens"
	StopRefused   StopReason = "refused"
)

// Response is a finished completion.
type Response struct {
	// Content is schema-valid JSON when the request had a Schema. Otherwise
	// it is the text itself if that parses as JSON, or the text as a JSON
	// string.
	Content    json.RawMessage
	Usage      Usage
	Model      string
	StopReason StopReason
}

// Decode unmarshals Content into dst.
func (r *Response) Decode(dst any) error {
	if err := json.Unmarshal(r.Content, dst); err != nil {
		return fmt.Errorf("decode %s response: %w", r.Model, err)
	}
	return nil
}

// Usage is the token count of one request.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

func usage(in, out int) Usage {
	return Usage{InputTokens: in, OutputTokens: out, TotalTokens: in + out}
}
