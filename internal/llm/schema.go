package llm

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Schema is the JSON Schema one purpose must answer with.
type Schema struct {
	// Name is kebab-case, e.g. "writing-feedback". It doubles as the
	// OpenAI schema name and the compile cache key.
	Name        string
	Description string
	Definition  map[string]any
}

var compiled sync.Map // schema name -> *jsonschema.Schema

// Validate checks raw against the schema.
func (s *Schema) Validate(raw json.RawMessage) error {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("not JSON: %w", err)}
	}
	sch, err := s.compile()
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := sch.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: %w", s.Name, err)}
	}
	return nil
}

func (s *Schema) compile() (*jsonschema.Schema, error) {
	if v, ok := compiled.Load(s.Name); ok {
		return v.(*jsonschema.Schema), nil
	}

	// The compiler wants plain decoded JSON, not Go literals like []string.
	raw, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %s: %w", s.Name, err)
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("parse schema %s: %w", s.Name, err)
	}

	url := "mem://schemas/" + s.Name + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %s: %w", s.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %s: %w", s.Name, err)
	}
	v, _ := compiled.LoadOrStore(s.Name, sch)
	return v.(*jsonschema.Schema), nil
}

// strict reports whether every object in the definition closes
// additionalProperties and requires all of its properties, which is what
// OpenAI's strict structured output accepts.
func (s *Schema) strict() bool {
	return strictObject(s.Definition)
}

func strictObject(def map[string]any) bool {
	if items, ok := def["items"].(map[string]any); ok && !strictObject(items) {
		return false
	}
	props, ok := def["properties"].(map[string]any)
	if !ok {
		return true
	}
	if ap, ok := def["additionalProperties"].(bool); !ok || ap {
		return false
	}
	required := map[string]bool{}
	for _, r := range asStrings(def["required"]) {
		required[r] = true
	}
	for name, p := range props {
		if !required[name] {
			return false
		}
		if sub, ok := p.(map[string]any); ok && !strictObject(sub) {
			return false
		}
	}
	return true
}

// asStrings accepts both []any (decoded JSON) and []string (Go literals).
func asStrings(v any) []string {
	switch vv := v.(type) {
	case []string:
		return vv
	case []any:
		out := make([]string, 0, len(vv))
		for _, x := range vv {
			if s, ok := x.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}

// extractJSON trims what models wrap around a JSON object: markdown code
// fences and leading or trailing prose.
func extractJSON(text string) json.RawMessage {
	b := bytes.TrimSpace([]byte(text))
	if bytes.HasPrefix(b, []byte("```")) {
		b = b[3:]
		if nl := bytes.IndexByte(b, '\n'); nl >= 0 {
			b = b[nl+1:]
		}
		b = bytes.TrimSuffix(bytes.TrimSpace(b), []byte("```"))
		b = bytes.TrimSpace(b)
	}
	if len(b) > 0 && b[0] != '{' && b[0] != '[' {
		start := bytes.IndexByte(b, '{')
		end := bytes.LastIndexByte(b, '}')
		if start >= 0 && end > start {
			b = b[start : end+1]
		}
	}
	return json.RawMessage(b)
}

// finish turns a vendor completion into a Response, applying the stop
// reason and the schema.
func finish(provider string, req Request, text string, stop StopReason, u Usage, model string) (*Response, error) {
	if stop == StopRefused {
		return nil, &ErrRefused{Provider: provider, Reason: "content filter"}
	}

	resp := &Response{Usage: u, Model: model, StopReason: stop}
	if req.Schema == nil {
		if json.Valid([]byte(text)) {
			resp.Content = json.RawMessage(text)
		} else {
			resp.Content, _ = json.Marshal(text)
		}
		return resp, nil
	}

	content := extractJSON(text)
	if stop == StopMaxTokens {
		return nil, &ErrMaxTokensExceeded{MaxTokens: req.MaxTokens, Content: content}
	}
	if err := req.Schema.Validate(content); err != nil {
		return nil, err
	}
	resp.Content = content
	return resp, nil
}
