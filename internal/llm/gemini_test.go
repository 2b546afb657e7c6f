package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"slices"
	"strings"
	"testing"

	"google.golang.org/genai"
)

func geminiServer(t *testing.T, status int, body any) (*GeminiProvider, *capturedRequest) {
	t.Helper()
	captured := &capturedRequest{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.HasSuffix(r.URL.Path, ":generateContent") {
			http.NotFound(w, r)
			return
		}
		var req map[string]any
		_ = json.NewDecoder(r.Body).Decode(&req)
		captured.mu.Lock()
		captured.body = req
		captured.mu.Unlock()

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(body)
	}))
	t.Cleanup(srv.Close)

	p, err := NewGeminiProvider(context.Background(), GeminiConfig{APIKey: "test-key", Model: "gemini-flash", BaseURL: srv.URL})
	if err != nil {
		t.Fatalf("new provider: %v", err)
	}
	return p, captured
}

func geminiReply(text, finish string) map[string]any {
	return map[string]any{
		"candidates": []map[string]any{{
			"content":      map[string]any{"role": "model", "parts": []map[string]any{{"text": text}}},
			"finishReason": finish,
		}},
		"usageMetadata": map[string]any{"promptTokenCount": 220, "candidatesTokenCount": 64, "totalTokenCount": 284},
	}
}

func recommendationRequest() Request {
	return NewRequest(PurposeRecommendations, "You are a study coach.",
		"Weak areas: past tense 45%, articles 60%", recommendationSchema())
}

func TestGeminiProvider_Recommendations(t *testing.T) {
	p, captured := geminiServer(t, http.StatusOK, geminiReply(recommendationJSON, "STOP"))
	if p.ModelID() != "gemini-2.0-flash" {
		t.Fatalf("model = %q", p.ModelID())
	}

	resp, err := p.Generate(context.Background(), recommendationRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var got struct {
		Recommendations []struct {
			Title    string `json:"title"`
			Priority string `json:"priority"`
		} `json:"recommendations"`
	}
	if err := resp.Decode(&got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(got.Recommendations) != 1 || got.Recommendations[0].Priority != "high" {
		t.Errorf("recommendations = %+v", got)
	}
	if resp.Usage != usage(220, 64) {
		t.Errorf("usage = %+v", resp.Usage)
	}

	conf, _ := captured.get()["generationConfig"].(map[string]any)
	if conf["responseMimeType"] != "application/json" || conf["maxOutputTokens"] != float64(900) {
		t.Errorf("generationConfig = %v", conf)
	}
}

func TestGeminiProvider_SafetyBlock(t *testing.T) {
	p, _ := geminiServer(t, http.StatusOK, geminiReply("", "SAFETY"))
	_, err := p.Generate(context.Background(), recommendationRequest())
	var refused *ErrRefused
	if !errors.As(err, &refused) || refused.Provider != "gemini" {
		t.Fatalf("expected ErrRefused, got %T %v", err, err)
	}
}

func TestGeminiProvider_RateLimited(t *testing.T) {
	body := map[string]any{"error": map[string]any{"code": 429, "message": "quota", "status": "RESOURCE_EXHAUSTED"}}
	p, _ := geminiServer(t, http.StatusTooManyRequests, body)
	_, err := p.Generate(context.Background(), recommendationRequest())
	var rl *ErrRateLimit
	if !errors.As(err, &rl) {
		t.Fatalf("expected ErrRateLimit, got %T %v", err, err)
	}
}

func TestGeminiSchema_Essay(t *testing.T) {
	s := geminiSchema(essaySchema().Definition)
	if s.Type != genai.TypeObject {
		t.Fatalf("type = %v", s.Type)
	}
	want := []string{"overallScore", "cefrLevel", "improvements"}
	if !slices.Equal(s.Required, want) || !slices.Equal(s.PropertyOrdering, want) {
		t.Errorf("required = %v ordering = %v", s.Required, s.PropertyOrdering)
	}

	overall := s.Properties["overallScore"]
	if overall.Type != genai.TypeInteger || overall.Minimum == nil || *overall.Minimum != 0 || overall.Maximum == nil || *overall.Maximum != 100 {
		t.Errorf("overallScore = %+v", overall)
	}
	if lvl := s.Properties["cefrLevel"]; len(lvl.Enum) != 6 || lvl.Enum[2] != "B1" {
		t.Errorf("cefrLevel enum = %v", lvl.Enum)
	}
	if imp := s.Properties["improvements"]; imp.Type != genai.TypeArray || imp.Items == nil || imp.Items.Type != genai.TypeString {
		t.Errorf("improvements = %+v", imp)
	}
}

func TestGeminiSchema_NestedRecommendations(t *testing.T) {
	s := geminiSchema(recommendationSchema().Definition)
	items := s.Properties["recommendations"].Items
	if items == nil || items.Type != genai.TypeObject {
		t.Fatalf("items = %+v", items)
	}
	if !slices.Equal(items.PropertyOrdering, []string{"title", "activityType", "priority"}) {
		t.Errorf("ordering = %v", items.PropertyOrdering)
	}
	if got := items.Properties["activityType"].Enum; !slices.Equal(got, []string{"quiz", "writing", "speaking"}) {
		t.Errorf("activityType enum = %v", got)
	}
}

func TestGeminiStop(t *testing.T) {
	candidate := func(reason genai.FinishReason) *genai.GenerateContentResponse {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{FinishReason: reason}}}
	}
	tests := []struct {
		name string
		resp *genai.GenerateContentResponse
		want StopReason
	}{
		{"stop", candidate("STOP"), StopEnd},
		{"max tokens", candidate("MAX_TOKENS"), StopMaxTokens},
		{"safety", candidate("SAFETY"), StopRefused},
		{"recitation", candidate("RECITATION"), StopRefused},
		{"blocked prompt", &genai.GenerateContentResponse{}, StopRefused},
	}
	for _, tt := range tests {
		if got := geminiStop(tt.resp); got != tt.want {
			t.Errorf("%s: geminiStop() = %q, want %q", tt.name, got, tt.want)
		}
	}
}

func TestGeminiConfig(t *testing.T) {
	conf := geminiConfig(NewRequest(PurposeWritingFeedback, "examiner", "essay", essaySchema()))
	if conf.ResponseMIMEType != "application/json" || conf.ResponseSchema == nil {
		t.Errorf("structured config = %+v", conf)
	}
	if conf.Temperature == nil || *conf.Temperature != float32(0.1) || conf.MaxOutputTokens != 1200 {
		t.Errorf("limits = %v/%d", conf.Temperature, conf.MaxOutputTokens)
	}
	if conf.SystemInstruction == nil || conf.SystemInstruction.Parts[0].Text != "examiner" {
		t.Errorf("system = %+v", conf.SystemInstruction)
	}

	cold := geminiConfig(NewRequest(PurposeDifficulty, "", "x", nil))
	if cold.Temperature != nil || cold.ResponseSchema != nil || cold.SystemInstruction != nil {
		t.Errorf("zero-temperature config = %+v", cold)
	}
}

func TestGeminiContents(t *testing.T) {
	msgs := []Message{{Role: RoleUser, Content: "essay"}, {Role: RoleAssistant, Content: "{"}}
	got := geminiContents(msgs)
	if len(got) != 2 || got[0].Role != "user" || got[1].Role != "model" {
		t.Fatalf("contents = %+v", got)
	}
}

func TestGeminiError(t *testing.T) {
	var rl *ErrRateLimit
	if err := geminiError(genai.APIError{Code: 429, Message: "quota"}); !errors.As(err, &rl) {
		t.Errorf("429 = %T %v", err, err)
	}
	var rej *ErrRequestRejected
	if err := geminiError(&genai.APIError{Code: 403}); !errors.As(err, &rej) {
		t.Errorf("403 = %T %v", err, err)
	}
	var unavail *ErrProviderUnavailable
	if err := geminiError(errors.New("dial tcp: refused")); !errors.As(err, &unavail) {
		t.Errorf("transport = %T %v", err, err)
	}
}

func TestNewGeminiProvider_RequiresKey(t *testing.T) {
	if _, err := NewGeminiProvider(context.Background(), GeminiConfig{Model: "gemini-flash"}); err == nil {
		t.Fatal("expected error without API key")
	}
}
