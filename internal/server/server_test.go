package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sertugser/assessai/internal/achievements"
	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/config"
	"github.com/sertugser/assessai/internal/feedback"
	"github.com/sertugser/assessai/internal/llm"
	"github.com/sertugser/assessai/internal/metrics"
	"github.com/sertugser/assessai/internal/notify"
	"github.com/sertugser/assessai/internal/ocr"
	"github.com/sertugser/assessai/internal/progress"
	"github.com/sertugser/assessai/internal/store"
)

type testEnv struct {
	srv *Server
	hub *notify.Hub
	llm *llm.MockProvider
	ocr *ocr.MockRecognizer
	reg *activity.Registry
}

func newTestEnv(t *testing.T, mutate ...func(*config.ServerConfig, *config.OCRConfig, *Deps)) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	st, err := store.Open(dsn)
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	hub := notify.NewHub(nil)
	reg := activity.NewRegistry(st.KV(), activity.WithPublisher(hub))
	mock := llm.NewMockProvider()
	rec := &ocr.MockRecognizer{Pages: []ocr.Page{{Text: "I goes to school every day.", Confidence: 0.92}}}

	cfg := config.ServerConfig{Mode: "test", AllowedOrigins: []string{"http://localhost:5173"}}
	ocrCfg := config.OCRConfig{Enabled: true, MaxUploadBytes: 1 << 10, RatePerMinute: 0}
	deps := Deps{
		Activities: reg,
		Broker:     hub,
		Feedback:   feedback.New(mock, st.KV()),
		OCR:        ocr.NewService(rec, 1<<10),
		Metrics:    metrics.New(),
	}
	for _, m := range mutate {
		m(&cfg, &ocrCfg, &deps)
	}
	return &testEnv{srv: New(cfg, ocrCfg, deps), hub: hub, llm: mock, ocr: rec, reg: reg}
}

func (e *testEnv) do(t *testing.T, method, path, user string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rd *bytes.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	} else {
		rd = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rd)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set(headerUserID, user)
	}
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestHealthz(t *testing.T) {
	env := newTestEnv(t)
	w := env.do(t, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := decode[map[string]any](t, w)
	assert.Equal(t, "ok", body["status"])
	assert.Equal(t, true, body["ocr"])
	assert.NotEmpty(t, w.Header().Get(headerRequestID))
}

func TestActivities_CreateAndList(t *testing.T) {
	env := newTestEnv(t)

	w := env.do(t, http.MethodPost, "/api/activities", "", map[string]any{
		"type": "quiz", "score": 90, "courseTitle": "Vocabulary Builder",
		"correctAnswers": 9, "totalQuestions": 10,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	rec := decode[activity.UserActivity](t, w)
	assert.NotEmpty(t, rec.ID)
	assert.Equal(t, activity.Quiz, rec.Type)

	w = env.do(t, http.MethodGet, "/api/activities", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	list := decode[[]activity.UserActivity](t, w)
	require.Len(t, list, 1)
	assert.Equal(t, rec.ID, list[0].ID)

	// Other users are isolated.
	w = env.do(t, http.MethodGet, "/api/activities", "bob", nil)
	assert.Equal(t, "[]", strings.TrimSpace(w.Body.String()))
}

func TestActivities_Validation(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		body any
		code string
	}{
		{"unknown type", map[string]any{"type": "listening", "score": 50}, codeValidation},
		{"score out of range", map[string]any{"type": "quiz", "score": 120}, codeValidation},
		{"not json", "}{", codeBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do(t, http.MethodPost, "/api/activities", "", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tt.code, decode[errorBody](t, w).Code)
		})
	}
}

func seed(t *testing.T, env *testEnv, user string, inputs ...activity.ActivityInput) {
	t.Helper()
	for _, in := range inputs {
		_, err := env.reg.For(user).Save(context.Background(), in)
		require.NoError(t, err)
	}
}

func TestProgressEndpoints(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env, "local",
		activity.ActivityInput{Type: activity.Quiz, Score: 100, CourseTitle: "Grammar Basics", Category: activity.CategoryGrammar},
		activity.ActivityInput{Type: activity.Writing, Score: 60, WordCount: 150, EssayText: "My town is small."},
		activity.ActivityInput{Type: activity.Speaking, Score: 80, Duration: 120},
	)

	w := env.do(t, http.MethodGet, "/api/progress/stats", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	stats := decode[progress.Stats](t, w)
	assert.Equal(t, 3, stats.TotalActivities)
	assert.Equal(t, 10+15+12, stats.TotalPoints)
	assert.Equal(t, 1, stats.CurrentStreak)

	w = env.do(t, http.MethodGet, "/api/progress/streak", "", nil)
	streak := decode[activity.StreakData](t, w)
	assert.Equal(t, 1, streak.CurrentStreak)

	w = env.do(t, http.MethodGet, "/api/progress/skills", "", nil)
	skills := decode[[]progress.SkillScore](t, w)
	require.Len(t, skills, len(progress.Skills))
	assert.Equal(t, progress.SkillGrammar, skills[0].Name)
	assert.Equal(t, 100, skills[0].Score)

	w = env.do(t, http.MethodGet, "/api/progress/weaknesses", "", nil)
	weak := decode[progress.WeaknessReport](t, w)
	require.NotEmpty(t, weak.WeakAreas)
	assert.Equal(t, progress.SkillWriting, weak.WeakAreas[0].Name)

	w = env.do(t, http.MethodGet, "/api/progress/weekly", "", nil)
	assert.Len(t, decode[[]progress.DayPoint](t, w), 7)

	w = env.do(t, http.MethodGet, "/api/progress/monthly", "", nil)
	assert.Len(t, decode[[]progress.MonthPoint](t, w), 6)

	w = env.do(t, http.MethodGet, "/api/progress/distribution", "", nil)
	assert.Len(t, decode[[]progress.TypeShare](t, w), 3)

	w = env.do(t, http.MethodGet, "/api/achievements", "", nil)
	badges := decode[[]achievements.Achievement](t, w)
	require.Len(t, badges, len(achievements.Definitions))
	assert.True(t, badges[0].Unlocked)

	w = env.do(t, http.MethodGet, "/api/progress", "", nil)
	snap := decode[progress.Snapshot](t, w)
	assert.Equal(t, 3, snap.Stats.TotalActivities)
}

func TestResetProgress(t *testing.T) {
	env := newTestEnv(t)
	seed(t, env, "alice", activity.ActivityInput{Type: activity.Quiz, Score: 70})
	seed(t, env, "bob", activity.ActivityInput{Type: activity.Quiz, Score: 70})

	w := env.do(t, http.MethodDelete, "/api/progress", "alice", nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = env.do(t, http.MethodGet, "/api/progress/stats", "alice", nil)
	assert.Equal(t, 0, decode[progress.Stats](t, w).TotalActivities)
	w = env.do(t, http.MethodGet, "/api/progress/stats", "bob", nil)
	assert.Equal(t, 1, decode[progress.Stats](t, w).TotalActivities)
}

func TestFeedbackEndpoints(t *testing.T) {
	env := newTestEnv(t)
	env.llm.AddResponse(llm.MockResponse{Content: json.RawMessage(`{
		"overallScore": 72, "cefrLevel": "B1", "grammarScore": 65, "vocabularyScore": 75,
		"coherenceScore": 70, "strengths": ["Good ideas"], "improvements": ["Verb agreement"], "corrections": []
	}`)})

	w := env.do(t, http.MethodPost, "/api/feedback/writing", "", feedback.WritingInput{Text: "He go to school."})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	fb := decode[feedback.WritingFeedback](t, w)
	assert.Equal(t, 72, fb.OverallScore)
	assert.False(t, fb.Fallback)

	// Queue is empty now: provider errors become a fallback, not a 5xx.
	w = env.do(t, http.MethodPost, "/api/feedback/speaking", "", feedback.SpeakingInput{Transcript: "I think that"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, decode[feedback.SpeakingFeedback](t, w).Fallback)

	w = env.do(t, http.MethodPost, "/api/feedback/writing", "", feedback.WritingInput{})
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, codeValidation, decode[errorBody](t, w).Code)

	w = env.do(t, http.MethodGet, "/api/feedback/recommendations", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	recs := decode[struct {
		Recommendations []feedback.Recommendation `json:"recommendations"`
	}](t, w)
	require.NotEmpty(t, recs.Recommendations)
	assert.True(t, recs.Recommendations[0].Fallback)

	w = env.do(t, http.MethodGet, "/api/feedback/mistakes", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
}

func TestFeedbackDisabled(t *testing.T) {
	env := newTestEnv(t, func(_ *config.ServerConfig, _ *config.OCRConfig, d *Deps) { d.Feedback = nil })
	w := env.do(t, http.MethodGet, "/api/feedback/difficulty", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, codeUnavailable, decode[errorBody](t, w).Code)
}

func multipartBody(t *testing.T, field, filename string, data []byte, source string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	if field != "" {
		fw, err := mw.CreateFormFile(field, filename)
		require.NoError(t, err)
		_, err = fw.Write(data)
		require.NoError(t, err)
	}
	if source != "" {
		require.NoError(t, mw.WriteField("source", source))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func (e *testEnv) upload(t *testing.T, field string, data []byte, source string) *httptest.ResponseRecorder {
	t.Helper()
	body, ct := multipartBody(t, field, "essay.png", data, source)
	req := httptest.NewRequest(http.MethodPost, "/api/ocr", body)
	req.Header.Set("Content-Type", ct)
	w := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(w, req)
	return w
}

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR")

func TestOCR(t *testing.T) {
	env := newTestEnv(t)

	w := env.upload(t, "file", pngBytes, "camera")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	res := decode[ocr.Result](t, w)
	assert.Equal(t, "I goes to school every day.", res.Text)
	assert.Equal(t, "camera", res.Source)
	assert.InDelta(t, 0.92, res.Confidence, 0.001)

	w = env.upload(t, "file", pngBytes, "")
	assert.Equal(t, ocr.DefaultSource, decode[ocr.Result](t, w).Source)
}

func TestOCR_Errors(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name   string
		field  string
		data   []byte
		status int
	}{
		{"missing file", "", nil, http.StatusBadRequest},
		{"unsupported type", "file", []byte("just some text"), http.StatusBadRequest},
		{"too large", "file", append(append([]byte{}, pngBytes...), make([]byte, 2<<10)...), http.StatusRequestEntityTooLarge},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.upload(t, tt.field, tt.data, "")
			require.Equal(t, tt.status, w.Code, w.Body.String())
			body := decode[map[string]any](t, w)
			assert.Equal(t, "", body["text"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestOCR_NotConfigured(t *testing.T) {
	env := newTestEnv(t, func(_ *config.ServerConfig, _ *config.OCRConfig, d *Deps) { d.OCR = ocr.NewService(nil, 0) })
	w := env.upload(t, "file", pngBytes, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestOCR_RateLimited(t *testing.T) {
	env := newTestEnv(t, func(_ *config.ServerConfig, o *config.OCRConfig, _ *Deps) {
		o.RatePerMinute = 1
		o.Burst = 2
	})
	for i := range 2 {
		w := env.upload(t, "file", pngBytes, "")
		require.Equal(t, http.StatusOK, w.Code, "request %d", i)
	}
	w := env.upload(t, "file", pngBytes, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestCORS(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/activities", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", "POST")
	w := httptest.NewRecorder()
	env.srv.Handler().ServeHTTP(w, req)

	assert.Equal(t, "http://localhost:5173", w.Header().Get("Access-Control-Allow-Origin"))
}

func TestEvents(t *testing.T) {
	env := newTestEnv(t)
	ts := httptest.NewServer(env.srv.Handler())
	defer ts.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL+"/api/progress/events", nil)
	require.NoError(t, err)
	req.Header.Set(headerUserID, "alice")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	next := func() string {
		for lines.Scan() {
			if l := lines.Text(); strings.HasPrefix(l, "event: ") {
				return strings.TrimPrefix(l, "event: ")
			}
		}
		return ""
	}
	require.Equal(t, "ready", next())

	require.Eventually(t, func() bool { return env.hub.Subscribers("alice") == 1 }, time.Second, 10*time.Millisecond)
	seed(t, env, "alice", activity.ActivityInput{Type: activity.Writing, Score: 75})
	assert.Equal(t, "progress", next())
}
