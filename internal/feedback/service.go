package feedback

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sertugser/assessai/internal/activity"
	"github.com/sertugser/assessai/internal/llm"
	"github.com/sertugser/assessai/internal/logger"
	"github.com/sertugser/assessai/internal/store"
)

// Default cache lifetimes.
const (
	DefaultRecommendationTTL = 30 * time.Minute
	DefaultAnalysisTTL       = 24 * time.Hour
)

// Config holds cache lifetimes and optional generation limits. Zero limits
// use the llm purpose profile.
type Config struct {
	MaxTokens         int
	Temperature       float64
	RecommendationTTL time.Duration
	AnalysisTTL       time.Duration
}

// DefaultConfig returns the standard cache lifetimes.
func DefaultConfig() Config {
	return Config{
		RecommendationTTL: DefaultRecommendationTTL,
		AnalysisTTL:       DefaultAnalysisTTL,
	}
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the logger.
func WithLogger(l *logger.Logger) Option {
	return func(s *Service) { s.log = l }
}

// WithClock overrides time.Now for cache timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.cache.now = now }
}

// WithConfig replaces the default limits.
func WithConfig(cfg Config) Option {
	return func(s *Service) { s.config = cfg }
}

// Service produces AI feedback. A nil provider makes every call return its
// fallback.
type Service struct {
	provider llm.Provider
	cache    *ttlCache
	config   Config
	log      *logger.Logger
}

// New creates a Service. kv backs the per-user caches.
func New(provider llm.Provider, kv store.KVRepo, opts ...Option) *Service {
	s := &Service{
		provider: provider,
		cache:    &ttlCache{kv: kv, now: time.Now},
		config:   DefaultConfig(),
		log:      logger.Nop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.config.RecommendationTTL <= 0 {
		s.config.RecommendationTTL = DefaultRecommendationTTL
	}
	if s.config.AnalysisTTL <= 0 {
		s.config.AnalysisTTL = DefaultAnalysisTTL
	}
	s.log = s.log.With("component", "feedback")
	return s
}

// Available reports whether a provider is configured.
func (s *Service) Available() bool { return s.provider != nil }

// AnalyzeWriting scores an essay.
func (s *Service) AnalyzeWriting(ctx context.Context, in WritingInput) (WritingFeedback, error) {
	if strings.TrimSpace(in.Text) == "" {
		return WritingFeedback{}, ErrEmptyInput
	}

	var out WritingFeedback
	err := s.generate(ctx, llm.PurposeWritingFeedback, writingSystemPrompt, buildWritingMessage(in), WritingSchema, &out)
	if err != nil {
		s.log.Warn("writing feedback unavailable, using fallback", "error", err)
		return fallbackWriting(in), nil
	}
	out.WordCount = wordCount(in.Text)
	if out.Corrections == nil {
		out.Corrections = []Correction{}
	}
	return out, nil
}

// AnalyzeSpeaking scores a transcript.
func (s *Service) AnalyzeSpeaking(ctx context.Context, in SpeakingInput) (SpeakingFeedback, error) {
	if strings.TrimSpace(in.Transcript) == "" {
		return SpeakingFeedback{}, ErrEmptyInput
	}

	var out SpeakingFeedback
	err := s.generate(ctx, llm.PurposeSpeakingFeedback, speakingSystemPrompt, buildSpeakingMessage(in), SpeakingSchema, &out)
	if err != nil {
		s.log.Warn("speaking feedback unavailable, using fallback", "error", err)
		return fallbackSpeaking(), nil
	}
	return out, nil
}

// Recommendations returns next steps for userID, cached per user.
func (s *Service) Recommendations(ctx context.Context, userID string, activities []activity.UserActivity) ([]Recommendation, error) {
	var cached []Recommendation
	if s.cached(ctx, userID, KeyRecommendations, s.config.RecommendationTTL, &cached) {
		return cached, nil
	}

	var out struct {
		Recommendations []Recommendation `json:"recommendations"`
	}
	msg := buildLearnerSummary(activities, s.cache.now())
	if err := s.generate(ctx, llm.PurposeRecommendations, recommendationsSystemPrompt, msg, RecommendationsSchema, &out); err != nil {
		s.log.Warn("recommendations unavailable, using fallback", "user", userID, "error", err)
		return fallbackRecommendations(activities), nil
	}

	s.store(ctx, userID, KeyRecommendations, out.Recommendations)
	return out.Recommendations, nil
}

// DifficultyAnalysis suggests the CEFR level to practice at.
func (s *Service) DifficultyAnalysis(ctx context.Context, userID string, activities []activity.UserActivity) (DifficultyReport, error) {
	var out DifficultyReport
	if s.cached(ctx, userID, KeyDifficulty, s.config.AnalysisTTL, &out) {
		return out, nil
	}

	msg := buildLearnerSummary(activities, s.cache.now())
	if err := s.generate(ctx, llm.PurposeDifficulty, difficultySystemPrompt, msg, DifficultySchema, &out); err != nil {
		s.log.Warn("difficulty analysis unavailable, using fallback", "user", userID, "error", err)
		return fallbackDifficulty(activities), nil
	}

	s.store(ctx, userID, KeyDifficulty, out)
	return out, nil
}

// MistakeAnalysis finds recurring mistakes in recent essays. Without
// essays it returns an empty report without calling the provider.
func (s *Service) MistakeAnalysis(ctx context.Context, userID string, activities []activity.UserActivity) (MistakeReport, error) {
	if len(recentEssays(activities, 1)) == 0 {
		return MistakeReport{Summary: "No essays to analyze yet.", Patterns: []MistakePattern{}}, nil
	}

	var out MistakeReport
	if s.cached(ctx, userID, KeyMistakes, s.config.AnalysisTTL, &out) {
		return out, nil
	}

	if err := s.generate(ctx, llm.PurposeMistakes, mistakesSystemPrompt, buildMistakesMessage(activities), MistakesSchema, &out); err != nil {
		s.log.Warn("mistake analysis unavailable, using fallback", "user", userID, "error", err)
		return fallbackMistakes(), nil
	}

	s.store(ctx, userID, KeyMistakes, out)
	return out, nil
}

// Invalidate drops every cached analysis for userID.
func (s *Service) Invalidate(ctx context.Context, userID string) error {
	return s.cache.kv.Delete(ctx, normalizeUser(userID), KeyRecommendations, KeyDifficulty, KeyMistakes)
}

// Sweep removes expired cache entries for every user and returns how many
// were deleted.
func (s *Service) Sweep(ctx context.Context) (int, error) {
	total := 0
	for _, k := range []struct {
		key string
		ttl time.Duration
	}{
		{KeyRecommendations, s.config.RecommendationTTL},
		{KeyDifficulty, s.config.AnalysisTTL},
		{KeyMistakes, s.config.AnalysisTTL},
	} {
		n, err := s.cache.sweep(ctx, k.key, k.ttl)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Service) generate(ctx context.Context, purpose, system, msg string, schema *llm.Schema, dst any) error {
	if s.provider == nil {
		return fmt.Errorf("no LLM provider configured")
	}
	ctx = llm.WithPurpose(ctx, purpose)

	req := llm.NewRequest(purpose, system, msg, schema)
	if s.config.MaxTokens > 0 {
		req.MaxTokens = s.config.MaxTokens
	}
	if s.config.Temperature > 0 {
		req.Temperature = s.config.Temperature
	}

	resp, err := s.provider.Generate(ctx, req)
	if err != nil {
		return fmt.Errorf("LLM generation failed: %w", err)
	}
	return resp.Decode(dst)
}

// cached reads a fresh cache entry. Read errors count as a miss.
func (s *Service) cached(ctx context.Context, userID, key string, ttl time.Duration, dst any) bool {
	ok, err := s.cache.get(ctx, normalizeUser(userID), key, ttl, dst)
	if err != nil {
		s.log.Warn("cache read failed", "key", key, "error", err)
	}
	return ok
}

func (s *Service) store(ctx context.Context, userID, key string, v any) {
	if err := s.cache.put(ctx, normalizeUser(userID), key, v); err != nil {
		s.log.Warn("cache write failed", "key", key, "error", err)
	}
}

func normalizeUser(userID string) string {
	if id := strings.TrimSpace(userID); id != "" {
		return id
	}
	return activity.DefaultUser
}
