package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/sertugser/assessai/internal/logger"
	"github.com/sertugser/assessai/internal/store"
)

// Observer receives one callback per LLM request, e.g. for metrics.
type Observer func(provider, purpose string, success bool, latency time.Duration, usage Usage)

// LoggingOption configures a LoggingProvider.
type LoggingOption func(*LoggingProvider)

// WithLogger sets the structured logger used for request summaries.
func WithLogger(l *logger.Logger) LoggingOption {
	return func(p *LoggingProvider) { p.log = l }
}

// WithObserver registers a per-request callback.
func WithObserver(fn Observer) LoggingOption {
	return func(p *LoggingProvider) { p.observe = fn }
}

// LoggingProvider is a decorator that records every LLM request as an event.
type LoggingProvider struct {
	inner     Provider
	name      string
	eventRepo store.EventRepo
	log       *logger.Logger
	observe   Observer
}

// WithLogging wraps a Provider with event logging. repo may be nil, in which
// case only the logger and observer see requests.
func WithLogging(p Provider, providerName string, repo store.EventRepo, opts ...LoggingOption) Provider {
	lp := &LoggingProvider{inner: p, name: providerName, eventRepo: repo, log: logger.Nop()}
	for _, opt := range opts {
		opt(lp)
	}
	return lp
}

func (l *LoggingProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	start := time.Now()
	purpose := PurposeFrom(ctx)

	resp, err := l.inner.Generate(ctx, req)

	latency := time.Since(start)

	data := store.LLMRequestEventData{
		Provider:    l.name,
		Model:       l.inner.ModelID(),
		Purpose:     purpose,
		LatencyMs:   latency.Milliseconds(),
		Success:     err == nil,
		RequestBody: serializeRequest(req),
	}

	var usage Usage
	if resp != nil {
		usage = resp.Usage
		data.InputTokens = resp.Usage.InputTokens
		data.OutputTokens = resp.Usage.OutputTokens
		if resp.Model != "" {
			data.Model = resp.Model
		}
		data.ResponseBody = string(resp.Content)
	}

	if err != nil {
		data.ErrorMessage = err.Error()
		l.log.Warn("llm request failed", "provider", l.name, "purpose", purpose, "latency", latency, "error", err)
	} else {
		l.log.Debug("llm request", "provider", l.name, "model", data.Model, "purpose", purpose,
			"latency", latency, "stop", resp.StopReason,
			"input_tokens", data.InputTokens, "output_tokens", data.OutputTokens)
	}

	if l.observe != nil {
		l.observe(l.name, purpose, err == nil, latency, usage)
	}

	// Log the event but don't fail the request if logging fails.
	if l.eventRepo != nil {
		if logErr := l.eventRepo.AppendLLMRequest(ctx, data); logErr != nil {
			l.log.Warn("failed to log LLM request event", "error", logErr)
		}
	}

	return resp, err
}

func (l *LoggingProvider) ModelID() string {
	return l.inner.ModelID()
}

// serializeRequest builds a readable representation of the LLM request.
func serializeRequest(req Request) string {
	var b strings.Builder

	if req.System != "" {
		b.WriteString("[system]\n")
		b.WriteString(req.System)
		b.WriteString("\n\n")
	}

	for _, m := range req.Messages {
		b.WriteString(fmt.Sprintf("[%s]\n", m.Role))
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}

	if req.Schema != nil {
		schemaDef, err := json.Marshal(req.Schema.Definition)
		if err == nil {
			b.WriteString(fmt.Sprintf("[schema: %s]\n", req.Schema.Name))
			b.WriteString(string(schemaDef))
			b.WriteString("\n")
		}
	}

	return b.String()
}
