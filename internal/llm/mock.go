package llm

import (
	"context"
	"encoding/json"
	"sync"
)

// MockResponse is one scripted completion. StopReason defaults to StopEnd.
type MockResponse struct {
	Content    json.RawMessage
	StopReason StopReason
	Usage      Usage
	Err        error
}

// MockProvider replays scripted completions through the same stop reason
// and schema checks as the vendor providers. Responses scripted for a
// purpose are served first; the shared queue serves everything else.
type MockProvider struct {
	mu        sync.Mutex
	queue     []MockResponse
	byPurpose map[string][]MockResponse

	// Calls and Purposes record every request in order.
	Calls    []Request
	Purposes []string
}

// NewMockProvider creates a MockProvider with a shared queue.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses, byPurpose: map[string][]MockResponse{}}
}

// AddResponse appends to the shared queue.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// Script queues responses for requests tagged with purpose.
func (m *MockProvider) Script(purpose string, responses ...MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.byPurpose[purpose] = append(m.byPurpose[purpose], responses...)
}

// Generate serves the next response. An empty script is reported as an
// unavailable provider.
func (m *MockProvider) Generate(ctx context.Context, req Request) (*Response, error) {
	purpose := PurposeFrom(ctx)

	m.mu.Lock()
	m.Calls = append(m.Calls, req)
	m.Purposes = append(m.Purposes, purpose)
	next, ok := m.pop(purpose)
	m.mu.Unlock()

	if !ok {
		return nil, &ErrProviderUnavailable{Provider: "mock"}
	}
	if next.Err != nil {
		return nil, next.Err
	}
	stop := next.StopReason
	if stop == "" {
		stop = StopEnd
	}
	return finish("mock", req, string(next.Content), stop, next.Usage, "mock")
}

func (m *MockProvider) pop(purpose string) (MockResponse, bool) {
	if rs := m.byPurpose[purpose]; len(rs) > 0 {
		m.byPurpose[purpose] = rs[1:]
		return rs[0], true
	}
	if len(m.queue) == 0 {
		return MockResponse{}, false
	}
	next := m.queue[0]
	m.queue = m.queue[1:]
	return next, true
}

func (m *MockProvider) ModelID() string { return "mock" }

// CallCount returns the number of Generate calls.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Calls)
}
