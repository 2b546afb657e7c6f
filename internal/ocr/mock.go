package ocr

import (
	"context"
	"sync"
)

// MockRecognizer returns fixed pages and records calls.
type MockRecognizer struct {
	Pages []Page
	Err   error

	mu    sync.Mutex
	calls []string
}

func (m *MockRecognizer) Recognize(_ context.Context, _ []byte, mimeType string) ([]Page, error) {
	m.mu.Lock()
	m.calls = append(m.calls, mimeType)
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Pages, nil
}

func (m *MockRecognizer) Close() error { return nil }

// Calls returns the MIME types passed to Recognize.
func (m *MockRecognizer) Calls() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}
