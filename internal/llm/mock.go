package llm

import (
	"context"
	"encoding/json"
	"slices"
	"sync"
)

// MockResponse is a canned response for the MockProvider.
type MockResponse struct {
	Content json.RawMessage
	Usage   Usage
	Err     error

	// Truncated reports the output as cut off at MaxTokens.
	Truncated bool
}

// MockProvider serves queued responses in order, then falls back to
// Respond. It backs tests and the "mock" provider setting.
type MockProvider struct {
	// Respond answers once the queue is empty. Nil reports the provider
	// as unavailable.
	Respond func(Request) MockResponse

	mu       sync.Mutex
	queue    []MockResponse
	requests []Request
}

// NewMockProvider creates a MockProvider with the given queued responses.
func NewMockProvider(responses ...MockResponse) *MockProvider {
	return &MockProvider{queue: responses}
}

// Generate answers req. Content goes through the same schema check as a
// real provider's.
func (m *MockProvider) Generate(_ context.Context, req Request) (*Response, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	var next MockResponse
	switch {
	case len(m.queue) > 0:
		next, m.queue = m.queue[0], m.queue[1:]
	case m.Respond != nil:
		respond := m.Respond
		m.mu.Unlock()
		next = respond(req)
		m.mu.Lock()
	default:
		m.mu.Unlock()
		return nil, &ErrProviderUnavailable{}
	}
	m.mu.Unlock()

	if next.Err != nil {
		return nil, next.Err
	}
	stop := stopEnd
	if next.Truncated {
		stop = stopMaxTokens
	}
	return finish(req, next.Content, next.Usage, m.ModelID(), stop)
}

func (m *MockProvider) ModelID() string {
	return "mock"
}

// AddResponse queues a response.
func (m *MockProvider) AddResponse(resp MockResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, resp)
}

// Requests returns a copy of every request received so far.
func (m *MockProvider) Requests() []Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	return slices.Clone(m.requests)
}

// CallCount returns the number of Generate calls made.
func (m *MockProvider) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}
