package llm

import (
	"context"
	"sync"
)

// MockClient permite tests sin llamar a un LLM real. Registra cada request recibido.
type MockClient struct {
	Response string
	Err      error
	// Block, si no es nil, retiene Generate hasta que se cierre o se cancele ctx.
	Block chan struct{}

	mu       sync.Mutex
	requests []GenerationRequest
}

func (m *MockClient) Generate(ctx context.Context, req GenerationRequest) (string, error) {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	m.mu.Unlock()

	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return "", ctx.Err()
		}
	}
	return m.Response, m.Err
}

// Requests devuelve una copia de los requests recibidos.
func (m *MockClient) Requests() []GenerationRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]GenerationRequest(nil), m.requests...)
}
