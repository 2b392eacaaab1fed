package llm

import (
	"context"
	"sync"

	llmclient "poassistant/internal/llmClient"
)

// FakeClient answers requests through a caller-supplied function and records
// every request it sees. Used for offline runs and tests.
type FakeClient struct {
	name    string
	respond func(ctx context.Context, req llmclient.Request) (string, error)

	mu    sync.Mutex
	calls []llmclient.Request
}

func NewFakeClient(name string, respond func(ctx context.Context, req llmclient.Request) (string, error)) *FakeClient {
	if name == "" {
		name = "FakeLLM"
	}
	return &FakeClient{name: name, respond: respond}
}

func (f *FakeClient) Name() string { return f.name }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) GenerateText(ctx context.Context, req llmclient.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.respond == nil {
		return "", llmclient.NewPermanentError(llmclient.ErrEmptyResponse)
	}
	return f.respond(ctx, req)
}

// Calls returns a copy of the recorded requests.
func (f *FakeClient) Calls() []llmclient.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]llmclient.Request(nil), f.calls...)
}
