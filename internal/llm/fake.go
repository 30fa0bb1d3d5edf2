package llm

import (
	"context"
	"sync"
)

// FakeClient returns queued replies for offline use and tests. When the queue
// runs dry it repeats the last reply, or a fixed placeholder if none were set.
type FakeClient struct {
	mu      sync.Mutex
	replies []string
	err     error

	// Calls records every request, newest last.
	Calls []FakeCall
}

type FakeCall struct {
	Messages    []Message
	Temperature float32
}

func NewFakeClient(replies ...string) *FakeClient {
	return &FakeClient{replies: replies}
}

// Fail makes every subsequent Chat call return err.
func (f *FakeClient) Fail(err error) {
	f.mu.Lock()
	f.err = err
	f.mu.Unlock()
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

func (f *FakeClient) Chat(_ context.Context, msgs []Message, temperature float32) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Calls = append(f.Calls, FakeCall{Messages: msgs, Temperature: temperature})
	if f.err != nil {
		return "", f.err
	}
	switch len(f.replies) {
	case 0:
		return `{"files":{},"platformio_ini":"","config":{}}`, nil
	case 1:
		return f.replies[0], nil
	default:
		reply := f.replies[0]
		f.replies = f.replies[1:]
		return reply, nil
	}
}

// CallCount reports how many Chat calls have been made.
func (f *FakeClient) CallCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.Calls)
}
