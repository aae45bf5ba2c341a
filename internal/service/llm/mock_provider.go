package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// MockProvider answers completions from canned responses for tests and local development.
type MockProvider struct {
	mu        sync.Mutex
	available bool
	responses map[string]string
	err       error
	calls     []CompletionOptions
}

// NewMockProvider creates a new mock LLM provider
func NewMockProvider() *MockProvider {
	return &MockProvider{
		available: true,
		responses: make(map[string]string),
	}
}

// Name identifies the mock.
func (m *MockProvider) Name() string { return "mock" }

// IsAvailable returns whether the mock provider is available
func (m *MockProvider) IsAvailable() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.available
}

// SetAvailable toggles availability.
func (m *MockProvider) SetAvailable(available bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.available = available
}

// SetResponse fixes the reply for a task.
func (m *MockProvider) SetResponse(task, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[task] = response
}

// SetError makes every call fail with err.
func (m *MockProvider) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns the options of every completion so far.
func (m *MockProvider) Calls() []CompletionOptions {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]CompletionOptions(nil), m.calls...)
}

// Complete returns the canned response for the task. Without one it echoes a
// deterministic transformation of the prompt.
func (m *MockProvider) Complete(ctx context.Context, prompt string, options CompletionOptions) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, options)

	if !m.available {
		return "", fmt.Errorf("mock provider is not available")
	}
	if m.err != nil {
		return "", m.err
	}
	if resp, ok := m.responses[options.Task]; ok {
		return resp, nil
	}

	switch options.Task {
	case TaskSummarization:
		words := strings.Fields(prompt)
		if len(words) > 30 {
			words = words[:30]
		}
		return strings.Join(words, " "), nil
	case TaskTranslation:
		return fmt.Sprintf("[%s] %s", strings.ToUpper(options.TargetLang), prompt), nil
	case TaskGeneration:
		return prompt + "\n\nGenerated content.", nil
	default:
		return "", fmt.Errorf("unsupported task %q", options.Task)
	}
}
