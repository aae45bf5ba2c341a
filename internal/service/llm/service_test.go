package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceUnavailable(t *testing.T) {
	ctx := context.Background()

	for _, svc := range []*Service{nil, NewService(nil)} {
		assert.False(t, svc.IsAvailable())
		assert.Equal(t, "none", svc.ProviderName())

		_, err := svc.Summarize(ctx, "text", 10, 20)
		assert.ErrorIs(t, err, ErrUnavailable)
		_, err = svc.Generate(ctx, "text", 10)
		assert.ErrorIs(t, err, ErrUnavailable)
		_, err = svc.Translate(ctx, "text", "en", "es")
		assert.ErrorIs(t, err, ErrUnavailable)
	}
}

func TestSummarizePassesBoundsAndTruncates(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse(TaskSummarization, "  short summary  ")
	svc := NewService(mock)

	out, err := svc.Summarize(context.Background(), strings.Repeat("a", 5000), 50, 150)
	require.NoError(t, err)
	assert.Equal(t, "short summary", out)

	calls := mock.Calls()
	require.Len(t, calls, 1)
	assert.Equal(t, TaskSummarization, calls[0].Task)
	assert.Equal(t, 50, calls[0].MinLength)
	assert.Equal(t, 150, calls[0].MaxLength)
}

func TestTranslate(t *testing.T) {
	svc := NewService(NewMockProvider())

	out, err := svc.Translate(context.Background(), "Hello", "en", "es")
	require.NoError(t, err)
	assert.Equal(t, "[ES] Hello", out)
}

func TestTranslateByPromptRejectsEcho(t *testing.T) {
	mock := NewMockProvider()
	mock.SetResponse(TaskGeneration, "Translation: Hello")
	svc := NewService(mock)

	_, err := svc.TranslateByPrompt(context.Background(), "Hello", "Spanish")
	assert.Error(t, err)

	mock.SetResponse(TaskGeneration, "Translation: Hola")
	out, err := svc.TranslateByPrompt(context.Background(), "Hello", "Spanish")
	require.NoError(t, err)
	assert.Equal(t, "Hola", out)
}

func TestProviderErrorIsWrapped(t *testing.T) {
	boom := errors.New("boom")
	mock := NewMockProvider()
	mock.SetError(boom)

	_, err := NewService(mock).Generate(context.Background(), "x", 10)
	assert.ErrorIs(t, err, boom)
}
