package providers

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/insuregraph/insuregraph/internal/llm"
)

func TestMockProvider_CyclesResponses(t *testing.T) {
	p := NewMockProvider([]string{"first", "second"})
	req := llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	}

	resp1, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp1.Message.Content)

	resp2, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "second", resp2.Message.Content)

	resp3, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "first", resp3.Message.Content)

	assert.Equal(t, 3, p.CallCount())
}

func TestMockProvider_NoResponses(t *testing.T) {
	p := NewMockProvider(nil)
	_, err := p.Complete(context.Background(), llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	})
	assert.Error(t, err)
}

func TestMockProvider_Reset(t *testing.T) {
	p := NewNamedMockProvider("primary", []string{"a", "b"})
	req := llm.CompletionRequest{
		Model:    "mock-model",
		Messages: []llm.Message{llm.NewUserMessage("hi")},
	}

	_, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	p.Reset()

	assert.Equal(t, 0, p.CallCount())
	resp, err := p.Complete(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "a", resp.Message.Content)
	assert.Equal(t, "primary", p.Name())
}

func TestNewOpenAIProvider_RequiresKey(t *testing.T) {
	_, err := NewOpenAIProvider(OpenAIConfig{})
	assert.Error(t, err)

	p, err := NewOpenAIProvider(OpenAIConfig{APIKey: "test-key"})
	require.NoError(t, err)
	assert.Equal(t, "openai", p.Name())

	models, err := p.Models(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, models)
}
