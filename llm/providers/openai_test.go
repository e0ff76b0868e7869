package providers

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/clausecheck/llm"
)

func TestOpenAIProvider_BuildURL(t *testing.T) {
	p := &OpenAIProvider{}

	tests := []struct {
		name    string
		baseURL string
		want    string
	}{
		{
			name:    "empty uses default",
			baseURL: "",
			want:    "https://api.openai.com/v1/chat/completions",
		},
		{
			name:    "local server",
			baseURL: "http://localhost:11434/v1",
			want:    "http://localhost:11434/v1/chat/completions",
		},
		{
			name:    "already complete",
			baseURL: "http://localhost:11434/v1/chat/completions",
			want:    "http://localhost:11434/v1/chat/completions",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, p.BuildURL(tt.baseURL))
		})
	}
}

func TestOpenAIProvider_BuildRequestBody(t *testing.T) {
	p := &OpenAIProvider{}

	temp := 0.1
	messages := []llm.Message{
		{Role: "system", Content: "You are a contract reviewer."},
		{Role: "user", Content: "Review clause 1."},
	}

	body, err := p.BuildRequestBody("gpt-4o", messages, &temp, 0)
	require.NoError(t, err)

	var req map[string]any
	require.NoError(t, json.Unmarshal(body, &req))

	assert.Equal(t, "gpt-4o", req["model"])
	assert.Equal(t, 0.1, req["temperature"])
	assert.NotContains(t, req, "max_tokens")

	msgs, ok := req["messages"].([]any)
	require.True(t, ok)
	require.Len(t, msgs, 2, "system message stays in the message list")
}

func TestOpenAIProvider_ParseResponse(t *testing.T) {
	p := &OpenAIProvider{}

	body := []byte(`{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"model": "gpt-4o",
		"choices": [{"index": 0, "message": {"role": "assistant", "content": "[]"}, "finish_reason": "stop"}],
		"usage": {"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120}
	}`)

	resp, err := p.ParseResponse(body, "gpt-4o")
	require.NoError(t, err)

	assert.Equal(t, "[]", resp.Content)
	assert.Equal(t, 100, resp.Usage.PromptTokens)
	assert.Equal(t, 20, resp.Usage.CompletionTokens)
	assert.Equal(t, "stop", resp.FinishReason)
}

func TestOpenAIProvider_ParseResponse_NoChoices(t *testing.T) {
	p := &OpenAIProvider{}

	_, err := p.ParseResponse([]byte(`{"choices": []}`), "gpt-4o")
	require.Error(t, err)
}
