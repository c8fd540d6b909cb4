package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendMessage(t *testing.T) {
	var gotReq MessageRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/v1/messages", r.URL.Path)
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2024-01-01", r.Header.Get("anthropic-version"))
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "msg-1",
			"type": "message",
			"role": "assistant",
			"model": "test-model",
			"stop_reason": "end_turn",
			"content": [{"type": "text", "text": "hello back"}],
			"usage": {"input_tokens": 3, "output_tokens": 2}
		}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL, "2024-01-01")
	resp, err := client.SendMessage(context.Background(), &MessageRequest{
		Model:     "test-model",
		MaxTokens: 128,
		Messages: []Message{
			{Role: "user", Content: []Content{NewTextContent("hello")}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "test-model", gotReq.Model)
	require.Len(t, gotReq.Messages, 1)

	assert.Equal(t, "msg-1", resp.ID)
	assert.Equal(t, "end_turn", resp.StopReason)
	assert.Equal(t, "hello back", resp.FullText())
}

func TestClient_SendMessage_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":{"type":"rate_limit_error","message":"slow down"}}`))
	}))
	defer server.Close()

	client := NewClient("test-key", server.URL)
	_, err := client.SendMessage(context.Background(), &MessageRequest{Model: "test-model"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "slow down")
}
