package openai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"brainbox/internal/provider"
)

type completionRequest struct {
	Model    string `json:"model"`
	Messages []struct {
		Role       string `json:"role"`
		Content    string `json:"content"`
		ToolCallID string `json:"tool_call_id"`
	} `json:"messages"`
	Tools []struct {
		Type     string `json:"type"`
		Function struct {
			Name string `json:"name"`
		} `json:"function"`
	} `json:"tools"`
}

func writeCompletion(w http.ResponseWriter, message map[string]any, finish string) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"id":     "cmpl-1",
		"object": "chat.completion",
		"model":  "test-model",
		"choices": []map[string]any{{
			"index":         0,
			"message":       message,
			"finish_reason": finish,
		}},
		"usage": map[string]int{"prompt_tokens": 3, "completion_tokens": 4, "total_tokens": 7},
	})
}

func TestSession_Respond(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/chat/completions", r.URL.Path)

		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "test-model", req.Model)
		require.Len(t, req.Messages, 2)
		assert.Equal(t, "system", req.Messages[0].Role)

		writeCompletion(w, map[string]any{"role": "assistant", "content": "hi there"}, "stop")
	}))
	defer server.Close()

	b := New(Config{BaseURL: server.URL + "/v1", Model: "test-model"})
	s, err := b.NewSession(context.Background(), provider.SessionConfig{Instructions: "sys"})
	require.NoError(t, err)

	out, err := s.Respond(context.Background(), provider.Prompt{Text: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "hi there", out)
}

func TestSession_ToolLoop(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req completionRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))

		if calls.Add(1) == 1 {
			require.Len(t, req.Tools, 1)
			assert.Equal(t, "create_task", req.Tools[0].Function.Name)
			writeCompletion(w, map[string]any{
				"role": "assistant",
				"tool_calls": []map[string]any{{
					"id":   "call_1",
					"type": "function",
					"function": map[string]string{
						"name":      "create_task",
						"arguments": `{"text":"milk"}`,
					},
				}},
			}, "tool_calls")
			return
		}

		last := req.Messages[len(req.Messages)-1]
		assert.Equal(t, "tool", last.Role)
		assert.Equal(t, "call_1", last.ToolCallID)
		writeCompletion(w, map[string]any{"role": "assistant", "content": "Added " + last.Content}, "stop")
	}))
	defer server.Close()

	b := New(Config{BaseURL: server.URL + "/v1", Model: "test-model"})
	s, err := b.NewSession(context.Background(), provider.SessionConfig{
		Tools: []provider.Tool{{Type: "function", Function: provider.ToolFunction{Name: "create_task"}}},
		Invoke: func(ctx context.Context, name string, args json.RawMessage) (string, error) {
			assert.Equal(t, "create_task", name)
			assert.JSONEq(t, `{"text":"milk"}`, string(args))
			return "milk", nil
		},
	})
	require.NoError(t, err)

	out, err := s.Respond(context.Background(), provider.Prompt{Text: "add milk"})
	require.NoError(t, err)
	assert.Equal(t, "Added milk", out)
	assert.Equal(t, int32(2), calls.Load())
}

func TestSession_ContentFilterFinish(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(w, map[string]any{"role": "assistant", "content": ""}, "content_filter")
	}))
	defer server.Close()

	s, err := New(Config{BaseURL: server.URL + "/v1"}).NewSession(context.Background(), provider.SessionConfig{})
	require.NoError(t, err)

	_, err = s.Respond(context.Background(), provider.Prompt{Text: "x"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "content policy")
}

func TestSession_ServerErrorIsCrash(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":{"message":"slot unavailable","type":"server_error"}}`))
	}))
	defer server.Close()

	s, err := New(Config{BaseURL: server.URL + "/v1"}).NewSession(context.Background(), provider.SessionConfig{})
	require.NoError(t, err)

	_, err = s.Respond(context.Background(), provider.Prompt{Text: "x"})
	require.Error(t, err)
	assert.Equal(t, provider.ErrCodeBackendCrashed, provider.CodeOf(err))
	assert.Contains(t, err.Error(), "inference provider crashed")
}

func TestBackend_ModelsAndPing(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/models", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"object":"list","data":[{"id":"phi-4","object":"model"}]}`))
	}))
	defer server.Close()

	b := New(Config{BaseURL: server.URL + "/v1"})
	models, err := b.Models(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"phi-4"}, models)
	assert.NoError(t, b.Ping(context.Background()))
}

func TestBackend_PingUnreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := New(Config{BaseURL: url + "/v1"}).Ping(context.Background())
	require.Error(t, err)
	assert.Equal(t, provider.ErrCodeServiceUnavailable, provider.CodeOf(err))
}

func TestDefaults(t *testing.T) {
	b := New(Config{})
	assert.Equal(t, DefaultModel, b.Model())
	assert.Equal(t, "openai", b.Name())
}
