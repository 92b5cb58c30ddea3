// Package ollama implements the Backend interface for Ollama.
package ollama

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"brainbox/internal/provider"
	"brainbox/pkg/logger"
)

// Name is the backend kind.
const Name = "ollama"

// Error definitions.
var (
	ErrConnectionFailed = errors.New("failed to connect to Ollama server")
	ErrModelNotFound    = errors.New("model not found")
	ErrInvalidResponse  = errors.New("invalid response from Ollama")
	ErrRequestTimeout   = errors.New("request timeout")
)

// crashMarkers are fragments Ollama reports when its runner process dies.
var crashMarkers = []string{
	"runner process has terminated",
	"unexpectedly stopped",
	"llama runner",
	"exit status",
}

// Backend talks to an Ollama server over its HTTP API.
type Backend struct {
	endpoint   string
	model      string
	keepAlive  string
	httpClient *http.Client
}

// New creates a new Ollama backend.
func New(cfg Config) *Backend {
	if cfg.Endpoint == "" {
		cfg.Endpoint = DefaultEndpoint
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}
	if cfg.KeepAlive == "" {
		cfg.KeepAlive = DefaultKeepAlive
	}

	return &Backend{
		endpoint:   strings.TrimRight(cfg.Endpoint, "/"),
		model:      cfg.Model,
		keepAlive:  cfg.KeepAlive,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// Name returns the backend name.
func (b *Backend) Name() string {
	return Name
}

// Model returns the configured model.
func (b *Backend) Model() string {
	return b.model
}

// NewSession opens a session. Ollama is stateless over HTTP, so the session
// keeps the conversation client-side.
func (b *Backend) NewSession(ctx context.Context, cfg provider.SessionConfig) (provider.Session, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session{
		BaseSession: provider.NewBaseSession(cfg),
		backend:     b,
		tools:       convertTools(cfg.Tools),
	}, nil
}

type session struct {
	*provider.BaseSession
	backend *Backend
	tools   []tool
}

// Prewarm loads the model into memory via an empty generate request.
func (s *session) Prewarm(ctx context.Context) error {
	return s.Do(func() error {
		body := generateRequest{Model: s.backend.model, KeepAlive: s.backend.keepAlive}
		resp, err := s.backend.doRequest(ctx, "/api/generate", body)
		if err != nil {
			return s.backend.classifyError(err)
		}
		defer resp.Body.Close()
		data, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK {
			return s.backend.classifyError(s.backend.handleErrorResponse(resp.StatusCode, data))
		}
		return nil
	})
}

// Respond runs the prompt through the tool loop.
func (s *session) Respond(ctx context.Context, prompt provider.Prompt) (string, error) {
	return s.RespondWith(ctx, prompt, func(ctx context.Context, msgs []provider.Message) (*provider.Reply, error) {
		return s.backend.chat(ctx, msgs, s.tools)
	})
}

// chat sends one non-streaming /api/chat request.
func (b *Backend) chat(ctx context.Context, msgs []provider.Message, tools []tool) (*provider.Reply, error) {
	req := b.buildRequest(msgs, tools)

	logger.Debug().Str("model", req.Model).Int("messages", len(req.Messages)).Int("tools", len(req.Tools)).Msg("Ollama chat request")

	resp, err := b.doRequest(ctx, "/api/chat", req)
	if err != nil {
		return nil, b.classifyError(err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, b.classifyError(fmt.Errorf("%w: read response: %v", ErrConnectionFailed, err))
	}

	if resp.StatusCode != http.StatusOK {
		logger.Warn().Int("status", resp.StatusCode).Str("body", string(body)).Msg("Ollama error response")
		return nil, b.classifyError(b.handleErrorResponse(resp.StatusCode, body))
	}

	var out chatResponse
	if err := json.Unmarshal(body, &out); err != nil {
		logger.Error().Err(err).Str("body", string(body)).Msg("Failed to parse Ollama response")
		return nil, b.classifyError(ErrInvalidResponse)
	}
	logger.Debug().
		Int("prompt_tokens", out.PromptEvalCount).
		Int("completion_tokens", out.EvalCount).
		Str("done_reason", out.DoneReason).
		Msg("Ollama chat response")
	return convertResponse(&out), nil
}

// buildRequest converts provider messages to an Ollama request.
func (b *Backend) buildRequest(msgs []provider.Message, tools []tool) *chatRequest {
	req := &chatRequest{
		Model:     b.model,
		Messages:  make([]chatMessage, 0, len(msgs)),
		Tools:     tools,
		KeepAlive: b.keepAlive,
	}

	for _, msg := range msgs {
		m := chatMessage{Role: msg.Role, Content: msg.Content}
		for _, tc := range msg.ToolCalls {
			call := toolCall{ID: tc.ID, Function: toolCallFunction{Name: tc.Name, Arguments: map[string]any{}}}
			if tc.Arguments != "" {
				var args map[string]any
				if err := json.Unmarshal([]byte(tc.Arguments), &args); err == nil {
					call.Function.Arguments = args
				}
			}
			m.ToolCalls = append(m.ToolCalls, call)
		}
		req.Messages = append(req.Messages, m)
	}
	return req
}

func convertTools(in []provider.Tool) []tool {
	if len(in) == 0 {
		return nil
	}
	out := make([]tool, 0, len(in))
	for _, t := range in {
		var params any
		if len(t.Function.Parameters) > 0 {
			params = t.Function.Parameters
		}
		out = append(out, tool{
			Type: "function",
			Function: toolFunction{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// convertResponse maps an Ollama message to a Reply. Ollama omits call ids,
// so positional ones are assigned.
func convertResponse(resp *chatResponse) *provider.Reply {
	result := &provider.Reply{Text: resp.Message.Content}

	for i, tc := range resp.Message.ToolCalls {
		var args string
		if tc.Function.Arguments != nil {
			if data, err := json.Marshal(tc.Function.Arguments); err == nil {
				args = string(data)
			}
		}
		id := tc.ID
		if id == "" {
			id = fmt.Sprintf("call_%d", i)
		}
		result.ToolCalls = append(result.ToolCalls, provider.ToolCall{
			ID:        id,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}
	return result
}

// doRequest sends a POST request to the Ollama API.
func (b *Backend) doRequest(ctx context.Context, path string, body any) (*http.Response, error) {
	data, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.endpoint+path, bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return nil, ctx.Err()
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, ErrRequestTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	return resp, nil
}

// handleErrorResponse converts an error response to an appropriate error.
func (b *Backend) handleErrorResponse(statusCode int, body []byte) error {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err == nil && errResp.Error != "" {
		if statusCode == http.StatusNotFound {
			return fmt.Errorf("%w: %s", ErrModelNotFound, errResp.Error)
		}
		return fmt.Errorf("ollama error: %s", errResp.Error)
	}

	switch statusCode {
	case http.StatusNotFound:
		return ErrModelNotFound
	case http.StatusServiceUnavailable:
		return ErrConnectionFailed
	default:
		return fmt.Errorf("ollama returned status %d: %s", statusCode, string(body))
	}
}

// classifyError converts a generic error to a ProviderError with appropriate code.
// Context errors pass through untouched so callers can tell cancellation apart.
func (b *Backend) classifyError(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return err
	}

	pe := &provider.ProviderError{Provider: Name, Err: err}
	switch {
	case errors.Is(err, ErrConnectionFailed):
		pe.Code = provider.ErrCodeServiceUnavailable
		pe.Message = "underlying connection interrupted: " + err.Error()
		pe.Retryable = true
	case errors.Is(err, ErrModelNotFound):
		pe.Code = provider.ErrCodeModelNotFound
		pe.Message = err.Error() + " (run `ollama pull " + b.model + "`)"
	case errors.Is(err, ErrRequestTimeout):
		pe.Code = provider.ErrCodeTimeout
		pe.Message = "request timeout"
		pe.Retryable = true
	case errors.Is(err, ErrInvalidResponse):
		pe.Code = provider.ErrCodeInvalidRequest
		pe.Message = err.Error()
	case isCrash(err.Error()):
		pe.Code = provider.ErrCodeBackendCrashed
		pe.Message = "inference provider crashed: " + err.Error()
		pe.Retryable = true
	default:
		pe.Code = provider.ErrCodeUnknown
		pe.Message = err.Error()
	}
	return pe
}

func isCrash(msg string) bool {
	msg = strings.ToLower(msg)
	for _, m := range crashMarkers {
		if strings.Contains(msg, m) {
			return true
		}
	}
	return false
}

// Models fetches the list of installed models from Ollama.
func (b *Backend) Models(ctx context.Context) ([]string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, b.endpoint+"/api/tags", nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConnectionFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to fetch models: status %d", resp.StatusCode)
	}

	var models modelsResponse
	if err := json.NewDecoder(resp.Body).Decode(&models); err != nil {
		return nil, fmt.Errorf("failed to decode models response: %w", err)
	}

	names := make([]string, 0, len(models.Models))
	for _, m := range models.Models {
		names = append(names, m.Name)
	}
	return names, nil
}

// Ping checks if the Ollama server is available.
// Implements provider.HealthCheckable interface.
func (b *Backend) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, b.endpoint+"/api/tags", nil)
	if err != nil {
		return provider.NewProviderError(provider.ErrCodeNetworkError, fmt.Sprintf("create request: %v", err), Name, true)
	}

	resp, err := b.httpClient.Do(req)
	if err != nil {
		return &provider.ProviderError{
			Code:      provider.ErrCodeServiceUnavailable,
			Message:   "Ollama is not running or unreachable",
			Provider:  Name,
			Retryable: true,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return provider.NewProviderError(provider.ErrCodeServiceUnavailable,
			fmt.Sprintf("Ollama returned status %d", resp.StatusCode), Name, true)
	}
	return nil
}
