// Package openai implements the Backend interface for OpenAI-compatible
// servers such as llama.cpp, LM Studio or vLLM running on the device.
package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	goopenai "github.com/sashabaranov/go-openai"

	"brainbox/internal/config"
	"brainbox/internal/provider"
	"brainbox/pkg/logger"
)

// Name is the backend kind.
const Name = "openai"

// Default configuration values.
const (
	DefaultBaseURL = "http://localhost:8080/v1"
	DefaultModel   = "local-model"
	DefaultTimeout = 10 * time.Minute
)

// Config holds OpenAI-compatible backend configuration.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// FromSettings maps the loaded backend section onto a Config.
func FromSettings(cfg config.OpenAIConfig) Config {
	return Config{
		BaseURL: cfg.BaseURL,
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		Timeout: cfg.Timeout,
	}
}

// Register registers the backend factory under "openai".
func Register() {
	provider.Register(Name, func(cfg config.BackendConfig) (provider.Backend, error) {
		return New(FromSettings(cfg.OpenAI)), nil
	})
}

// Backend talks to an OpenAI-compatible chat completions endpoint.
type Backend struct {
	client *goopenai.Client
	model  string
}

// New creates a new backend.
func New(cfg Config) *Backend {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Backend{
		client: goopenai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
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

// NewSession opens a client-side session.
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
	tools   []goopenai.Tool
}

// Prewarm checks the endpoint is reachable. OpenAI-compatible servers load
// the model on start, so there is nothing else to warm.
func (s *session) Prewarm(ctx context.Context) error {
	return s.Do(func() error {
		return s.backend.Ping(ctx)
	})
}

// Respond runs the prompt through the tool loop.
func (s *session) Respond(ctx context.Context, prompt provider.Prompt) (string, error) {
	return s.RespondWith(ctx, prompt, func(ctx context.Context, msgs []provider.Message) (*provider.Reply, error) {
		return s.backend.chat(ctx, msgs, s.tools)
	})
}

func (b *Backend) chat(ctx context.Context, msgs []provider.Message, tools []goopenai.Tool) (*provider.Reply, error) {
	req := goopenai.ChatCompletionRequest{
		Model:    b.model,
		Messages: convertMessages(msgs),
		Tools:    tools,
	}

	logger.Debug().Str("model", req.Model).Int("messages", len(req.Messages)).Int("tools", len(req.Tools)).Msg("OpenAI chat request")

	resp, err := b.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	if len(resp.Choices) == 0 {
		return nil, provider.NewProviderError(provider.ErrCodeInvalidRequest, "no choices returned", Name, false)
	}

	choice := resp.Choices[0]
	if choice.FinishReason == goopenai.FinishReasonContentFilter {
		return nil, provider.NewProviderError(provider.ErrCodeInvalidRequest,
			"content policy: response blocked by the server's filter", Name, true)
	}

	logger.Debug().
		Int("prompt_tokens", resp.Usage.PromptTokens).
		Int("completion_tokens", resp.Usage.CompletionTokens).
		Str("finish_reason", string(choice.FinishReason)).
		Msg("OpenAI chat response")

	out := &provider.Reply{Text: choice.Message.Content}
	for _, tc := range choice.Message.ToolCalls {
		out.ToolCalls = append(out.ToolCalls, provider.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: tc.Function.Arguments,
		})
	}
	return out, nil
}

func convertMessages(msgs []provider.Message) []goopenai.ChatCompletionMessage {
	out := make([]goopenai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		msg := goopenai.ChatCompletionMessage{
			Role:       m.Role,
			Content:    m.Content,
			ToolCallID: m.ToolCallID,
		}
		for _, tc := range m.ToolCalls {
			msg.ToolCalls = append(msg.ToolCalls, goopenai.ToolCall{
				ID:   tc.ID,
				Type: goopenai.ToolTypeFunction,
				Function: goopenai.FunctionCall{
					Name:      tc.Name,
					Arguments: tc.Arguments,
				},
			})
		}
		out = append(out, msg)
	}
	return out
}

func convertTools(in []provider.Tool) []goopenai.Tool {
	if len(in) == 0 {
		return nil
	}
	out := make([]goopenai.Tool, 0, len(in))
	for _, t := range in {
		var params any = json.RawMessage(`{"type":"object","properties":{}}`)
		if len(t.Function.Parameters) > 0 {
			params = t.Function.Parameters
		}
		out = append(out, goopenai.Tool{
			Type: goopenai.ToolTypeFunction,
			Function: &goopenai.FunctionDefinition{
				Name:        t.Function.Name,
				Description: t.Function.Description,
				Parameters:  params,
			},
		})
	}
	return out
}

// classifyError maps go-openai errors onto provider error codes.
func classifyError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.Canceled) {
		return ctx.Err()
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return &provider.ProviderError{Code: provider.ErrCodeTimeout, Message: "request timeout", Provider: Name, Retryable: true, Err: err}
	}

	status := 0
	var apiErr *goopenai.APIError
	var reqErr *goopenai.RequestError
	switch {
	case errors.As(err, &apiErr):
		status = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		status = reqErr.HTTPStatusCode
	}

	pe := &provider.ProviderError{Provider: Name, Message: err.Error(), Err: err}
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		pe.Code = provider.ErrCodeAuthFailed
	case status == http.StatusNotFound:
		pe.Code = provider.ErrCodeModelNotFound
	case status == http.StatusTooManyRequests:
		pe.Code = provider.ErrCodeRateLimited
		pe.Retryable = true
	case status >= 500:
		pe.Code = provider.ErrCodeBackendCrashed
		pe.Message = "inference provider crashed: " + err.Error()
		pe.Retryable = true
	case status == 0:
		pe.Code = provider.ErrCodeNetworkError
		pe.Message = "underlying connection interrupted: " + err.Error()
		pe.Retryable = true
	default:
		pe.Code = provider.ErrCodeInvalidRequest
	}
	return pe
}

// Models lists the models the server exposes.
func (b *Backend) Models(ctx context.Context) ([]string, error) {
	list, err := b.client.ListModels(ctx)
	if err != nil {
		return nil, classifyError(ctx, err)
	}
	names := make([]string, 0, len(list.Models))
	for _, m := range list.Models {
		names = append(names, m.ID)
	}
	return names, nil
}

// Ping checks the server answers /models.
// Implements provider.HealthCheckable interface.
func (b *Backend) Ping(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	if _, err := b.client.ListModels(checkCtx); err != nil {
		return &provider.ProviderError{
			Code:      provider.ErrCodeServiceUnavailable,
			Message:   fmt.Sprintf("OpenAI-compatible server unreachable: %v", err),
			Provider:  Name,
			Retryable: true,
			Err:       err,
		}
	}
	return nil
}
