package ollama

// chatRequest represents an Ollama chat request.
type chatRequest struct {
	Model     string        `json:"model"`
	Messages  []chatMessage `json:"messages"`
	Stream    bool          `json:"stream"`
	Tools     []tool        `json:"tools,omitempty"`
	KeepAlive string        `json:"keep_alive,omitempty"`
}

// generateRequest loads a model without producing output when Prompt is empty.
type generateRequest struct {
	Model     string `json:"model"`
	KeepAlive string `json:"keep_alive,omitempty"`
	Stream    bool   `json:"stream"`
}

// chatMessage represents a message in Ollama format.
type chatMessage struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []toolCall `json:"tool_calls,omitempty"`
}

// tool represents a tool definition in Ollama format.
type tool struct {
	Type     string       `json:"type"`
	Function toolFunction `json:"function"`
}

// toolFunction represents a function tool definition.
type toolFunction struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Parameters  any    `json:"parameters,omitempty"`
}

// toolCall represents a tool call in Ollama format.
type toolCall struct {
	ID       string           `json:"id,omitempty"`
	Function toolCallFunction `json:"function"`
}

type toolCallFunction struct {
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments"` // Ollama expects JSON object, not string
}

// chatResponse represents an Ollama chat response.
type chatResponse struct {
	Model           string      `json:"model"`
	Message         chatMessage `json:"message"`
	Done            bool        `json:"done"`
	DoneReason      string      `json:"done_reason,omitempty"`
	PromptEvalCount int         `json:"prompt_eval_count,omitempty"`
	EvalCount       int         `json:"eval_count,omitempty"`
}

// modelsResponse represents the response from /api/tags.
type modelsResponse struct {
	Models []modelInfo `json:"models"`
}

type modelInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// errorResponse represents an error response from Ollama.
type errorResponse struct {
	Error string `json:"error"`
}
