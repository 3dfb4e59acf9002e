package llm

import (
	"context"
	"encoding/json"
	"fmt"
)

// Role is the author of a message.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one turn of the conversation sent to the model.
type Message struct {
	Role    Role
	Content string
}

// Tool describes a structured output the model must produce. Schema is a
// JSON Schema object describing the tool input.
type Tool struct {
	Name        string
	Description string
	Schema      map[string]any
}

// Request is a single generation call.
type Request struct {
	System      string
	Messages    []Message
	Temperature float64
	MaxTokens   int
	// Tool, when set, forces structured output matching Tool.Schema.
	Tool *Tool
}

// Response is the result of a generation call. When the request carried a
// Tool and the provider honoured it, ToolInput holds the structured payload;
// Text holds any free-form text.
type Response struct {
	Text         string
	ToolName     string
	ToolInput    json.RawMessage
	StopReason   string
	Model        string
	InputTokens  int
	OutputTokens int
}

// JSON returns the structured payload of the response: the tool input when
// present, otherwise the JSON recovered from the text.
func (r *Response) JSON() (json.RawMessage, error) {
	if len(r.ToolInput) > 0 {
		return r.ToolInput, nil
	}
	raw, ok := ExtractJSON(r.Text)
	if !ok {
		return nil, &Error{Kind: KindMalformedOutput, Message: "response contains no JSON object"}
	}
	return json.RawMessage(raw), nil
}

// Client is an abstraction over LLM providers
type Client interface {
	// Generate runs one generation call with the model of the given tier.
	Generate(ctx context.Context, req *Request, tier ModelTier) (*Response, error)
	// GetModel returns the underlying provider model for a tier
	GetModel(tier ModelTier) string
	// Provider names the backing provider.
	Provider() Provider
	// Close releases any resources held by the client
	Close() error
}

// NewClient creates a new LLM client based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (Client, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderAnthropic:
		return NewAnthropicClient(config, apiKey)
	case ProviderGemini:
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider %q", config.Provider)
	}
}

func validateRequest(req *Request) error {
	if req == nil || len(req.Messages) == 0 {
		return fmt.Errorf("request needs at least one message")
	}
	if req.Tool != nil && (req.Tool.Name == "" || req.Tool.Schema == nil) {
		return fmt.Errorf("tool needs a name and a schema")
	}
	return nil
}

func maxTokens(req *Request) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	return 4096
}
