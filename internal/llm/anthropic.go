package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
)

// AnthropicClient implements Client for Anthropic Claude
type AnthropicClient struct {
	client *anthropic.Client
	config *Config
}

// NewAnthropicClient creates a new Claude client
func NewAnthropicClient(config *Config, apiKey string, opts ...option.RequestOption) (*AnthropicClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	// a single attempt; failures are reported to the caller as-is
	reqOpts := append([]option.RequestOption{option.WithAPIKey(apiKey), option.WithMaxRetries(0)}, opts...)
	client := anthropic.NewClient(reqOpts...)

	return &AnthropicClient{
		client: &client,
		config: config,
	}, nil
}

// Generate sends one Messages request. With a Tool the model is forced to
// call it and the tool_use input is returned as ToolInput.
func (c *AnthropicClient) Generate(ctx context.Context, req *Request, tier ModelTier) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.timeout())
	defer cancel()

	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(modelName),
		MaxTokens:   int64(maxTokens(req)),
		Messages:    toAnthropicMessages(req.Messages),
		Temperature: anthropic.Float(req.Temperature),
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Tool != nil {
		params.Tools = []anthropic.ToolUnionParam{{OfTool: toAnthropicTool(req.Tool)}}
		params.ToolChoice = anthropic.ToolChoiceUnionParam{
			OfTool: &anthropic.ToolChoiceToolParam{Name: req.Tool.Name},
		}
	}

	msg, err := c.client.Messages.New(ctx, params)
	if err != nil {
		return nil, classify(ProviderAnthropic, err)
	}
	return fromAnthropicMessage(msg), nil
}

// GetModel returns the model name for a tier
func (c *AnthropicClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Provider returns ProviderAnthropic.
func (c *AnthropicClient) Provider() Provider {
	return ProviderAnthropic
}

// Close is a no-op; the HTTP client holds no dedicated resources.
func (c *AnthropicClient) Close() error {
	return nil
}

func toAnthropicMessages(messages []Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(messages))
	for _, m := range messages {
		block := anthropic.NewTextBlock(m.Content)
		if m.Role == RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(block))
		} else {
			out = append(out, anthropic.NewUserMessage(block))
		}
	}
	return out
}

func toAnthropicTool(t *Tool) *anthropic.ToolParam {
	schema := anthropic.ToolInputSchemaParam{
		Properties: t.Schema["properties"],
	}
	if req, ok := t.Schema["required"].([]any); ok {
		for _, r := range req {
			if s, ok := r.(string); ok {
				schema.Required = append(schema.Required, s)
			}
		}
	} else if req, ok := t.Schema["required"].([]string); ok {
		schema.Required = req
	}
	if defs, ok := t.Schema["$defs"]; ok {
		schema.ExtraFields = map[string]any{"$defs": defs}
	}

	tool := &anthropic.ToolParam{
		Name:        t.Name,
		InputSchema: schema,
	}
	if t.Description != "" {
		tool.Description = anthropic.String(t.Description)
	}
	return tool
}

func fromAnthropicMessage(msg *anthropic.Message) *Response {
	resp := &Response{
		StopReason:   string(msg.StopReason),
		Model:        string(msg.Model),
		InputTokens:  int(msg.Usage.InputTokens),
		OutputTokens: int(msg.Usage.OutputTokens),
	}

	var text []string
	for _, block := range msg.Content {
		switch block.Type {
		case "text":
			text = append(text, block.Text)
		case "tool_use":
			if resp.ToolInput == nil {
				resp.ToolName = block.Name
				resp.ToolInput = json.RawMessage(block.Input)
			}
		}
	}
	resp.Text = strings.Join(text, "")
	return resp
}
