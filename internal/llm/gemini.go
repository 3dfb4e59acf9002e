package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient implements Client for Google Gemini
type GeminiClient struct {
	client *genai.Client
	config *Config
}

// NewGeminiClient creates a new Gemini client
func NewGeminiClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("API key is required")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	return &GeminiClient{
		client: client,
		config: config,
	}, nil
}

// Generate runs one chat turn. With a Tool the model answers in JSON mode
// constrained by the tool schema and the text is returned as ToolInput.
func (c *GeminiClient) Generate(ctx context.Context, req *Request, tier ModelTier) (*Response, error) {
	if err := validateRequest(req); err != nil {
		return nil, err
	}
	modelName := c.config.GetModel(tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", tier)
	}

	ctx, cancel := context.WithTimeout(ctx, c.config.timeout())
	defer cancel()

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(float32(req.Temperature))
	model.SetMaxOutputTokens(int32(maxTokens(req)))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.Tool != nil {
		model.ResponseMIMEType = "application/json"
		model.ResponseSchema = GeminiSchema(req.Tool.Schema)
	}

	history, last := splitHistory(req.Messages)
	chat := model.StartChat()
	chat.History = history

	resp, err := chat.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return nil, classify(ProviderGemini, err)
	}

	text, err := extractTextFromResponse(resp)
	if err != nil {
		return nil, MalformedOutput(ProviderGemini, "%v", err)
	}

	out := &Response{
		Text:  text,
		Model: modelName,
	}
	if len(resp.Candidates) > 0 {
		out.StopReason = resp.Candidates[0].FinishReason.String()
	}
	if resp.UsageMetadata != nil {
		out.InputTokens = int(resp.UsageMetadata.PromptTokenCount)
		out.OutputTokens = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	if req.Tool != nil {
		raw, ok := ExtractJSON(text)
		if !ok {
			return nil, MalformedOutput(ProviderGemini, "response for %s is not a JSON object", req.Tool.Name)
		}
		out.ToolName = req.Tool.Name
		out.ToolInput = []byte(raw)
	}
	return out, nil
}

// GetModel returns the model name for a tier
func (c *GeminiClient) GetModel(tier ModelTier) string {
	return c.config.GetModel(tier)
}

// Provider returns ProviderGemini.
func (c *GeminiClient) Provider() Provider {
	return ProviderGemini
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// splitHistory separates the final message, which is sent, from the
// preceding turns, which become chat history.
func splitHistory(messages []Message) ([]*genai.Content, Message) {
	last := messages[len(messages)-1]
	history := make([]*genai.Content, 0, len(messages)-1)
	for _, m := range messages[:len(messages)-1] {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		history = append(history, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return history, last
}

// extractTextFromResponse extracts text from Gemini API response
func extractTextFromResponse(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 {
		return "", fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", fmt.Errorf("no content in response")
	}

	var parts []string
	for _, part := range candidate.Content.Parts {
		if text, ok := part.(genai.Text); ok {
			parts = append(parts, string(text))
		}
	}

	if len(parts) == 0 {
		return "", fmt.Errorf("no text parts in response")
	}

	return strings.Join(parts, ""), nil
}

// GeminiSchema converts a JSON Schema document into the subset Gemini's
// response schema understands. Local "$ref"s into "$defs" are inlined.
func GeminiSchema(doc map[string]any) *genai.Schema {
	defs, _ := doc["$defs"].(map[string]any)
	return convertSchema(doc, defs, 0)
}

func convertSchema(node map[string]any, defs map[string]any, depth int) *genai.Schema {
	if node == nil || depth > 16 {
		return nil
	}
	if ref, ok := node["$ref"].(string); ok {
		name := strings.TrimPrefix(ref, "#/$defs/")
		target, _ := defs[name].(map[string]any)
		return convertSchema(target, defs, depth+1)
	}

	s := &genai.Schema{}
	if d, ok := node["description"].(string); ok {
		s.Description = d
	}
	if f, ok := node["format"].(string); ok && (f == "date-time" || f == "enum") {
		s.Format = f
	}

	switch t := node["type"].(type) {
	case string:
		s.Type = geminiType(t)
	case []any:
		for _, v := range t {
			name, _ := v.(string)
			if name == "null" {
				s.Nullable = true
			} else if s.Type == genai.TypeUnspecified {
				s.Type = geminiType(name)
			}
		}
	}

	for _, v := range asSlice(node["enum"]) {
		if str, ok := v.(string); ok {
			s.Enum = append(s.Enum, str)
		}
	}
	if len(s.Enum) > 0 && s.Type == genai.TypeString {
		s.Format = "enum"
	}

	if props, ok := node["properties"].(map[string]any); ok {
		s.Properties = make(map[string]*genai.Schema, len(props))
		for name, p := range props {
			if child, ok := p.(map[string]any); ok {
				s.Properties[name] = convertSchema(child, defs, depth+1)
			}
		}
	}
	for _, v := range asSlice(node["required"]) {
		if str, ok := v.(string); ok {
			s.Required = append(s.Required, str)
		}
	}
	if items, ok := node["items"].(map[string]any); ok {
		s.Items = convertSchema(items, defs, depth+1)
	}
	return s
}

func geminiType(name string) genai.Type {
	switch name {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "string":
		return genai.TypeString
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeUnspecified
	}
}

func asSlice(v any) []any {
	switch t := v.(type) {
	case []any:
		return t
	case []string:
		out := make([]any, len(t))
		for i, s := range t {
			out[i] = s
		}
		return out
	default:
		return nil
	}
}
