package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// NewClient creates a chat model based on configuration
func NewClient(ctx context.Context, config *Config, apiKey string) (*GeminiClient, error) {
	if config == nil {
		config = DefaultConfig()
	}

	switch config.Provider {
	case ProviderGemini, "":
		return NewGeminiClient(ctx, config, apiKey)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", config.Provider)
	}
}

// GeminiClient implements ChatModel for Google Gemini
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

// Chat sends the conversation and returns the model reply. System messages
// become the system instruction; the last user or tool message is sent and
// everything before it is replayed as history.
func (c *GeminiClient) Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error) {
	modelName := c.config.GetModel(req.Tier)
	if modelName == "" {
		return nil, fmt.Errorf("no model configured for tier %s", req.Tier)
	}

	model := c.client.GenerativeModel(modelName)
	model.SetTemperature(c.config.Temperature)
	if req.JSON {
		model.ResponseMIMEType = "application/json"
	} else if len(req.Tools) > 0 {
		model.Tools = []*genai.Tool{{FunctionDeclarations: toFunctionDeclarations(req.Tools)}}
	}

	system, contents := toContents(req.Messages)
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}
	if len(contents) == 0 {
		return nil, fmt.Errorf("conversation has no user message")
	}
	last := contents[len(contents)-1]
	if last.Role == "model" {
		return nil, fmt.Errorf("conversation must end with a user or tool message")
	}

	cs := model.StartChat()
	cs.History = contents[:len(contents)-1]

	resp, err := cs.SendMessage(ctx, last.Parts...)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	out, err := fromResponse(resp)
	if err != nil {
		return nil, err
	}
	if req.JSON {
		out.Content = CleanJSONBlock(out.Content)
	}
	return out, nil
}

// Close releases resources held by the client
func (c *GeminiClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

// toContents converts messages to Gemini contents, merging consecutive
// messages that map to the same Gemini role.
func toContents(messages []Message) (string, []*genai.Content) {
	var system []string
	var contents []*genai.Content

	appendParts := func(role string, parts ...genai.Part) {
		if len(parts) == 0 {
			return
		}
		if n := len(contents); n > 0 && contents[n-1].Role == role {
			contents[n-1].Parts = append(contents[n-1].Parts, parts...)
			return
		}
		contents = append(contents, &genai.Content{Role: role, Parts: parts})
	}

	for _, m := range messages {
		switch m.Role {
		case RoleSystem:
			if s := strings.TrimSpace(m.Content); s != "" {
				system = append(system, s)
			}
		case RoleUser:
			appendParts("user", genai.Text(m.Content))
		case RoleAssistant:
			var parts []genai.Part
			if m.Content != "" {
				parts = append(parts, genai.Text(m.Content))
			}
			for _, call := range m.ToolCalls {
				parts = append(parts, genai.FunctionCall{Name: call.Name, Args: argsMap(call.Arguments)})
			}
			appendParts("model", parts...)
		case RoleTool:
			appendParts("function", genai.FunctionResponse{Name: m.Name, Response: responseMap(m.Content)})
		}
	}
	return strings.Join(system, "\n\n"), contents
}

func argsMap(arguments string) map[string]any {
	args, _ := ParseOrDefault(arguments, map[string]any{})
	if args == nil {
		args = map[string]any{}
	}
	return args
}

func responseMap(content string) map[string]any {
	if m, ok := ParseOrDefault[map[string]any](content, nil); ok && m != nil {
		return m
	}
	return map[string]any{"result": content}
}

func toFunctionDeclarations(tools []ToolSpec) []*genai.FunctionDeclaration {
	decls := make([]*genai.FunctionDeclaration, 0, len(tools))
	for _, t := range tools {
		decls = append(decls, &genai.FunctionDeclaration{
			Name:        t.Name,
			Description: t.Description,
			Parameters:  toSchema(t.Parameters),
		})
	}
	return decls
}

func toSchema(p *ParamSchema) *genai.Schema {
	if p == nil {
		return nil
	}
	s := &genai.Schema{
		Type:        schemaType(p.Type),
		Description: p.Description,
		Required:    p.Required,
		Enum:        p.Enum,
		Items:       toSchema(p.Items),
	}
	if len(p.Properties) > 0 {
		s.Properties = make(map[string]*genai.Schema, len(p.Properties))
		for name, prop := range p.Properties {
			s.Properties[name] = toSchema(prop)
		}
	}
	return s
}

func schemaType(t string) genai.Type {
	switch t {
	case "object":
		return genai.TypeObject
	case "array":
		return genai.TypeArray
	case "integer":
		return genai.TypeInteger
	case "number":
		return genai.TypeNumber
	case "boolean":
		return genai.TypeBoolean
	default:
		return genai.TypeString
	}
}

// fromResponse extracts text and function calls from the first candidate.
func fromResponse(resp *genai.GenerateContentResponse) (*ChatResponse, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return nil, fmt.Errorf("no candidates in response")
	}

	candidate := resp.Candidates[0]
	out := &ChatResponse{FinishReason: candidate.FinishReason.String()}
	if candidate.Content == nil {
		return out, nil
	}

	var text []string
	for _, part := range candidate.Content.Parts {
		switch p := part.(type) {
		case genai.Text:
			text = append(text, string(p))
		case genai.FunctionCall:
			args, err := json.Marshal(p.Args)
			if err != nil {
				args = []byte("{}")
			}
			out.ToolCalls = append(out.ToolCalls, ToolCall{
				ID:        fmt.Sprintf("call_%d", len(out.ToolCalls)+1),
				Type:      ToolCallTypeFunction,
				Name:      p.Name,
				Arguments: string(args),
			})
		}
	}
	out.Content = strings.Join(text, "")
	return out, nil
}
