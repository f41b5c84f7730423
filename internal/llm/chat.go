package llm

import "context"

// Role is the author of a chat message.
type Role string

// Message roles.
const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCallTypeFunction is the only tool call type the agent dispatches.
const ToolCallTypeFunction = "function"

// Message is one entry of a chat conversation.
type Message struct {
	Role    Role
	Content string
	// ToolCalls are set on assistant messages that requested tools.
	ToolCalls []ToolCall
	// ToolCallID and Name identify the call a tool message answers.
	ToolCallID string
	Name       string
}

// ToolCall is a tool invocation requested by the model. Arguments is the raw
// JSON text produced by the model and may be malformed.
type ToolCall struct {
	ID        string
	Type      string
	Name      string
	Arguments string
}

// ParamSchema is the JSON-schema subset used to describe tool parameters.
type ParamSchema struct {
	Type        string
	Description string
	Properties  map[string]*ParamSchema
	Required    []string
	Items       *ParamSchema
	Enum        []string
}

// ToolSpec declares a tool the model may call.
type ToolSpec struct {
	Name        string
	Description string
	Parameters  *ParamSchema
}

// ChatRequest is one completion request.
type ChatRequest struct {
	Messages []Message
	Tools    []ToolSpec
	Tier     ModelTier
	// JSON asks for a JSON document as the reply; tools are not offered.
	JSON bool
}

// ChatResponse is the model's reply.
type ChatResponse struct {
	Content      string
	ToolCalls    []ToolCall
	FinishReason string
}

// ChatModel is a chat-completion backend with tool calling.
type ChatModel interface {
	Chat(ctx context.Context, req ChatRequest) (*ChatResponse, error)
}
