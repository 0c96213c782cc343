package contract

import (
	"strings"
	"time"

	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

// AgentTag is the closed set of routing targets the supervisor may emit.
type AgentTag string

const (
	AgentTagNone      AgentTag = "none"
	AgentTagInventory AgentTag = "inventory_agent"

	AgentNameSupervisor = "supervisor"
)

// ParseAgentTag normalizes a model-provided tag. Unknown values report ok=false.
func ParseAgentTag(raw string) (AgentTag, bool) {
	switch tag := AgentTag(strings.ToLower(strings.TrimSpace(raw))); tag {
	case AgentTagNone, AgentTagInventory:
		return tag, true
	default:
		return "", false
	}
}

type RouteRequest struct {
	UserMessage string           `json:"user_message"`
	History     []statex.Message `json:"history"`
	Now         time.Time        `json:"now"`
}

type RouteDecision struct {
	Target AgentTag `json:"route"`
	Reply  string   `json:"reply,omitempty"`
}

type WorkerRequest struct {
	UserMessage string           `json:"user_message"`
	History     []statex.Message `json:"history"`
}

type WorkerResponse struct {
	Message   string        `json:"message"`
	ToolCalls []ToolRequest `json:"tool_calls,omitempty"`
	Steps     int           `json:"steps"`
}

type ToolRequest struct {
	CallID string         `json:"call_id,omitempty"`
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
}

// ToolResult carries either a structured result or an error payload the
// model is expected to explain to the user.
type ToolResult struct {
	CallID string `json:"call_id,omitempty"`
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
	Code   string `json:"code,omitempty"`
}

const (
	ToolCodeNotFound         = "not_found"
	ToolCodeInvalidArguments = "invalid_arguments"
	ToolCodeUnknownTool      = "unknown_tool"
)
