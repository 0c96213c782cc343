package team

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	toolx "github.com/tanpawarit/inventory-sms-agent/agent/tool"
)

const DefaultMaxToolIterations = 5

// workerImpl drives one turn as a bounded loop: the model either answers or
// asks for tools, tool results are fed back, and the loop stops after
// maxToolIterations tool rounds.
type workerImpl struct {
	tag               contractx.AgentTag
	systemPrompt      string
	step              compose.Runnable[[]*schema.Message, *schema.Message]
	gateway           contractx.ToolGateway
	allowedTools      map[string]struct{}
	maxToolIterations int
}

func newWorker(
	ctx context.Context,
	tag contractx.AgentTag,
	chatModel einomodel.ToolCallingChatModel,
	systemPrompt string,
	gateway contractx.ToolGateway,
	maxToolIterations int,
) (*workerImpl, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, tag)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: tool gateway is required for agent=%s", contractx.ErrValidation, tag)
	}
	if maxToolIterations < 1 {
		maxToolIterations = DefaultMaxToolIterations
	}

	tools := toolx.InfosForAgent(tag)
	toolModel, err := chatModel.WithTools(tools)
	if err != nil {
		return nil, fmt.Errorf("%w: bind tools for agent=%s: %v", contractx.ErrModelInvoke, tag, err)
	}
	step, err := compileStepGraph(ctx, toolModel, string(tag)+".step_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile worker graph: %v", contractx.ErrModelInvoke, err)
	}

	allowedTools := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		if t == nil || strings.TrimSpace(t.Name) == "" {
			continue
		}
		allowedTools[t.Name] = struct{}{}
	}

	return &workerImpl{
		tag:               tag,
		systemPrompt:      systemPrompt,
		step:              step,
		gateway:           gateway,
		allowedTools:      allowedTools,
		maxToolIterations: maxToolIterations,
	}, nil
}

func (w *workerImpl) Run(ctx context.Context, req contractx.WorkerRequest) (contractx.WorkerResponse, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.WorkerResponse{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	msgs := buildMessages([]string{w.systemPrompt}, req.History, req.UserMessage)
	var called []contractx.ToolRequest

	for step, toolRounds := 1, 0; ; step++ {
		msg, err := w.step.Invoke(ctx, msgs)
		if err != nil {
			return contractx.WorkerResponse{}, fmt.Errorf("%w: agent=%s step=%d: %w", contractx.ErrModelInvoke, w.tag, step, err)
		}
		if msg == nil {
			return contractx.WorkerResponse{}, fmt.Errorf("%w: agent=%s returned no message", contractx.ErrSchemaViolation, w.tag)
		}

		if len(msg.ToolCalls) == 0 {
			content := strings.TrimSpace(msg.Content)
			if content == "" {
				return contractx.WorkerResponse{}, fmt.Errorf("%w: agent=%s returned an empty answer", contractx.ErrSchemaViolation, w.tag)
			}
			return contractx.WorkerResponse{
				Message:   content,
				ToolCalls: called,
				Steps:     step,
			}, nil
		}

		if toolRounds >= w.maxToolIterations {
			log.Warn().
				Str("agent", string(w.tag)).
				Int("iteration", toolRounds).
				Msg("tool iteration limit reached")
			return contractx.WorkerResponse{}, fmt.Errorf("%w: agent=%s limit=%d", contractx.ErrMaxToolIterations, w.tag, w.maxToolIterations)
		}
		toolRounds++

		toolMsgs, reqs, err := w.runTools(ctx, msg.ToolCalls, toolRounds)
		if err != nil {
			return contractx.WorkerResponse{}, err
		}
		called = append(called, reqs...)

		assistant := schema.AssistantMessage(msg.Content, withCallIDs(msg.ToolCalls, toolRounds))
		msgs = append(msgs, assistant)
		msgs = append(msgs, toolMsgs...)
	}
}

// runTools answers every tool call of one model step in call order. Calls
// with malformed arguments or outside the allow-list get an error message
// instead of being executed.
func (w *workerImpl) runTools(ctx context.Context, calls []schema.ToolCall, round int) ([]*schema.Message, []contractx.ToolRequest, error) {
	calls = withCallIDs(calls, round)
	results := make([]contractx.ToolResult, len(calls))
	pending := make([]contractx.ToolRequest, 0, len(calls))
	pendingIdx := make([]int, 0, len(calls))

	for i, call := range calls {
		name := strings.TrimSpace(call.Function.Name)
		if _, ok := w.allowedTools[name]; !ok {
			results[i] = contractx.ToolResult{
				CallID: call.ID,
				Tool:   name,
				Error:  fmt.Sprintf("tool=%s is not available", name),
				Code:   contractx.ToolCodeUnknownTool,
			}
			continue
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				results[i] = contractx.ToolResult{
					CallID: call.ID,
					Tool:   name,
					Error:  fmt.Sprintf("arguments are not a JSON object: %v", err),
					Code:   contractx.ToolCodeInvalidArguments,
				}
				continue
			}
		}
		pending = append(pending, contractx.ToolRequest{CallID: call.ID, Tool: name, Args: args})
		pendingIdx = append(pendingIdx, i)
	}

	if len(pending) > 0 {
		executed, err := w.gateway.Execute(ctx, w.tag, pending)
		if err != nil {
			return nil, nil, fmt.Errorf("agent=%s tools: %w", w.tag, err)
		}
		if len(executed) != len(pending) {
			return nil, nil, fmt.Errorf("%w: gateway returned %d results for %d calls", contractx.ErrSchemaViolation, len(executed), len(pending))
		}
		for j, res := range executed {
			results[pendingIdx[j]] = res
		}
	}

	msgs := make([]*schema.Message, 0, len(results))
	for _, res := range results {
		payload, err := json.Marshal(res)
		if err != nil {
			return nil, nil, fmt.Errorf("encode tool result tool=%s: %w", res.Tool, err)
		}
		msgs = append(msgs, schema.ToolMessage(string(payload), res.CallID))

		log.Debug().
			Str("agent", string(w.tag)).
			Str("tool", res.Tool).
			Int("iteration", round).
			Bool("failed", res.Error != "").
			Msg("tool call answered")
	}
	return msgs, pending, nil
}

// withCallIDs fills in ids for models that omit them so tool messages can
// still be paired with their calls.
func withCallIDs(calls []schema.ToolCall, round int) []schema.ToolCall {
	out := make([]schema.ToolCall, len(calls))
	for i, call := range calls {
		if strings.TrimSpace(call.ID) == "" {
			call.ID = fmt.Sprintf("call_%d_%d", round, i+1)
		}
		if call.Type == "" {
			call.Type = "function"
		}
		out[i] = call
	}
	return out
}
