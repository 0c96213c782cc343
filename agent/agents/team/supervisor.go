package team

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

// CapabilityLimitedReply is sent when the supervisor routes to none without
// a usable reply of its own.
const CapabilityLimitedReply = "Sorry, I can only help with inventory questions for now, like stock levels or what to reorder."

type supervisorImpl struct {
	runner       compose.Runnable[[]*schema.Message, supervisorLLMOutput]
	systemPrompt string
}

type supervisorLLMOutput struct {
	Route string `json:"route"`
	Reply string `json:"reply,omitempty"`
}

func newSupervisor(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*supervisorImpl, error) {
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: supervisor", contractx.ErrPromptMissing)
	}
	runner, err := compileStructuredGraph[supervisorLLMOutput](ctx, chatModel, "supervisor.route_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: compile supervisor graph: %v", contractx.ErrModelInvoke, err)
	}
	return &supervisorImpl{runner: runner, systemPrompt: systemPrompt}, nil
}

func (s *supervisorImpl) Decide(ctx context.Context, req contractx.RouteRequest) (contractx.RouteDecision, error) {
	if strings.TrimSpace(req.UserMessage) == "" {
		return contractx.RouteDecision{}, fmt.Errorf("%w: user message is required", contractx.ErrValidation)
	}

	prompts := []string{s.systemPrompt}
	if !req.Now.IsZero() {
		prompts = append(prompts, "Current date: "+req.Now.Format("2006-01-02"))
	}
	out, err := s.runner.Invoke(ctx, buildMessages(prompts, req.History, req.UserMessage))
	if err != nil {
		return contractx.RouteDecision{}, fmt.Errorf("%w: supervisor invoke: %w", contractx.ErrModelInvoke, err)
	}

	tag, ok := contractx.ParseAgentTag(out.Route)
	if !ok {
		return contractx.RouteDecision{}, fmt.Errorf("%w: unknown route=%q", contractx.ErrSchemaViolation, out.Route)
	}

	decision := contractx.RouteDecision{Target: tag}
	if tag == contractx.AgentTagNone {
		decision.Reply = strings.TrimSpace(out.Reply)
		if decision.Reply == "" {
			decision.Reply = CapabilityLimitedReply
		}
	}

	log.Debug().
		Str("agent", contractx.AgentNameSupervisor).
		Str("route", string(tag)).
		Int("history", len(req.History)).
		Msg("supervisor decided")
	return decision, nil
}
