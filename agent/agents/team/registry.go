package team

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	llmx "github.com/tanpawarit/inventory-sms-agent/agent/llm"
	promptx "github.com/tanpawarit/inventory-sms-agent/agent/prompt"
	openrouterx "github.com/tanpawarit/inventory-sms-agent/pkg/openrouter"
)

type registryImpl struct {
	supervisor contractx.Supervisor
	workers    map[contractx.AgentTag]contractx.Worker
	tags       []contractx.AgentTag
}

func (r *registryImpl) Supervisor() contractx.Supervisor {
	return r.supervisor
}

func (r *registryImpl) Worker(tag contractx.AgentTag) (contractx.Worker, error) {
	w, ok := r.workers[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %s", contractx.ErrUnknownAgent, tag)
	}
	return w, nil
}

func (r *registryImpl) Tags() []contractx.AgentTag {
	return append([]contractx.AgentTag(nil), r.tags...)
}

// Models are the chat models each agent runs on.
type Models struct {
	Supervisor einomodel.ToolCallingChatModel
	Inventory  einomodel.ToolCallingChatModel
}

// NewRegistry builds one OpenRouter model per agent, wrapped with retries.
func NewRegistry(ctx context.Context, base openrouterx.Config, cfg llmx.Config, gateway contractx.ToolGateway) (contractx.Registry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	supervisorModelCfg := cfg.OpenRouterFor(base, contractx.AgentNameSupervisor)
	supervisorModel, err := supervisorModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create supervisor model: %v", contractx.ErrModelInvoke, err)
	}
	inventoryModelCfg := cfg.OpenRouterFor(base, string(contractx.AgentTagInventory))
	inventoryModel, err := inventoryModelCfg.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: create inventory model: %v", contractx.ErrModelInvoke, err)
	}

	retry := cfg.Retry()
	return NewRegistryWithModels(ctx, Models{
		Supervisor: llmx.WithRetry(supervisorModel, retry),
		Inventory:  llmx.WithRetry(inventoryModel, retry),
	}, promptx.LoadPromptSet(), gateway, cfg.MaxToolIterations)
}

func NewRegistryWithModels(
	ctx context.Context,
	models Models,
	prompts promptx.PromptSet,
	gateway contractx.ToolGateway,
	maxToolIterations int,
) (contractx.Registry, error) {
	if models.Supervisor == nil || models.Inventory == nil {
		return nil, fmt.Errorf("%w: supervisor and inventory models are required", contractx.ErrValidation)
	}

	supervisor, err := newSupervisor(ctx, models.Supervisor, prompts.Supervisor)
	if err != nil {
		return nil, err
	}

	inventoryPrompt, err := prompts.ForAgent(contractx.AgentTagInventory)
	if err != nil {
		return nil, err
	}
	inventory, err := newWorker(ctx, contractx.AgentTagInventory, models.Inventory, inventoryPrompt, gateway, maxToolIterations)
	if err != nil {
		return nil, err
	}

	return &registryImpl{
		supervisor: supervisor,
		workers: map[contractx.AgentTag]contractx.Worker{
			contractx.AgentTagInventory: inventory,
		},
		tags: []contractx.AgentTag{contractx.AgentTagInventory},
	}, nil
}
