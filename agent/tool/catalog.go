package tool

import (
	"context"
	"errors"
	"fmt"

	"github.com/cloudwego/eino/schema"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

type Executor func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error)

func BuildForAgent(agent contractx.AgentTag, inv *Inventory) ([]*schema.ToolInfo, Executor) {
	return InfosForAgent(agent), NewExecutor(agent, inv)
}

// NewExecutor runs the tools allowed for agent. Bad arguments, unknown
// products and unknown tools come back as error payloads; only context and
// store failures are returned as Go errors.
func NewExecutor(agent contractx.AgentTag, inv *Inventory) Executor {
	fallback := DefaultExecutor(agent)
	if agent != contractx.AgentTagInventory || inv == nil {
		return fallback
	}
	return func(ctx context.Context, tool string, args map[string]any) (contractx.ToolResult, error) {
		var (
			result any
			err    error
		)
		switch tool {
		case ToolInventoryStatus:
			if _, err = decodeArgs[StatusArgs](tool, args); err == nil {
				result, err = inv.Status(ctx)
			}
		case ToolProductDetails:
			var in ProductDetailsArgs
			if in, err = decodeArgs[ProductDetailsArgs](tool, args); err == nil {
				result, err = inv.ProductDetails(ctx, in)
			}
		case ToolReorderRecommendations:
			if _, err = decodeArgs[ReorderArgs](tool, args); err == nil {
				result, err = inv.ReorderRecommendations(ctx)
			}
		default:
			return fallback(ctx, tool, args)
		}
		return toResult(tool, result, err)
	}
}

func DefaultExecutor(agent contractx.AgentTag) Executor {
	return func(ctx context.Context, tool string, _ map[string]any) (contractx.ToolResult, error) {
		return contractx.ToolResult{
			Tool:  tool,
			Error: fmt.Sprintf("tool=%s is unavailable for agent=%s", tool, agent),
			Code:  contractx.ToolCodeUnknownTool,
		}, nil
	}
}

func toResult(tool string, result any, err error) (contractx.ToolResult, error) {
	switch {
	case err == nil:
		return contractx.ToolResult{Tool: tool, Result: result}, nil
	case errors.Is(err, contractx.ErrValidation):
		return contractx.ToolResult{Tool: tool, Error: err.Error(), Code: contractx.ToolCodeInvalidArguments}, nil
	case errors.Is(err, contractx.ErrNotFound):
		return contractx.ToolResult{Tool: tool, Error: "Product not found", Code: contractx.ToolCodeNotFound}, nil
	default:
		return contractx.ToolResult{Tool: tool}, err
	}
}

// InfosForAgent returns the tool descriptors the model may call. Parameters
// are derived from the argument structs in schema.go.
func InfosForAgent(agent contractx.AgentTag) []*schema.ToolInfo {
	switch agent {
	case contractx.AgentTagInventory:
		return []*schema.ToolInfo{
			{
				Name:        ToolInventoryStatus,
				Desc:        "Get current inventory status for all products including stock levels, alerts, and warehouse utilization.",
				ParamsOneOf: mustParams(ToolInventoryStatus),
			},
			{
				Name:        ToolProductDetails,
				Desc:        "Get detailed information about a specific product by ID or name including stock levels, sales trends, and reorder recommendations.",
				ParamsOneOf: mustParams(ToolProductDetails),
			},
			{
				Name:        ToolReorderRecommendations,
				Desc:        "Get recommendations for which products need to be reordered, suggested quantities, and budget implications.",
				ParamsOneOf: mustParams(ToolReorderRecommendations),
			},
		}
	default:
		return nil
	}
}

// Allowed reports whether tool is in agent's allow-list.
func Allowed(agent contractx.AgentTag, tool string) bool {
	for _, info := range InfosForAgent(agent) {
		if info.Name == tool {
			return true
		}
	}
	return false
}
