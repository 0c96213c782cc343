package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

// Gateway dispatches tool requests to the executor registered for an agent.
type Gateway struct {
	executors map[contractx.AgentTag]Executor
}

var _ contractx.ToolGateway = (*Gateway)(nil)

func NewGateway(executors map[contractx.AgentTag]Executor) *Gateway {
	copied := make(map[contractx.AgentTag]Executor, len(executors))
	for tag, exec := range executors {
		if exec != nil {
			copied[tag] = exec
		}
	}
	return &Gateway{executors: copied}
}

// NewInventoryGateway wires the inventory worker's executor.
func NewInventoryGateway(inv *Inventory) *Gateway {
	return NewGateway(map[contractx.AgentTag]Executor{
		contractx.AgentTagInventory: NewExecutor(contractx.AgentTagInventory, inv),
	})
}

// Execute runs requests in order. Tools outside the agent's allow-list are
// answered with an error payload and never executed.
func (g *Gateway) Execute(ctx context.Context, agent contractx.AgentTag, reqs []contractx.ToolRequest) ([]contractx.ToolResult, error) {
	exec, ok := g.executors[agent]
	if !ok {
		return nil, fmt.Errorf("%w: no tool executor for agent=%s", contractx.ErrUnknownAgent, agent)
	}

	results := make([]contractx.ToolResult, 0, len(reqs))
	for _, req := range reqs {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		var (
			res contractx.ToolResult
			err error
		)
		start := time.Now()
		if Allowed(agent, req.Tool) {
			res, err = exec(ctx, req.Tool, req.Args)
		} else {
			res, err = DefaultExecutor(agent)(ctx, req.Tool, req.Args)
		}
		if err != nil {
			log.Error().Err(err).
				Str("agent", string(agent)).
				Str("tool", req.Tool).
				Msg("tool execution failed")
			return results, fmt.Errorf("execute tool=%s: %w", req.Tool, err)
		}
		res.CallID = req.CallID
		res.Tool = req.Tool

		log.Debug().
			Str("agent", string(agent)).
			Str("tool", req.Tool).
			Str("code", res.Code).
			Dur("elapsed", time.Since(start)).
			Msg("tool executed")
		results = append(results, res)
	}
	return results, nil
}
