package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

func RouteSupervisor(ctx context.Context, in *GraphState, supervisor contractx.Supervisor) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if supervisor == nil {
		return nil, fmt.Errorf("%w: supervisor is not configured", contractx.ErrUnknownAgent)
	}

	decision, err := supervisor.Decide(ctx, contractx.RouteRequest{
		UserMessage: in.Text,
		History:     in.History,
		Now:         in.Now,
	})
	if err != nil {
		return nil, err
	}
	in.Decision = decision
	return in, nil
}
