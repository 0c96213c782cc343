package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

// DispatchWorker forwards the turn to the routed worker. A none route keeps
// the supervisor's own capability-limited reply.
func DispatchWorker(ctx context.Context, in *GraphState, registry contractx.Registry) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Decision.Target == contractx.AgentTagNone {
		in.Reply = strings.TrimSpace(in.Decision.Reply)
		in.ReplyRole = statex.RoleSupervisor
		in.ReplyAgent = contractx.AgentNameSupervisor
		return in, nil
	}

	worker, err := registry.Worker(in.Decision.Target)
	if err != nil {
		return nil, err
	}
	resp, err := worker.Run(ctx, contractx.WorkerRequest{
		UserMessage: in.Text,
		History:     in.History,
	})
	if err != nil {
		return nil, err
	}

	in.Worker = resp
	in.Reply = strings.TrimSpace(resp.Message)
	in.ReplyRole = statex.RoleWorker
	in.ReplyAgent = string(in.Decision.Target)
	return in, nil
}
