package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	reply := strings.TrimSpace(in.Reply)
	if reply == "" {
		return GraphOutput{}, fmt.Errorf("%w: agent returned empty message", contractx.ErrValidation)
	}
	return GraphOutput{
		Reply: reply,
		Route: in.Decision.Target,
		Steps: in.Worker.Steps,
	}, nil
}
