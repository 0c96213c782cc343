package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

// LoadOrCreateConversation resumes the thread and captures the most recent
// historyLimit messages as model context.
func LoadOrCreateConversation(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	historyLimit int,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	conv, err := statex.GetOrCreate(ctx, store, in.ThreadID, in.Now)
	if err != nil {
		return nil, fmt.Errorf("load conversation thread=%s: %w", in.ThreadID, err)
	}
	in.Conversation = conv
	in.History = conv.Recent(historyLimit)
	return in, nil
}
