package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

func SaveConversation(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not loaded", contractx.ErrValidation)
	}
	if err := in.Conversation.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrValidation, err)
	}
	if err := store.Save(ctx, in.Conversation); err != nil {
		return nil, fmt.Errorf("save conversation thread=%s: %w", in.ThreadID, err)
	}
	return in, nil
}
