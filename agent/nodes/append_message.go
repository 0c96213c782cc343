package orchestratornode

import (
	"fmt"
	"time"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

func AppendUserMessage(in *GraphState) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not loaded", contractx.ErrValidation)
	}
	if err := in.Conversation.Append(statex.Message{
		Role:      statex.RoleHuman,
		Content:   in.Text,
		CreatedAt: in.Now,
	}); err != nil {
		return nil, fmt.Errorf("append user message: %w", err)
	}
	return in, nil
}

// AppendAgentReply records the reply under the role of whoever produced it.
func AppendAgentReply(in *GraphState, now time.Time) (*GraphState, error) {
	if in == nil || in.Conversation == nil {
		return nil, fmt.Errorf("%w: conversation is not loaded", contractx.ErrValidation)
	}
	if err := in.Conversation.Append(statex.Message{
		Role:      in.ReplyRole,
		Content:   in.Reply,
		Agent:     in.ReplyAgent,
		CreatedAt: now,
	}); err != nil {
		return nil, fmt.Errorf("append agent reply: %w", err)
	}
	return in, nil
}
