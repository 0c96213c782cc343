package orchestratornode

import (
	"errors"
	"strings"
	"time"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

var (
	ErrInvalidMessage = errors.New("message is empty")
	ErrInvalidThread  = errors.New("thread id is empty")
)

type GraphInput struct {
	ThreadID string
	Text     string
}

type GraphOutput struct {
	Reply string
	Route contractx.AgentTag
	Steps int
}

// GraphState is threaded through every node of one turn.
type GraphState struct {
	ThreadID string
	Text     string
	Now      time.Time

	Conversation *statex.Conversation
	// History is the window of prior turns shown to the models. It never
	// includes the current message.
	History []statex.Message

	Decision contractx.RouteDecision
	Worker   contractx.WorkerResponse

	Reply      string
	ReplyRole  statex.Role
	ReplyAgent string
}

func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	threadID := strings.TrimSpace(in.ThreadID)
	if threadID == "" {
		return nil, ErrInvalidThread
	}

	text := strings.TrimSpace(in.Text)
	if text == "" {
		return nil, ErrInvalidMessage
	}

	return &GraphState{
		ThreadID: threadID,
		Text:     text,
		Now:      nowFn().UTC(),
	}, nil
}
