package state

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

type Role string

const (
	RoleHuman      Role = "human"
	RoleWorker     Role = "agent-worker"
	RoleSupervisor Role = "agent-supervisor"
)

var (
	ErrInvalidRole   = errors.New("invalid message role")
	ErrEmptyMessage  = errors.New("message content is empty")
	ErrThreadCorrupt = errors.New("conversation thread corrupt")
)

// Conversation is the ordered message history of one end-user thread.
// It is created on the first inbound message and appended to on every turn.
type Conversation struct {
	ThreadID  string    `json:"thread_id"`
	Messages  []Message `json:"messages,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Agent     string    `json:"agent,omitempty"` // originating agent name for agent roles
	CreatedAt time.Time `json:"created_at"`
}

func NewConversation(threadID string, now time.Time) *Conversation {
	return &Conversation{
		ThreadID:  threadID,
		Messages:  make([]Message, 0, 8),
		CreatedAt: now.UTC(),
		UpdatedAt: now.UTC(),
	}
}

func (r Role) Valid() bool {
	switch r {
	case RoleHuman, RoleWorker, RoleSupervisor:
		return true
	default:
		return false
	}
}

// Append adds a message at the end of the thread.
func (c *Conversation) Append(msg Message) error {
	if c == nil {
		return ErrNilConversation
	}
	if !msg.Role.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidRole, msg.Role)
	}
	if strings.TrimSpace(msg.Content) == "" {
		return ErrEmptyMessage
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now()
	}
	msg.CreatedAt = msg.CreatedAt.UTC()
	// Keep the thread ordered even if the caller's clock went backwards.
	if n := len(c.Messages); n > 0 && msg.CreatedAt.Before(c.Messages[n-1].CreatedAt) {
		msg.CreatedAt = c.Messages[n-1].CreatedAt
	}
	c.Messages = append(c.Messages, msg)
	if msg.CreatedAt.After(c.UpdatedAt) {
		c.UpdatedAt = msg.CreatedAt
	}
	return nil
}

// Recent returns a copy of the last n messages. n <= 0 returns the whole thread.
func (c *Conversation) Recent(n int) []Message {
	if c == nil || len(c.Messages) == 0 {
		return nil
	}
	start := 0
	if n > 0 && len(c.Messages) > n {
		start = len(c.Messages) - n
	}
	out := make([]Message, len(c.Messages)-start)
	copy(out, c.Messages[start:])
	return out
}

// Trim drops the oldest messages so at most max remain. max <= 0 keeps everything.
func (c *Conversation) Trim(max int) {
	if c == nil || max <= 0 || len(c.Messages) <= max {
		return
	}
	kept := make([]Message, max)
	copy(kept, c.Messages[len(c.Messages)-max:])
	c.Messages = kept
}

func (c *Conversation) Validate() error {
	if c == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(c.ThreadID) == "" {
		return ErrInvalidThread
	}
	for i, m := range c.Messages {
		if !m.Role.Valid() {
			return fmt.Errorf("%w: message %d has role %q", ErrThreadCorrupt, i, m.Role)
		}
		if i > 0 && m.CreatedAt.Before(c.Messages[i-1].CreatedAt) {
			return fmt.Errorf("%w: message %d is out of order", ErrThreadCorrupt, i)
		}
	}
	return nil
}

// Clone returns a deep copy safe to hand to another goroutine.
func (c *Conversation) Clone() *Conversation {
	if c == nil {
		return nil
	}
	out := *c
	out.Messages = append([]Message(nil), c.Messages...)
	return &out
}
