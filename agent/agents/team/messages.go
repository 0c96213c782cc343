package team

import (
	"strings"

	"github.com/cloudwego/eino/schema"

	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

// buildMessages lays out system prompt, prior turns and the current human
// message in the order the chat model expects.
func buildMessages(systemPrompts []string, history []statex.Message, userMessage string) []*schema.Message {
	out := make([]*schema.Message, 0, len(systemPrompts)+len(history)+1)
	for _, p := range systemPrompts {
		if strings.TrimSpace(p) != "" {
			out = append(out, schema.SystemMessage(p))
		}
	}
	for _, m := range history {
		switch m.Role {
		case statex.RoleHuman:
			out = append(out, schema.UserMessage(m.Content))
		case statex.RoleWorker, statex.RoleSupervisor:
			out = append(out, schema.AssistantMessage(m.Content, nil))
		}
	}
	return append(out, schema.UserMessage(userMessage))
}
