package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
)

var (
	//go:embed template/supervisor.txt
	supervisorRaw string

	//go:embed template/inventory.txt
	inventoryRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Supervisor string
	Inventory  string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Supervisor: strings.TrimSpace(supervisorRaw),
		Inventory:  strings.TrimSpace(inventoryRaw),
	}
}

// ForAgent returns the system prompt of a worker agent.
func (p PromptSet) ForAgent(tag contractx.AgentTag) (string, error) {
	var out string
	switch tag {
	case contractx.AgentTagInventory:
		out = p.Inventory
	}
	if strings.TrimSpace(out) == "" {
		return "", fmt.Errorf("%w: agent=%s", contractx.ErrPromptMissing, tag)
	}
	return out, nil
}
