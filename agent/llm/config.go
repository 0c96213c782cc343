package llm

import (
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	openrouterx "github.com/tanpawarit/inventory-sms-agent/pkg/openrouter"
)

// Config holds agent-level model settings on top of the shared OpenRouter
// endpoint. Empty overrides fall back to the endpoint defaults.
type Config struct {
	SupervisorModel       string  `envconfig:"SUPERVISOR_MODEL" split_words:"true"`
	InventoryModel        string  `envconfig:"INVENTORY_MODEL" split_words:"true"`
	SupervisorTemperature float32 `envconfig:"SUPERVISOR_TEMPERATURE" split_words:"true" default:"0"`
	InventoryTemperature  float32 `envconfig:"INVENTORY_TEMPERATURE" split_words:"true" default:"-1"`

	MaxToolIterations int           `envconfig:"MAX_TOOL_ITERATIONS" split_words:"true" default:"5"`
	RetryAttempts     int           `envconfig:"RETRY_ATTEMPTS" split_words:"true" default:"3"`
	RetryBackoff      time.Duration `envconfig:"RETRY_BACKOFF" split_words:"true" default:"500ms"`
	RetryMaxBackoff   time.Duration `envconfig:"RETRY_MAX_BACKOFF" split_words:"true" default:"5s"`
	HistoryLimit      int           `envconfig:"HISTORY_LIMIT" split_words:"true" default:"20"`
}

func DefaultConfig() Config {
	return Config{
		InventoryTemperature: -1,
		MaxToolIterations:    5,
		RetryAttempts:        3,
		RetryBackoff:         500 * time.Millisecond,
		RetryMaxBackoff:      5 * time.Second,
		HistoryLimit:         20,
	}
}

func (c Config) Validate() error {
	if c.MaxToolIterations < 1 {
		return fmt.Errorf("%w: max tool iterations must be >= 1", contractx.ErrValidation)
	}
	if c.RetryAttempts < 1 {
		return fmt.Errorf("%w: retry attempts must be >= 1", contractx.ErrValidation)
	}
	if c.RetryBackoff < 0 || c.RetryMaxBackoff < 0 {
		return fmt.Errorf("%w: retry backoff must not be negative", contractx.ErrValidation)
	}
	if c.HistoryLimit < 1 {
		return fmt.Errorf("%w: history limit must be >= 1", contractx.ErrValidation)
	}
	return nil
}

func (c Config) Retry() RetryConfig {
	return RetryConfig{
		MaxAttempts: c.RetryAttempts,
		Backoff:     c.RetryBackoff,
		MaxBackoff:  c.RetryMaxBackoff,
	}
}

// OpenRouterFor derives the endpoint config used to build the model of one
// agent. The supervisor is addressed by contract.AgentNameSupervisor.
func (c Config) OpenRouterFor(base openrouterx.Config, agent string) openrouterx.Config {
	out := base
	out.BaseURL = strings.TrimSpace(base.BaseURL)
	out.APIKey = strings.TrimSpace(base.APIKey)
	out.Model = strings.TrimSpace(base.Model)
	out.SiteURL = strings.TrimSpace(base.SiteURL)
	out.SiteName = strings.TrimSpace(base.SiteName)

	switch agent {
	case contractx.AgentNameSupervisor:
		if v := strings.TrimSpace(c.SupervisorModel); v != "" {
			out.Model = v
		}
		if c.SupervisorTemperature >= 0 {
			out.Temperature = c.SupervisorTemperature
		}
	case string(contractx.AgentTagInventory):
		if v := strings.TrimSpace(c.InventoryModel); v != "" {
			out.Model = v
		}
		if c.InventoryTemperature >= 0 {
			out.Temperature = c.InventoryTemperature
		}
	}

	if base.MaxCompletionToken != nil {
		maxCompletionToken := *base.MaxCompletionToken
		out.MaxCompletionToken = &maxCompletionToken
	}
	return out
}
