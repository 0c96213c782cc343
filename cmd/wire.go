package cmd

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	orchestratorx "github.com/tanpawarit/inventory-sms-agent/agent/agents/orchestrator"
	"github.com/tanpawarit/inventory-sms-agent/agent/agents/team"
	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	inventoryx "github.com/tanpawarit/inventory-sms-agent/agent/inventory"
	llmx "github.com/tanpawarit/inventory-sms-agent/agent/llm"
	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
	toolx "github.com/tanpawarit/inventory-sms-agent/agent/tool"
	configx "github.com/tanpawarit/inventory-sms-agent/pkg/config"
	openrouterx "github.com/tanpawarit/inventory-sms-agent/pkg/openrouter"
)

const (
	sessionBackendMemory  = "memory"
	sessionBackendUpstash = "upstash"
	sessionBackendRedis   = "redis"
)

// app is the explicit dependency set handed to every command.
type app struct {
	orchestrator *orchestratorx.Orchestrator
	openrouter   openrouterx.Config
	llm          llmx.Config

	// janitor is set for the in-memory session backend.
	janitor func(ctx context.Context)
	closers []func() error
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// modelNames lists the distinct models the agents will call.
func (a *app) modelNames() []string {
	return []string{
		a.llm.OpenRouterFor(a.openrouter, contractx.AgentNameSupervisor).Model,
		a.llm.OpenRouterFor(a.openrouter, string(contractx.AgentTagInventory)).Model,
	}
}

func wireApp(ctx context.Context) (*app, error) {
	inv, err := wireInventory(ctx)
	if err != nil {
		return nil, err
	}

	openRouterCfg, err := configx.New[openrouterx.Config]("OPENROUTER")
	if err != nil {
		return nil, fmt.Errorf("load openrouter config: %w", err)
	}
	llmCfg, err := configx.New[llmx.Config]("LLM")
	if err != nil {
		return nil, fmt.Errorf("load llm config: %w", err)
	}

	a := &app{
		openrouter: *openRouterCfg,
		llm:        *llmCfg,
	}

	store, err := a.wireSessionStore(ctx)
	if err != nil {
		return nil, err
	}

	registry, err := team.NewRegistry(ctx, a.openrouter, a.llm, toolx.NewInventoryGateway(inv))
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("wire agent registry: %w", err)
	}

	a.orchestrator, err = orchestratorx.New(store, registry, orchestratorx.Config{HistoryLimit: a.llm.HistoryLimit})
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("wire orchestrator: %w", err)
	}
	return a, nil
}

func wireInventory(ctx context.Context) (*toolx.Inventory, error) {
	datasetCfg, err := configx.New[inventoryx.Config]("DATASET")
	if err != nil {
		return nil, fmt.Errorf("load dataset config: %w", err)
	}
	store, err := inventoryx.Open(ctx, *datasetCfg)
	if err != nil {
		return nil, fmt.Errorf("open dataset: %w", err)
	}
	return toolx.NewInventory(store), nil
}

func (a *app) wireSessionStore(ctx context.Context) (statex.Store, error) {
	sessionCfg, err := configx.New[statex.Config]("SESSION")
	if err != nil {
		return nil, fmt.Errorf("load session config: %w", err)
	}
	opts := []statex.StoreOption{
		statex.WithTTL(sessionCfg.TTL),
		statex.WithMaxMessages(sessionCfg.MaxMessages),
		statex.WithKeyPrefix(sessionCfg.KeyPrefix),
	}

	backend := strings.ToLower(strings.TrimSpace(sessionCfg.Backend))
	log.Info().Str("backend", backend).Dur("ttl", sessionCfg.TTL).Msg("session store")

	switch backend {
	case "", sessionBackendMemory:
		store, err := statex.NewMemoryStore(opts...)
		if err != nil {
			return nil, err
		}
		a.janitor = func(ctx context.Context) {
			store.RunJanitor(ctx, time.Minute, func(n int) {
				log.Debug().Int("pruned", n).Msg("expired threads pruned")
			})
		}
		return store, nil
	case sessionBackendUpstash:
		upstashCfg, err := configx.New[statex.UpstashRedisConfig]("UPSTASH_REDIS")
		if err != nil {
			return nil, fmt.Errorf("load upstash config: %w", err)
		}
		return statex.NewUpstashRedisStore(*upstashCfg, nil, opts...)
	case sessionBackendRedis:
		redisCfg, err := configx.New[statex.RedisConfig]("REDIS")
		if err != nil {
			return nil, fmt.Errorf("load redis config: %w", err)
		}
		store, err := statex.NewRedisStore(ctx, *redisCfg, opts...)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, store.Close)
		return store, nil
	default:
		return nil, fmt.Errorf("unknown session backend %q", sessionCfg.Backend)
	}
}
