package orchestrator

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"

	contractx "github.com/tanpawarit/inventory-sms-agent/agent/contract"
	nodex "github.com/tanpawarit/inventory-sms-agent/agent/nodes"
	statex "github.com/tanpawarit/inventory-sms-agent/agent/state"
)

var (
	ErrInvalidMessage = nodex.ErrInvalidMessage
	ErrInvalidThread  = nodex.ErrInvalidThread
)

const DefaultHistoryLimit = 20

type Config struct {
	// HistoryLimit caps how many prior messages the models see.
	HistoryLimit int
}

// Orchestrator is the supervisor router entry point: one call handles one
// inbound message of a thread end to end.
type Orchestrator struct {
	store  statex.Store
	models contractx.Registry
	locks  *statex.KeyedLocker

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	historyLimit int

	now func() time.Time
}

func New(store statex.Store, models contractx.Registry, cfg Config) (*Orchestrator, error) {
	if store == nil {
		return nil, errors.New("state store is required")
	}
	if models == nil {
		return nil, errors.New("model registry is required")
	}
	if models.Supervisor() == nil {
		return nil, errors.New("supervisor is required")
	}

	historyLimit := cfg.HistoryLimit
	if historyLimit <= 0 {
		historyLimit = DefaultHistoryLimit
	}

	o := &Orchestrator{
		store:        store,
		models:       models,
		locks:        statex.NewKeyedLocker(),
		historyLimit: historyLimit,
		now:          time.Now,
	}

	graphRunner, err := o.compileHandleMessageGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleMessage routes text for threadID and returns the reply. Turns of the
// same thread run one at a time so each sees the previous turn's history.
func (o *Orchestrator) HandleMessage(ctx context.Context, threadID string, text string) (string, error) {
	unlock, err := o.locks.LockContext(ctx, strings.TrimSpace(threadID))
	if err != nil {
		return "", err
	}
	defer unlock()

	// The lock may win the race against a cancellation that already fired.
	if err := ctx.Err(); err != nil {
		return "", err
	}

	start := o.now()
	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		ThreadID: threadID,
		Text:     text,
	})
	if err != nil {
		return "", err
	}

	log.Info().
		Str("thread_id", strings.TrimSpace(threadID)).
		Str("agent", string(out.Route)).
		Int("steps", out.Steps).
		Dur("elapsed", o.now().Sub(start)).
		Msg("turn handled")
	return out.Reply, nil
}
