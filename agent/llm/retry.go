package llm

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
)

// RetryConfig bounds retries of the completion capability.
type RetryConfig struct {
	MaxAttempts int
	Backoff     time.Duration
	MaxBackoff  time.Duration
	ShouldRetry func(error) bool
	// Sleep waits for d or until ctx is done. Nil uses a timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// WithRetry wraps a chat model with bounded, exponentially backed-off
// retries. Context cancellation is never retried.
func WithRetry(m model.ToolCallingChatModel, cfg RetryConfig) model.ToolCallingChatModel {
	if m == nil {
		return nil
	}
	return &retryModel{next: m, cfg: cfg}
}

type retryModel struct {
	next model.ToolCallingChatModel
	cfg  RetryConfig
}

var _ model.ToolCallingChatModel = (*retryModel)(nil)

func (r *retryModel) Generate(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.Message, error) {
	var out *schema.Message
	err := r.do(ctx, "generate", func() error {
		msg, err := r.next.Generate(ctx, input, opts...)
		if err != nil {
			return err
		}
		out = msg
		return nil
	})
	return out, err
}

// Stream retries only opening the stream. Errors read from an open stream
// belong to the caller.
func (r *retryModel) Stream(ctx context.Context, input []*schema.Message, opts ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	var out *schema.StreamReader[*schema.Message]
	err := r.do(ctx, "stream", func() error {
		s, err := r.next.Stream(ctx, input, opts...)
		if err != nil {
			return err
		}
		out = s
		return nil
	})
	return out, err
}

func (r *retryModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	bound, err := r.next.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return &retryModel{next: bound, cfg: r.cfg}, nil
}

func (r *retryModel) do(ctx context.Context, op string, call func() error) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	attempts := normalizedAttempts(r.cfg.MaxAttempts)
	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		err := call()
		if err == nil {
			return nil
		}
		lastErr = err
		if attempt == attempts || !shouldRetry(ctx, r.cfg, err) {
			break
		}

		wait := backoff(r.cfg, attempt)
		log.Warn().Err(err).
			Str("op", op).
			Int("attempt", attempt).
			Dur("backoff", wait).
			Msg("model call failed, retrying")
		if err := r.sleep(ctx, wait); err != nil {
			return err
		}
	}
	return lastErr
}

func (r *retryModel) sleep(ctx context.Context, d time.Duration) error {
	if r.cfg.Sleep != nil {
		return r.cfg.Sleep(ctx, d)
	}
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// backoff doubles the base delay per failed attempt, capped at MaxBackoff.
func backoff(cfg RetryConfig, attempt int) time.Duration {
	d := cfg.Backoff
	if d <= 0 {
		return 0
	}
	for i := 1; i < attempt; i++ {
		d *= 2
		if cfg.MaxBackoff > 0 && d >= cfg.MaxBackoff {
			return cfg.MaxBackoff
		}
	}
	if cfg.MaxBackoff > 0 && d > cfg.MaxBackoff {
		return cfg.MaxBackoff
	}
	return d
}

func normalizedAttempts(maxAttempts int) int {
	if maxAttempts < 1 {
		return 1
	}
	return maxAttempts
}

func shouldRetry(ctx context.Context, cfg RetryConfig, err error) bool {
	if ctx.Err() != nil {
		return false
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return false
	}
	if cfg.ShouldRetry == nil {
		return true
	}
	return cfg.ShouldRetry(err)
}
