package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type flakyModel struct {
	failures int
	err      error
	calls    int
	tools    []*schema.ToolInfo
}

func (m *flakyModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, m.err
	}
	return schema.AssistantMessage("ok", nil), nil
}

func (m *flakyModel) Stream(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	m.calls++
	if m.calls <= m.failures {
		return nil, m.err
	}
	return schema.StreamReaderFromArray([]*schema.Message{schema.AssistantMessage("ok", nil)}), nil
}

func (m *flakyModel) WithTools(tools []*schema.ToolInfo) (model.ToolCallingChatModel, error) {
	m.tools = tools
	return m, nil
}

func recordSleeps(out *[]time.Duration) func(context.Context, time.Duration) error {
	return func(ctx context.Context, d time.Duration) error {
		*out = append(*out, d)
		return ctx.Err()
	}
}

func TestWithRetryRecoversFromTransientErrors(t *testing.T) {
	t.Parallel()

	var sleeps []time.Duration
	inner := &flakyModel{failures: 2, err: errors.New("503 upstream")}
	m := WithRetry(inner, RetryConfig{
		MaxAttempts: 3,
		Backoff:     100 * time.Millisecond,
		MaxBackoff:  time.Second,
		Sleep:       recordSleeps(&sleeps),
	})

	out, err := m.Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Content != "ok" {
		t.Fatalf("unexpected content: %q", out.Content)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", inner.calls)
	}
	if len(sleeps) != 2 || sleeps[0] != 100*time.Millisecond || sleeps[1] != 200*time.Millisecond {
		t.Fatalf("unexpected backoff sequence: %v", sleeps)
	}
}

func TestWithRetryGivesUpAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	var sleeps []time.Duration
	upstream := errors.New("upstream down")
	inner := &flakyModel{failures: 10, err: upstream}
	m := WithRetry(inner, RetryConfig{MaxAttempts: 3, Backoff: time.Millisecond, Sleep: recordSleeps(&sleeps)})

	_, err := m.Generate(context.Background(), nil)
	if !errors.Is(err, upstream) {
		t.Fatalf("expected upstream error, got %v", err)
	}
	if inner.calls != 3 {
		t.Fatalf("expected 3 calls, got %d", inner.calls)
	}
}

func TestWithRetryDoesNotRetryCancellation(t *testing.T) {
	t.Parallel()

	inner := &flakyModel{failures: 10, err: context.DeadlineExceeded}
	m := WithRetry(inner, RetryConfig{MaxAttempts: 5, Sleep: recordSleeps(new([]time.Duration))})

	_, err := m.Generate(context.Background(), nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected deadline error, got %v", err)
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single call, got %d", inner.calls)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	inner = &flakyModel{}
	if _, err := WithRetry(inner, RetryConfig{MaxAttempts: 5}).Generate(ctx, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if inner.calls != 0 {
		t.Fatalf("model must not be called with a canceled context, got %d calls", inner.calls)
	}
}

func TestWithRetryShouldRetryFalse(t *testing.T) {
	t.Parallel()

	inner := &flakyModel{failures: 10, err: errors.New("400 bad request")}
	m := WithRetry(inner, RetryConfig{
		MaxAttempts: 4,
		ShouldRetry: func(error) bool { return false },
	})
	if _, err := m.Generate(context.Background(), nil); err == nil {
		t.Fatal("expected error")
	}
	if inner.calls != 1 {
		t.Fatalf("expected a single call, got %d", inner.calls)
	}
}

func TestWithRetryKeepsWrappingAfterWithTools(t *testing.T) {
	t.Parallel()

	inner := &flakyModel{failures: 1, err: errors.New("flaky")}
	m := WithRetry(inner, RetryConfig{MaxAttempts: 2, Sleep: recordSleeps(new([]time.Duration))})
	bound, err := m.WithTools([]*schema.ToolInfo{{Name: "get_inventory_status"}})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, ok := bound.(*retryModel); !ok {
		t.Fatalf("expected retry wrapper, got %T", bound)
	}
	if len(inner.tools) != 1 {
		t.Fatalf("tools were not bound on the inner model")
	}
	if _, err := bound.Stream(context.Background(), nil); err != nil {
		t.Fatalf("unexpected stream error: %v", err)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	t.Parallel()

	cfg := RetryConfig{Backoff: time.Second, MaxBackoff: 3 * time.Second}
	want := []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second}
	for i, w := range want {
		if got := backoff(cfg, i+1); got != w {
			t.Fatalf("attempt %d: expected %v, got %v", i+1, w, got)
		}
	}
}
