package state

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestConversationAppendRejectsInvalid(t *testing.T) {
	t.Parallel()

	conv := NewConversation("t1", time.Now())
	if err := conv.Append(Message{Role: "robot", Content: "x"}); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("Append() error = %v, want ErrInvalidRole", err)
	}
	if err := conv.Append(Message{Role: RoleHuman, Content: "   "}); !errors.Is(err, ErrEmptyMessage) {
		t.Fatalf("Append() error = %v, want ErrEmptyMessage", err)
	}
	if len(conv.Messages) != 0 {
		t.Fatalf("expected no messages, got %d", len(conv.Messages))
	}
}

func TestConversationRecentAndTrim(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	conv := NewConversation("t1", now)
	for i, text := range []string{"a", "b", "c", "d"} {
		if err := conv.Append(Message{Role: RoleHuman, Content: text, CreatedAt: now.Add(time.Duration(i) * time.Second)}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}

	recent := conv.Recent(2)
	if len(recent) != 2 || recent[0].Content != "c" || recent[1].Content != "d" {
		t.Fatalf("Recent(2) = %#v", recent)
	}
	recent[0].Content = "mutated"
	if conv.Messages[2].Content != "c" {
		t.Fatal("Recent must return a copy")
	}

	conv.Trim(3)
	if len(conv.Messages) != 3 || conv.Messages[0].Content != "b" {
		t.Fatalf("Trim(3) left %#v", conv.Messages)
	}
	if got := conv.UpdatedAt; !got.Equal(now.Add(3 * time.Second)) {
		t.Fatalf("UpdatedAt = %v, want last message time", got)
	}
}

func TestGetOrCreateResumesExistingThread(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	ctx := context.Background()
	now := time.Now()

	if _, err := Append(ctx, store, "+1555", Message{Role: RoleHuman, Content: "first", CreatedAt: now}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if _, err := Append(ctx, store, "+1555", Message{Role: RoleSupervisor, Content: "reply", CreatedAt: now.Add(time.Second)}); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	conv, err := GetOrCreate(ctx, store, "+1555", now)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if len(conv.Messages) != 2 || conv.Messages[0].Content != "first" {
		t.Fatalf("unexpected history: %#v", conv.Messages)
	}

	fresh, err := GetOrCreate(ctx, store, "+1666", now)
	if err != nil {
		t.Fatalf("GetOrCreate() error = %v", err)
	}
	if len(fresh.Messages) != 0 {
		t.Fatalf("expected fresh conversation, got %#v", fresh.Messages)
	}

	if _, err := GetOrCreate(ctx, store, " ", now); !errors.Is(err, ErrInvalidThread) {
		t.Fatalf("GetOrCreate() error = %v, want ErrInvalidThread", err)
	}
}

func TestMemoryStoreEvictsAfterTTL(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	clock := func() time.Time { return now }
	store, err := NewMemoryStore(WithTTL(time.Hour), WithClock(func() time.Time { return clock() }))
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}

	ctx := context.Background()
	for _, id := range []string{"a", "b"} {
		if err := store.Save(ctx, NewConversation(id, now)); err != nil {
			t.Fatalf("Save() error = %v", err)
		}
	}

	if _, err := store.Load(ctx, "a"); err != nil {
		t.Fatalf("Load() before expiry error = %v", err)
	}

	later := now.Add(2 * time.Hour)
	clock = func() time.Time { return later }

	if _, err := store.Load(ctx, "a"); !errors.Is(err, ErrStateNotFound) {
		t.Fatalf("Load() after expiry error = %v, want ErrStateNotFound", err)
	}
	if removed := store.Prune(); removed != 1 {
		t.Fatalf("Prune() removed %d, want 1", removed)
	}
	if store.Len() != 0 {
		t.Fatalf("Len() = %d, want 0", store.Len())
	}
}

func TestMemoryStoreCapsMessages(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStore(WithMaxMessages(2))
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	ctx := context.Background()
	now := time.Now()
	for i, text := range []string{"one", "two", "three"} {
		if _, err := Append(ctx, store, "t", Message{Role: RoleHuman, Content: text, CreatedAt: now.Add(time.Duration(i) * time.Millisecond)}); err != nil {
			t.Fatalf("Append() error = %v", err)
		}
	}
	conv, err := store.Load(ctx, "t")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(conv.Messages) != 2 || conv.Messages[0].Content != "two" {
		t.Fatalf("unexpected messages: %#v", conv.Messages)
	}
}

func TestMemoryStoreJanitorStopsWithContext(t *testing.T) {
	t.Parallel()

	store, err := NewMemoryStore()
	if err != nil {
		t.Fatalf("NewMemoryStore() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		store.RunJanitor(ctx, time.Millisecond, nil)
		close(done)
	}()
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("janitor did not stop")
	}
}

func TestKeyedLockerSerializesSameKey(t *testing.T) {
	t.Parallel()

	locker := NewKeyedLocker()
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		active  int
		maxSeen int
	)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locker.Lock("thread")
			defer unlock()

			mu.Lock()
			active++
			if active > maxSeen {
				maxSeen = active
			}
			mu.Unlock()

			time.Sleep(time.Millisecond)

			mu.Lock()
			active--
			mu.Unlock()
		}()
	}
	wg.Wait()

	if maxSeen != 1 {
		t.Fatalf("expected at most one holder, saw %d", maxSeen)
	}
	if locker.Held() != 0 {
		t.Fatalf("expected lock map to drain, got %d", locker.Held())
	}
}

func TestKeyedLockerUnlockIsIdempotent(t *testing.T) {
	t.Parallel()

	locker := NewKeyedLocker()
	unlock := locker.Lock("a")
	unlock()
	unlock()

	other := locker.Lock("a")
	other()
	if locker.Held() != 0 {
		t.Fatalf("Held() = %d, want 0", locker.Held())
	}
}

func TestKeyedLockerContextGivesUpWhileHeld(t *testing.T) {
	t.Parallel()

	locker := NewKeyedLocker()
	unlock := locker.Lock("thread")

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	waiterUnlock, err := locker.LockContext(ctx, "thread")
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("LockContext() error = %v, want deadline exceeded", err)
	}
	if waiterUnlock != nil {
		t.Fatal("expected nil unlock on cancellation")
	}
	if locker.Held() != 1 {
		t.Fatalf("Held() = %d, want 1 while the first holder runs", locker.Held())
	}

	unlock()
	if locker.Held() != 0 {
		t.Fatalf("Held() = %d, want 0", locker.Held())
	}

	again, err := locker.LockContext(context.Background(), "thread")
	if err != nil {
		t.Fatalf("LockContext() after release error = %v", err)
	}
	again()
}

func TestKeyedLockerContextOtherKeysUnaffected(t *testing.T) {
	t.Parallel()

	locker := NewKeyedLocker()
	unlock := locker.Lock("a")
	defer unlock()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	other, err := locker.LockContext(ctx, "b")
	if err != nil {
		t.Fatalf("LockContext(b) error = %v", err)
	}
	other()
}
