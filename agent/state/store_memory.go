package state

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	conv      *Conversation
	expiresAt time.Time
}

// MemoryStore keeps conversations in process memory. Entries idle longer
// than the TTL are evicted lazily on Load and in bulk by Prune.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	opts    storeOptions
}

func NewMemoryStore(opts ...StoreOption) (*MemoryStore, error) {
	o, err := applyStoreOptions(opts)
	if err != nil {
		return nil, err
	}
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		opts:    o,
	}, nil
}

func (s *MemoryStore) Load(_ context.Context, threadID string) (*Conversation, error) {
	key, err := storeKey(s.opts.keyPrefix, threadID)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrStateNotFound
	}
	if s.expired(entry, s.opts.now()) {
		s.mu.Lock()
		if cur, ok := s.entries[key]; ok && s.expired(cur, s.opts.now()) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, ErrStateNotFound
	}
	return entry.conv.Clone(), nil
}

func (s *MemoryStore) Save(_ context.Context, conv *Conversation) error {
	now := s.opts.now()
	if err := prepareForSave(conv, s.opts.maxMessages, now); err != nil {
		return err
	}
	key, err := storeKey(s.opts.keyPrefix, conv.ThreadID)
	if err != nil {
		return err
	}

	entry := memoryEntry{conv: conv.Clone()}
	if s.opts.ttl > 0 {
		entry.expiresAt = now.Add(s.opts.ttl)
	}

	s.mu.Lock()
	s.entries[key] = entry
	s.mu.Unlock()
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, threadID string) error {
	key, err := storeKey(s.opts.keyPrefix, threadID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Len reports the number of stored threads, expired ones included until pruned.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Prune evicts every expired thread and returns how many were removed.
func (s *MemoryStore) Prune() int {
	now := s.opts.now()
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, entry := range s.entries {
		if s.expired(entry, now) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// RunJanitor prunes expired threads every interval until ctx is done.
func (s *MemoryStore) RunJanitor(ctx context.Context, interval time.Duration, onPrune func(int)) {
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Prune(); n > 0 && onPrune != nil {
				onPrune(n)
			}
		}
	}
}

func (s *MemoryStore) expired(entry memoryEntry, now time.Time) bool {
	return !entry.expiresAt.IsZero() && !now.Before(entry.expiresAt)
}
