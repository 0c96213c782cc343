package state

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrStateNotFound   = errors.New("conversation not found")
	ErrNilConversation = errors.New("conversation is nil")
	ErrInvalidThread   = errors.New("thread id is empty")
)

const (
	defaultStoreKeyPrefix = "sms:thread:"
	defaultStoreTTL       = 24 * time.Hour
	defaultMaxMessages    = 50
)

// Store is the persistence contract for conversation threads, keyed by thread id.
type Store interface {
	Load(ctx context.Context, threadID string) (*Conversation, error)
	Save(ctx context.Context, conv *Conversation) error
	Delete(ctx context.Context, threadID string) error
}

// Config selects and tunes the session backend.
type Config struct {
	Backend     string        `envconfig:"BACKEND" default:"memory"`
	TTL         time.Duration `envconfig:"TTL" default:"24h"`
	MaxMessages int           `envconfig:"MAX_MESSAGES" split_words:"true" default:"50"`
	KeyPrefix   string        `envconfig:"KEY_PREFIX" split_words:"true" default:"sms:thread:"`
}

// StoreOption customizes the remote stores.
type StoreOption func(*storeOptions)

type storeOptions struct {
	keyPrefix   string
	ttl         time.Duration
	maxMessages int
	now         func() time.Time
}

func defaultStoreOptions() storeOptions {
	return storeOptions{
		keyPrefix:   defaultStoreKeyPrefix,
		ttl:         defaultStoreTTL,
		maxMessages: defaultMaxMessages,
		now:         time.Now,
	}
}

func applyStoreOptions(opts []StoreOption) (storeOptions, error) {
	o := defaultStoreOptions()
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	if o.ttl < 0 {
		return o, errors.New("ttl must be >= 0")
	}
	return o, nil
}

func WithKeyPrefix(prefix string) StoreOption {
	return func(o *storeOptions) {
		trimmed := strings.TrimSpace(prefix)
		if trimmed != "" {
			o.keyPrefix = trimmed
		}
	}
}

// WithTTL sets the idle lifetime of a thread. Zero disables expiry.
func WithTTL(ttl time.Duration) StoreOption {
	return func(o *storeOptions) {
		o.ttl = ttl
	}
}

// WithMaxMessages caps stored history per thread; oldest messages are dropped on save.
func WithMaxMessages(n int) StoreOption {
	return func(o *storeOptions) {
		o.maxMessages = n
	}
}

func WithClock(now func() time.Time) StoreOption {
	return func(o *storeOptions) {
		if now != nil {
			o.now = now
		}
	}
}

// GetOrCreate resumes the thread's conversation or starts a new one.
func GetOrCreate(ctx context.Context, store Store, threadID string, now time.Time) (*Conversation, error) {
	if strings.TrimSpace(threadID) == "" {
		return nil, ErrInvalidThread
	}
	conv, err := store.Load(ctx, threadID)
	if err == nil {
		return conv, nil
	}
	if !errors.Is(err, ErrStateNotFound) {
		return nil, err
	}
	return NewConversation(threadID, now), nil
}

// Append loads (or creates) the thread, appends msg and saves it back.
// Callers that race on one thread must hold the thread's lock (see KeyedLocker).
func Append(ctx context.Context, store Store, threadID string, msg Message) (*Conversation, error) {
	now := msg.CreatedAt
	if now.IsZero() {
		now = time.Now()
		msg.CreatedAt = now
	}
	conv, err := GetOrCreate(ctx, store, threadID, now)
	if err != nil {
		return nil, err
	}
	if err := conv.Append(msg); err != nil {
		return nil, err
	}
	if err := store.Save(ctx, conv); err != nil {
		return nil, err
	}
	return conv, nil
}

func storeKey(prefix, threadID string) (string, error) {
	if strings.TrimSpace(threadID) == "" {
		return "", ErrInvalidThread
	}
	return strings.TrimSpace(prefix) + threadID, nil
}

func prepareForSave(conv *Conversation, maxMessages int, now time.Time) error {
	if conv == nil {
		return ErrNilConversation
	}
	if strings.TrimSpace(conv.ThreadID) == "" {
		return ErrInvalidThread
	}
	conv.Trim(maxMessages)
	if conv.UpdatedAt.IsZero() {
		conv.UpdatedAt = now.UTC()
	} else {
		conv.UpdatedAt = conv.UpdatedAt.UTC()
	}
	if conv.CreatedAt.IsZero() {
		conv.CreatedAt = conv.UpdatedAt
	}
	if err := conv.Validate(); err != nil {
		return fmt.Errorf("invalid conversation: %w", err)
	}
	return nil
}

func ttlSeconds(ttl time.Duration) int64 {
	seconds := ttl / time.Second
	if seconds <= 0 {
		return 1
	}
	if ttl%time.Second != 0 {
		seconds++
	}
	return int64(seconds)
}
