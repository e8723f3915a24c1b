package events

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// Inbox deduplicates consumed records across redeliveries and restarts.
// Delivery is at-least-once; the inbox makes redelivered records cheap to
// skip and counts redelivery attempts for the capped configurations.
type Inbox interface {
	// Seen reports whether the record key was already fully handled.
	Seen(ctx context.Context, key string) (bool, error)

	// MarkSeen records the key as handled.
	MarkSeen(ctx context.Context, key string) error

	// Attempts increments and returns the redelivery counter for the key.
	Attempts(ctx context.Context, key string) (int, error)
}

const (
	inboxSeenPrefix     = "inbox:seen:"
	inboxAttemptsPrefix = "inbox:attempts:"
	inboxTTL            = 7 * 24 * time.Hour
)

// RedisInbox is the production inbox, shared across instances.
type RedisInbox struct {
	client *redis.Client
}

// NewRedisInbox wraps a redis client as an Inbox.
func NewRedisInbox(client *redis.Client) *RedisInbox {
	return &RedisInbox{client: client}
}

func (i *RedisInbox) Seen(ctx context.Context, key string) (bool, error) {
	n, err := i.client.Exists(ctx, inboxSeenPrefix+key).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (i *RedisInbox) MarkSeen(ctx context.Context, key string) error {
	return i.client.Set(ctx, inboxSeenPrefix+key, "1", inboxTTL).Err()
}

func (i *RedisInbox) Attempts(ctx context.Context, key string) (int, error) {
	n, err := i.client.Incr(ctx, inboxAttemptsPrefix+key).Result()
	if err != nil {
		return 0, err
	}
	// Best-effort TTL so abandoned counters do not pile up.
	i.client.Expire(ctx, inboxAttemptsPrefix+key, inboxTTL)
	return int(n), nil
}

// MemoryInbox is a process-local inbox for dev setups without redis.
type MemoryInbox struct {
	mu       sync.Mutex
	seen     map[string]bool
	attempts map[string]int
}

// NewMemoryInbox creates an empty in-memory inbox.
func NewMemoryInbox() *MemoryInbox {
	return &MemoryInbox{seen: make(map[string]bool), attempts: make(map[string]int)}
}

func (i *MemoryInbox) Seen(_ context.Context, key string) (bool, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	return i.seen[key], nil
}

func (i *MemoryInbox) MarkSeen(_ context.Context, key string) error {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.seen[key] = true
	return nil
}

func (i *MemoryInbox) Attempts(_ context.Context, key string) (int, error) {
	i.mu.Lock()
	defer i.mu.Unlock()
	i.attempts[key]++
	return i.attempts[key], nil
}
