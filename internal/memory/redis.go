package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisClient is the subset of redis commands the store needs. Declared as
// an interface so tests can substitute a fake without a server.
type RedisClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
}

var _ RedisClient = (*redis.Client)(nil)

// RedisStore is the networked memory implementation: a sliding-window list
// per session key, capped to maxEntries and evicted by TTL.
type RedisStore struct {
	client     RedisClient
	maxEntries int
	ttl        time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a redis-backed store. maxEntries <= 0 disables the
// window cap; ttl <= 0 disables eviction.
func NewRedisStore(client RedisClient, maxEntries int, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, maxEntries: maxEntries, ttl: ttl}
}

// DialRedis connects a real client for NewRedisStore.
func DialRedis(addr, password string) *redis.Client {
	return redis.NewClient(&redis.Options{Addr: addr, Password: password})
}

// BeginSession mints a session id for the alias.
func (s *RedisStore) BeginSession(_ context.Context, alias string) (string, error) {
	return NewSessionID(alias), nil
}

// Append pushes one redacted entry to the head of the session's list,
// trims the list to the window cap, and refreshes the TTL.
func (s *RedisStore) Append(ctx context.Context, sessionKey string, entry Entry, redactKeys []string) error {
	payload, err := json.Marshal(Redact(entry, redactKeys))
	if err != nil {
		return fmt.Errorf("encoding memory entry: %w", err)
	}

	key := s.key(sessionKey)
	if err := s.client.LPush(ctx, key, payload).Err(); err != nil {
		return fmt.Errorf("pushing memory entry: %w", err)
	}
	if s.maxEntries > 0 {
		if err := s.client.LTrim(ctx, key, 0, int64(s.maxEntries)-1).Err(); err != nil {
			return fmt.Errorf("trimming memory window: %w", err)
		}
	}
	if s.ttl > 0 {
		if err := s.client.Expire(ctx, key, s.ttl).Err(); err != nil {
			return fmt.Errorf("refreshing memory ttl: %w", err)
		}
	}
	return nil
}

// Window returns up to limit entries, oldest first. The list stores newest
// at the head, so the fetched range is reversed before returning.
func (s *RedisStore) Window(ctx context.Context, sessionKey string, limit int) ([]Entry, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit) - 1
	}
	raw, err := s.client.LRange(ctx, s.key(sessionKey), 0, stop).Result()
	if err != nil {
		return nil, fmt.Errorf("reading memory window: %w", err)
	}

	entries := make([]Entry, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var entry Entry
		if err := json.Unmarshal([]byte(raw[i]), &entry); err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// EndSession is a no-op: TTL eviction handles cleanup.
func (s *RedisStore) EndSession(context.Context, string) error { return nil }

func (s *RedisStore) key(sessionKey string) string {
	return "codexflow:memory:" + sessionKey
}
