package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisStore shares entries across processes. Each identifier is a hash with
// count and reset_at (unix millis) that Redis expires once its window ends.
type RedisStore struct {
	rdb    redis.Cmdable
	prefix string
}

// fixedWindowScript resets the window when it has elapsed, then increments.
// KEYS[1]=entry key, ARGV[1]=now ms, ARGV[2]=window ms.
var fixedWindowScript = redis.NewScript(`
local now = tonumber(ARGV[1])
local resetAt = tonumber(redis.call("HGET", KEYS[1], "reset_at"))
if (not resetAt) or now > resetAt then
  resetAt = now + tonumber(ARGV[2])
  redis.call("HSET", KEYS[1], "count", 0, "reset_at", resetAt)
  redis.call("PEXPIREAT", KEYS[1], resetAt + 1)
end
local count = redis.call("HINCRBY", KEYS[1], "count", 1)
return {count, resetAt}
`)

// NewRedisStore wraps rdb; keys are namespaced under prefix (default "rl").
func NewRedisStore(rdb redis.Cmdable, prefix string) *RedisStore {
	prefix = strings.TrimSpace(prefix)
	if prefix == "" {
		prefix = "rl"
	}
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(id string) string {
	return s.prefix + ":" + id
}

func (s *RedisStore) Get(ctx context.Context, id string) (Entry, bool, error) {
	vals, err := s.rdb.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit: redis get: %w", err)
	}
	if len(vals) == 0 {
		return Entry{}, false, nil
	}
	count, err := strconv.Atoi(vals["count"])
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit: bad count %q: %w", vals["count"], err)
	}
	resetMs, err := strconv.ParseInt(vals["reset_at"], 10, 64)
	if err != nil {
		return Entry{}, false, fmt.Errorf("ratelimit: bad reset_at %q: %w", vals["reset_at"], err)
	}
	return Entry{Count: count, ResetAt: time.UnixMilli(resetMs)}, true, nil
}

func (s *RedisStore) Set(ctx context.Context, id string, entry Entry) error {
	key := s.key(id)
	resetMs := entry.ResetAt.UnixMilli()
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "count", entry.Count, "reset_at", resetMs)
		pipe.PExpireAt(ctx, key, time.UnixMilli(resetMs+1))
		return nil
	})
	if err != nil {
		return fmt.Errorf("ratelimit: redis set: %w", err)
	}
	return nil
}

// Increment applies the fixed-window step atomically inside Redis.
func (s *RedisStore) Increment(ctx context.Context, id string, now time.Time, window time.Duration) (Entry, error) {
	res, err := fixedWindowScript.Run(ctx, s.rdb, []string{s.key(id)}, now.UnixMilli(), window.Milliseconds()).Result()
	if err != nil {
		return Entry{}, fmt.Errorf("ratelimit: redis increment: %w", err)
	}
	vals, ok := res.([]interface{})
	if !ok || len(vals) != 2 {
		return Entry{}, fmt.Errorf("ratelimit: unexpected script result %T", res)
	}
	count, err := toInt64(vals[0])
	if err != nil {
		return Entry{}, err
	}
	resetMs, err := toInt64(vals[1])
	if err != nil {
		return Entry{}, err
	}
	return Entry{Count: int(count), ResetAt: time.UnixMilli(resetMs)}, nil
}

func toInt64(v interface{}) (int64, error) {
	switch n := v.(type) {
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	case string:
		// Lua may hand numbers back as strings depending on conversion.
		return strconv.ParseInt(n, 10, 64)
	default:
		return 0, errors.New("ratelimit: unexpected script value type")
	}
}
