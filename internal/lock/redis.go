// Package lock serializes registry access across processes sharing one store.
package lock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"phonereuse/lib/sl"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var ErrNotAcquired = errors.New("registry lock not acquired")

// only the owner token may delete the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
  return redis.call("DEL", KEYS[1])
end
return 0
`)

const retryInterval = 50 * time.Millisecond

// RedisLock is an advisory lock held as a single Redis key with a TTL, so a
// crashed holder cannot block other processes longer than the TTL.
type RedisLock struct {
	client redis.UniversalClient
	key    string
	ttl    time.Duration
	wait   time.Duration
	log    *slog.Logger
}

func NewRedisLock(client redis.UniversalClient, key string, ttl, wait time.Duration, log *slog.Logger) *RedisLock {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &RedisLock{
		client: client,
		key:    key,
		ttl:    ttl,
		wait:   wait,
		log:    log.With(sl.Module("lock"), slog.String("key", key)),
	}
}

// Lock blocks until the key is taken, wait elapses or ctx is done.
func (l *RedisLock) Lock(ctx context.Context) (func(), error) {
	token := uuid.NewString()
	deadline := time.Now().Add(l.wait)

	for {
		ok, err := l.client.SetNX(ctx, l.key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return func() { l.release(token) }, nil
		}
		if !time.Now().Before(deadline) {
			return nil, ErrNotAcquired
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(retryInterval):
		}
	}
}

func (l *RedisLock) release(token string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	deleted, err := releaseScript.Run(ctx, l.client, []string{l.key}, token).Int()
	if err != nil {
		l.log.Error("release lock", sl.Err(err))
		return
	}
	if deleted == 0 {
		l.log.Warn("lock expired before release")
	}
}
