package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// releaseScript deletes the lock only if it still holds our token, so an
// expired lock re-acquired by someone else is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisConfig configures a Redis-backed Locker.
type RedisConfig struct {
	// Prefix is prepended to every key. Default: "mockprep:lock:".
	Prefix string
	// TTL bounds how long a crashed holder can keep the lock. It must
	// exceed the longest operation, LLM calls included. Default: 2m.
	TTL time.Duration
	// Wait bounds acquisition. Default: 10s.
	Wait time.Duration
	// RetryInterval is the delay between acquisition attempts. Default: 50ms.
	RetryInterval time.Duration
	// Logger records failed releases. Default: no-op.
	Logger *zap.Logger
}

// Redis is a Locker shared by every instance talking to the same Redis.
type Redis struct {
	client redis.UniversalClient
	cfg    RedisConfig
}

// NewRedis creates a Redis-backed Locker.
func NewRedis(client redis.UniversalClient, cfg RedisConfig) *Redis {
	if cfg.Prefix == "" {
		cfg.Prefix = "mockprep:lock:"
	}
	if cfg.TTL <= 0 {
		cfg.TTL = 2 * time.Minute
	}
	if cfg.Wait <= 0 {
		cfg.Wait = 10 * time.Second
	}
	if cfg.RetryInterval <= 0 {
		cfg.RetryInterval = 50 * time.Millisecond
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	return &Redis{client: client, cfg: cfg}
}

// Lock acquires key with SET NX PX, polling until Wait elapses.
func (r *Redis) Lock(ctx context.Context, key string) (func(), error) {
	redisKey := r.cfg.Prefix + key
	token := uuid.NewString()

	deadline := time.NewTimer(r.cfg.Wait)
	defer deadline.Stop()
	ticker := time.NewTicker(r.cfg.RetryInterval)
	defer ticker.Stop()

	for {
		ok, err := r.client.SetNX(ctx, redisKey, token, r.cfg.TTL).Result()
		if err != nil {
			return nil, fmt.Errorf("acquire lock %s: %w", key, err)
		}
		if ok {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-deadline.C:
			return nil, ErrTimeout
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release with a fresh context: the caller's may already be done.
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, r.client, []string{redisKey}, token).Err(); err != nil {
				r.cfg.Logger.Warn("release session lock failed, held until ttl",
					zap.String("key", redisKey),
					zap.Duration("ttl", r.cfg.TTL),
					zap.Error(err))
			}
		})
	}, nil
}
