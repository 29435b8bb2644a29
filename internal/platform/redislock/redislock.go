// Package redislock provides a per-unit mutual exclusion lock shared by every
// replica of the service, built on Redis SET NX with a fencing token.
package redislock

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"github.com/phrazzld/curriculum-api/internal/config"
	"github.com/phrazzld/curriculum-api/internal/platform/logger"
)

const keyPrefix = "curriculum:unit-lock:"

// DefaultRetryInterval is how long Lock waits between acquisition attempts.
const DefaultRetryInterval = 50 * time.Millisecond

// ErrNotAcquired is returned when the context ends before the lock is free.
var ErrNotAcquired = errors.New("unit lock not acquired")

// releaseScript deletes the key only if it still holds our token, so a lock
// that expired and was taken by someone else is left alone.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// NewClient connects to Redis and verifies the connection with a ping.
func NewClient(ctx context.Context, cfg config.RedisConfig, l *slog.Logger) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := rdb.Ping(pingCtx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", cfg.Addr, err)
	}

	l.Info("redis connection established", slog.String("addr", cfg.Addr))
	return rdb, nil
}

// Locker hands out per-unit locks that expire after ttl if the holder dies.
type Locker struct {
	rdb   goredis.UniversalClient
	ttl   time.Duration
	retry time.Duration
	log   *slog.Logger
}

// New creates a Locker. ttl bounds how long a crashed holder can block a unit.
func New(rdb goredis.UniversalClient, ttl time.Duration, l *slog.Logger) *Locker {
	if l == nil {
		l = slog.Default()
	}
	return &Locker{
		rdb:   rdb,
		ttl:   ttl,
		retry: DefaultRetryInterval,
		log:   l.With(slog.String("component", "redis_unit_locker")),
	}
}

// Lock blocks until the unit's lock is acquired or ctx ends. The returned
// function releases the lock and is safe to call more than once.
func (l *Locker) Lock(ctx context.Context, unitID uuid.UUID) (func(), error) {
	key := keyPrefix + unitID.String()
	token := uuid.NewString()
	log := logger.FromContextOrDefault(ctx, l.log).With(slog.String("unit_id", unitID.String()))

	ticker := time.NewTicker(l.retry)
	defer ticker.Stop()

	for {
		ok, err := l.rdb.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("failed to acquire lock for unit %s: %w", unitID, err)
		}
		if ok {
			break
		}

		select {
		case <-ctx.Done():
			return nil, fmt.Errorf("%w: unit %s: %w", ErrNotAcquired, unitID, ctx.Err())
		case <-ticker.C:
		}
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// Release even if the caller's context is already done.
			relCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), 2*time.Second)
			defer cancel()

			if err := releaseScript.Run(relCtx, l.rdb, []string{key}, token).Err(); err != nil {
				log.Warn("failed to release unit lock; it will expire",
					slog.String("error", err.Error()),
					slog.Duration("ttl", l.ttl))
			}
		})
	}, nil
}
