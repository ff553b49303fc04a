package lock

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"

	"alcyxob/plan-engine/internal/config"
	"alcyxob/plan-engine/internal/domain"
	"alcyxob/plan-engine/internal/logger"
)

const keyPrefix = "plan-engine:inflight:"

// releaseScript deletes the key only if it still holds our token, so an
// expired lease never frees a lock someone else took over.
var releaseScript = goredis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type redisGuard struct {
	rdb goredis.UniversalClient
	ttl time.Duration
	log *logger.Logger
}

// NewRedis returns a Guard shared by every instance connected to rdb. ttl
// bounds how long a crashed holder can block a user.
func NewRedis(rdb goredis.UniversalClient, ttl time.Duration, log *logger.Logger) Guard {
	if ttl <= 0 {
		ttl = 3 * time.Minute
	}
	return &redisGuard{rdb: rdb, ttl: ttl, log: log.With("component", "RedisGuard")}
}

// Connect dials redis and verifies the connection.
func Connect(cfg config.RedisConfig) (*goredis.Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: cfg.DialTimeout,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}

func (g *redisGuard) Acquire(ctx context.Context, userID string) (func(), error) {
	key := keyPrefix + userID
	token := uuid.NewString()
	ok, err := g.rdb.SetNX(ctx, key, token, g.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, domain.ErrPersistenceConflict
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			// The request context may already be gone.
			rctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(rctx, g.rdb, []string{key}, token).Err(); err != nil {
				g.log.Warn("failed to release lock", "user_id", userID, "error", err)
			}
		})
	}, nil
}
