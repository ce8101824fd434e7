package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RosterLocker serialises roster mutations of one council across API instances.
type RosterLocker interface {
	Lock(ctx context.Context, councilID uint) (unlock func(), err error)
}

var releaseLockScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

type redisRosterLocker struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewRosterLocker builds a SETNX based lock. A nil client returns a no-op locker.
func NewRosterLocker(client *redis.Client, ttl time.Duration, logger zerolog.Logger) RosterLocker {
	if ttl <= 0 {
		ttl = 10 * time.Second
	}
	return &redisRosterLocker{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "roster_locker").Logger(),
	}
}

func (l *redisRosterLocker) Lock(ctx context.Context, councilID uint) (func(), error) {
	if l.client == nil {
		return func() {}, nil
	}

	key := fmt.Sprintf("lock:council:%d:roster", councilID)
	token := uuid.NewString()

	acquired, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire roster lock: %w", err)
	}
	if !acquired {
		return nil, ErrCouncilBusy
	}

	return func() {
		if err := releaseLockScript.Run(context.Background(), l.client, []string{key}, token).Err(); err != nil && err != redis.Nil {
			l.logger.Warn().Err(err).Uint("council_id", councilID).Msg("failed to release roster lock")
		}
	}, nil
}
