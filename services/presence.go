package services

import (
	"context"
	"fmt"
	"time"

	"github.com/betesebbet/bingo-backend/game"
	"github.com/go-redis/redis/v8"
)

// presenceTTL reaps round membership sets long after any round could still
// be live, covering instances that died without leaving.
const presenceTTL = time.Hour

// RedisRegistry is the shared join/leave registry. Every server instance
// serving the same (mode, stake, start instant) sees the same entrant count,
// which is what makes the matchmaking gate honest across processes.
type RedisRegistry struct {
	rdb *redis.Client
}

// NewRedisRegistry connects and pings the store; a registry that cannot be
// reached at startup is a configuration error.
func NewRedisRegistry(addr string) (*RedisRegistry, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr})
	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("presence: redis ping: %w", err)
	}
	return &RedisRegistry{rdb: rdb}, nil
}

func (r *RedisRegistry) Join(ctx context.Context, key game.RoundKey, playerID string) error {
	k := roundSetKey(key)
	pipe := r.rdb.TxPipeline()
	pipe.SAdd(ctx, k, playerID)
	pipe.Expire(ctx, k, presenceTTL)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisRegistry) Leave(ctx context.Context, key game.RoundKey, playerID string) error {
	return r.rdb.SRem(ctx, roundSetKey(key), playerID).Err()
}

func (r *RedisRegistry) Count(ctx context.Context, key game.RoundKey) (int, error) {
	n, err := r.rdb.SCard(ctx, roundSetKey(key)).Result()
	return int(n), err
}

func roundSetKey(key game.RoundKey) string {
	return fmt.Sprintf("round:%s:%d:%d:players", key.Mode, key.Stake, key.StartMS)
}
