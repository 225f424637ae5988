package spendtotals

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// reserveScript checks the ceiling and increments in one server-side step so
// concurrent reservations across processes stay atomic.
var reserveScript = redis.NewScript(`
local amount = tonumber(ARGV[1])
local ceiling = tonumber(ARGV[2])
local ttl = tonumber(ARGV[3])
local total = tonumber(redis.call('GET', KEYS[1]) or '0')
if total + amount > ceiling then
	return {0, total}
end
redis.call('INCRBY', KEYS[1], amount)
redis.call('EXPIRE', KEYS[1], ttl)
return {1, total}
`)

// RedisStore keeps running totals in Redis, keyed by account and period.
// Keys expire after the retention window so stale periods clean themselves up.
type RedisStore struct {
	client    *redis.Client
	retention time.Duration
}

func NewRedisStore(client *redis.Client, retention time.Duration) *RedisStore {
	if retention <= 0 {
		retention = 48 * time.Hour
	}
	return &RedisStore{client: client, retention: retention}
}

func (s *RedisStore) key(accountToken, period string) string {
	return "spendtotals:" + accountToken + ":" + period
}

func (s *RedisStore) ReserveSpend(ctx context.Context, accountToken, period string, amount, ceiling int64) (bool, int64, error) {
	res, err := reserveScript.Run(ctx, s.client,
		[]string{s.key(accountToken, period)},
		amount, ceiling, int64(s.retention.Seconds()),
	).Int64Slice()
	if err != nil {
		return false, 0, fmt.Errorf("reserve spend: %w", err)
	}
	if len(res) != 2 {
		return false, 0, fmt.Errorf("reserve spend: unexpected script reply %v", res)
	}
	return res[0] == 1, res[1], nil
}

func (s *RedisStore) ReleaseSpend(ctx context.Context, accountToken, period string, amount int64) error {
	key := s.key(accountToken, period)
	total, err := s.client.DecrBy(ctx, key, amount).Result()
	if err != nil {
		return fmt.Errorf("release spend: %w", err)
	}
	if total < 0 {
		// Clamp rather than go negative; a release without a matching
		// reserve only happens after a period rollover.
		if err := s.client.Set(ctx, key, 0, s.retention).Err(); err != nil {
			return fmt.Errorf("release spend clamp: %w", err)
		}
	}
	return nil
}
