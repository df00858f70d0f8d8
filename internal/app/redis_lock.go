/**
 * @description
 * Redis-backed single-instance guard for the daily accrual run. The first
 * instance to SET NX the day's key wins the run; the key expires after the
 * lock TTL so a crashed holder cannot block the next day.
 */
package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAccrualLock implements RunLocker using a Redis SET NX key per calendar day.
type RedisAccrualLock struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// NewRedisAccrualLock creates a lock with the given key prefix and TTL. A zero
// TTL defaults to 23 hours, slightly under the daily cadence so a stale key
// never blocks the following day's run.
func NewRedisAccrualLock(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisAccrualLock {
	trimmedPrefix := strings.TrimSpace(prefix)
	if trimmedPrefix == "" {
		trimmedPrefix = "growvest:accrual_lock"
	}
	trimmedPrefix = strings.TrimSuffix(trimmedPrefix, ":")
	if ttl <= 0 {
		ttl = 23 * time.Hour
	}

	return &RedisAccrualLock{
		client: client,
		prefix: trimmedPrefix,
		ttl:    ttl,
	}
}

// AcquireDailyLock attempts to claim the accrual run for the given day. A nil
// client always acquires, so single-instance deployments can run without Redis.
func (l *RedisAccrualLock) AcquireDailyLock(ctx context.Context, day string) (bool, error) {
	if l == nil || l.client == nil {
		return true, nil
	}

	key := fmt.Sprintf("%s:%s", l.prefix, day)
	acquired, err := l.client.SetNX(ctx, key, time.Now().UTC().Format(time.RFC3339), l.ttl).Result()
	if err != nil {
		return false, err
	}
	return acquired, nil
}
