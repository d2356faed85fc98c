package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/oggyb/tripmate-match/internal/config"
)

const defaultTTL = time.Hour

type RedisCache struct {
	Client *redis.Client
	ttl    time.Duration
}

// NewRedisCache initializes Redis client from config.
// Only Addr is mandatory, Password/DB are optional.
func NewRedisCache(cfg *config.Config) *RedisCache {
	opts := &redis.Options{
		Addr: cfg.Redis.Addr,
	}
	if cfg.Redis.Password != "" {
		opts.Password = cfg.Redis.Password
	}
	if cfg.Redis.DB != 0 {
		opts.DB = cfg.Redis.DB
	}
	ttl := cfg.Likes.CacheTTL
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &RedisCache{Client: redis.NewClient(opts), ttl: ttl}
}

func (c *RedisCache) Ping(ctx context.Context) error {
	return c.Client.Ping(ctx).Err()
}

func (c *RedisCache) Close() error {
	return c.Client.Close()
}

// KeyForUnseenLikes generates Redis key for a user's unseen likes badge.
func (c *RedisCache) KeyForUnseenLikes(userID string) string {
	return fmt.Sprintf("likes:unseen:%s", userID)
}

// keyForUnseenVersion holds a counter bumped on every invalidation. A count
// computed from the database is only cached if the counter did not move
// while it was being computed.
func (c *RedisCache) keyForUnseenVersion(userID string) string {
	return fmt.Sprintf("likes:unseen:ver:%s", userID)
}

// UnseenLikesVersion returns the current invalidation counter for userID.
// Read it before querying the database and hand it to SetUnseenLikes.
func (c *RedisCache) UnseenLikesVersion(ctx context.Context, userID string) (int64, error) {
	v, err := c.Client.Get(ctx, c.keyForUnseenVersion(userID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// SetUnseenLikes stores the badge count with a fresh TTL, unless the count
// was invalidated after version was read. stored reports whether it was
// written.
func (c *RedisCache) SetUnseenLikes(ctx context.Context, userID string, count, version int64) (stored bool, err error) {
	verKey := c.keyForUnseenVersion(userID)
	err = c.Client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, verKey).Int64()
		if errors.Is(err, redis.Nil) {
			cur = 0
		} else if err != nil {
			return err
		}
		if cur != version {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, c.KeyForUnseenLikes(userID), count, c.ttl)
			return nil
		})
		if err == nil {
			stored = true
		}
		return err
	}, verKey)
	if errors.Is(err, redis.TxFailedErr) {
		// invalidated while we were writing
		return false, nil
	}
	return stored, err
}

// GetUnseenLikes returns the cached count. ok is false on a miss or when the
// stored value is not a number.
func (c *RedisCache) GetUnseenLikes(ctx context.Context, userID string) (count int64, ok bool, err error) {
	key := c.KeyForUnseenLikes(userID)
	val, err := c.Client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil // cache miss
	} else if err != nil {
		return 0, false, err
	}
	n, perr := strconv.ParseInt(val, 10, 64)
	if perr != nil {
		return 0, false, nil
	}
	// refresh TTL on access
	_ = c.Client.Expire(ctx, key, c.ttl).Err()
	return n, true, nil
}

// InvalidateUnseenLikes drops the cached counts of every given user and
// bumps their version counters so in-flight recomputations are discarded.
func (c *RedisCache) InvalidateUnseenLikes(ctx context.Context, userIDs ...string) error {
	if len(userIDs) == 0 {
		return nil
	}
	_, err := c.Client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for _, id := range userIDs {
			verKey := c.keyForUnseenVersion(id)
			pipe.Del(ctx, c.KeyForUnseenLikes(id))
			pipe.Incr(ctx, verKey)
			// outlive any cached count so a stale version cannot come back
			pipe.Expire(ctx, verKey, 2*c.ttl)
		}
		return nil
	})
	return err
}
