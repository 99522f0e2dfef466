package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// UserNames is a best-effort display-name cache. Every failure path, a nil
// client included, behaves like a miss so sender resolution falls through
// to the API.
type UserNames struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewUserNames(rdb *redis.Client, ttl time.Duration) *UserNames {
	return &UserNames{rdb: rdb, ttl: ttl}
}

func key(userID int64) string {
	return fmt.Sprintf("e6ai:username:%d", userID)
}

func (c *UserNames) Get(ctx context.Context, userID int64) (string, bool) {
	if c == nil || c.rdb == nil {
		return "", false
	}
	name, err := c.rdb.Get(ctx, key(userID)).Result()
	if err != nil {
		return "", false
	}
	return name, true
}

func (c *UserNames) Set(ctx context.Context, userID int64, name string) {
	if c == nil || c.rdb == nil {
		return
	}
	_ = c.rdb.Set(ctx, key(userID), name, c.ttl).Err()
}
