package redis

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/eventmanager/booking-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

type Cache struct {
	Client *redis.Client
}

func New(addr, pass string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr: addr, Password: pass, DB: db,
	})
	return &Cache{Client: rdb}
}

func availabilityKey(eventID string) string {
	return "event:avail:" + eventID
}

func (c *Cache) GetEventAvailability(ctx context.Context, eventID string) (int, error) {
	val, err := c.Client.Get(ctx, availabilityKey(eventID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return 0, domain.ErrCacheMiss
		}
		return 0, err
	}
	return strconv.Atoi(val)
}

func (c *Cache) SetEventAvailability(ctx context.Context, eventID string, seats int, ttl time.Duration) error {
	return c.Client.Set(ctx, availabilityKey(eventID), seats, ttl).Err()
}

func (c *Cache) InvalidateEventAvailability(ctx context.Context, eventID string) error {
	return c.Client.Del(ctx, availabilityKey(eventID)).Err()
}

// AllowRequest: Simple Fixed Window Rate Limit
func (c *Cache) AllowRequest(ctx context.Context, ip string, limit int, window time.Duration) (bool, error) {
	key := "ratelimit:" + ip
	count, err := c.Client.Incr(ctx, key).Result()
	if err != nil {
		return true, nil // fail open
	}
	if count == 1 {
		_ = c.Client.Expire(ctx, key, window).Err()
	}
	return count <= int64(limit), nil
}
