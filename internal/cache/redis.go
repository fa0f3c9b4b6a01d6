package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/vkirilenko/busbooker/config"
	"github.com/vkirilenko/busbooker/internal/domain"
)

type RedisCache struct {
	client   *redis.Client
	tripsTTL time.Duration
}

func NewRedisCache(cfg config.RedisConfig, tripsTTL time.Duration) *RedisCache {
	return &RedisCache{
		client:   redis.NewClient(&redis.Options{Addr: cfg.Addr, Password: cfg.Password, DB: cfg.DB}),
		tripsTTL: tripsTTL,
	}
}

func (c *RedisCache) GetTrips(ctx context.Context, searchKey string) ([]domain.Trip, error) {
	data, err := c.client.Get(ctx, tripsKey(searchKey)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, err
	}

	var trips []domain.Trip
	if err := json.Unmarshal(data, &trips); err != nil {
		return nil, err
	}
	return trips, nil
}

func (c *RedisCache) SetTrips(ctx context.Context, searchKey string, trips []domain.Trip) error {
	payload, err := json.Marshal(trips)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, tripsKey(searchKey), payload, c.tripsTTL).Err()
}

// AcquireSeatLock holds a seat while a booking is being priced and paid for.
// The lock expires on its own if the booking never completes.
func (c *RedisCache) AcquireSeatLock(ctx context.Context, tripID int64, seat string, ttl time.Duration) (bool, error) {
	return c.client.SetNX(ctx, seatLockKey(tripID, seat), "locked", ttl).Result()
}

func (c *RedisCache) ReleaseSeatLock(ctx context.Context, tripID int64, seat string) error {
	return c.client.Del(ctx, seatLockKey(tripID, seat)).Err()
}

func tripsKey(searchKey string) string {
	return "cache:trips:" + searchKey
}

func seatLockKey(tripID int64, seat string) string {
	return fmt.Sprintf("lock:trip:%d:seat:%s", tripID, strings.ToUpper(seat))
}
