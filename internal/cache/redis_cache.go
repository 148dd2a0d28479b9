package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Baaaki/pet-adoption/internal/models"
	"github.com/redis/go-redis/v9"
)

const (
	availableKey  = "pets:available"
	generationKey = "pets:available:gen"
)

// RedisListingCache implements ListingCache with a single JSON value
type RedisListingCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisListingCache connects to redisURL and pings it once
func NewRedisListingCache(ctx context.Context, redisURL string, ttl time.Duration) (*RedisListingCache, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, err
	}

	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, err
	}

	return NewRedisListingCacheFromClient(client, ttl), nil
}

func NewRedisListingCacheFromClient(client *redis.Client, ttl time.Duration) *RedisListingCache {
	return &RedisListingCache{
		client: client,
		ttl:    ttl,
	}
}

func (r *RedisListingCache) GetAvailable(ctx context.Context) ([]models.Pet, bool, error) {
	data, err := r.client.Get(ctx, availableKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var pets []models.Pet
	if err := json.Unmarshal(data, &pets); err != nil {
		// A value we cannot read is as good as a miss
		return nil, false, err
	}
	return pets, true, nil
}

func (r *RedisListingCache) Generation(ctx context.Context) (int64, error) {
	return readGeneration(ctx, r.client)
}

// SetAvailable stores the snapshot only while the generation still equals
// generation. A stale snapshot is dropped without error.
func (r *RedisListingCache) SetAvailable(ctx context.Context, generation int64, pets []models.Pet) error {
	if pets == nil {
		pets = []models.Pet{}
	}
	data, err := json.Marshal(pets)
	if err != nil {
		return err
	}

	err = r.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := readGeneration(ctx, tx)
		if err != nil {
			return err
		}
		if current != generation {
			return nil
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, availableKey, data, r.ttl)
			return nil
		})
		return err
	}, generationKey)
	if errors.Is(err, redis.TxFailedErr) {
		// Invalidated between WATCH and EXEC
		return nil
	}
	return err
}

func (r *RedisListingCache) Invalidate(ctx context.Context) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Incr(ctx, generationKey)
		pipe.Del(ctx, availableKey)
		return nil
	})
	return err
}

type stringGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func readGeneration(ctx context.Context, c stringGetter) (int64, error) {
	generation, err := c.Get(ctx, generationKey).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return generation, err
}

func (r *RedisListingCache) Close() error {
	return r.client.Close()
}
