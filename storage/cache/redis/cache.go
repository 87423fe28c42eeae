// Package rediscache stores computed reports in Redis, JSON-encoded, for a limited time.
package rediscache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"

	"github.com/trezcool/ecole/core"
	"github.com/trezcool/ecole/core/risk"
)

const (
	keyPrefix   = "ecole:"
	defaultTTL  = 5 * time.Minute
	pingTimeout = 5 * time.Second
)

var errEmptyKey = errors.New("cache key cannot be empty")

type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

var _ risk.ReportCache = (*Cache)(nil)

// New connects to redis. It returns a nil Cache when no address is configured.
func New(conf core.RedisConfig) (*Cache, error) {
	if conf.Addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, errors.Wrap(err, "pinging redis")
	}
	return NewWithClient(client, conf.RiskTTL), nil
}

func NewWithClient(client *redis.Client, ttl time.Duration) *Cache {
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Cache{client: client, ttl: ttl}
}

func (c *Cache) Get(ctx context.Context, key string, dst interface{}) (bool, error) {
	if key == "" {
		return false, errEmptyKey
	}
	data, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		return false, errors.Wrap(err, "redis get")
	}
	if err := json.Unmarshal(data, dst); err != nil {
		return false, errors.Wrap(err, "decoding cached value")
	}
	return true, nil
}

func (c *Cache) Set(ctx context.Context, key string, v interface{}) error {
	if key == "" {
		return errEmptyKey
	}
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "encoding value to cache")
	}
	return errors.Wrap(c.client.Set(ctx, keyPrefix+key, data, c.ttl).Err(), "redis set")
}

// Delete drops the given keys, e.g. once a sweep changed the data behind a report.
func (c *Cache) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	prefixed := make([]string, len(keys))
	for i, k := range keys {
		prefixed[i] = keyPrefix + k
	}
	return errors.Wrap(c.client.Del(ctx, prefixed...).Err(), "redis del")
}

func (c *Cache) Close() error {
	return c.client.Close()
}
