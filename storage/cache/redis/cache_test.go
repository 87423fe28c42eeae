package rediscache

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/trezcool/ecole/core"
)

func TestNew_disabled(t *testing.T) {
	c, err := New(core.RedisConfig{})
	require.NoError(t, err)
	assert.Nil(t, c)
}

func TestCache_emptyKey(t *testing.T) {
	client := redis.NewClient(&redis.Options{Addr: "localhost:0"})
	c := NewWithClient(client, 0)
	t.Cleanup(func() { _ = c.Close() })
	assert.Equal(t, defaultTTL, c.ttl)

	ctx := context.Background()
	var dst []string
	_, err := c.Get(ctx, "", &dst)
	assert.Equal(t, errEmptyKey, err)
	assert.Equal(t, errEmptyKey, c.Set(ctx, "", dst))
	assert.NoError(t, c.Delete(ctx))

	assert.Equal(t, time.Minute, NewWithClient(client, time.Minute).ttl)
}
