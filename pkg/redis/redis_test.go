package redis_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/ideabox/pkg/redis"
)

func TestConnect_NotConfigured(t *testing.T) {
	t.Parallel()

	client, err := redis.Connect(context.Background(), redis.Config{})
	require.ErrorIs(t, err, redis.ErrEmptyConnectionURL)
	assert.Nil(t, client)
}

func TestConnect_InvalidURL(t *testing.T) {
	t.Parallel()

	_, err := redis.Connect(context.Background(), redis.Config{ConnectionURL: "http://localhost:6379"})
	require.ErrorIs(t, err, redis.ErrFailedToParseRedisConnString)
}
