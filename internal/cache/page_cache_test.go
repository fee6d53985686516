package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRejectsBadURL(t *testing.T) {
	_, err := New("http://localhost:6379", time.Hour)
	assert.Error(t, err)
}

func TestUnreachableRedisIsAMiss(t *testing.T) {
	c, err := New("redis://127.0.0.1:1/0?max_retries=-1&dial_timeout=200ms", time.Hour)
	require.NoError(t, err)
	defer c.Close()

	ctx := context.Background()
	assert.Error(t, c.Ping(ctx))

	c.Set(ctx, "https://adaptogen.com.br/produto/x/", []byte("<html></html>"))
	body, ok := c.Get(ctx, "https://adaptogen.com.br/produto/x/")
	assert.False(t, ok)
	assert.Nil(t, body)
}
