package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type voice struct {
	ID   string `json:"voiceId"`
	Name string `json:"displayName"`
}

func newTestCache(t *testing.T) (*Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewCache(client, "voiceagent"), mr
}

func TestCache_SetGetWithPrefix(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	want := []voice{{ID: "en-IN-aarav", Name: "Aarav"}}
	require.NoError(t, c.Set(ctx, "voices:murf", want, time.Minute))
	assert.True(t, mr.Exists("voiceagent:voices:murf"))

	var got []voice
	require.NoError(t, c.Get(ctx, "voices:murf", &got))
	assert.Equal(t, want, got)
}

func TestCache_MissAndExpiry(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()

	var got []voice
	assert.ErrorIs(t, c.Get(ctx, "voices:murf", &got), ErrMiss)

	require.NoError(t, c.Set(ctx, "voices:murf", []voice{{ID: "a"}}, time.Minute))
	mr.FastForward(time.Minute + time.Second)
	assert.ErrorIs(t, c.Get(ctx, "voices:murf", &got), ErrMiss)
}

func TestCache_UndecodableValue(t *testing.T) {
	c, mr := newTestCache(t)
	require.NoError(t, mr.Set("voiceagent:voices:murf", "not json"))

	var got []voice
	err := c.Get(context.Background(), "voices:murf", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestCache_PingAndOutage(t *testing.T) {
	c, mr := newTestCache(t)
	ctx := context.Background()
	require.NoError(t, c.Ping(ctx))

	mr.Close()
	assert.Error(t, c.Ping(ctx))

	var got []voice
	err := c.Get(ctx, "voices:murf", &got)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}
