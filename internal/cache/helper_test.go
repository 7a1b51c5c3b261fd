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

type cachedPost struct {
	ID          uint   `json:"id"`
	Description string `json:"description"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })
	return mr
}

func TestGetJSON_MissAndHit(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	var out cachedPost
	found, err := GetJSON(ctx, PostKey(1), &out)
	assert.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, SetJSON(ctx, PostKey(1), cachedPost{ID: 1, Description: "sunset"}, PostTTL))

	found, err = GetJSON(ctx, PostKey(1), &out)
	assert.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "sunset", out.Description)
}

func TestGetJSON_NoClientIsMiss(t *testing.T) {
	SetClient(nil)

	var out cachedPost
	found, err := GetJSON(context.Background(), PostKey(2), &out)
	assert.NoError(t, err)
	assert.False(t, found)
	assert.NoError(t, SetJSON(context.Background(), PostKey(2), out, time.Minute))
}

func TestCacheAside_FetchesOnceThenServesFromCache(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	calls := 0
	fetch := func(dest *cachedPost) func() error {
		return func() error {
			calls++
			dest.ID = 7
			dest.Description = "from db"
			return nil
		}
	}

	var first cachedPost
	require.NoError(t, CacheAside(ctx, PostKey(7), &first, PostTTL, fetch(&first)))
	assert.Equal(t, 1, calls)
	assert.Equal(t, "from db", first.Description)

	var second cachedPost
	require.NoError(t, CacheAside(ctx, PostKey(7), &second, PostTTL, fetch(&second)))
	assert.Equal(t, 1, calls, "second read should hit the cache")
	assert.Equal(t, uint(7), second.ID)
}

func TestInvalidatePostDropsListPages(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, PostKey(3), cachedPost{ID: 3}, PostTTL))
	require.NoError(t, SetJSON(ctx, PostsListKey(10, 0), []cachedPost{{ID: 3}}, PostsListTTL))
	require.NoError(t, SetJSON(ctx, PostsListKey(10, 10), []cachedPost{}, PostsListTTL))

	InvalidatePost(ctx, 3)

	assert.False(t, mr.Exists(PostKey(3)))
	assert.False(t, mr.Exists(PostsListKey(10, 0)))
	assert.False(t, mr.Exists(PostsListKey(10, 10)))
}
