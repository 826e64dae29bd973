package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newClock(start time.Time) (*time.Time, func() time.Time) {
	now := start
	return &now, func() time.Time { return now }
}

func TestMemoryStoreTTLBoundary(t *testing.T) {
	ctx := context.Background()
	start := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	now, clock := newClock(start)

	store := NewMemoryStore(0)
	store.now = clock

	require.NoError(t, store.Set(ctx, "k", []byte("v"), 5*time.Second))

	*now = start.Add(4900 * time.Millisecond)
	value, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []byte("v"), value)

	*now = start.Add(5100 * time.Millisecond)
	_, ok, err = store.Get(ctx, "k")
	require.NoError(t, err)
	assert.False(t, ok)

	// Expired entries are evicted on access, not just hidden.
	assert.Equal(t, 0, store.Len())
}

func TestMemoryStoreFIFOEviction(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(30)

	require.NoError(t, store.Set(ctx, "a", make([]byte, 10), time.Minute))
	require.NoError(t, store.Set(ctx, "b", make([]byte, 10), time.Minute))
	require.NoError(t, store.Set(ctx, "c", make([]byte, 10), time.Minute))

	// Inserting a fourth entry exceeds the bound; the oldest write goes.
	require.NoError(t, store.Set(ctx, "d", make([]byte, 10), time.Minute))

	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok, "oldest entry should be evicted")
	for _, key := range []string{"b", "c", "d"} {
		_, ok, _ := store.Get(ctx, key)
		assert.True(t, ok, "entry %q should survive", key)
	}
	assert.Equal(t, 3, store.Len())
}

func TestMemoryStoreOversizedEntryAccepted(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(10)

	require.NoError(t, store.Set(ctx, "small", make([]byte, 5), time.Minute))
	require.NoError(t, store.Set(ctx, "huge", make([]byte, 50), time.Minute))

	_, ok, _ := store.Get(ctx, "huge")
	assert.True(t, ok, "an entry larger than the bound is still stored")
	_, ok, _ = store.Get(ctx, "small")
	assert.False(t, ok, "everything older is evicted to make room")

	// The next write evicts the oversized entry in turn.
	require.NoError(t, store.Set(ctx, "next", make([]byte, 5), time.Minute))
	_, ok, _ = store.Get(ctx, "huge")
	assert.False(t, ok)
}

func TestMemoryStoreDeletePrefix(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore(0)

	require.NoError(t, store.Set(ctx, "content:post:1", []byte("a"), time.Minute))
	require.NoError(t, store.Set(ctx, "content:postlist:p1:s10", []byte("b"), time.Minute))
	require.NoError(t, store.Set(ctx, "other:x", []byte("c"), time.Minute))

	require.NoError(t, store.DeletePrefix(ctx, "content:"))

	_, ok, _ := store.Get(ctx, "content:post:1")
	assert.False(t, ok)
	_, ok, _ = store.Get(ctx, "other:x")
	assert.True(t, ok)
}

func TestCacheDomainKeysDoNotCollide(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(0), TTLs{Default: time.Minute}, zap.NewNop())

	c.SetPostList(ctx, 1, 10, []string{"page1"})
	c.SetPostList(ctx, 2, 10, []string{"page2"})
	c.SetPostList(ctx, 1, 20, []string{"page1-wide"})

	var got []string
	require.True(t, c.GetPostList(ctx, 1, 10, &got))
	assert.Equal(t, []string{"page1"}, got)
	require.True(t, c.GetPostList(ctx, 2, 10, &got))
	assert.Equal(t, []string{"page2"}, got)
	require.True(t, c.GetPostList(ctx, 1, 20, &got))
	assert.Equal(t, []string{"page1-wide"}, got)
}

func TestCacheInvalidateContent(t *testing.T) {
	ctx := context.Background()
	c := New(NewMemoryStore(0), TTLs{Default: time.Minute}, zap.NewNop())

	c.SetPost(ctx, "id-1", map[string]string{"title": "hello"})
	c.SetCategories(ctx, []string{"news"})

	c.InvalidateContent(ctx)

	var post map[string]string
	assert.False(t, c.GetPost(ctx, "id-1", &post))
	var cats []string
	assert.False(t, c.GetCategories(ctx, &cats))
}
