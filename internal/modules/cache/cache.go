// Package cache shields the content read path from the remote CMS. Every
// entry carries its own TTL, expiry is lazy, and the whole content namespace
// can be dropped in one call after a write-side change.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Store is a cache backend. MemoryStore and RedisStore implement it.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	DeletePrefix(ctx context.Context, prefix string) error
}

// contentNamespace prefixes every content-derived key so invalidation can
// clear them without touching unrelated cache users.
const contentNamespace = "content:"

// Key builders. Keys are deterministic so identical reads always land on
// the same entry.
func postKey(localID string) string { return contentNamespace + "post:" + localID }
func postListKey(page, size int) string {
	return fmt.Sprintf("%spostlist:p%d:s%d", contentNamespace, page, size)
}
func categoriesKey() string { return contentNamespace + "categories" }
func tagsKey() string       { return contentNamespace + "tags" }

// TTLs controls how long each domain shape lives.
type TTLs struct {
	Default  time.Duration
	PostList time.Duration
}

// Cache is the typed facade over a Store.
type Cache struct {
	store  Store
	ttls   TTLs
	logger *zap.Logger
}

// New builds a Cache over the given backend.
func New(store Store, ttls TTLs, logger *zap.Logger) *Cache {
	if logger == nil {
		logger = zap.NewNop()
	}
	if ttls.Default <= 0 {
		ttls.Default = 5 * time.Minute
	}
	if ttls.PostList <= 0 {
		ttls.PostList = ttls.Default
	}
	return &Cache{store: store, ttls: ttls, logger: logger}
}

// Get unmarshals the entry at key into out. A miss, an expired entry, or a
// backend error all report !ok; cache errors never fail the read path.
func (c *Cache) Get(ctx context.Context, key string, out interface{}) bool {
	raw, ok, err := c.store.Get(ctx, key)
	if err != nil {
		c.logger.Warn("cache get failed", zap.String("key", key), zap.Error(err))
		return false
	}
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, out); err != nil {
		c.logger.Warn("cache entry corrupt, dropping", zap.String("key", key), zap.Error(err))
		_ = c.store.Delete(ctx, key)
		return false
	}
	return true
}

// Set marshals value and stores it under key with the given TTL.
func (c *Cache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) {
	raw, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("cache marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := c.store.Set(ctx, key, raw, ttl); err != nil {
		c.logger.Warn("cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes one entry.
func (c *Cache) Delete(ctx context.Context, key string) {
	if err := c.store.Delete(ctx, key); err != nil {
		c.logger.Warn("cache delete failed", zap.String("key", key), zap.Error(err))
	}
}

// InvalidateContent drops every content-derived entry. Called after any
// reconcile, publish, or delete that changes local content.
func (c *Cache) InvalidateContent(ctx context.Context) {
	if err := c.store.DeletePrefix(ctx, contentNamespace); err != nil {
		c.logger.Warn("cache namespace invalidation failed", zap.Error(err))
	}
}

// Domain helpers. Read paths call the Get side first and fill on miss.

func (c *Cache) GetPost(ctx context.Context, localID string, out interface{}) bool {
	return c.Get(ctx, postKey(localID), out)
}

func (c *Cache) SetPost(ctx context.Context, localID string, value interface{}) {
	c.Set(ctx, postKey(localID), value, c.ttls.Default)
}

func (c *Cache) DeletePost(ctx context.Context, localID string) {
	c.Delete(ctx, postKey(localID))
}

func (c *Cache) GetPostList(ctx context.Context, page, size int, out interface{}) bool {
	return c.Get(ctx, postListKey(page, size), out)
}

func (c *Cache) SetPostList(ctx context.Context, page, size int, value interface{}) {
	c.Set(ctx, postListKey(page, size), value, c.ttls.PostList)
}

func (c *Cache) GetCategories(ctx context.Context, out interface{}) bool {
	return c.Get(ctx, categoriesKey(), out)
}

func (c *Cache) SetCategories(ctx context.Context, value interface{}) {
	c.Set(ctx, categoriesKey(), value, c.ttls.Default)
}

func (c *Cache) GetTags(ctx context.Context, out interface{}) bool {
	return c.Get(ctx, tagsKey(), out)
}

func (c *Cache) SetTags(ctx context.Context, value interface{}) {
	c.Set(ctx, tagsKey(), value, c.ttls.Default)
}
