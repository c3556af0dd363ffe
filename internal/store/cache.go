package store

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"

	"github.com/JonMunkholm/eduadmin/internal/content"
	"github.com/JonMunkholm/eduadmin/internal/dataview"
)

// Cached keeps each screen's rows in memory for a TTL. Writes go through
// to the wrapped repository and drop every cached screen, since screens
// join each other's tables (a new lesson changes the course lesson count).
//
// Cached rows are shared between requests and must be treated as read-only.
type Cached struct {
	next  content.Repository
	cache *cache.Cache
}

var _ content.Repository = (*Cached)(nil)

// NewCached wraps next with a row cache.
func NewCached(next content.Repository, ttl, cleanup time.Duration) *Cached {
	return &Cached{next: next, cache: cache.New(ttl, cleanup)}
}

func cacheKey(s content.Screen, scope content.Scope) string {
	return s.Key + "|" + scope.AcademicYear
}

func (c *Cached) Fetch(ctx context.Context, s content.Screen, scope content.Scope) ([]dataview.Record, error) {
	key := cacheKey(s, scope)
	if v, ok := c.cache.Get(key); ok {
		return v.([]dataview.Record), nil
	}

	rows, err := c.next.Fetch(ctx, s, scope)
	if err != nil {
		return nil, err
	}
	c.cache.SetDefault(key, rows)
	slog.Debug("row cache filled", "screen", s.Key, "rows", len(rows))
	return rows, nil
}

func (c *Cached) Get(ctx context.Context, s content.Screen, scope content.Scope, key string) (dataview.Record, error) {
	return c.next.Get(ctx, s, scope, key)
}

func (c *Cached) Insert(ctx context.Context, s content.Screen, scope content.Scope, fields map[string]any) (dataview.Record, error) {
	row, err := c.next.Insert(ctx, s, scope, fields)
	if err == nil {
		c.cache.Flush()
	}
	return row, err
}

func (c *Cached) Update(ctx context.Context, s content.Screen, scope content.Scope, key string, fields map[string]any) (dataview.Record, error) {
	row, err := c.next.Update(ctx, s, scope, key, fields)
	if err == nil {
		c.cache.Flush()
	}
	return row, err
}

func (c *Cached) UpdateMany(ctx context.Context, s content.Screen, scope content.Scope, keys []string, fields map[string]any) (int64, error) {
	n, err := c.next.UpdateMany(ctx, s, scope, keys, fields)
	if err == nil && n > 0 {
		c.cache.Flush()
	}
	return n, err
}

func (c *Cached) Delete(ctx context.Context, s content.Screen, scope content.Scope, keys []string) (int64, error) {
	n, err := c.next.Delete(ctx, s, scope, keys)
	if err == nil && n > 0 {
		c.cache.Flush()
	}
	return n, err
}

// Count answers from cached rows when present.
func (c *Cached) Count(ctx context.Context, s content.Screen, scope content.Scope) (int, error) {
	if v, ok := c.cache.Get(cacheKey(s, scope)); ok {
		return len(v.([]dataview.Record)), nil
	}
	return c.next.Count(ctx, s, scope)
}

// Invalidate drops the screen's cached rows for every academic year.
func (c *Cached) Invalidate(s content.Screen, scope content.Scope) {
	prefix := s.Key + "|"
	for k := range c.cache.Items() {
		if strings.HasPrefix(k, prefix) {
			c.cache.Delete(k)
		}
	}
	c.next.Invalidate(s, scope)
}

// Len returns the number of cached screens.
func (c *Cached) Len() int {
	return c.cache.ItemCount()
}
