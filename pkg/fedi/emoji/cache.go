// Copyright 2024-2026 Aiku AI

// Package emoji holds the process-wide custom emoji catalogs, one per
// server endpoint. The cache is read-mostly and last-writer-wins; entries
// have no expiry and are refreshed only on explicit reload.
package emoji

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/aiku/fedikit/pkg/fedi"
)

// catalog is one endpoint's emoji table plus its shortcode index.
type catalog struct {
	list  []fedi.CustomEmoji
	index map[string]fedi.CustomEmoji
}

// Cache maps endpoint URL → emoji catalog. It is the only structure shared
// across subscriptions and is safe for concurrent use.
type Cache struct {
	catalogs *lru.Cache[string, *catalog]
}

// NewCache builds a cache bounded to the given number of endpoints. A
// handful of accounts never comes close to the bound; it only guards
// against endpoint churn in long-lived processes.
func NewCache(size int) (*Cache, error) {
	catalogs, err := lru.New[string, *catalog](size)
	if err != nil {
		return nil, fmt.Errorf("failed to create emoji cache: %w", err)
	}
	return &Cache{catalogs: catalogs}, nil
}

// Put stores an endpoint's catalog, replacing whatever was there.
func (c *Cache) Put(endpoint string, emojis []fedi.CustomEmoji) {
	index := make(map[string]fedi.CustomEmoji, len(emojis))
	for _, e := range emojis {
		index[e.Shortcode] = e
	}
	c.catalogs.Add(endpoint, &catalog{list: emojis, index: index})
}

// Get returns the endpoint's full catalog, or nil when none was loaded.
func (c *Cache) Get(endpoint string) []fedi.CustomEmoji {
	cat, ok := c.catalogs.Get(endpoint)
	if !ok {
		return nil
	}
	return cat.list
}

// Lookup resolves one shortcode within an endpoint's catalog.
func (c *Cache) Lookup(endpoint, shortcode string) (fedi.CustomEmoji, bool) {
	cat, ok := c.catalogs.Get(endpoint)
	if !ok {
		return fedi.CustomEmoji{}, false
	}
	e, ok := cat.index[shortcode]
	return e, ok
}

// Refresh populates an endpoint's catalog through the loader, typically
// the adapter's CustomEmojis call, and returns the fresh list.
func (c *Cache) Refresh(ctx context.Context, endpoint string, load func(context.Context) ([]fedi.CustomEmoji, error)) ([]fedi.CustomEmoji, error) {
	emojis, err := load(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to refresh emoji catalog for %s: %w", endpoint, err)
	}
	c.Put(endpoint, emojis)
	return emojis, nil
}

// Ensure returns the cached catalog, loading it on first use.
func (c *Cache) Ensure(ctx context.Context, endpoint string, load func(context.Context) ([]fedi.CustomEmoji, error)) ([]fedi.CustomEmoji, error) {
	if cat, ok := c.catalogs.Get(endpoint); ok {
		return cat.list, nil
	}
	return c.Refresh(ctx, endpoint, load)
}
