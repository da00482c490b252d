package resultcache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/kailas-cloud/rankfuse/internal/domain/search/result"
)

const (
	defaultMemorySize = 1024
	defaultMemoryTTL  = time.Minute
)

// Memory is an in-process result cache on an expirable LRU. Entries share
// one TTL fixed at construction; the per-call TTL is ignored. Suited for
// single-instance deployments and tests.
type Memory struct {
	lru *expirable.LRU[string, result.Result]
}

// NewMemory creates an in-memory result cache. Non-positive size or ttl
// select the defaults.
func NewMemory(size int, ttl time.Duration) *Memory {
	if size <= 0 {
		size = defaultMemorySize
	}
	if ttl <= 0 {
		ttl = defaultMemoryTTL
	}
	return &Memory{lru: expirable.NewLRU[string, result.Result](size, nil, ttl)}
}

// Get returns a cached result, or ok=false on miss.
func (c *Memory) Get(_ context.Context, key string) (result.Result, bool) {
	return c.lru.Get(key)
}

// Set stores a result. The entry expires at the cache-wide TTL.
func (c *Memory) Set(_ context.Context, key string, res result.Result, _ time.Duration) {
	c.lru.Add(key, res)
}

// InvalidateAll drops every cached entry.
func (c *Memory) InvalidateAll(_ context.Context) {
	c.lru.Purge()
}
