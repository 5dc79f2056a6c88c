// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package csitter

import (
	"os"
	"path/filepath"
	"sync"
	"time"
)

// cacheEntry stores a header's contents keyed by path and mod time.
type cacheEntry struct {
	modTime time.Time
	content []byte
}

// CacheStats tracks header reads across every translation unit an Index
// has parsed.
type CacheStats struct {
	FilesRead int
	CacheHits int
}

// headerCache shares header contents between translation units. Headers
// are re-read when their mod time changes.
type headerCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
	stats   CacheStats
}

func newHeaderCache() *headerCache {
	return &headerCache{entries: make(map[string]cacheEntry)}
}

func (c *headerCache) read(path string) ([]byte, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		abs = path
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	if cached, ok := c.entries[abs]; ok && cached.modTime.Equal(info.ModTime()) {
		c.stats.CacheHits++
		content := cached.content
		c.mu.Unlock()
		return content, nil
	}
	c.mu.Unlock()

	content, err := os.ReadFile(abs)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.stats.FilesRead++
	c.entries[abs] = cacheEntry{modTime: info.ModTime(), content: content}
	c.mu.Unlock()

	return content, nil
}

func (c *headerCache) snapshot() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stats
}
