package inspector

import (
	"context"
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"

	"github.com/seo-optimizer/metacheck/fetcher"
)

// cacheKey hashes the normalized URL.
func cacheKey(target string) uint64 {
	return xxhash.Sum64String(strings.TrimSpace(target))
}

// lookup returns a copy of a fresh cached report.
func (i *Inspector) lookup(key uint64) (*Report, bool) {
	i.cacheMutex.RLock()
	defer i.cacheMutex.RUnlock()

	entry, found := i.cache[key]
	if !found || i.now().Sub(entry.timestamp) >= i.cacheTTL {
		return nil, false
	}
	report := *entry.report
	report.Cached = true
	return &report, true
}

func (i *Inspector) store(key uint64, report *Report) {
	i.storeLocal(key, report, i.now())
}

func (i *Inspector) storeLocal(key uint64, report *Report, at time.Time) {
	i.cacheMutex.Lock()
	defer i.cacheMutex.Unlock()

	i.cache[key] = cacheEntry{
		report:    report,
		timestamp: at,
	}
	i.evictOldest()
}

func sharedKey(key uint64) string {
	return strconv.FormatUint(key, 16)
}

// lookupShared consults the shared cache and promotes a hit to the local
// cache. Shared cache failures count as misses.
func (i *Inspector) lookupShared(ctx context.Context, key uint64) (*Report, bool) {
	if i.shared == nil {
		return nil, false
	}

	data, found, err := i.shared.Get(ctx, sharedKey(key))
	if err != nil {
		i.logger.Warn("Shared cache lookup failed", zap.Error(err))
		return nil, false
	}
	if !found {
		return nil, false
	}

	var report Report
	if err := json.Unmarshal(data, &report); err != nil {
		i.logger.Warn("Discarding undecodable shared cache entry", zap.Error(err))
		return nil, false
	}
	i.storeLocal(key, &report, report.FetchedAt)

	hit := report
	hit.Cached = true
	return &hit, true
}

func (i *Inspector) storeShared(ctx context.Context, key uint64, report *Report) {
	if i.shared == nil {
		return
	}

	data, err := json.Marshal(report)
	if err != nil {
		i.logger.Warn("Failed to encode report for shared cache", zap.Error(err))
		return
	}

	i.cacheMutex.RLock()
	ttl := i.cacheTTL
	i.cacheMutex.RUnlock()

	if err := i.shared.Set(ctx, sharedKey(key), data, ttl); err != nil {
		i.logger.Warn("Shared cache store failed", zap.Error(err))
	}
}

// periodicCleanup removes expired entries until Close is called
func (i *Inspector) periodicCleanup() {
	defer close(i.stopped)

	ticker := time.NewTicker(i.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			i.cleanup()
		case <-i.done:
			return
		}
	}
}

// cleanup removes expired entries and enforces the size limit
func (i *Inspector) cleanup() {
	i.cacheMutex.Lock()
	defer i.cacheMutex.Unlock()

	now := i.now()
	before := len(i.cache)
	for key, entry := range i.cache {
		if now.Sub(entry.timestamp) >= i.cacheTTL {
			delete(i.cache, key)
		}
	}
	i.evictOldest()

	if removed := before - len(i.cache); removed > 0 {
		i.logger.Debug("Cleaned up report cache", zap.Int("removed", removed), zap.Int("remaining", len(i.cache)))
	}
}

// evictOldest removes the oldest entries while over the size limit. Must
// hold cacheMutex.
func (i *Inspector) evictOldest() {
	if i.maxCacheSize <= 0 || len(i.cache) <= i.maxCacheSize {
		return
	}

	type aged struct {
		key       uint64
		timestamp time.Time
	}
	entries := make([]aged, 0, len(i.cache))
	for key, entry := range i.cache {
		entries = append(entries, aged{key, entry.timestamp})
	}
	sort.Slice(entries, func(a, b int) bool {
		return entries[a].timestamp.Before(entries[b].timestamp)
	})

	for _, e := range entries[:len(entries)-i.maxCacheSize] {
		delete(i.cache, e.key)
	}
}

// IsCached checks if a URL has a fresh cached report
func (i *Inspector) IsCached(target string) bool {
	if u, err := fetcher.ValidateURL(target); err == nil {
		target = u.String()
	}
	_, ok := i.lookup(cacheKey(target))
	return ok
}

// SetCacheTTL sets the cache TTL
func (i *Inspector) SetCacheTTL(ttl time.Duration) {
	i.cacheMutex.Lock()
	defer i.cacheMutex.Unlock()
	i.cacheTTL = ttl
}

// SetMaxCacheSize sets the maximum number of cached reports, evicting the
// oldest immediately if needed.
func (i *Inspector) SetMaxCacheSize(size int) {
	i.cacheMutex.Lock()
	defer i.cacheMutex.Unlock()
	i.maxCacheSize = size
	i.evictOldest()
}

// ClearCache drops every cached report, including the shared cache, and
// returns how many local entries were removed.
func (i *Inspector) ClearCache() int {
	i.cacheMutex.Lock()
	n := len(i.cache)
	i.cache = make(map[uint64]cacheEntry)
	i.cacheMutex.Unlock()

	if i.shared != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := i.shared.Clear(ctx); err != nil {
			i.logger.Warn("Failed to clear shared cache", zap.Error(err))
		}
	}
	return n
}

// CacheStats returns the cache state and the current month's counters.
func (i *Inspector) CacheStats() CacheStats {
	i.cacheMutex.RLock()
	cs := CacheStats{
		Entries:    len(i.cache),
		MaxEntries: i.maxCacheSize,
		TTL:        i.cacheTTL,
	}
	i.cacheMutex.RUnlock()

	if i.stats != nil {
		current := i.stats.GetCurrentStats()
		cs.Hits = current.CacheHits
		cs.Misses = current.CacheMisses
		cs.FetchFailures = current.FetchFailures
		cs.Analyses = current.Analyses
	}
	return cs
}

// Close stops the cleanup goroutine. It is safe to call more than once.
func (i *Inspector) Close() {
	i.closeOnce.Do(func() {
		close(i.done)
	})
	<-i.stopped
}
