// Package cache holds recent Electricity Maps readings per zone.
package cache

import (
	"sync"
	"time"

	"k8s.io/klog/v2"
	"k8s.io/utils/clock"

	"github.com/elevated-systems/carbon-placement-planner/pkg/placement/api"
)

// Cache provides thread-safe caching of zone readings with TTL
type Cache struct {
	data   map[string]*cacheEntry
	mutex  sync.RWMutex
	ttl    time.Duration
	maxAge time.Duration
	clock  clock.WithTicker
	stopCh chan struct{}

	hits   int64
	misses int64
}

type cacheEntry struct {
	data      *api.ElectricityData
	timestamp time.Time
	hits      int64
}

// New creates a cache on the real clock
func New(ttl time.Duration, maxAge time.Duration) *Cache {
	return NewWithClock(ttl, maxAge, clock.RealClock{})
}

// NewWithClock creates a cache whose freshness and cleanup follow clk
func NewWithClock(ttl time.Duration, maxAge time.Duration, clk clock.WithTicker) *Cache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	if maxAge <= 0 {
		maxAge = time.Hour
	}

	c := &Cache{
		data: make(map[string]*cacheEntry),
		// freshness at get time
		ttl: ttl,
		// age after which unaccessed entries are dropped
		maxAge: maxAge,
		clock:  clk,
		stopCh: make(chan struct{}),
	}

	go c.cleanup()

	return c
}

// Get retrieves data from cache if fresh
func (c *Cache) Get(zone string) (*api.ElectricityData, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.data[zone]
	if !exists || c.clock.Since(entry.timestamp) > c.ttl {
		c.misses++
		return nil, false
	}

	entry.hits++
	c.hits++
	return entry.data, true
}

// Set stores data in cache. Estimated values do not replace a real value for
// the same zone unless they are at least an hour newer.
func (c *Cache) Set(zone string, data *api.ElectricityData) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if existing, exists := c.data[zone]; exists {
		if data.IsEstimated && !existing.data.IsEstimated {
			dataAge := data.Datetime.Sub(existing.data.Datetime)
			if dataAge < time.Hour {
				klog.V(3).InfoS("Skipping estimated data update - already have real data",
					"zone", zone,
					"existingDatetime", existing.data.Datetime,
					"newDatetime", data.Datetime)
				return
			}
		}
	}

	c.data[zone] = &cacheEntry{
		data:      data,
		timestamp: c.clock.Now(),
	}

	klog.V(4).InfoS("Cached electricity data",
		"zone", zone,
		"carbonIntensity", data.CarbonIntensity,
		"datetime", data.Datetime,
		"isEstimated", data.IsEstimated)
}

// GetMetrics returns cache hit and miss counts
func (c *Cache) GetMetrics() (hits, misses int64) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return c.hits, c.misses
}

func (c *Cache) cleanup() {
	ticker := c.clock.NewTicker(c.ttl)
	defer ticker.Stop()

	for {
		select {
		case <-c.stopCh:
			return
		case <-ticker.C():
			c.removeExpired()
		}
	}
}

func (c *Cache) removeExpired() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	now := c.clock.Now()
	for zone, entry := range c.data {
		age := now.Sub(entry.timestamp)
		if age > c.maxAge {
			delete(c.data, zone)
			klog.V(4).InfoS("Removed expired cache entry",
				"zone", zone,
				"age", age.String(),
				"hits", entry.hits)
		}
	}
}

// Close stops the cleanup goroutine
func (c *Cache) Close() {
	close(c.stopCh)
}

// Size returns the number of entries in the cache
func (c *Cache) Size() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.data)
}
