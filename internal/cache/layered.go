package cache

import "time"

// LayeredCache reads through a fast layer to a slower one and writes to both
type LayeredCache struct {
	front Cache
	back  Cache
}

// NewLayeredCache creates a memory cache in front of a disk cache
func NewLayeredCache(memoryTTL time.Duration, diskDir string, diskTTL time.Duration) *LayeredCache {
	return NewLayered(NewMemoryCache(memoryTTL, 10*time.Minute), NewDiskCache(diskDir, diskTTL))
}

// NewLayered stacks any two caches, such as memory in front of Redis
func NewLayered(front, back Cache) *LayeredCache {
	return &LayeredCache{front: front, back: back}
}

// Get checks the front layer first and promotes back-layer hits
func (c *LayeredCache) Get(key string) ([]byte, bool) {
	if val, found := c.front.Get(key); found {
		return val, true
	}

	if val, found := c.back.Get(key); found {
		_ = c.front.Set(key, val, 0)
		return val, true
	}

	return nil, false
}

// Set stores a value in both layers
func (c *LayeredCache) Set(key string, value []byte, ttl time.Duration) error {
	if err := c.front.Set(key, value, ttl); err != nil {
		return err
	}
	return c.back.Set(key, value, ttl)
}

// Delete removes a value from both layers
func (c *LayeredCache) Delete(key string) error {
	err := c.front.Delete(key)
	if berr := c.back.Delete(key); berr != nil {
		return berr
	}
	return err
}

// Clear removes all values from both layers
func (c *LayeredCache) Clear() error {
	err := c.front.Clear()
	if berr := c.back.Clear(); berr != nil {
		return berr
	}
	return err
}
