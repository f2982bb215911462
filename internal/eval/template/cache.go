package template

import "sync"

// Cache maps template text to compiled templates. Once capacity is
// exceeded the earliest inserted entry is evicted; lookups do not
// refresh an entry's position.
type Cache struct {
	capacity int
	entries  map[string]*Template
	order    []string
	mu       sync.Mutex
}

// NewCache creates a cache holding at most capacity templates
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		capacity: capacity,
		entries:  make(map[string]*Template),
	}
}

// Get returns the cached template for text
func (c *Cache) Get(text string) (*Template, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	t, ok := c.entries[text]
	return t, ok
}

// GetOrAdd returns the cached template for text, inserting the result of
// build when absent. It also returns the keys evicted by the insertion.
func (c *Cache) GetOrAdd(text string, build func() *Template) (*Template, []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if t, ok := c.entries[text]; ok {
		return t, nil
	}
	t := build()
	c.entries[text] = t
	c.order = append(c.order, text)
	return t, c.evict()
}

// Resize changes the capacity, evicting the oldest entries that no longer fit
func (c *Cache) Resize(capacity int) []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if capacity > 0 {
		c.capacity = capacity
	}
	return c.evict()
}

// Len returns the number of cached templates
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Capacity returns the maximum number of cached templates
func (c *Cache) Capacity() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.capacity
}

// evict drops the oldest entries until the cache fits; callers hold mu
func (c *Cache) evict() []string {
	var evicted []string
	for len(c.order) > c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
		evicted = append(evicted, oldest)
	}
	return evicted
}
