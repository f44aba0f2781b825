package sprite

import (
	"container/list"
	"image"
	"sync"
)

type cacheEntry struct {
	key  string
	img  *image.NRGBA
	cost int64
}

type CacheStats struct {
	Entries   int   `json:"entries"`
	Cost      int64 `json:"cost"`
	Hits      int64 `json:"hits"`
	Misses    int64 `json:"misses"`
	Evictions int64 `json:"evictions"`
}

// Cache is an LRU of rendered variants bounded by entry count and total cost.
// A bound of zero or less disables it.
type Cache struct {
	mu         sync.Mutex
	maxEntries int
	maxCost    int64
	ll         *list.List
	items      map[string]*list.Element
	cost       int64
	hits       int64
	misses     int64
	evictions  int64
}

func NewCache(maxEntries int, maxCost int64) *Cache {
	return &Cache{
		maxEntries: maxEntries,
		maxCost:    maxCost,
		ll:         list.New(),
		items:      make(map[string]*list.Element),
	}
}

// ImageCost is the byte size of an NRGBA raster.
func ImageCost(img *image.NRGBA) int64 {
	if img == nil {
		return 0
	}
	return int64(len(img.Pix))
}

func (c *Cache) Get(key string) (*image.NRGBA, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		c.misses++
		return nil, false
	}
	c.hits++
	c.ll.MoveToFront(el)
	return el.Value.(*cacheEntry).img, true
}

// Put stores img and then evicts from the cold end until both bounds hold.
// An entry that alone exceeds the cost bound is not stored.
func (c *Cache) Put(key string, img *image.NRGBA, cost int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.maxCost > 0 && cost > c.maxCost {
		return
	}
	if el, ok := c.items[key]; ok {
		e := el.Value.(*cacheEntry)
		c.cost += cost - e.cost
		e.img, e.cost = img, cost
		c.ll.MoveToFront(el)
	} else {
		c.items[key] = c.ll.PushFront(&cacheEntry{key: key, img: img, cost: cost})
		c.cost += cost
	}
	for c.overLimit() {
		c.removeOldest()
	}
}

func (c *Cache) overLimit() bool {
	if c.ll.Len() == 0 {
		return false
	}
	if c.maxEntries > 0 && c.ll.Len() > c.maxEntries {
		return true
	}
	return c.maxCost > 0 && c.cost > c.maxCost
}

func (c *Cache) removeOldest() {
	el := c.ll.Back()
	if el == nil {
		return
	}
	e := c.ll.Remove(el).(*cacheEntry)
	delete(c.items, e.key)
	c.cost -= e.cost
	c.evictions++
}

// Clear drops every entry and resets the cost counter in one step.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ll.Init()
	c.items = make(map[string]*list.Element)
	c.cost = 0
}

func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	defer c.mu.Unlock()
	return CacheStats{
		Entries:   c.ll.Len(),
		Cost:      c.cost,
		Hits:      c.hits,
		Misses:    c.misses,
		Evictions: c.evictions,
	}
}
