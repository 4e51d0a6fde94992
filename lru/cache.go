// Package lru implements a generic, thread-safe LRU cache.
//
// The entry parser uses it to memoize filesystem stat probes: repeated
// resolution of the same asset and style paths within a run (and across
// watch rebuilds) hits the cache instead of the disk.
//
// Time complexity: O(1) for Get, Put, GetOrCompute, Delete, Len.
// A hash map provides key lookup; a doubly linked list with sentinel
// head/tail nodes provides eviction ordering.
package lru

import "sync"

// node is a doubly linked list node holding a key-value pair.
type node[K comparable, V any] struct {
	key  K
	val  V
	prev *node[K, V]
	next *node[K, V]
}

// Cache is a generic, thread-safe LRU cache.
type Cache[K comparable, V any] struct {
	mu       sync.Mutex
	capacity int
	items    map[K]*node[K, V]
	head     *node[K, V] // most recently used (sentinel)
	tail     *node[K, V] // least recently used (sentinel)
}

// New creates an LRU cache with the given capacity.
// Panics if capacity < 1.
func New[K comparable, V any](capacity int) *Cache[K, V] {
	if capacity < 1 {
		panic("lru: capacity must be >= 1")
	}

	head := &node[K, V]{}
	tail := &node[K, V]{}
	head.next = tail
	tail.prev = head

	return &Cache[K, V]{
		capacity: capacity,
		items:    make(map[K]*node[K, V], capacity),
		head:     head,
		tail:     tail,
	}
}

// Get retrieves a value by key and marks it most recently used.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		var zero V
		return zero, false
	}

	c.moveToFront(n)
	return n.val, true
}

// GetOrCompute returns the cached value for key, computing and inserting
// it on a miss. The compute function runs under the cache lock, so it
// must not call back into the cache.
func (c *Cache[K, V]) GetOrCompute(key K, compute func() V) V {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		c.moveToFront(n)
		return n.val
	}

	val := compute()
	c.insert(key, val)
	return val
}

// Put inserts or updates a key-value pair. Reports whether the insert
// evicted the least recently used entry.
func (c *Cache[K, V]) Put(key K, val V) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if n, ok := c.items[key]; ok {
		n.val = val
		c.moveToFront(n)
		return false
	}

	return c.insert(key, val)
}

// Delete removes a key from the cache. Returns true if the key existed.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	n, ok := c.items[key]
	if !ok {
		return false
	}

	c.remove(n)
	delete(c.items, key)
	return true
}

// Len returns the current number of entries.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Keys returns all keys ordered from most to least recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, len(c.items))
	for cur := c.head.next; cur != c.tail; cur = cur.next {
		keys = append(keys, cur.key)
	}
	return keys
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.head.next = c.tail
	c.tail.prev = c.head
	c.items = make(map[K]*node[K, V], c.capacity)
}

// --- internal linked list operations (caller must hold lock) ---

// insert adds a new entry, evicting the LRU victim at capacity.
func (c *Cache[K, V]) insert(key K, val V) bool {
	evicted := false
	if len(c.items) >= c.capacity {
		victim := c.tail.prev
		c.remove(victim)
		delete(c.items, victim.key)
		evicted = true
	}

	n := &node[K, V]{key: key, val: val}
	c.items[key] = n
	c.pushFront(n)
	return evicted
}

// remove detaches a node from the list.
func (c *Cache[K, V]) remove(n *node[K, V]) {
	n.prev.next = n.next
	n.next.prev = n.prev
	n.prev = nil
	n.next = nil
}

// pushFront inserts a node right after the head sentinel.
func (c *Cache[K, V]) pushFront(n *node[K, V]) {
	n.next = c.head.next
	n.prev = c.head
	c.head.next.prev = n
	c.head.next = n
}

// moveToFront detaches and reinserts a node at the front.
func (c *Cache[K, V]) moveToFront(n *node[K, V]) {
	c.remove(n)
	c.pushFront(n)
}
