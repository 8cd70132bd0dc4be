// Package cache holds the in-memory entity collections a view renders from.
//
// A Collection is never authoritative. It is either replaced wholesale from a
// gateway listing or mutated optimistically ahead of confirmation.
package cache

import "sync"

// Collection is an ordered sequence of values keyed by an id.
type Collection[T any] struct {
	id func(T) string

	mu      sync.RWMutex
	items   []T
	version uint64
}

// New creates an empty collection. id extracts the key of a value.
func New[T any](id func(T) string) *Collection[T] {
	return &Collection[T]{id: id}
}

// Replace discards the current contents in favor of items.
func (c *Collection[T]) Replace(items []T) {
	cp := make([]T, len(items))
	copy(cp, items)

	c.mu.Lock()
	c.items = cp
	c.version++
	c.mu.Unlock()
}

// Snapshot returns a copy of the current contents.
func (c *Collection[T]) Snapshot() []T {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]T, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of values.
func (c *Collection[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.items)
}

// Version increases on every mutation, including Replace.
func (c *Collection[T]) Version() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.version
}

// Get returns the value with id.
func (c *Collection[T]) Get(id string) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if i := c.indexLocked(id); i >= 0 {
		return c.items[i], true
	}
	var zero T
	return zero, false
}

// IndexOf returns the position of id, or -1.
func (c *Collection[T]) IndexOf(id string) int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.indexLocked(id)
}

// Insert places v at index, clamped to [0, Len].
func (c *Collection[T]) Insert(index int, v T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	index = clamp(index, len(c.items))
	c.items = append(c.items, v)
	copy(c.items[index+1:], c.items[index:])
	c.items[index] = v
	c.version++
}

// Remove deletes the value with id and reports whether it was present.
func (c *Collection[T]) Remove(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.items = append(c.items[:i], c.items[i+1:]...)
	c.version++
	return true
}

// RemoveFunc deletes every value for which drop returns true and returns how
// many were removed.
func (c *Collection[T]) RemoveFunc(drop func(T) bool) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	kept := c.items[:0]
	for _, v := range c.items {
		if !drop(v) {
			kept = append(kept, v)
		}
	}
	n := len(c.items) - len(kept)
	c.items = kept
	if n > 0 {
		c.version++
	}
	return n
}

// Update replaces the value with id by fn(value) and reports whether it was
// present.
func (c *Collection[T]) Update(id string, fn func(T) T) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.indexLocked(id)
	if i < 0 {
		return false
	}
	c.items[i] = fn(c.items[i])
	c.version++
	return true
}

// Move splices the value at from out and reinserts it at to. Out of range
// indexes leave the collection unchanged and return false.
func (c *Collection[T]) Move(from, to int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.items)
	if from < 0 || from >= n || to < 0 || to >= n {
		return false
	}
	if from == to {
		return true
	}
	v := c.items[from]
	if from < to {
		copy(c.items[from:to], c.items[from+1:to+1])
	} else {
		copy(c.items[to+1:from+1], c.items[to:from])
	}
	c.items[to] = v
	c.version++
	return true
}

// Mutate runs fn on a copy of the contents and stores the result.
func (c *Collection[T]) Mutate(fn func([]T) []T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	cp := make([]T, len(c.items))
	copy(cp, c.items)
	c.items = fn(cp)
	c.version++
}

func (c *Collection[T]) indexLocked(id string) int {
	for i, v := range c.items {
		if c.id(v) == id {
			return i
		}
	}
	return -1
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
