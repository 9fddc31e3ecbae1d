package silo

import "fmt"

// Cache is a bounded, name-indexed registry assigning each distinct
// key a dense int index the first time it's seen. It backs the
// default in-memory PrefabSource's name -> numeric-ID assignment.
type Cache[T any] struct {
	items       []T
	itemIndices map[string]int
	maxCapacity int
}

// NewCache returns an empty cache bounded at maxCapacity entries.
func NewCache[T any](maxCapacity int) *Cache[T] {
	return &Cache[T]{
		itemIndices: make(map[string]int),
		maxCapacity: maxCapacity,
	}
}

func (c *Cache[T]) GetIndex(key string) (int, bool) {
	index, ok := c.itemIndices[key]
	return index, ok
}

func (c *Cache[T]) GetItem(index int) *T {
	if index < 0 || index >= len(c.items) {
		return nil
	}
	return &c.items[index]
}

func (c *Cache[T]) GetItem32(index uint32) *T {
	return c.GetItem(int(index))
}

func (c *Cache[T]) Register(key string, item T) (int, error) {
	if idx, ok := c.itemIndices[key]; ok {
		c.items[idx] = item
		return idx, nil
	}
	if len(c.items) >= c.maxCapacity {
		return -1, fmt.Errorf("silo: cache at maximum capacity (%d)", c.maxCapacity)
	}
	idx := len(c.items)
	c.itemIndices[key] = idx
	c.items = append(c.items, item)
	return idx, nil
}

func (c *Cache[T]) Clear() {
	c.items = nil
	c.itemIndices = make(map[string]int)
}

func (c *Cache[T]) Len() int {
	return len(c.items)
}
