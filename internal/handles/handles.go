// Package handles maps integer handles to Go values for foreign callers
// (C and JavaScript) that cannot hold Go pointers.
package handles

import "sync"

// Table is a concurrency-safe handle table. Handle 0 is never issued, so
// callers can use it as "no handle".
type Table[T any] struct {
	mu    sync.RWMutex
	items map[uint64]T
	next  uint64
}

// New creates an empty table.
func New[T any]() *Table[T] {
	return &Table[T]{items: make(map[uint64]T)}
}

// Put stores v and returns its handle.
func (t *Table[T]) Put(v T) uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.next++
	t.items[t.next] = v
	return t.next
}

// Get returns the value for h.
func (t *Table[T]) Get(h uint64) (T, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	v, ok := t.items[h]
	return v, ok
}

// Release forgets h. Releasing an unknown or already released handle is a
// no-op that returns false.
func (t *Table[T]) Release(h uint64) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.items[h]; !ok {
		return false
	}
	delete(t.items, h)
	return true
}

// Len returns the number of live handles.
func (t *Table[T]) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.items)
}
