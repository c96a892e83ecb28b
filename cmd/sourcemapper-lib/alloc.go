package main

import (
	"sync"
	"unsafe"
)

// allocSet records pointers that are owned by the caller until freed.
type allocSet struct {
	mu   sync.Mutex
	ptrs map[unsafe.Pointer]struct{}
}

func newAllocSet() *allocSet {
	return &allocSet{ptrs: make(map[unsafe.Pointer]struct{})}
}

func (s *allocSet) add(p unsafe.Pointer) {
	s.mu.Lock()
	s.ptrs[p] = struct{}{}
	s.mu.Unlock()
}

// remove forgets p and reports whether it was present.
func (s *allocSet) remove(p unsafe.Pointer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.ptrs[p]; !ok {
		return false
	}
	delete(s.ptrs, p)
	return true
}
