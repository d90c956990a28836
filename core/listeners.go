package core

import (
	"slices"
	"sync"
)

// listenerSet keeps listeners in registration order and hands out copies
// for dispatch so listeners may unsubscribe while being called.
type listenerSet[T any] struct {
	mu      sync.RWMutex
	nextID  uint64
	entries []listenerSlot[T]
}

type listenerSlot[T any] struct {
	id uint64
	fn T
}

func (s *listenerSet[T]) add(fn T) func() {
	s.mu.Lock()
	s.nextID++
	id := s.nextID
	s.entries = append(s.entries, listenerSlot[T]{id: id, fn: fn})
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			s.entries = slices.DeleteFunc(s.entries, func(slot listenerSlot[T]) bool {
				return slot.id == id
			})
		})
	}
}

func (s *listenerSet[T]) snapshot() []T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]T, 0, len(s.entries))
	for _, slot := range s.entries {
		out = append(out, slot.fn)
	}
	return out
}

func (s *listenerSet[T]) count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
