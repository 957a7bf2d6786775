package core

import (
	"slices"

	"github.com/comalice/eventgrid/internal/arena"
	"github.com/comalice/eventgrid/internal/primitives"
)

// Inject stages an event for the next Run (thread-safe).
//
// The only lock taken is the pending mutex, held for one bounded append.
// When the pending buffer is full the event is dropped and the shared
// pending-buffer CapacityError is returned.
func (s *Scheduler) Inject(e primitives.Event) error {
	e = e.Wrap(s.n)

	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	if s.pending == nil {
		return primitives.ErrClosed
	}
	if err := s.pending.Push(e); err != nil {
		s.pendingRejected.Add(1)
		return primitives.CapacityExceeded(primitives.ResourcePendingBuffer)
	}
	s.injected.Add(1)
	return nil
}

// PendingLen returns the number of staged events.
func (s *Scheduler) PendingLen() int {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()
	if s.pending == nil {
		return 0
	}
	return s.pending.Len()
}

// flush moves every staged event into the heap under the pending mutex.
// The batch is sorted canonically first, so when pools overflow the events
// with the smallest keys are the ones kept, whatever order they arrived in.
// Entries that cannot get an event slot or a heap slot are dropped and
// counted. Caller holds runMu.
func (s *Scheduler) flush() (moved, dropped int) {
	s.pendingMu.Lock()
	defer s.pendingMu.Unlock()

	items := s.pending.Items()
	slices.SortFunc(items, compareEvents)
	for _, e := range items {
		switch err := s.enqueue(e); err {
		case nil:
			moved++
		case primitives.CapacityExceeded(primitives.ResourceHeap):
			s.heapDropped++
			dropped++
		default:
			s.flushDropped++
			dropped++
		}
	}
	s.pending.Reset()
	return moved, dropped
}

// enqueue copies e into a fresh event slot and pushes the slot on the heap.
// Caller holds runMu.
func (s *Scheduler) enqueue(e primitives.Event) error {
	h, err := s.alloc.Allocate(arena.CategoryEvent, 0)
	if err != nil {
		return err
	}
	slot, _ := s.alloc.Event(h)
	*slot = e
	if err := s.heap.Push(h); err != nil {
		_ = s.alloc.Deallocate(arena.CategoryEvent, h)
		return primitives.CapacityExceeded(primitives.ResourceHeap)
	}
	return nil
}

func compareEvents(a, b primitives.Event) int {
	return primitives.Compare(&a, &b)
}
