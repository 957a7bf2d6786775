package core

import (
	"github.com/comalice/eventgrid/internal/arena"
)

// Stats is a point-in-time snapshot of scheduler counters and pool usage.
type Stats struct {
	EventsProcessed uint64 `json:"eventsProcessed" yaml:"eventsProcessed"`
	CurrentTime     uint64 `json:"currentTime" yaml:"currentTime"`
	Processes       int    `json:"processes" yaml:"processes"`
	Runs            uint64 `json:"runs" yaml:"runs"`

	Injected        uint64 `json:"injected" yaml:"injected"`
	PendingRejected uint64 `json:"pendingRejected" yaml:"pendingRejected"`
	FlushDropped    uint64 `json:"flushDropped" yaml:"flushDropped"`
	HeapDropped     uint64 `json:"heapDropped" yaml:"heapDropped"`
	Cascaded        uint64 `json:"cascaded" yaml:"cascaded"`
	CascadeDropped  uint64 `json:"cascadeDropped" yaml:"cascadeDropped"`
	Orphaned        uint64 `json:"orphaned" yaml:"orphaned"`

	Pending       int `json:"pending" yaml:"pending"`
	Queued        int `json:"queued" yaml:"queued"`
	ReservedBytes int `json:"reservedBytes" yaml:"reservedBytes"`

	Pools []arena.PoolStats `json:"pools" yaml:"pools"`
}

// Dropped sums every event lost to a capacity limit.
func (st Stats) Dropped() uint64 {
	return st.PendingRejected + st.FlushDropped + st.HeapDropped + st.CascadeDropped
}

// Stats snapshots the scheduler. A closed scheduler reports only its
// lifetime counters.
func (s *Scheduler) Stats() Stats {
	s.runMu.Lock()
	defer s.runMu.Unlock()

	st := Stats{
		EventsProcessed: s.eventsProcessed.Load(),
		CurrentTime:     s.currentTime.Load(),
		Processes:       s.ProcessCount(),
		Runs:            s.runs,
		Injected:        s.injected.Load(),
		PendingRejected: s.pendingRejected.Load(),
		FlushDropped:    s.flushDropped,
		HeapDropped:     s.heapDropped,
		Cascaded:        s.cascaded,
		CascadeDropped:  s.cascadeDropped,
		Orphaned:        s.orphaned,
	}
	if s.closed.Load() {
		return st
	}
	st.Pending = s.PendingLen()
	st.Queued = s.heap.Len()
	st.ReservedBytes = s.alloc.ReservedBytes()
	st.Pools = s.alloc.Stats()
	return st
}

// Usage returns the live slot count of one pool category.
func (s *Scheduler) Usage(c arena.Category) int {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return 0
	}
	return s.alloc.Usage(c)
}

// Capacity returns the fixed slot count of one pool category.
func (s *Scheduler) Capacity(c arena.Category) int {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return 0
	}
	return s.alloc.Capacity(c)
}

// Queued returns the number of events waiting in the heap.
func (s *Scheduler) Queued() int {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return 0
	}
	return s.heap.Len()
}
