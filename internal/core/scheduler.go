// Package core provides the runtime core tier of the event engine: the
// scheduler that owns the grid, the allocator, the ordered event heap and the
// pending-injection buffer.
//
// Concurrency model: many producers, one consumer. Inject may be called from
// any goroutine at any time and only ever takes the pending mutex. Run drains
// the pending buffer into the heap and then delivers events; everything it
// touches besides the pending buffer is owned by the goroutine holding the
// run mutex. Control-plane calls (Spawn, Connect, Retire, ...) take the same
// run mutex, so they wait for an in-progress Run instead of racing it.
// Stdlib-only implementation.
package core

import (
	"io"
	"log"
	"sync"
	"sync/atomic"

	"github.com/comalice/eventgrid/internal/arena"
	"github.com/comalice/eventgrid/internal/container"
	"github.com/comalice/eventgrid/internal/grid"
	"github.com/comalice/eventgrid/internal/primitives"
)

// Delivery describes one popped event after it has been applied.
type Delivery struct {
	PID      primitives.PID   `json:"pid" yaml:"pid"`
	Event    primitives.Event `json:"event" yaml:"event"`
	State    int64            `json:"state" yaml:"state"`
	Emitted  int              `json:"emitted" yaml:"emitted"`
	Orphaned bool             `json:"orphaned,omitempty" yaml:"orphaned,omitempty"`
}

// Observer is told about every delivery, synchronously, on the goroutine
// running Run. Implementations must not call back into the scheduler.
type Observer interface {
	Delivered(d Delivery)
}

// ObserverFunc adapts a plain function to Observer.
type ObserverFunc func(d Delivery)

func (f ObserverFunc) Delivered(d Delivery) { f(d) }

// Option applies configuration to Scheduler via functional options pattern.
type Option func(*Scheduler)

// Scheduler is one independent engine instance.
type Scheduler struct {
	cfg primitives.Config
	n   int32

	// Owned by the run mutex holder.
	runMu sync.Mutex
	alloc *arena.Allocator
	grid  *grid.Torus
	heap  *container.MinHeap[container.Handle]

	// Multi-producer staging area.
	pendingMu sync.Mutex
	pending   *container.Vector[primitives.Event]

	closed atomic.Bool

	// Lock-free query counters.
	eventsProcessed atomic.Uint64
	currentTime     atomic.Uint64
	processCount    atomic.Int64
	injected        atomic.Uint64
	pendingRejected atomic.Uint64

	// Counters written only under runMu.
	runs           uint64
	flushDropped   uint64
	heapDropped    uint64
	cascaded       uint64
	cascadeDropped uint64
	orphaned       uint64

	logger    *log.Logger
	observers []Observer
}

// New validates cfg and reserves every pool, the grid, the heap and the
// pending buffer. Nothing is allocated for engine state after New returns.
func New(cfg primitives.Config, opts ...Option) (*Scheduler, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	torus, err := grid.New(cfg.GridSize)
	if err != nil {
		return nil, err
	}

	s := &Scheduler{
		cfg:  cfg,
		n:    int32(cfg.GridSize),
		grid: torus,
		alloc: arena.New(arena.Sizes{
			Processes:       cfg.ProcessCapacity,
			Events:          cfg.EventCapacity,
			Edges:           cfg.EdgeCapacity,
			GenericSlots:    cfg.GenericCapacity,
			GenericSlotSize: cfg.GenericSlotSize,
		}),
		pending: container.NewVector[primitives.Event](cfg.PendingCapacity),
		logger:  log.New(io.Discard, "", 0),
	}
	s.heap = container.NewMinHeap(cfg.HeapSize(), s.eventLess)

	// Apply functional options
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Config returns the configuration the scheduler was built with.
func (s *Scheduler) Config() primitives.Config {
	return s.cfg
}

// Close releases every pool. Pending and queued events are discarded; later
// calls fail with ErrClosed.
func (s *Scheduler) Close() error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Swap(true) {
		return primitives.ErrClosed
	}

	s.pendingMu.Lock()
	s.pending = nil
	s.pendingMu.Unlock()

	s.alloc = nil
	s.grid = nil
	s.heap = nil
	s.processCount.Store(0)
	return nil
}

// Closed reports whether Close has been called.
func (s *Scheduler) Closed() bool {
	return s.closed.Load()
}

// eventLess orders heap entries by the canonical event key.
func (s *Scheduler) eventLess(a, b container.Handle) bool {
	ea, _ := s.alloc.Event(a)
	eb, _ := s.alloc.Event(b)
	return primitives.Less(ea, eb)
}

// Queries. These are atomic loads and safe from any goroutine.

// EventsProcessed returns the lifetime number of popped events.
func (s *Scheduler) EventsProcessed() uint64 { return s.eventsProcessed.Load() }

// CurrentTime returns the logical time of the latest delivery.
func (s *Scheduler) CurrentTime() uint64 { return s.currentTime.Load() }

// ProcessCount returns the number of resident processes.
func (s *Scheduler) ProcessCount() int { return int(s.processCount.Load()) }
