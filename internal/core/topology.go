package core

import (
	"fmt"

	"github.com/comalice/eventgrid/internal/arena"
	"github.com/comalice/eventgrid/internal/container"
	"github.com/comalice/eventgrid/internal/primitives"
)

// EdgeSpec overrides the engine-wide edge defaults for one Connect call.
// Zero fields fall back to the configured defaults.
type EdgeSpec struct {
	Delay    uint64 `json:"delay,omitempty" yaml:"delay,omitempty"`
	MinDelay uint64 `json:"minDelay,omitempty" yaml:"min_delay,omitempty"`
	MaxDelay uint64 `json:"maxDelay,omitempty" yaml:"max_delay,omitempty"`
}

// Spawn places a new process with zero state at c.
func (s *Scheduler) Spawn(c primitives.Coord) (primitives.PID, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return 0, primitives.ErrClosed
	}

	c = c.Wrap(s.n)
	if _, taken := s.grid.Lookup(c); taken {
		return 0, fmt.Errorf("spawn at %s: %w", c, primitives.ErrOccupied)
	}
	h, err := s.alloc.Allocate(arena.CategoryProcess, 0)
	if err != nil {
		return 0, err
	}
	p, _ := s.alloc.Process(h)
	p.ID = primitives.PID(h)
	p.Coord = c
	if err := s.grid.Occupy(c, h); err != nil {
		_ = s.alloc.Deallocate(arena.CategoryProcess, h)
		return 0, err
	}
	s.processCount.Add(1)
	return p.ID, nil
}

// Connect adds a directed adaptive edge from the process at src to dst.
// dst does not need to be occupied; events sent to a vacant coordinate are
// orphaned on delivery.
func (s *Scheduler) Connect(src, dst primitives.Coord, spec EdgeSpec) error {
	edge, err := s.edgeFromSpec(spec)
	if err != nil {
		return err
	}

	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return primitives.ErrClosed
	}

	src, dst = src.Wrap(s.n), dst.Wrap(s.n)
	ph, ok := s.grid.Lookup(src)
	if !ok {
		return fmt.Errorf("connect %s -> %s: %w", src, dst, primitives.ErrNoProcess)
	}
	eh, err := s.alloc.Allocate(arena.CategoryEdge, 0)
	if err != nil {
		return err
	}
	p, _ := s.alloc.Process(ph)
	slot, _ := s.alloc.Edge(eh)

	edge.Src = src
	edge.Dst = dst
	edge.LastUsed = s.currentTime.Load()
	edge.Next = p.FirstEdge
	*slot = edge
	p.FirstEdge = uint64(eh)
	p.OutDegree++
	return nil
}

func (s *Scheduler) edgeFromSpec(spec EdgeSpec) (primitives.Edge, error) {
	def := s.cfg.Edge
	e := primitives.Edge{Delay: def.DefaultDelay, MinDelay: def.MinDelay, MaxDelay: def.MaxDelay}
	if spec.MinDelay != 0 {
		e.MinDelay = spec.MinDelay
	}
	if spec.MaxDelay != 0 {
		e.MaxDelay = spec.MaxDelay
	}
	if e.MinDelay > e.MaxDelay {
		return primitives.Edge{}, fmt.Errorf("%w: edge min delay %d above max delay %d",
			primitives.ErrInvalidConfig, e.MinDelay, e.MaxDelay)
	}
	if spec.Delay != 0 {
		e.Delay = spec.Delay
	}
	e.Delay = min(max(e.Delay, e.MinDelay), e.MaxDelay)
	return e, nil
}

// Retire removes the process at c, releasing its outgoing edges and its
// slot. Events still queued for c are orphaned when they come due.
func (s *Scheduler) Retire(c primitives.Coord) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return primitives.ErrClosed
	}

	c = c.Wrap(s.n)
	ph, ok := s.grid.Vacate(c)
	if !ok {
		return fmt.Errorf("retire %s: %w", c, primitives.ErrNoProcess)
	}
	p, _ := s.alloc.Process(ph)
	for eh := container.Handle(p.FirstEdge); !eh.IsNil(); {
		edge, ok := s.alloc.Edge(eh)
		if !ok {
			break
		}
		next := container.Handle(edge.Next)
		_ = s.alloc.Deallocate(arena.CategoryEdge, eh)
		eh = next
	}
	if err := s.alloc.Deallocate(arena.CategoryProcess, ph); err != nil {
		return fmt.Errorf("retire %s: %w", c, err)
	}
	s.processCount.Add(-1)
	return nil
}

// ProcessState returns the accumulator of a live process.
func (s *Scheduler) ProcessState(pid primitives.PID) (int64, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return 0, primitives.ErrClosed
	}
	p, ok := s.alloc.Process(container.Handle(pid))
	if !ok {
		return 0, fmt.Errorf("process %s: %w", pid, primitives.ErrInvalidHandle)
	}
	return p.State, nil
}

// ProcessAt returns the PID resident at c.
func (s *Scheduler) ProcessAt(c primitives.Coord) (primitives.PID, bool) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return 0, false
	}
	h, ok := s.grid.Lookup(c)
	return primitives.PID(h), ok
}

// EachProcess visits a copy of every resident process in slot order.
func (s *Scheduler) EachProcess(fn func(p primitives.Process) bool) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return
	}
	s.alloc.EachProcess(func(_ container.Handle, p *primitives.Process) bool {
		return fn(*p)
	})
}

// EachEdge visits a copy of every live edge in slot order.
func (s *Scheduler) EachEdge(fn func(e primitives.Edge) bool) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return
	}
	s.alloc.EachEdge(func(_ container.Handle, e *primitives.Edge) bool {
		return fn(*e)
	})
}

// AllocBytes takes a slot from the generic byte pool. size must not exceed
// the configured slot size.
func (s *Scheduler) AllocBytes(size int) (container.Handle, error) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return container.NilHandle, primitives.ErrClosed
	}
	return s.alloc.Allocate(arena.CategoryGeneric, size)
}

// Bytes returns the slot behind h. The slice stays valid until FreeBytes.
func (s *Scheduler) Bytes(h container.Handle) ([]byte, bool) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return nil, false
	}
	return s.alloc.Bytes(h)
}

// FreeBytes returns a generic slot to its pool.
func (s *Scheduler) FreeBytes(h container.Handle) error {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.closed.Load() {
		return primitives.ErrClosed
	}
	return s.alloc.Deallocate(arena.CategoryGeneric, h)
}
