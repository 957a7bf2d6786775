package core

import (
	"math"

	"github.com/comalice/eventgrid/internal/arena"
	"github.com/comalice/eventgrid/internal/container"
	"github.com/comalice/eventgrid/internal/primitives"
)

// Run flushes the pending buffer into the heap and then delivers up to
// maxEvents events in canonical order. It returns the number delivered by
// this call.
//
// maxEvents < 0 drains the heap completely; maxEvents == 0 only flushes.
// A Run that finds another Run in progress returns 0 without doing anything.
func (s *Scheduler) Run(maxEvents int) int {
	if !s.runMu.TryLock() {
		s.logger.Printf("eventgrid: run rejected, another run is in progress")
		return 0
	}
	defer s.runMu.Unlock()

	if s.closed.Load() {
		return 0
	}
	s.runs++

	if _, dropped := s.flush(); dropped > 0 {
		s.logger.Printf("eventgrid: flush dropped %d events (event pool %d/%d, heap %d/%d)",
			dropped,
			s.alloc.Usage(arena.CategoryEvent), s.alloc.Capacity(arena.CategoryEvent),
			s.heap.Len(), s.heap.Cap())
	}

	processed := 0
	cascadeDropped := s.cascadeDropped
	for maxEvents < 0 || processed < maxEvents {
		h, ok := s.heap.Pop()
		if !ok {
			break
		}
		s.deliver(h)
		processed++
	}
	if lost := s.cascadeDropped - cascadeDropped; lost > 0 {
		s.logger.Printf("eventgrid: %d cascade events dropped at capacity", lost)
	}
	return processed
}

// deliver applies the event in slot h to its destination process, cascades
// along the process's outgoing edges and releases the slot.
func (s *Scheduler) deliver(h container.Handle) {
	slot, ok := s.alloc.Event(h)
	if !ok {
		return
	}
	ev := *slot

	now := s.currentTime.Load()
	if ev.Timestamp > now {
		now = ev.Timestamp
		s.currentTime.Store(now)
	}

	d := Delivery{Event: ev}
	if ph, resident := s.grid.Lookup(ev.Dst); resident {
		p, _ := s.alloc.Process(ph)
		p.State += ev.Payload
		d.PID = p.ID
		d.State = p.State
		d.Emitted = s.cascade(p, ev.Payload, now)
	} else {
		d.Orphaned = true
		s.orphaned++
	}

	_ = s.alloc.Deallocate(arena.CategoryEvent, h)
	s.eventsProcessed.Add(1)

	for _, o := range s.observers {
		o.Delivered(d)
	}
}

// cascade emits one event per outgoing edge of p and adapts each edge.
// It returns the number of events that made it into the heap.
func (s *Scheduler) cascade(p *primitives.Process, payload int64, now uint64) int {
	out := attenuate(payload, s.cfg.Edge.Attenuation)
	emitted := 0
	for eh := container.Handle(p.FirstEdge); !eh.IsNil(); {
		edge, ok := s.alloc.Edge(eh)
		if !ok {
			break
		}
		if out != 0 {
			e := primitives.NewEventFrom(p.Coord, edge.Dst, addSat(now, edge.Delay), out)
			if err := s.enqueue(e); err != nil {
				s.cascadeDropped++
			} else {
				s.cascaded++
				emitted++
			}
		}
		edge.Adapt(now, s.cfg.Edge.DecayWindow, s.cfg.Edge.ReinforceStep)
		eh = container.Handle(edge.Next)
	}
	return emitted
}

// attenuate moves v toward zero by step without crossing it.
func attenuate(v int64, step uint64) int64 {
	if step == 0 || v == 0 {
		return v
	}
	switch {
	case v > 0:
		if uint64(v) <= step {
			return 0
		}
		return v - int64(step)
	default:
		mag := uint64(-(v + 1)) + 1 // |v| without overflowing at MinInt64
		if mag <= step {
			return 0
		}
		return -int64(mag - step)
	}
}

func addSat(a, b uint64) uint64 {
	if a > math.MaxUint64-b {
		return math.MaxUint64
	}
	return a + b
}
