// Options for configuring Scheduler instances.
package core

import (
	"io"
	"log"

	"github.com/comalice/eventgrid/internal/primitives"
)

// Pluggable component interfaces. Implementations live in
// internal/extensibility and internal/production.

// EventSource yields events to be injected. The channel is closed when the
// source is exhausted.
type EventSource interface {
	Events() <-chan primitives.Event
}

// Injector is the producer-side surface of a scheduler.
type Injector interface {
	Inject(e primitives.Event) error
}

// Visualizer renders a topology snapshot.
type Visualizer interface {
	Visualize(t Topology) (string, error)
}

// Topology is a copy of every resident process and live edge.
type Topology struct {
	GridSize  int                  `json:"gridSize" yaml:"gridSize"`
	Processes []primitives.Process `json:"processes" yaml:"processes"`
	Edges     []primitives.Edge    `json:"edges" yaml:"edges"`
}

// Snapshot copies the current topology. It allocates and is meant for
// tooling, not for the run loop.
func (s *Scheduler) Snapshot() Topology {
	t := Topology{GridSize: int(s.n)}
	s.EachProcess(func(p primitives.Process) bool {
		t.Processes = append(t.Processes, p)
		return true
	})
	s.EachEdge(func(e primitives.Edge) bool {
		t.Edges = append(t.Edges, e)
		return true
	})
	return t
}

// WithLogger routes scheduler diagnostics to l. A nil logger discards them.
func WithLogger(l *log.Logger) Option {
	return func(s *Scheduler) {
		if l == nil {
			l = log.New(io.Discard, "", 0)
		}
		s.logger = l
	}
}

// WithObserver registers an observer for every delivery.
func WithObserver(o Observer) Option {
	return func(s *Scheduler) {
		if o != nil {
			s.observers = append(s.observers, o)
		}
	}
}
