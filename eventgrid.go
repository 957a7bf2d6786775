// Package eventgrid is a bounded-memory, deterministic discrete-event engine.
//
// Processes live at coordinates of a fixed N×N×N toroidal grid. Events are
// injected from any goroutine into a bounded pending buffer, then delivered
// by Run in a canonical total order: timestamp, destination coordinate,
// source coordinate, payload. Every structure the engine uses is reserved
// once, in New. Capacity limits are reported as ErrCapacityExceeded and
// never crash the engine.
//
// Example:
//
//	eng, _ := eventgrid.New(eventgrid.DefaultConfig())
//	defer eng.Close()
//	pid, _ := eng.SpawnProcess(0, 0, 0)
//	_ = eng.InjectEvent(0, 0, 0, 1, 10)
//	_ = eng.InjectEvent(0, 0, 0, 2, 5)
//	eng.Run(100)
//	state, _ := eng.ProcessState(pid) // 15
package eventgrid

import (
	"log"

	"github.com/google/uuid"

	"github.com/comalice/eventgrid/internal/arena"
	"github.com/comalice/eventgrid/internal/container"
	"github.com/comalice/eventgrid/internal/core"
	"github.com/comalice/eventgrid/internal/primitives"
)

// Core types, re-exported.
type (
	Coord         = primitives.Coord
	Event         = primitives.Event
	PID           = primitives.PID
	Process       = primitives.Process
	Edge          = primitives.Edge
	Config        = primitives.Config
	EdgeConfig    = primitives.EdgeConfig
	Resource      = primitives.Resource
	CapacityError = primitives.CapacityError
	Handle        = container.Handle
	Category      = arena.Category
	PoolStats     = arena.PoolStats
	EdgeSpec      = core.EdgeSpec
	Delivery      = core.Delivery
	Observer      = core.Observer
	ObserverFunc  = core.ObserverFunc
	Topology      = core.Topology
	Stats         = core.Stats
)

// Pool categories.
const (
	CategoryProcess = arena.CategoryProcess
	CategoryEvent   = arena.CategoryEvent
	CategoryEdge    = arena.CategoryEdge
	CategoryGeneric = arena.CategoryGeneric
)

// Capacity-limited resources named by CapacityError.
const (
	ResourceProcessPool   = primitives.ResourceProcessPool
	ResourceEventPool     = primitives.ResourceEventPool
	ResourceEdgePool      = primitives.ResourceEdgePool
	ResourceGenericPool   = primitives.ResourceGenericPool
	ResourcePendingBuffer = primitives.ResourcePendingBuffer
	ResourceHeap          = primitives.ResourceHeap
)

// Errors.
var (
	ErrCapacityExceeded = primitives.ErrCapacityExceeded
	ErrOccupied         = primitives.ErrOccupied
	ErrNoProcess        = primitives.ErrNoProcess
	ErrInvalidHandle    = primitives.ErrInvalidHandle
	ErrSizeTooLarge     = primitives.ErrSizeTooLarge
	ErrClosed           = primitives.ErrClosed
	ErrInvalidConfig    = primitives.ErrInvalidConfig
)

// NilHandle is never returned by a successful allocation.
const NilHandle = container.NilHandle

// C builds a coordinate. Components must fit in int32; Engine.Coord wraps
// arbitrary ints.
func C(x, y, z int) Coord { return primitives.C(x, y, z) }

// NewEvent returns a sourceless event.
func NewEvent(dst Coord, timestamp uint64, payload int64) Event {
	return primitives.NewEvent(dst, timestamp, payload)
}

// NewEventFrom returns an event carrying its source coordinate.
func NewEventFrom(src, dst Coord, timestamp uint64, payload int64) Event {
	return primitives.NewEventFrom(src, dst, timestamp, payload)
}

// DefaultConfig returns the default capacities.
func DefaultConfig() Config { return primitives.DefaultConfig() }

// LoadConfig reads a YAML config file over DefaultConfig.
func LoadConfig(path string) (Config, error) { return primitives.LoadConfig(path) }

// Option configures an Engine.
type Option func(*options)

type options struct {
	id   uuid.UUID
	core []core.Option
}

// WithLogger routes engine diagnostics (overflow, rejected runs) to l.
func WithLogger(l *log.Logger) Option {
	return func(o *options) { o.core = append(o.core, core.WithLogger(l)) }
}

// WithObserver registers an observer called after every delivery.
func WithObserver(obs Observer) Option {
	return func(o *options) { o.core = append(o.core, core.WithObserver(obs)) }
}

// WithID fixes the instance ID instead of generating one.
func WithID(id uuid.UUID) Option {
	return func(o *options) { o.id = id }
}

// Engine is one independent engine instance. Instances share nothing.
type Engine struct {
	id    uuid.UUID
	n     int32
	sched *core.Scheduler
}

// New reserves every pool cfg describes and returns a ready engine.
func New(cfg Config, opts ...Option) (*Engine, error) {
	o := options{}
	for _, opt := range opts {
		opt(&o)
	}
	if o.id == uuid.Nil {
		o.id = uuid.New()
	}
	s, err := core.New(cfg, o.core...)
	if err != nil {
		return nil, err
	}
	return &Engine{id: o.id, n: int32(cfg.GridSize), sched: s}, nil
}

// NewWithSize builds an engine over an n³ grid with default capacities.
func NewWithSize(n int, opts ...Option) (*Engine, error) {
	cfg := DefaultConfig()
	cfg.GridSize = n
	return New(cfg, opts...)
}

// ID returns the instance ID.
func (e *Engine) ID() uuid.UUID { return e.id }

// Config returns the configuration the engine was built with.
func (e *Engine) Config() Config { return e.sched.Config() }

// Coord folds plain ints onto this engine's grid. Unlike C it never
// truncates, whatever the magnitude of the input.
func (e *Engine) Coord(x, y, z int) Coord { return primitives.WrapInts(x, y, z, e.n) }

// Close releases all pools. Further calls fail with ErrClosed.
func (e *Engine) Close() error { return e.sched.Close() }

// SpawnProcess places a process with zero state at (x, y, z), wrapped.
func (e *Engine) SpawnProcess(x, y, z int) (PID, error) {
	return e.sched.Spawn(e.Coord(x, y, z))
}

// Spawn places a process at c.
func (e *Engine) Spawn(c Coord) (PID, error) { return e.sched.Spawn(c) }

// RetireProcess removes the process at (x, y, z) together with its outgoing
// edges. Its PID goes stale and the coordinate can be spawned again.
func (e *Engine) RetireProcess(x, y, z int) error {
	return e.sched.Retire(e.Coord(x, y, z))
}

// Retire removes the process at c.
func (e *Engine) Retire(c Coord) error { return e.sched.Retire(c) }

// Connect adds an adaptive edge from the process at src to dst.
func (e *Engine) Connect(src, dst Coord, spec EdgeSpec) error {
	return e.sched.Connect(src, dst, spec)
}

// InjectEvent stages an event for (x, y, z). Safe for concurrent use.
func (e *Engine) InjectEvent(x, y, z int, timestamp uint64, payload int64) error {
	return e.sched.Inject(primitives.NewEvent(e.Coord(x, y, z), timestamp, payload))
}

// InjectEventFrom stages an event that carries its source coordinate.
func (e *Engine) InjectEventFrom(src, dst Coord, timestamp uint64, payload int64) error {
	return e.sched.Inject(primitives.NewEventFrom(src, dst, timestamp, payload))
}

// Inject stages a prepared event.
func (e *Engine) Inject(ev Event) error { return e.sched.Inject(ev) }

// Run delivers up to maxEvents events and returns how many this call
// delivered. Negative maxEvents drains the queue.
func (e *Engine) Run(maxEvents int) int { return e.sched.Run(maxEvents) }

// EventsProcessed returns the lifetime delivery count.
func (e *Engine) EventsProcessed() uint64 { return e.sched.EventsProcessed() }

// CurrentTime returns the timestamp of the latest delivery.
func (e *Engine) CurrentTime() uint64 { return e.sched.CurrentTime() }

// ProcessCount returns the number of resident processes.
func (e *Engine) ProcessCount() int { return e.sched.ProcessCount() }

// ProcessState returns the accumulator of a process.
func (e *Engine) ProcessState(pid PID) (int64, error) { return e.sched.ProcessState(pid) }

// ProcessAt returns the PID resident at c.
func (e *Engine) ProcessAt(c Coord) (PID, bool) { return e.sched.ProcessAt(c) }

// StateAt returns the accumulator of the process resident at c.
func (e *Engine) StateAt(c Coord) (int64, bool) {
	pid, ok := e.sched.ProcessAt(c)
	if !ok {
		return 0, false
	}
	st, err := e.sched.ProcessState(pid)
	return st, err == nil
}

// AllocBytes takes one slot of the generic byte pool.
func (e *Engine) AllocBytes(size int) (Handle, error) { return e.sched.AllocBytes(size) }

// Bytes resolves a generic slot.
func (e *Engine) Bytes(h Handle) ([]byte, bool) { return e.sched.Bytes(h) }

// FreeBytes returns a generic slot.
func (e *Engine) FreeBytes(h Handle) error { return e.sched.FreeBytes(h) }

// Usage returns the live slot count of a pool category.
func (e *Engine) Usage(c Category) int { return e.sched.Usage(c) }

// Capacity returns the fixed slot count of a pool category.
func (e *Engine) Capacity(c Category) int { return e.sched.Capacity(c) }

// Pending returns the number of injected events not yet flushed.
func (e *Engine) Pending() int { return e.sched.PendingLen() }

// Queued returns the number of flushed events awaiting delivery.
func (e *Engine) Queued() int { return e.sched.Queued() }

// Stats snapshots counters and pool usage.
func (e *Engine) Stats() Stats { return e.sched.Stats() }

// Snapshot copies every process and edge.
func (e *Engine) Snapshot() Topology { return e.sched.Snapshot() }

// EachProcess visits a copy of every resident process.
func (e *Engine) EachProcess(fn func(p Process) bool) { e.sched.EachProcess(fn) }

// EachEdge visits a copy of every live edge.
func (e *Engine) EachEdge(fn func(ed Edge) bool) { e.sched.EachEdge(fn) }
