// Package arena implements the engine's bounded allocator: four independently
// sized pools, each reserved once and recycled through its own free list.
//
// Process, event and edge records live in typed slot pools; the generic pool
// is a raw byte slab cut into fixed-size slots. Allocation pops a free slot or
// fails with a CapacityError; it never grows a pool and never blocks.
//
// An Allocator belongs to exactly one scheduler. There is no package-level
// instance, and it is not safe for concurrent use.
package arena

import (
	"fmt"
	"unsafe"

	"github.com/comalice/eventgrid/internal/container"
	"github.com/comalice/eventgrid/internal/primitives"
)

// Category selects one of the four pools.
type Category int

const (
	CategoryProcess Category = iota
	CategoryEvent
	CategoryEdge
	CategoryGeneric
	categoryCount
)

var categoryNames = [categoryCount]string{"process", "event", "edge", "generic"}

func (c Category) String() string {
	if c < 0 || c >= categoryCount {
		return fmt.Sprintf("category(%d)", int(c))
	}
	return categoryNames[c]
}

// Categories lists every pool category in order.
func Categories() []Category {
	return []Category{CategoryProcess, CategoryEvent, CategoryEdge, CategoryGeneric}
}

func (c Category) resource() primitives.Resource {
	switch c {
	case CategoryProcess:
		return primitives.ResourceProcessPool
	case CategoryEvent:
		return primitives.ResourceEventPool
	case CategoryEdge:
		return primitives.ResourceEdgePool
	default:
		return primitives.ResourceGenericPool
	}
}

var (
	processSize = int(unsafe.Sizeof(primitives.Process{}))
	eventSize   = int(unsafe.Sizeof(primitives.Event{}))
	edgeSize    = int(unsafe.Sizeof(primitives.Edge{}))
)

// Sizes fixes the slot count of every pool and the generic slot size in bytes.
type Sizes struct {
	Processes       int
	Events          int
	Edges           int
	GenericSlots    int
	GenericSlotSize int
}

// Allocator owns the four pools.
type Allocator struct {
	processes *container.Pool[primitives.Process]
	events    *container.Pool[primitives.Event]
	edges     *container.Pool[primitives.Edge]
	generic   *ByteSlab

	// Statistics
	allocCount [categoryCount]uint64
	freeCount  [categoryCount]uint64
	failCount  [categoryCount]uint64
}

// New reserves every pool. This is the only point at which the allocator
// asks the runtime for memory.
func New(sizes Sizes) *Allocator {
	return &Allocator{
		processes: container.NewPool[primitives.Process](sizes.Processes),
		events:    container.NewPool[primitives.Event](sizes.Events),
		edges:     container.NewPool[primitives.Edge](sizes.Edges),
		generic:   NewByteSlab(sizes.GenericSlots, sizes.GenericSlotSize),
	}
}

// SlotSize returns the largest request a category accepts, in bytes.
func (a *Allocator) SlotSize(c Category) int {
	switch c {
	case CategoryProcess:
		return processSize
	case CategoryEvent:
		return eventSize
	case CategoryEdge:
		return edgeSize
	case CategoryGeneric:
		return a.generic.SlotSize()
	}
	return 0
}

// Allocate takes one slot from the category's pool. size is checked against
// the slot size; zero means "one slot of the natural size".
func (a *Allocator) Allocate(c Category, size int) (container.Handle, error) {
	if c < 0 || c >= categoryCount {
		return container.NilHandle, fmt.Errorf("allocate %s: %w", c, primitives.ErrInvalidHandle)
	}
	if size < 0 || size > a.SlotSize(c) {
		return container.NilHandle, fmt.Errorf("allocate %d bytes from %s pool: %w", size, c, primitives.ErrSizeTooLarge)
	}

	var h container.Handle
	var err error
	switch c {
	case CategoryProcess:
		h, _, err = a.processes.Acquire()
	case CategoryEvent:
		h, _, err = a.events.Acquire()
	case CategoryEdge:
		h, _, err = a.edges.Acquire()
	case CategoryGeneric:
		h, err = a.generic.Acquire()
	}
	if err != nil {
		a.failCount[c]++
		return container.NilHandle, primitives.CapacityExceeded(c.resource())
	}
	a.allocCount[c]++
	return h, nil
}

// Deallocate returns a slot to its pool. Double frees and foreign or stale
// handles are detected and reported as ErrInvalidHandle.
func (a *Allocator) Deallocate(c Category, h container.Handle) error {
	var err error
	switch c {
	case CategoryProcess:
		err = a.processes.Release(h)
	case CategoryEvent:
		err = a.events.Release(h)
	case CategoryEdge:
		err = a.edges.Release(h)
	case CategoryGeneric:
		err = a.generic.Release(h)
	default:
		err = container.ErrInvalidHandle
	}
	if err != nil {
		return fmt.Errorf("deallocate %s handle %#x: %w", c, uint64(h), primitives.ErrInvalidHandle)
	}
	a.freeCount[c]++
	return nil
}

// Process resolves a live process slot.
func (a *Allocator) Process(h container.Handle) (*primitives.Process, bool) {
	return a.processes.Get(h)
}

// Event resolves a live event slot.
func (a *Allocator) Event(h container.Handle) (*primitives.Event, bool) {
	return a.events.Get(h)
}

// Edge resolves a live edge slot.
func (a *Allocator) Edge(h container.Handle) (*primitives.Edge, bool) {
	return a.edges.Get(h)
}

// Bytes resolves a live generic slot to its full fixed-size byte range.
func (a *Allocator) Bytes(h container.Handle) ([]byte, bool) {
	return a.generic.Bytes(h)
}

// EachProcess visits live processes in slot order until fn returns false.
func (a *Allocator) EachProcess(fn func(h container.Handle, p *primitives.Process) bool) {
	a.processes.Each(fn)
}

// EachEdge visits live edges in slot order until fn returns false.
func (a *Allocator) EachEdge(fn func(h container.Handle, e *primitives.Edge) bool) {
	a.edges.Each(fn)
}

// Usage returns the number of live slots in a category.
func (a *Allocator) Usage(c Category) int {
	switch c {
	case CategoryProcess:
		return a.processes.Len()
	case CategoryEvent:
		return a.events.Len()
	case CategoryEdge:
		return a.edges.Len()
	case CategoryGeneric:
		return a.generic.Len()
	}
	return 0
}

// Capacity returns the fixed number of slots in a category.
func (a *Allocator) Capacity(c Category) int {
	switch c {
	case CategoryProcess:
		return a.processes.Cap()
	case CategoryEvent:
		return a.events.Cap()
	case CategoryEdge:
		return a.edges.Cap()
	case CategoryGeneric:
		return a.generic.Cap()
	}
	return 0
}

// ReservedBytes is the memory held by the slot arrays. It is fixed at New
// and does not change for the allocator's lifetime.
func (a *Allocator) ReservedBytes() int {
	total := 0
	for _, c := range Categories() {
		total += a.Capacity(c) * a.SlotSize(c)
	}
	return total
}

// Statistics

// PoolStats is a point-in-time view of one category pool.
type PoolStats struct {
	Category    string  `json:"category" yaml:"category"`
	SlotSize    int     `json:"slotSize" yaml:"slotSize"`
	Used        int     `json:"used" yaml:"used"`
	Capacity    int     `json:"capacity" yaml:"capacity"`
	Allocs      uint64  `json:"allocs" yaml:"allocs"`
	Frees       uint64  `json:"frees" yaml:"frees"`
	Failures    uint64  `json:"failures" yaml:"failures"`
	Utilization float32 `json:"utilization" yaml:"utilization"`
}

// Stats reports one entry per category, in Categories order.
func (a *Allocator) Stats() []PoolStats {
	stats := make([]PoolStats, 0, categoryCount)
	for _, c := range Categories() {
		used, capacity := a.Usage(c), a.Capacity(c)
		utilization := float32(0)
		if capacity > 0 {
			utilization = float32(used) / float32(capacity) * 100
		}
		stats = append(stats, PoolStats{
			Category:    c.String(),
			SlotSize:    a.SlotSize(c),
			Used:        used,
			Capacity:    capacity,
			Allocs:      a.allocCount[c],
			Frees:       a.freeCount[c],
			Failures:    a.failCount[c],
			Utilization: utilization,
		})
	}
	return stats
}
