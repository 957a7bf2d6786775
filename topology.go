package eventgrid

import (
	"fmt"
	"sort"
	"strings"
)

// TopologyBuilder provides a fluent API for laying out processes and edges
// by name instead of by raw coordinate.
type TopologyBuilder struct {
	nextID   int
	nameToID map[string]int
	idToName map[int]string // for error messages
	coords   map[int]Coord
	links    []link
}

type link struct {
	from, to int
	spec     EdgeSpec
}

// ProcessBuilder configures one named process.
type ProcessBuilder struct {
	b    *TopologyBuilder
	id   int
	name string
}

// NewTopology starts an empty layout.
func NewTopology() *TopologyBuilder {
	return &TopologyBuilder{
		nameToID: make(map[string]int),
		idToName: make(map[int]string),
		coords:   make(map[int]Coord),
	}
}

// Process places (or moves) the named process at c.
func (b *TopologyBuilder) Process(name string, c Coord) *ProcessBuilder {
	id := b.assignID(name)
	b.coords[id] = c
	return &ProcessBuilder{b: b, id: id, name: name}
}

// Connect adds an edge between two named processes. Either may be declared
// later; Build checks that both exist.
func (b *TopologyBuilder) Connect(from, to string, spec EdgeSpec) *TopologyBuilder {
	b.links = append(b.links, link{from: b.assignID(from), to: b.assignID(to), spec: spec})
	return b
}

// Names returns every declared process name in declaration order.
func (b *TopologyBuilder) Names() []string {
	ids := make([]int, 0, len(b.idToName))
	for id := range b.idToName {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	names := make([]string, len(ids))
	for i, id := range ids {
		names[i] = b.idToName[id]
	}
	return names
}

// CoordOf returns the coordinate a name was placed at.
func (b *TopologyBuilder) CoordOf(name string) (Coord, bool) {
	id, ok := b.nameToID[name]
	if !ok {
		return Coord{}, false
	}
	c, ok := b.coords[id]
	return c, ok
}

// Build validates the layout, then spawns every process and adds every edge
// on e, in declaration order. It returns the PID of each named process.
// A failure part way leaves the processes spawned so far in place.
func (b *TopologyBuilder) Build(e *Engine) (map[string]PID, error) {
	if err := b.validate(int32(e.Config().GridSize)); err != nil {
		return nil, err
	}

	pids := make(map[string]PID, len(b.coords))
	for _, name := range b.Names() {
		pid, err := e.Spawn(b.coords[b.nameToID[name]])
		if err != nil {
			return pids, fmt.Errorf("spawn %q: %w", name, err)
		}
		pids[name] = pid
	}
	for _, l := range b.links {
		if err := e.Connect(b.coords[l.from], b.coords[l.to], l.spec); err != nil {
			return pids, fmt.Errorf("connect %q -> %q: %w", b.idToName[l.from], b.idToName[l.to], err)
		}
	}
	return pids, nil
}

// assignID returns the existing ID for a name, or creates a new sequential ID.
// This keeps spawn order deterministic.
func (b *TopologyBuilder) assignID(name string) int {
	if id, exists := b.nameToID[name]; exists {
		return id
	}
	id := b.nextID
	b.nextID++
	b.nameToID[name] = id
	b.idToName[id] = name
	return id
}

// validate checks that every referenced process is placed and that no two
// processes share a coordinate once wrapped onto an n³ grid.
func (b *TopologyBuilder) validate(n int32) error {
	seen := make(map[Coord]string, len(b.coords))
	for _, name := range b.Names() {
		id := b.nameToID[name]
		if strings.TrimSpace(name) == "" {
			return fmt.Errorf("%w: process %d has an empty name", ErrInvalidConfig, id)
		}
		if _, placed := b.coords[id]; !placed {
			return fmt.Errorf("%w: process %q is connected but never placed", ErrInvalidConfig, name)
		}
		c := b.coords[id].Wrap(n)
		if other, dup := seen[c]; dup {
			return fmt.Errorf("%w: processes %q and %q both at %s", ErrOccupied, other, name, c)
		}
		seen[c] = name
	}
	return nil
}

// ProcessBuilder fluent methods

// To adds an edge from this process to the named one.
func (pb *ProcessBuilder) To(name string, spec EdgeSpec) *ProcessBuilder {
	pb.b.Connect(pb.name, name, spec)
	return pb
}

// Name returns the process name.
func (pb *ProcessBuilder) Name() string { return pb.name }

// Done returns the parent builder.
func (pb *ProcessBuilder) Done() *TopologyBuilder { return pb.b }
