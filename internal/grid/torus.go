// Package grid implements the toroidal spatial index: a fixed N×N×N array of
// slots, each holding at most one resident process handle.
package grid

import (
	"fmt"

	"github.com/comalice/eventgrid/internal/container"
	"github.com/comalice/eventgrid/internal/primitives"
)

// Torus maps coordinates to resident handles in O(1).
// The slot array is allocated once, in New.
type Torus struct {
	n        int32
	slots    []container.Handle
	occupied int
}

// New reserves n³ slots. n must be in [1, primitives.MaxGridSize].
func New(n int) (*Torus, error) {
	if n < 1 || n > primitives.MaxGridSize {
		return nil, fmt.Errorf("grid size %d: %w", n, primitives.ErrInvalidConfig)
	}
	return &Torus{
		n:     int32(n),
		slots: make([]container.Handle, n*n*n),
	}, nil
}

// Size returns the edge length N.
func (t *Torus) Size() int { return int(t.n) }

// Occupied returns the number of resident slots.
func (t *Torus) Occupied() int { return t.occupied }

// Wrap folds c into [0, N) on every axis.
func (t *Torus) Wrap(c primitives.Coord) primitives.Coord {
	return c.Wrap(t.n)
}

// Index returns the flat slot offset ((x mod N)*N + (y mod N))*N + (z mod N).
func (t *Torus) Index(c primitives.Coord) int {
	w := c.Wrap(t.n)
	n := int(t.n)
	return (int(w.X)*n+int(w.Y))*n + int(w.Z)
}

// CoordOf inverts Index.
func (t *Torus) CoordOf(index int) primitives.Coord {
	n := int(t.n)
	return primitives.C(index/(n*n), (index/n)%n, index%n)
}

// Occupy records h as resident at c. It fails with ErrOccupied when c
// already holds a process.
func (t *Torus) Occupy(c primitives.Coord, h container.Handle) error {
	i := t.Index(c)
	if !t.slots[i].IsNil() {
		return primitives.ErrOccupied
	}
	t.slots[i] = h
	t.occupied++
	return nil
}

// Lookup returns the handle resident at c.
func (t *Torus) Lookup(c primitives.Coord) (container.Handle, bool) {
	h := t.slots[t.Index(c)]
	return h, !h.IsNil()
}

// Vacate clears c and returns whatever was resident.
func (t *Torus) Vacate(c primitives.Coord) (container.Handle, bool) {
	i := t.Index(c)
	h := t.slots[i]
	if h.IsNil() {
		return container.NilHandle, false
	}
	t.slots[i] = container.NilHandle
	t.occupied--
	return h, true
}

// Neighbors returns the six face-adjacent coordinates of c, wrapped.
// On a grid of size 1 or 2 some of them coincide.
func (t *Torus) Neighbors(c primitives.Coord) [6]primitives.Coord {
	return [6]primitives.Coord{
		t.Wrap(c.Add(1, 0, 0)), t.Wrap(c.Add(-1, 0, 0)),
		t.Wrap(c.Add(0, 1, 0)), t.Wrap(c.Add(0, -1, 0)),
		t.Wrap(c.Add(0, 0, 1)), t.Wrap(c.Add(0, 0, -1)),
	}
}
