package builder

import (
	"fmt"

	"github.com/comalice/eventgrid" // the core package
)

// Coord shortcut
type Coord = eventgrid.Coord

// Option pattern for configuring edges
type Option func(*eventgrid.EdgeSpec)

// Delay sets the initial edge delay.
func Delay(d uint64) Option {
	return func(s *eventgrid.EdgeSpec) { s.Delay = d }
}

// Clamp sets the adaptive delay bounds.
func Clamp(minDelay, maxDelay uint64) Option {
	return func(s *eventgrid.EdgeSpec) {
		s.MinDelay = minDelay
		s.MaxDelay = maxDelay
	}
}

// Spec folds options into an EdgeSpec.
func Spec(opts ...Option) eventgrid.EdgeSpec {
	var s eventgrid.EdgeSpec
	for _, opt := range opts {
		opt(&s)
	}
	return s
}

// Name returns the process name helpers use for the i-th member of a shape.
func Name(prefix string, i int) string {
	return fmt.Sprintf("%s%d", prefix, i)
}

// Line places processes at start, start+step, start+2*step, ... without edges.
func Line(b *eventgrid.TopologyBuilder, prefix string, start Coord, step [3]int32, n int) []string {
	names := make([]string, n)
	c := start
	for i := 0; i < n; i++ {
		names[i] = Name(prefix, i)
		b.Process(names[i], c)
		c = c.Add(step[0], step[1], step[2])
	}
	return names
}

// Chain places n processes along +x from start, each connected to the next.
func Chain(b *eventgrid.TopologyBuilder, prefix string, start Coord, n int, opts ...Option) []string {
	names := Line(b, prefix, start, [3]int32{1, 0, 0}, n)
	spec := Spec(opts...)
	for i := 0; i+1 < n; i++ {
		b.Connect(names[i], names[i+1], spec)
	}
	return names
}

// Ring is a Chain whose last process also connects back to the first.
func Ring(b *eventgrid.TopologyBuilder, prefix string, start Coord, n int, opts ...Option) []string {
	names := Chain(b, prefix, start, n, opts...)
	if n > 1 {
		b.Connect(names[n-1], names[0], Spec(opts...))
	}
	return names
}

// Lattice fills an nx×ny×nz block from origin and connects each process to
// its +x, +y and +z neighbors inside the block.
func Lattice(b *eventgrid.TopologyBuilder, prefix string, origin Coord, nx, ny, nz int, opts ...Option) []string {
	name := func(x, y, z int) string { return fmt.Sprintf("%s%d_%d_%d", prefix, x, y, z) }
	spec := Spec(opts...)

	var names []string
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				n := name(x, y, z)
				names = append(names, n)
				b.Process(n, origin.Add(int32(x), int32(y), int32(z)))
			}
		}
	}
	for x := 0; x < nx; x++ {
		for y := 0; y < ny; y++ {
			for z := 0; z < nz; z++ {
				from := name(x, y, z)
				if x+1 < nx {
					b.Connect(from, name(x+1, y, z), spec)
				}
				if y+1 < ny {
					b.Connect(from, name(x, y+1, z), spec)
				}
				if z+1 < nz {
					b.Connect(from, name(x, y, z+1), spec)
				}
			}
		}
	}
	return names
}
