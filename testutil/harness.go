package testutil

import (
	"context"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/comalice/eventgrid"
)

// Partition deals events round-robin into n batches, preserving each
// batch's relative order.
func Partition(events []eventgrid.Event, n int) [][]eventgrid.Event {
	if n < 1 {
		n = 1
	}
	batches := make([][]eventgrid.Event, n)
	for i, e := range events {
		batches[i%n] = append(batches[i%n], e)
	}
	return batches
}

// InjectConcurrently injects each batch from its own goroutine and waits for
// all of them. The first failed injection cancels the remaining producers.
func InjectConcurrently(ctx context.Context, send func(eventgrid.Event) error, batches [][]eventgrid.Event) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, batch := range batches {
		g.Go(func() error {
			for _, e := range batch {
				if err := ctx.Err(); err != nil {
					return err
				}
				if err := send(e); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

// States snapshots every resident process's state by coordinate.
func States(eng *eventgrid.Engine) map[eventgrid.Coord]int64 {
	out := make(map[eventgrid.Coord]int64, eng.ProcessCount())
	eng.EachProcess(func(p eventgrid.Process) bool {
		out[p.Coord] = p.State
		return true
	})
	return out
}

// Coords returns the keys of a States map in (x, y, z) order.
func Coords(states map[eventgrid.Coord]int64) []eventgrid.Coord {
	out := make([]eventgrid.Coord, 0, len(states))
	for c := range states {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.X != b.X {
			return a.X < b.X
		}
		if a.Y != b.Y {
			return a.Y < b.Y
		}
		return a.Z < b.Z
	})
	return out
}
