// Package extensibility feeds external event streams into an engine.
package extensibility

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/comalice/eventgrid/internal/core"
	"github.com/comalice/eventgrid/internal/primitives"
)

// PumpStats counts what a pump did with the events it read.
type PumpStats struct {
	Accepted uint64 `json:"accepted" yaml:"accepted"`
	Rejected uint64 `json:"rejected" yaml:"rejected"`
}

// Pump injects every event src yields until the source closes or ctx is
// done. Capacity rejections are counted and skipped; any other injection
// error stops the pump and is returned.
func Pump(ctx context.Context, inj core.Injector, src core.EventSource) (PumpStats, error) {
	var st PumpStats
	events := src.Events()
	for {
		select {
		case <-ctx.Done():
			return st, ctx.Err()
		case e, ok := <-events:
			if !ok {
				return st, nil
			}
			switch err := inj.Inject(e); {
			case err == nil:
				st.Accepted++
			case errors.Is(err, primitives.ErrCapacityExceeded):
				st.Rejected++
			default:
				return st, fmt.Errorf("inject %s@%d: %w", e.Dst, e.Timestamp, err)
			}
		}
	}
}

// PumpAll runs one pump per source concurrently and waits for all of them.
// The first hard failure cancels the rest.
func PumpAll(ctx context.Context, inj core.Injector, srcs ...core.EventSource) (PumpStats, error) {
	var accepted, rejected atomic.Uint64
	g, ctx := errgroup.WithContext(ctx)
	for _, src := range srcs {
		g.Go(func() error {
			st, err := Pump(ctx, inj, src)
			accepted.Add(st.Accepted)
			rejected.Add(st.Rejected)
			return err
		})
	}
	err := g.Wait()
	return PumpStats{Accepted: accepted.Load(), Rejected: rejected.Load()}, err
}
