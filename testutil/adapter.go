package testutil

import (
	"context"
	"errors"
	"time"

	"github.com/comalice/eventgrid"
	"github.com/comalice/eventgrid/realtime"
)

// ErrNotStable is returned by WaitForStability when work is still queued at
// the deadline.
var ErrNotStable = errors.New("testutil: engine did not become idle")

// RuntimeAdapter provides a common interface for driving an engine directly
// or through the tick-based runtime.
// This allows running the same test suite on both drivers
type RuntimeAdapter interface {
	Start(ctx context.Context) error
	Stop() error
	SendEvent(event eventgrid.Event) error
	StateAt(c eventgrid.Coord) (int64, bool)
	WaitForStability(timeout time.Duration) error
}

// DirectAdapter drives the engine with Run calls from the test goroutine.
type DirectAdapter struct {
	eng *eventgrid.Engine
}

// NewDirectAdapter creates a new adapter that calls Run itself
func NewDirectAdapter(eng *eventgrid.Engine) *DirectAdapter {
	return &DirectAdapter{eng: eng}
}

func (a *DirectAdapter) Start(ctx context.Context) error { return nil }

func (a *DirectAdapter) Stop() error { return nil }

func (a *DirectAdapter) SendEvent(event eventgrid.Event) error {
	return a.eng.Inject(event)
}

func (a *DirectAdapter) StateAt(c eventgrid.Coord) (int64, bool) {
	return a.eng.StateAt(c)
}

// WaitForStability drains the engine synchronously.
func (a *DirectAdapter) WaitForStability(timeout time.Duration) error {
	a.eng.Run(-1)
	if a.eng.Pending() != 0 || a.eng.Queued() != 0 {
		return ErrNotStable
	}
	return nil
}

// TickBasedAdapter wraps the tick-based runtime
type TickBasedAdapter struct {
	rt       *realtime.RealtimeRuntime
	tickRate time.Duration
}

// NewTickBasedAdapter creates a new adapter for the tick-based runtime
func NewTickBasedAdapter(eng *eventgrid.Engine, tickRate time.Duration) *TickBasedAdapter {
	return &TickBasedAdapter{
		rt: realtime.NewRuntime(eng, realtime.Config{
			TickRate: tickRate,
		}),
		tickRate: tickRate,
	}
}

func (a *TickBasedAdapter) Start(ctx context.Context) error {
	return a.rt.Start(ctx)
}

func (a *TickBasedAdapter) Stop() error {
	return a.rt.Stop()
}

func (a *TickBasedAdapter) SendEvent(event eventgrid.Event) error {
	return a.rt.SendEvent(event)
}

func (a *TickBasedAdapter) StateAt(c eventgrid.Coord) (int64, bool) {
	return a.rt.Engine().StateAt(c)
}

// WaitForStability polls until the ticker has drained everything.
func (a *TickBasedAdapter) WaitForStability(timeout time.Duration) error {
	eng := a.rt.Engine()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if eng.Pending() == 0 && eng.Queued() == 0 {
			// Wait for next tick so an in-flight delivery settles
			time.Sleep(a.tickRate + 5*time.Millisecond)
			if eng.Pending() == 0 && eng.Queued() == 0 {
				return nil
			}
		}
		time.Sleep(a.tickRate)
	}
	return ErrNotStable
}
