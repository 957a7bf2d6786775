package realtime

import (
	"time"

	"github.com/comalice/eventgrid"
)

// TickResult describes one completed tick.
type TickResult struct {
	Tick        uint64        `json:"tick" yaml:"tick"`
	Processed   int           `json:"processed" yaml:"processed"`
	Queued      int           `json:"queued" yaml:"queued"`
	CurrentTime uint64        `json:"currentTime" yaml:"currentTime"`
	Duration    time.Duration `json:"duration" yaml:"duration"`
}

// Idle reports whether the tick found nothing to deliver and left nothing queued.
func (r TickResult) Idle() bool {
	return r.Processed == 0 && r.Queued == 0
}

// SendEvent queues an event for the next tick (thread-safe).
// The event lands in the engine's pending buffer; a full buffer is reported
// as eventgrid.ErrCapacityExceeded.
func (rt *RealtimeRuntime) SendEvent(event eventgrid.Event) error {
	return rt.engine.Inject(event)
}

// SendAfter queues a sourceless event due delay logical time units after the
// engine's current time.
func (rt *RealtimeRuntime) SendAfter(dst eventgrid.Coord, delay uint64, payload int64) error {
	return rt.engine.Inject(eventgrid.NewEvent(dst, rt.engine.CurrentTime()+delay, payload))
}
