package extensibility

import (
	"time"

	"github.com/comalice/eventgrid/internal/primitives"
)

// ChannelEventSource is an EventSource implementation backed by a Go channel.
// The owner of the channel closes it to end the stream.
type ChannelEventSource struct {
	ch chan primitives.Event
}

// Events returns the receive-only channel for events.
func (s *ChannelEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// NewChannelEventSource creates a new ChannelEventSource with the given channel.
// The channel should be buffered if backpressure handling is needed.
func NewChannelEventSource(ch chan primitives.Event) *ChannelEventSource {
	return &ChannelEventSource{ch: ch}
}

// SliceEventSource replays a fixed list of events and then closes.
// Useful for recorded scenarios and tests.
type SliceEventSource struct {
	ch chan primitives.Event
}

// NewSliceEventSource starts replaying events.
func NewSliceEventSource(events []primitives.Event) *SliceEventSource {
	ch := make(chan primitives.Event, len(events))
	for _, e := range events {
		ch <- e
	}
	close(ch)
	return &SliceEventSource{ch: ch}
}

// Events returns the replay channel.
func (s *SliceEventSource) Events() <-chan primitives.Event {
	return s.ch
}

// TimerEventSource generates periodic events using time.Ticker.
// The n-th event carries logical timestamp n*step, so a timer stream is
// ordered the same way however late the ticker fires.
type TimerEventSource struct {
	ch      chan primitives.Event
	dst     primitives.Coord
	payload int64
	step    uint64
	ticker  *time.Ticker
	stop    chan struct{}
}

// NewTimerEventSource creates a TimerEventSource that emits events every d duration.
func NewTimerEventSource(dst primitives.Coord, payload int64, step uint64, d time.Duration) *TimerEventSource {
	ch := make(chan primitives.Event, 10)
	t := &TimerEventSource{
		ch:      ch,
		dst:     dst,
		payload: payload,
		step:    step,
		ticker:  time.NewTicker(d),
		stop:    make(chan struct{}),
	}
	go t.run()
	return t
}

func (t *TimerEventSource) run() {
	var n uint64
	for {
		select {
		case <-t.ticker.C:
			n++
			select {
			case t.ch <- primitives.NewEvent(t.dst, n*t.step, t.payload):
			default:
				// drop if full
			}
		case <-t.stop:
			t.ticker.Stop()
			close(t.ch)
			return
		}
	}
}

// Events returns the event channel.
func (t *TimerEventSource) Events() <-chan primitives.Event {
	return t.ch
}

// Stop stops the ticker and closes the channel.
func (t *TimerEventSource) Stop() {
	close(t.stop)
}
