package extensibility

import (
	"testing"
	"time"

	"github.com/comalice/eventgrid/internal/primitives"
)

func TestChannelEventSource(t *testing.T) {
	ch := make(chan primitives.Event, 1)
	s := NewChannelEventSource(ch)
	if s.Events() != (<-chan primitives.Event)(ch) {
		t.Error("Events() should return ch")
	}
}

func TestTimerEventSource(t *testing.T) {
	dst := primitives.C(1, 2, 3)
	s := NewTimerEventSource(dst, 7, 10, 20*time.Millisecond)
	defer s.Stop()

	for want := uint64(10); want <= 20; want += 10 {
		select {
		case ev := <-s.Events():
			if ev.Dst != dst || ev.Payload != 7 || ev.Timestamp != want {
				t.Errorf("wrong event: %+v, want timestamp %d", ev, want)
			}
		case <-time.After(500 * time.Millisecond):
			t.Fatalf("no event with timestamp %d", want)
		}
	}
}

func TestTimerEventSource_Stop(t *testing.T) {
	s := NewTimerEventSource(primitives.C(0, 0, 0), 1, 1, 5*time.Millisecond)
	time.Sleep(20 * time.Millisecond) // let some events
	s.Stop()
	deadline := time.After(time.Second)
	for {
		select {
		case _, ok := <-s.Events():
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("channel not closed after Stop")
		}
	}
}

func TestSliceEventSource(t *testing.T) {
	events := []primitives.Event{
		primitives.NewEvent(primitives.C(0, 0, 0), 1, 1),
		primitives.NewEvent(primitives.C(0, 0, 0), 2, 2),
	}
	var got []primitives.Event
	for e := range NewSliceEventSource(events).Events() {
		got = append(got, e)
	}
	if len(got) != 2 || got[1].Payload != 2 {
		t.Errorf("replayed %+v", got)
	}
}
