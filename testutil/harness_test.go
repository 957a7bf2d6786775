package testutil

import (
	"context"
	"errors"
	"reflect"
	"testing"

	"github.com/comalice/eventgrid"
)

// mesh spawns a 2x2 square in the z=0 plane with edges both ways along x and y.
func mesh(t *testing.T) *eventgrid.Engine {
	t.Helper()
	eng := newEngine(t)
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			if _, err := eng.SpawnProcess(x, y, 0); err != nil {
				t.Fatalf("Spawn failed: %v", err)
			}
		}
	}
	for x := 0; x < 2; x++ {
		for y := 0; y < 2; y++ {
			from := eventgrid.C(x, y, 0)
			for _, to := range []eventgrid.Coord{eventgrid.C(1-x, y, 0), eventgrid.C(x, 1-y, 0)} {
				if err := eng.Connect(from, to, eventgrid.EdgeSpec{}); err != nil {
					t.Fatalf("Connect failed: %v", err)
				}
			}
		}
	}
	return eng
}

func workload() []eventgrid.Event {
	events := make([]eventgrid.Event, 0, 200)
	for i := 0; i < 200; i++ {
		dst := eventgrid.C(i%2, (i/2)%2, 0)
		events = append(events, eventgrid.NewEvent(dst, uint64(i%17), int64(i%4+1)))
	}
	return events
}

func TestPartition(t *testing.T) {
	events := workload()[:5]
	batches := Partition(events, 2)
	if len(batches) != 2 || len(batches[0]) != 3 || len(batches[1]) != 2 {
		t.Fatalf("unexpected batch sizes: %d/%d", len(batches[0]), len(batches[1]))
	}
	if batches[1][0] != events[1] {
		t.Errorf("batch 1 should start with event 1")
	}
	if got := Partition(events, 0); len(got) != 1 {
		t.Errorf("n<1 should yield one batch, got %d", len(got))
	}
}

// TestDeterministicAcrossProducers checks that the final state map does not
// depend on how many goroutines injected the workload.
func TestDeterministicAcrossProducers(t *testing.T) {
	var want map[eventgrid.Coord]int64
	var wantProcessed uint64
	for _, producers := range []int{1, 4, 8} {
		eng := mesh(t)
		if err := InjectConcurrently(context.Background(), eng.Inject, Partition(workload(), producers)); err != nil {
			t.Fatalf("producers=%d: inject failed: %v", producers, err)
		}
		eng.Run(-1)

		got := States(eng)
		if want == nil {
			want, wantProcessed = got, eng.EventsProcessed()
			continue
		}
		if !reflect.DeepEqual(got, want) {
			t.Errorf("producers=%d: states %v, want %v", producers, got, want)
		}
		if eng.EventsProcessed() != wantProcessed {
			t.Errorf("producers=%d: processed %d, want %d", producers, eng.EventsProcessed(), wantProcessed)
		}
	}
	if len(Coords(want)) != 4 {
		t.Errorf("expected 4 resident coordinates, got %v", Coords(want))
	}
}

func TestInjectConcurrentlyStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	err := InjectConcurrently(context.Background(), func(eventgrid.Event) error { return boom }, Partition(workload(), 3))
	if !errors.Is(err, boom) {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestCoordsOrder(t *testing.T) {
	states := map[eventgrid.Coord]int64{
		eventgrid.C(1, 0, 0): 1,
		eventgrid.C(0, 1, 0): 2,
		eventgrid.C(0, 0, 1): 3,
	}
	want := []eventgrid.Coord{eventgrid.C(0, 0, 1), eventgrid.C(0, 1, 0), eventgrid.C(1, 0, 0)}
	if got := Coords(states); !reflect.DeepEqual(got, want) {
		t.Errorf("Coords = %v, want %v", got, want)
	}
}
