package core

import (
	"bytes"
	"errors"
	"log"
	"math"
	"math/rand"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"

	"github.com/comalice/eventgrid/internal/arena"
	"github.com/comalice/eventgrid/internal/primitives"
)

func testConfig(mutate func(*primitives.Config)) primitives.Config {
	cfg := primitives.DefaultConfig()
	cfg.GridSize = 8
	cfg.ProcessCapacity = 64
	cfg.EventCapacity = 1024
	cfg.EdgeCapacity = 256
	cfg.GenericCapacity = 4
	cfg.GenericSlotSize = 32
	cfg.PendingCapacity = 512
	if mutate != nil {
		mutate(&cfg)
	}
	return cfg
}

func newTestScheduler(t *testing.T, mutate func(*primitives.Config), opts ...Option) *Scheduler {
	t.Helper()
	s, err := New(testConfig(mutate), opts...)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestScheduler_SingleProcessScenario(t *testing.T) {
	s := newTestScheduler(t, nil)

	pid, err := s.Spawn(primitives.C(0, 0, 0))
	require.NoError(t, err)
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), 1, 10)))
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), 2, 5)))

	assert.Equal(t, 2, s.Run(100))

	state, err := s.ProcessState(pid)
	require.NoError(t, err)
	assert.Equal(t, int64(15), state)
	assert.Equal(t, uint64(2), s.EventsProcessed())
	assert.Equal(t, uint64(2), s.CurrentTime())
	assert.Equal(t, 1, s.ProcessCount())
}

func TestScheduler_RunReturnsPerCallCount(t *testing.T) {
	s := newTestScheduler(t, nil)
	_, err := s.Spawn(primitives.C(1, 1, 1))
	require.NoError(t, err)
	for i := 0; i < 12; i++ {
		require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(1, 1, 1), uint64(i), 1)))
	}

	assert.Equal(t, 5, s.Run(5))
	assert.Equal(t, 5, s.Run(5), "second call reports its own count, not the lifetime total")
	assert.Equal(t, 2, s.Run(5))
	assert.Equal(t, 0, s.Run(5))
	assert.Equal(t, uint64(12), s.EventsProcessed())
}

func TestScheduler_RunZeroOnlyFlushes(t *testing.T) {
	s := newTestScheduler(t, nil)
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), 1, 1)))
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), 2, 1)))
	assert.Equal(t, 2, s.PendingLen())

	assert.Equal(t, 0, s.Run(0))
	assert.Equal(t, 0, s.PendingLen())
	assert.Equal(t, 2, s.Queued())
	assert.Equal(t, 2, s.Run(-1))
}

func TestScheduler_RingOfThree(t *testing.T) {
	var deliveries []Delivery
	s := newTestScheduler(t, nil, WithObserver(ObserverFunc(func(d Delivery) {
		deliveries = append(deliveries, d)
	})))

	ring := []primitives.Coord{primitives.C(0, 0, 0), primitives.C(1, 0, 0), primitives.C(2, 0, 0)}
	for _, c := range ring {
		_, err := s.Spawn(c)
		require.NoError(t, err)
	}
	for i, c := range ring {
		require.NoError(t, s.Connect(c, ring[(i+1)%len(ring)], EdgeSpec{}))
	}
	require.NoError(t, s.Inject(primitives.NewEvent(ring[0], 0, 3)))

	assert.Equal(t, 3, s.Run(3))
	require.Len(t, deliveries, 3)
	for i, d := range deliveries {
		assert.Equal(t, ring[i], d.Event.Dst)
		assert.Equal(t, uint64(i), d.Event.Timestamp)
		assert.False(t, d.Orphaned)
	}
	assert.Equal(t, deliveries[2].Event.Timestamp, s.CurrentTime())

	var states []int64
	for _, c := range ring {
		pid, ok := s.ProcessAt(c)
		require.True(t, ok)
		st, err := s.ProcessState(pid)
		require.NoError(t, err)
		states = append(states, st)
	}
	assert.Equal(t, []int64{3, 2, 1}, states)
	assert.Equal(t, 0, s.Queued(), "the chain dies out once the payload attenuates to zero")
	assert.Equal(t, 0, s.Run(3))
}

func TestScheduler_CascadeAdaptsEdge(t *testing.T) {
	s := newTestScheduler(t, nil)
	a, b := primitives.C(0, 0, 0), primitives.C(1, 0, 0)
	_, err := s.Spawn(a)
	require.NoError(t, err)
	pb, err := s.Spawn(b)
	require.NoError(t, err)
	require.NoError(t, s.Connect(a, b, EdgeSpec{Delay: 5, MinDelay: 2, MaxDelay: 10}))

	require.NoError(t, s.Inject(primitives.NewEvent(a, 0, 3)))
	assert.Equal(t, 2, s.Run(-1))

	st, err := s.ProcessState(pb)
	require.NoError(t, err)
	assert.Equal(t, int64(2), st)
	assert.Equal(t, uint64(5), s.CurrentTime(), "emitted with the delay before adaptation")

	var edges []primitives.Edge
	s.EachEdge(func(e primitives.Edge) bool {
		edges = append(edges, e)
		return true
	})
	require.Len(t, edges, 1)
	assert.Equal(t, uint64(4), edges[0].Delay)
	assert.Equal(t, uint64(1), edges[0].Traversals)
}

func TestScheduler_LateEdgeStartsFresh(t *testing.T) {
	s := newTestScheduler(t, func(c *primitives.Config) {
		c.Edge.DecayWindow = 10
		c.Edge.ReinforceStep = 1
	})
	a, b := primitives.C(0, 0, 0), primitives.C(1, 0, 0)
	_, err := s.Spawn(a)
	require.NoError(t, err)
	_, err = s.Spawn(b)
	require.NoError(t, err)

	// Move the clock well past the decay window before the edge exists.
	require.NoError(t, s.Inject(primitives.NewEvent(b, 1000, 1)))
	require.Equal(t, 1, s.Run(-1))

	require.NoError(t, s.Connect(a, b, EdgeSpec{Delay: 5, MinDelay: 2, MaxDelay: 50}))
	require.NoError(t, s.Inject(primitives.NewEvent(a, 1000, 3)))
	assert.Equal(t, 2, s.Run(-1))
	assert.Equal(t, uint64(1005), s.CurrentTime())

	var edges []primitives.Edge
	s.EachEdge(func(e primitives.Edge) bool {
		edges = append(edges, e)
		return true
	})
	require.Len(t, edges, 1)
	assert.Equal(t, uint64(4), edges[0].Delay, "no idle growth for an edge created at the current time")
	assert.Equal(t, uint64(1000), edges[0].LastUsed)
}

func TestScheduler_BoundedMemoryUnderLongChain(t *testing.T) {
	s := newTestScheduler(t, func(c *primitives.Config) { c.EventCapacity = 8 })
	home := primitives.C(0, 0, 0)
	_, err := s.Spawn(home)
	require.NoError(t, err)
	require.NoError(t, s.Connect(home, home, EdgeSpec{}))

	reserved := s.Stats().ReservedBytes
	before := make(map[arena.Category]int)
	for _, c := range arena.Categories() {
		before[c] = s.Usage(c)
	}

	const chain = 100_000
	require.NoError(t, s.Inject(primitives.NewEvent(home, 0, chain)))
	assert.Equal(t, chain, s.Run(-1))

	for _, c := range arena.Categories() {
		assert.Equal(t, before[c], s.Usage(c), "%s usage", c)
	}
	st := s.Stats()
	assert.Equal(t, reserved, st.ReservedBytes)
	assert.Zero(t, st.Dropped())
	assert.Equal(t, uint64(chain-1), st.Cascaded)

	// Repeated short runs must not allocate.
	allocs := testing.AllocsPerRun(50, func() {
		_ = s.Inject(primitives.NewEvent(home, 0, 20))
		_ = s.Run(-1)
	})
	assert.Zero(t, allocs)
}

func TestScheduler_Determinism(t *testing.T) {
	events := determinismWorkload()

	type outcome struct {
		states map[primitives.Coord]int64
		now    uint64
	}
	runWith := func(producers int) outcome {
		s := newTestScheduler(t, func(c *primitives.Config) {
			c.PendingCapacity = len(events)
			c.EventCapacity = 1 << 16
		})
		buildMesh(t, s)

		var g errgroup.Group
		for w := 0; w < producers; w++ {
			g.Go(func() error {
				for i := w; i < len(events); i += producers {
					if err := s.Inject(events[i]); err != nil {
						return err
					}
				}
				return nil
			})
		}
		require.NoError(t, g.Wait())
		s.Run(-1)
		require.Zero(t, s.Stats().Dropped())

		out := outcome{states: make(map[primitives.Coord]int64), now: s.CurrentTime()}
		s.EachProcess(func(p primitives.Process) bool {
			out.states[p.Coord] = p.State
			return true
		})
		return out
	}

	want := runWith(1)
	for _, producers := range []int{4, 16} {
		got := runWith(producers)
		assert.Equal(t, want.states, got.states, "%d producers", producers)
		assert.Equal(t, want.now, got.now, "%d producers", producers)
	}
}

func determinismWorkload() []primitives.Event {
	rng := rand.New(rand.NewSource(7))
	events := make([]primitives.Event, 2000)
	for i := range events {
		dst := primitives.C(rng.Intn(4), rng.Intn(4), 0)
		ts := uint64(rng.Intn(50))
		payload := int64(rng.Intn(9) - 4)
		if rng.Intn(3) == 0 {
			events[i] = primitives.NewEventFrom(primitives.C(rng.Intn(8), 7, 7), dst, ts, payload)
		} else {
			events[i] = primitives.NewEvent(dst, ts, payload)
		}
	}
	return events
}

// buildMesh spawns a 4x4 layer with edges to the +x and +y neighbors.
func buildMesh(t *testing.T, s *Scheduler) {
	t.Helper()
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			_, err := s.Spawn(primitives.C(x, y, 0))
			require.NoError(t, err)
		}
	}
	for x := 0; x < 4; x++ {
		for y := 0; y < 4; y++ {
			c := primitives.C(x, y, 0)
			require.NoError(t, s.Connect(c, primitives.C((x+1)%4, y, 0), EdgeSpec{Delay: 3}))
			require.NoError(t, s.Connect(c, primitives.C(x, (y+1)%4, 0), EdgeSpec{Delay: 2, MaxDelay: 8}))
		}
	}
}

func TestScheduler_PendingCapacityUnderConcurrency(t *testing.T) {
	const capacity = 100
	s := newTestScheduler(t, func(c *primitives.Config) { c.PendingCapacity = capacity })
	pid, err := s.Spawn(primitives.C(2, 2, 2))
	require.NoError(t, err)

	var (
		mu       sync.Mutex
		accepted int
		rejected []error
		g        errgroup.Group
	)
	for w := 0; w < 5; w++ {
		g.Go(func() error {
			for i := 0; i < (capacity+5)/5; i++ {
				err := s.Inject(primitives.NewEvent(primitives.C(2, 2, 2), uint64(i), 1))
				mu.Lock()
				if err != nil {
					rejected = append(rejected, err)
				} else {
					accepted++
				}
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	assert.Equal(t, capacity, accepted)
	require.Len(t, rejected, 5)
	for _, err := range rejected {
		assert.ErrorIs(t, err, primitives.ErrCapacityExceeded)
		var ce *primitives.CapacityError
		require.True(t, errors.As(err, &ce))
		assert.Equal(t, primitives.ResourcePendingBuffer, ce.Resource)
	}

	assert.Equal(t, capacity, s.Run(-1))
	st, err := s.ProcessState(pid)
	require.NoError(t, err)
	assert.Equal(t, int64(capacity), st, "accepted events are intact")
	assert.Equal(t, uint64(5), s.Stats().PendingRejected)
}

func TestScheduler_SpawnBeyondCapacity(t *testing.T) {
	s := newTestScheduler(t, func(c *primitives.Config) { c.ProcessCapacity = 4 })
	for i := 0; i < 4; i++ {
		_, err := s.Spawn(primitives.C(i, 0, 0))
		require.NoError(t, err)
	}
	_, err := s.Spawn(primitives.C(5, 0, 0))
	assert.ErrorIs(t, err, primitives.ErrCapacityExceeded)
	assert.Equal(t, 4, s.ProcessCount())

	_, ok := s.ProcessAt(primitives.C(5, 0, 0))
	assert.False(t, ok, "a failed spawn leaves the grid untouched")
}

func TestScheduler_ToroidalWrap(t *testing.T) {
	s := newTestScheduler(t, func(c *primitives.Config) { c.GridSize = 4 })

	pid, err := s.Spawn(primitives.C(-1, 0, 0))
	require.NoError(t, err)
	_, err = s.Spawn(primitives.C(3, 0, 0))
	assert.ErrorIs(t, err, primitives.ErrOccupied)

	origin, err := s.Spawn(primitives.C(0, 0, 0))
	require.NoError(t, err)
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(4, 0, 0), 1, 7)))
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(7, 4, -4), 2, 1)))
	assert.Equal(t, 2, s.Run(-1))

	st, err := s.ProcessState(pid)
	require.NoError(t, err)
	assert.Equal(t, int64(1), st)
	st, err = s.ProcessState(origin)
	require.NoError(t, err)
	assert.Equal(t, int64(7), st)
}

func TestScheduler_RetireOrphansQueuedEvents(t *testing.T) {
	s := newTestScheduler(t, nil)
	c := primitives.C(1, 2, 3)
	pid, err := s.Spawn(c)
	require.NoError(t, err)
	require.NoError(t, s.Connect(c, primitives.C(0, 0, 0), EdgeSpec{}))
	require.NoError(t, s.Inject(primitives.NewEvent(c, 1, 4)))

	require.NoError(t, s.Retire(c))
	assert.Equal(t, 0, s.ProcessCount())
	assert.Equal(t, 0, s.Usage(arena.CategoryEdge))
	assert.ErrorIs(t, s.Retire(c), primitives.ErrNoProcess)

	assert.Equal(t, 1, s.Run(-1))
	st := s.Stats()
	assert.Equal(t, uint64(1), st.Orphaned)
	assert.Equal(t, uint64(1), st.EventsProcessed)

	_, err = s.ProcessState(pid)
	assert.ErrorIs(t, err, primitives.ErrInvalidHandle)

	again, err := s.Spawn(c)
	require.NoError(t, err)
	assert.NotEqual(t, pid, again, "a reused slot yields a fresh PID")
}

func TestScheduler_ConnectErrors(t *testing.T) {
	s := newTestScheduler(t, func(c *primitives.Config) { c.EdgeCapacity = 1 })
	err := s.Connect(primitives.C(0, 0, 0), primitives.C(1, 0, 0), EdgeSpec{})
	assert.ErrorIs(t, err, primitives.ErrNoProcess)

	_, err = s.Spawn(primitives.C(0, 0, 0))
	require.NoError(t, err)
	err = s.Connect(primitives.C(0, 0, 0), primitives.C(1, 0, 0), EdgeSpec{MinDelay: 10, MaxDelay: 2})
	assert.ErrorIs(t, err, primitives.ErrInvalidConfig)

	require.NoError(t, s.Connect(primitives.C(0, 0, 0), primitives.C(1, 0, 0), EdgeSpec{Delay: 500}))
	err = s.Connect(primitives.C(0, 0, 0), primitives.C(2, 0, 0), EdgeSpec{})
	assert.ErrorIs(t, err, primitives.ErrCapacityExceeded)

	topo := s.Snapshot()
	require.Len(t, topo.Edges, 1)
	assert.Equal(t, uint64(64), topo.Edges[0].Delay, "delay is clamped to the configured max")
	require.Len(t, topo.Processes, 1)
	assert.Equal(t, 1, topo.Processes[0].OutDegree)
}

func TestScheduler_OverflowIsCountedAndLogged(t *testing.T) {
	var buf bytes.Buffer
	s := newTestScheduler(t, func(c *primitives.Config) {
		c.EventCapacity = 2
		c.PendingCapacity = 5
	}, WithLogger(log.New(&buf, "", 0)))

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), uint64(i), 1)))
	}
	assert.Equal(t, 2, s.Run(-1))
	st := s.Stats()
	assert.Equal(t, uint64(3), st.FlushDropped)
	assert.Equal(t, uint64(2), st.Orphaned)
	assert.Contains(t, buf.String(), "flush dropped 3 events")
}

func TestScheduler_FlushOverflowIgnoresInjectionOrder(t *testing.T) {
	home := primitives.C(0, 0, 0)
	events := []primitives.Event{
		primitives.NewEvent(home, 1, 1),
		primitives.NewEvent(home, 2, 10),
		primitives.NewEvent(home, 3, 100),
	}
	stateAfter := func(order []int) int64 {
		s := newTestScheduler(t, func(c *primitives.Config) { c.EventCapacity = 2 })
		pid, err := s.Spawn(home)
		require.NoError(t, err)
		for _, i := range order {
			require.NoError(t, s.Inject(events[i]))
		}
		assert.Equal(t, 2, s.Run(-1))
		assert.Equal(t, uint64(1), s.Stats().FlushDropped)
		st, err := s.ProcessState(pid)
		require.NoError(t, err)
		return st
	}

	assert.Equal(t, int64(11), stateAfter([]int{0, 1, 2}))
	assert.Equal(t, int64(11), stateAfter([]int{2, 1, 0}))
	assert.Equal(t, int64(11), stateAfter([]int{1, 2, 0}))
}

func TestScheduler_HeapAndCascadeOverflow(t *testing.T) {
	s := newTestScheduler(t, func(c *primitives.Config) {
		c.EventCapacity = 4
		c.HeapCapacity = 1
	})
	home := primitives.C(0, 0, 0)
	_, err := s.Spawn(home)
	require.NoError(t, err)
	require.NoError(t, s.Connect(home, home, EdgeSpec{}))
	require.NoError(t, s.Connect(home, home, EdgeSpec{}))

	for i := 0; i < 3; i++ {
		require.NoError(t, s.Inject(primitives.NewEvent(home, uint64(i), 5)))
	}
	// One heap slot: each delivery gets one of its two cascades through.
	assert.Equal(t, 5, s.Run(-1))

	st := s.Stats()
	assert.Equal(t, uint64(2), st.HeapDropped)
	assert.Equal(t, uint64(4), st.Cascaded)
	assert.Equal(t, uint64(4), st.CascadeDropped)
	assert.Equal(t, 0, s.Usage(arena.CategoryEvent), "dropped events give their slots back")
}

func TestScheduler_RejectsConcurrentRun(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	var once sync.Once
	var buf bytes.Buffer

	s := newTestScheduler(t, nil,
		WithLogger(log.New(&buf, "", 0)),
		WithObserver(ObserverFunc(func(Delivery) {
			once.Do(func() {
				close(entered)
				<-release
			})
		})))
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), 1, 1)))

	done := make(chan int)
	go func() { done <- s.Run(-1) }()
	<-entered

	assert.Equal(t, 0, s.Run(-1))
	close(release)
	assert.Equal(t, 1, <-done)
	assert.Contains(t, buf.String(), "run rejected")
}

func TestScheduler_GenericBytes(t *testing.T) {
	s := newTestScheduler(t, nil)

	_, err := s.AllocBytes(33)
	assert.ErrorIs(t, err, primitives.ErrSizeTooLarge)

	h, err := s.AllocBytes(16)
	require.NoError(t, err)
	b, ok := s.Bytes(h)
	require.True(t, ok)
	assert.Len(t, b, 32)
	require.NoError(t, s.FreeBytes(h))
	assert.ErrorIs(t, s.FreeBytes(h), primitives.ErrInvalidHandle)

	for i := 0; i < 4; i++ {
		_, err := s.AllocBytes(8)
		require.NoError(t, err)
	}
	_, err = s.AllocBytes(8)
	assert.ErrorIs(t, err, primitives.ErrCapacityExceeded)
	assert.Equal(t, 4, s.Usage(arena.CategoryGeneric))
	assert.Equal(t, 4, s.Capacity(arena.CategoryGeneric))
}

func TestScheduler_Close(t *testing.T) {
	s, err := New(testConfig(nil))
	require.NoError(t, err)
	require.NoError(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), 1, 1)))

	require.NoError(t, s.Close())
	assert.True(t, s.Closed())
	assert.ErrorIs(t, s.Close(), primitives.ErrClosed)
	assert.ErrorIs(t, s.Inject(primitives.NewEvent(primitives.C(0, 0, 0), 1, 1)), primitives.ErrClosed)
	_, err = s.Spawn(primitives.C(0, 0, 0))
	assert.ErrorIs(t, err, primitives.ErrClosed)
	assert.Equal(t, 0, s.Run(-1))
	assert.Equal(t, uint64(1), s.Stats().Injected)
}

func TestNew_RejectsInvalidConfig(t *testing.T) {
	_, err := New(testConfig(func(c *primitives.Config) { c.EventCapacity = 0 }))
	assert.ErrorIs(t, err, primitives.ErrInvalidConfig)
}

func TestAttenuate(t *testing.T) {
	cases := []struct {
		v    int64
		step uint64
		want int64
	}{
		{5, 1, 4},
		{1, 1, 0},
		{-1, 1, 0},
		{-5, 2, -3},
		{7, 0, 7},
		{3, 10, 0},
		{math.MinInt64, 1, math.MinInt64 + 1},
		{math.MaxInt64, math.MaxUint64, 0},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, attenuate(tc.v, tc.step), "attenuate(%d, %d)", tc.v, tc.step)
	}
	assert.Equal(t, uint64(math.MaxUint64), addSat(math.MaxUint64-1, 5))
	assert.Equal(t, uint64(7), addSat(3, 4))
}
