package realtime

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"
	"time"

	"go.opentelemetry.io/otel/trace"

	"github.com/comalice/eventgrid"
	"github.com/comalice/eventgrid/internal/telemetry"
)

// ErrAlreadyStarted is returned by Start on a running runtime.
var ErrAlreadyStarted = errors.New("realtime: runtime already started")

// RealtimeRuntime drives an engine at a fixed tick rate.
type RealtimeRuntime struct {
	engine *eventgrid.Engine

	tickRate      time.Duration // e.g., 16.67ms for 60 FPS
	eventsPerTick int
	tracer        trace.Tracer
	logger        *log.Logger
	onTick        func(TickResult)

	// Guards tick bookkeeping; ticks themselves are serialized by stepMu.
	mu      sync.Mutex
	tickNum uint64
	last    TickResult
	panics  uint64
	stepMu  sync.Mutex

	// Control
	ticker     *time.Ticker
	tickCtx    context.Context
	tickCancel context.CancelFunc
	stopped    chan struct{}
}

// Config configures the real-time runtime
type Config struct {
	TickRate         time.Duration `json:"tickRate" yaml:"tick_rate" env:"TICK_RATE"`                   // Fixed tick rate (e.g., 16.67ms for 60 FPS)
	MaxEventsPerTick int           `json:"maxEventsPerTick" yaml:"max_events_per_tick" env:"MAX_EVENTS"` // Run budget per tick (default: 1000)
}

// Option configures a RealtimeRuntime.
type Option func(*RealtimeRuntime)

// WithTracer replaces the global engine tracer.
func WithTracer(t trace.Tracer) Option {
	return func(rt *RealtimeRuntime) { rt.tracer = t }
}

// WithLogger routes recovered tick panics to l.
func WithLogger(l *log.Logger) Option {
	return func(rt *RealtimeRuntime) { rt.logger = l }
}

// WithTickHook calls fn after every tick, on the tick goroutine.
func WithTickHook(fn func(TickResult)) Option {
	return func(rt *RealtimeRuntime) { rt.onTick = fn }
}

// NewRuntime creates a tick-based runtime over eng.
func NewRuntime(eng *eventgrid.Engine, cfg Config, opts ...Option) *RealtimeRuntime {
	if cfg.MaxEventsPerTick == 0 {
		cfg.MaxEventsPerTick = 1000
	}
	if cfg.TickRate == 0 {
		cfg.TickRate = 16667 * time.Microsecond // Default 60 FPS
	}

	rt := &RealtimeRuntime{
		engine:        eng,
		tickRate:      cfg.TickRate,
		eventsPerTick: cfg.MaxEventsPerTick,
		tracer:        telemetry.Tracer(),
		logger:        log.New(io.Discard, "", 0),
	}
	for _, opt := range opts {
		opt(rt)
	}
	return rt
}

// Engine returns the driven engine.
func (rt *RealtimeRuntime) Engine() *eventgrid.Engine { return rt.engine }

// Start begins tick-based execution
func (rt *RealtimeRuntime) Start(ctx context.Context) error {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.stopped != nil {
		return ErrAlreadyStarted
	}

	rt.tickCtx, rt.tickCancel = context.WithCancel(ctx)
	rt.ticker = time.NewTicker(rt.tickRate)
	rt.stopped = make(chan struct{})

	go rt.tickLoop(rt.tickCtx, rt.ticker, rt.stopped)

	return nil
}

// Stop halts the tick loop and waits for an in-flight tick to finish.
// The engine is left open.
func (rt *RealtimeRuntime) Stop() error {
	rt.mu.Lock()
	cancel, ticker, stopped := rt.tickCancel, rt.ticker, rt.stopped
	rt.tickCancel, rt.ticker, rt.stopped = nil, nil, nil
	rt.mu.Unlock()

	if stopped == nil {
		return nil
	}
	cancel()
	ticker.Stop()

	// Wait for tick loop to exit
	<-stopped
	return nil
}

// tickLoop is the main tick execution loop
func (rt *RealtimeRuntime) tickLoop(ctx context.Context, ticker *time.Ticker, stopped chan struct{}) {
	defer close(stopped)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rt.safeTick(ctx)
		}
	}
}

// safeTick runs one tick and turns a panic into a log line so the loop
// keeps going.
func (rt *RealtimeRuntime) safeTick(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			rt.mu.Lock()
			rt.panics++
			rt.mu.Unlock()
			rt.logger.Printf("realtime: recovered panic in tick: %v", r)
		}
	}()
	rt.Step(ctx)
}

// Step runs exactly one tick now, independent of the ticker.
func (rt *RealtimeRuntime) Step(ctx context.Context) TickResult {
	rt.stepMu.Lock()
	defer rt.stepMu.Unlock()
	return rt.processTick(ctx)
}

// GetTickNumber returns the current tick count
func (rt *RealtimeRuntime) GetTickNumber() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.tickNum
}

// LastTick returns the result of the latest completed tick.
func (rt *RealtimeRuntime) LastTick() TickResult {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.last
}

// Panics returns how many tick panics were recovered.
func (rt *RealtimeRuntime) Panics() uint64 {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	return rt.panics
}
