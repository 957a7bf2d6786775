package realtime

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// processTick processes one complete tick. Caller holds stepMu.
func (rt *RealtimeRuntime) processTick(ctx context.Context) TickResult {
	tick := rt.GetTickNumber() + 1
	_, span := rt.tracer.Start(ctx, "eventgrid.tick",
		trace.WithAttributes(attribute.Int64("eventgrid.tick", int64(tick))))
	defer span.End()

	start := time.Now()

	// Flush pending injections and deliver up to the budget.
	processed := rt.engine.Run(rt.eventsPerTick)

	res := TickResult{
		Tick:        tick,
		Processed:   processed,
		Queued:      rt.engine.Queued(),
		CurrentTime: rt.engine.CurrentTime(),
		Duration:    time.Since(start),
	}
	span.SetAttributes(
		attribute.Int("eventgrid.processed", res.Processed),
		attribute.Int("eventgrid.queued", res.Queued),
		attribute.Int64("eventgrid.current_time", int64(res.CurrentTime)),
	)

	rt.mu.Lock()
	rt.tickNum = tick
	rt.last = res
	rt.mu.Unlock()

	if rt.onTick != nil {
		rt.onTick(res)
	}
	return res
}

// RunUntilIdle steps until a tick delivers nothing and leaves nothing
// queued, or maxTicks ticks have run. It returns the number of ticks run.
func (rt *RealtimeRuntime) RunUntilIdle(ctx context.Context, maxTicks int) int {
	for i := 0; i < maxTicks; i++ {
		if ctx.Err() != nil {
			return i
		}
		if rt.Step(ctx).Idle() {
			return i + 1
		}
	}
	return maxTicks
}
