// Package realtime provides a tick-based runtime for an eventgrid engine.
//
// The engine itself never blocks: Run processes at most a given number of
// events and returns. This package turns that into steppable execution at a
// fixed rate:
//   - every tick calls Run with a fixed event budget
//   - events sent between ticks wait in the engine's pending buffer
//   - each tick is traced as one span
//
// # Example Usage
//
//	eng, _ := eventgrid.New(eventgrid.DefaultConfig())
//	rt := realtime.NewRuntime(eng, realtime.Config{
//		TickRate:         16667 * time.Microsecond, // 60 FPS
//		MaxEventsPerTick: 1000,
//	})
//	rt.Start(ctx)
//	rt.SendEvent(eventgrid.NewEvent(eventgrid.C(0, 0, 0), 1, 10))
//
// # Determinism
//
// Delivery order inside the engine is fixed by the canonical event key, not
// by when events arrive. Wall-clock jitter only changes which tick delivers
// an event, never the order. Step drives ticks by hand for reproducible
// tests and replays.
//
// # Use Cases
//
//   - Simulations stepped at a fixed time-step
//   - Interactive demos that render state between ticks
//   - Replays that feed recorded events tick by tick
package realtime
