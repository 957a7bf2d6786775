package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/comalice/eventgrid"
	"github.com/comalice/eventgrid/builder"
	"github.com/comalice/eventgrid/internal/production"
	"github.com/comalice/eventgrid/realtime"
)

func main() {
	publishChan := make(chan eventgrid.Delivery, 100)
	publisher := production.NewChannelPublisher(publishChan)

	eng, err := eventgrid.NewWithSize(8, eventgrid.WithObserver(publisher))
	if err != nil {
		panic(err)
	}
	defer eng.Close()

	topo := eventgrid.NewTopology()
	names := builder.Ring(topo, "ring", eventgrid.C(0, 0, 0), 6, builder.Delay(2), builder.Clamp(1, 4))
	if _, err := topo.Build(eng); err != nil {
		panic(err)
	}
	start, _ := topo.CoordOf(names[0])

	rt := realtime.NewRuntime(eng, realtime.Config{
		TickRate:         500 * time.Millisecond,
		MaxEventsPerTick: 2,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cycles := 0
	for {
		if eng.Queued() == 0 && eng.Pending() == 0 {
			if err := rt.SendAfter(start, 0, 6); err != nil {
				fmt.Printf("Send error: %v\n", err)
			}
		}

		res := rt.Step(ctx)
		fmt.Printf("\n--- Tick %d (t=%d) ---\n", res.Tick, res.CurrentTime)
		drain(publishChan)
		fmt.Printf("processed=%d queued=%d\n", res.Processed, res.Queued)

		cycles++
		if cycles >= 12 {
			var viz production.DefaultVisualizer
			dot, _ := viz.Visualize(eng.Snapshot())
			fmt.Println("DOT:\n" + dot)
			fmt.Printf("Demo complete after %d ticks, %d events.\n", cycles, eng.EventsProcessed())
			return
		}

		select {
		case <-time.After(500 * time.Millisecond):
		case <-ctx.Done():
			fmt.Println("\nShutting down gracefully...")
			return
		}
	}
}

func drain(ch <-chan eventgrid.Delivery) {
	for {
		select {
		case d := <-ch:
			fmt.Printf("Delivered: %s payload=%d state=%d emitted=%d\n",
				d.Event.Dst, d.Event.Payload, d.State, d.Emitted)
		default:
			return
		}
	}
}
