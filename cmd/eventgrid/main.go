// Package main provides a CLI for running Lua scenario scripts against an engine.
package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"

	scenariocmd "github.com/comalice/eventgrid/internal/cmd/scenario"
	"github.com/comalice/eventgrid/internal/platform/config"
	"github.com/comalice/eventgrid/internal/telemetry"
)

func main() {
	cfg, err := scenariocmd.ParseConfig(flag.CommandLine, os.Args[1:])
	if err != nil {
		config.Exitf("Error: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdown, err := telemetry.Setup(ctx, "eventgrid")
	if err != nil {
		config.Exitf("Error: telemetry: %v", err)
	}
	defer func() { _ = shutdown(context.Background()) }()

	if err := scenariocmd.Run(ctx, cfg, os.Stdout, os.Stderr); err != nil {
		_ = shutdown(context.Background())
		config.Exitf("Error: %v", err)
	}
}
