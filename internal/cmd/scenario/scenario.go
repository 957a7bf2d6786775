package scenario

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/comalice/eventgrid"
	"github.com/comalice/eventgrid/internal/platform/config"
	"github.com/comalice/eventgrid/internal/production"
	"github.com/comalice/eventgrid/internal/telemetry"
	"github.com/comalice/eventgrid/scripting"
)

// Config holds scenario command configuration.
type Config struct {
	ConfigFile   string `env:"EVENTGRID_CONFIG_FILE"`
	Scenario     string `env:"EVENTGRID_SCENARIO_FILE"`
	ReportDir    string `env:"EVENTGRID_REPORT_DIR"`
	ReportFormat string `env:"EVENTGRID_REPORT_FORMAT" envDefault:"json"`
	DOT          bool   `env:"EVENTGRID_SCENARIO_DOT"`
	Verbose      bool   `env:"EVENTGRID_SCENARIO_VERBOSE"`
}

// ParseConfig parses env and then flags into a Config.
func ParseConfig(fs *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := config.ParseEnv(&cfg); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.ConfigFile, "config", cfg.ConfigFile, "path to engine YAML config (default: built-in defaults)")
	fs.StringVar(&cfg.Scenario, "scenario", cfg.Scenario, "path to scenario lua file")
	fs.StringVar(&cfg.ReportDir, "report-dir", cfg.ReportDir, "directory to write the run report to (empty = no report)")
	fs.StringVar(&cfg.ReportFormat, "report-format", cfg.ReportFormat, "report format: json or yaml")
	fs.BoolVar(&cfg.DOT, "dot", cfg.DOT, "print the final topology as Graphviz DOT")
	fs.BoolVar(&cfg.Verbose, "verbose", cfg.Verbose, "log engine overflow warnings")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// EngineConfig resolves the engine configuration: the YAML file (or the
// defaults) overlaid with EVENTGRID_* variables.
func (c Config) EngineConfig() (eventgrid.Config, error) {
	base := eventgrid.DefaultConfig()
	if c.ConfigFile != "" {
		loaded, err := eventgrid.LoadConfig(c.ConfigFile)
		if err != nil {
			return eventgrid.Config{}, err
		}
		base = loaded
	}
	return config.EngineFromEnv(base)
}

func (c Config) reporter() (production.Reporter, error) {
	switch strings.ToLower(c.ReportFormat) {
	case "", "json":
		return production.NewJSONReporter(c.ReportDir)
	case "yaml", "yml":
		return production.NewYAMLReporter(c.ReportDir)
	default:
		return nil, fmt.Errorf("unknown report format %q", c.ReportFormat)
	}
}

// Run executes the scenario command.
func Run(ctx context.Context, cfg Config, out io.Writer, errOut io.Writer) (err error) {
	if out == nil {
		out = io.Discard
	}
	if errOut == nil {
		errOut = io.Discard
	}
	if cfg.Scenario == "" {
		return errors.New("scenario path is required")
	}
	if _, statErr := os.Stat(cfg.Scenario); statErr != nil {
		return fmt.Errorf("scenario: %w", statErr)
	}

	engCfg, err := cfg.EngineConfig()
	if err != nil {
		return err
	}

	logger := log.New(io.Discard, "", 0)
	if cfg.Verbose {
		logger = log.New(errOut, "", log.LstdFlags)
	}

	eng, err := eventgrid.New(engCfg, eventgrid.WithLogger(logger))
	if err != nil {
		return fmt.Errorf("create engine: %w", err)
	}
	defer func() { _ = eng.Close() }()

	ctx, span := telemetry.Tracer().Start(ctx, "eventgrid.scenario")
	span.SetAttributes(
		attribute.String("eventgrid.engine_id", eng.ID().String()),
		attribute.String("eventgrid.scenario", cfg.Scenario),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	if err = scripting.RunFile(eng, cfg.Scenario); err != nil {
		return err
	}

	stats := eng.Stats()
	span.SetAttributes(
		attribute.Int64("eventgrid.events_processed", int64(stats.EventsProcessed)),
		attribute.Int64("eventgrid.current_time", int64(stats.CurrentTime)),
		attribute.Int("eventgrid.processes", stats.Processes),
	)
	fmt.Fprintf(out, "engine %s: %d events processed, time %d, %d processes, %d dropped\n",
		eng.ID(), stats.EventsProcessed, stats.CurrentTime, stats.Processes, stats.Dropped())

	if cfg.DOT {
		var viz production.DefaultVisualizer
		dot, vizErr := viz.Visualize(eng.Snapshot())
		if vizErr != nil {
			return fmt.Errorf("visualize: %w", vizErr)
		}
		fmt.Fprint(out, dot)
	}

	if cfg.ReportDir == "" {
		return nil
	}
	rep, err := cfg.reporter()
	if err != nil {
		return err
	}
	if err = rep.Save(ctx, production.NewReport(eng.ID(), eng.Config(), stats)); err != nil {
		return fmt.Errorf("save report: %w", err)
	}
	fmt.Fprintf(out, "report written to %s\n", cfg.ReportDir)
	return nil
}
