// Package benchmarks provides shared helpers for benchmark tests.
package benchmarks

import (
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/comalice/eventgrid"
	"github.com/comalice/eventgrid/builder"
	"github.com/comalice/eventgrid/internal/production"
)

// BenchConfig returns a config sized for n³ grids with room for bursts.
func BenchConfig(n int) eventgrid.Config {
	cfg := eventgrid.DefaultConfig()
	cfg.GridSize = n
	cfg.ProcessCapacity = n * n * n
	cfg.EventCapacity = 1 << 16
	cfg.EdgeCapacity = 4 * n * n * n
	cfg.PendingCapacity = 1 << 14
	return cfg
}

// GenSingle creates an engine with one process at the origin.
func GenSingle(n int) (*eventgrid.Engine, error) {
	eng, err := eventgrid.New(BenchConfig(n))
	if err != nil {
		return nil, err
	}
	if _, err := eng.SpawnProcess(0, 0, 0); err != nil {
		return nil, err
	}
	return eng, nil
}

// GenRing creates an engine whose processes form a ring of length along +x.
func GenRing(n, length int) (*eventgrid.Engine, error) {
	eng, err := eventgrid.New(BenchConfig(n))
	if err != nil {
		return nil, err
	}
	b := eventgrid.NewTopology()
	builder.Ring(b, "r", eventgrid.C(0, 0, 0), length)
	if _, err := b.Build(eng); err != nil {
		return nil, fmt.Errorf("ring of %d: %w", length, err)
	}
	return eng, nil
}

// GenLattice fills a side³ block with +x/+y/+z edges.
func GenLattice(n, side int) (*eventgrid.Engine, error) {
	eng, err := eventgrid.New(BenchConfig(n))
	if err != nil {
		return nil, err
	}
	b := eventgrid.NewTopology()
	builder.Lattice(b, "l", eventgrid.C(0, 0, 0), side, side, side)
	if _, err := b.Build(eng); err != nil {
		return nil, fmt.Errorf("lattice of %d: %w", side, err)
	}
	return eng, nil
}

// GenReportYAML runs a short ring scenario and returns its report as YAML.
func GenReportYAML(length int) []byte {
	eng, err := GenRing(8, length)
	if err != nil {
		panic(err)
	}
	defer eng.Close()
	if err := eng.InjectEvent(0, 0, 0, 0, int64(length)); err != nil {
		panic(err)
	}
	eng.Run(-1)
	data, err := yaml.Marshal(production.NewReport(eng.ID(), eng.Config(), eng.Stats()))
	if err != nil {
		panic(err)
	}
	return data
}
