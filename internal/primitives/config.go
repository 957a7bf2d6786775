package primitives

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// MaxGridSize is the largest edge length whose N³ flat index fits in an int32.
const MaxGridSize = 1290

// EdgeConfig holds the engine-wide defaults for adaptive edge delay.
type EdgeConfig struct {
	DefaultDelay  uint64 `json:"defaultDelay" yaml:"default_delay" env:"DEFAULT_DELAY"`
	MinDelay      uint64 `json:"minDelay" yaml:"min_delay" env:"MIN_DELAY"`
	MaxDelay      uint64 `json:"maxDelay" yaml:"max_delay" env:"MAX_DELAY"`
	DecayWindow   uint64 `json:"decayWindow" yaml:"decay_window" env:"DECAY_WINDOW"`
	ReinforceStep uint64 `json:"reinforceStep" yaml:"reinforce_step" env:"REINFORCE_STEP"`
	// Attenuation is the payload magnitude a cascade loses per hop. A cascade
	// whose attenuated payload reaches zero is not emitted, so chains end.
	// Zero disables attenuation and cascades never die out on their own.
	Attenuation uint64 `json:"attenuation" yaml:"attenuation" env:"ATTENUATION"`
}

// Config fixes every capacity of an engine instance. All pools are reserved
// from it once, in New; nothing grows afterwards.
type Config struct {
	GridSize        int        `json:"gridSize" yaml:"grid_size" env:"GRID_SIZE"`
	ProcessCapacity int        `json:"processCapacity" yaml:"process_capacity" env:"PROCESS_CAPACITY"`
	EventCapacity   int        `json:"eventCapacity" yaml:"event_capacity" env:"EVENT_CAPACITY"`
	EdgeCapacity    int        `json:"edgeCapacity" yaml:"edge_capacity" env:"EDGE_CAPACITY"`
	GenericCapacity int        `json:"genericCapacity" yaml:"generic_capacity" env:"GENERIC_CAPACITY"`
	GenericSlotSize int        `json:"genericSlotSize" yaml:"generic_slot_size" env:"GENERIC_SLOT_SIZE"`
	PendingCapacity int        `json:"pendingCapacity" yaml:"pending_capacity" env:"PENDING_CAPACITY"`
	HeapCapacity    int        `json:"heapCapacity,omitempty" yaml:"heap_capacity,omitempty" env:"HEAP_CAPACITY"`
	Edge            EdgeConfig `json:"edge" yaml:"edge" envPrefix:"EDGE_"`
}

// DefaultConfig returns a mid-sized configuration: a 16³ grid with a few
// thousand processes and a 64K event pool.
func DefaultConfig() Config {
	return Config{
		GridSize:        16,
		ProcessCapacity: 4096,
		EventCapacity:   65536,
		EdgeCapacity:    16384,
		GenericCapacity: 256,
		GenericSlotSize: 256,
		PendingCapacity: 8192,
		Edge: EdgeConfig{
			DefaultDelay:  1,
			MinDelay:      1,
			MaxDelay:      64,
			ReinforceStep: 1,
			Attenuation:   1,
		},
	}
}

// HeapSize returns the effective heap capacity; zero means one entry per event slot.
func (c Config) HeapSize() int {
	if c.HeapCapacity == 0 {
		return c.EventCapacity
	}
	return c.HeapCapacity
}

// Validate checks sizes and delay clamps. Errors wrap ErrInvalidConfig.
func (c Config) Validate() error {
	if c.GridSize < 1 || c.GridSize > MaxGridSize {
		return fmt.Errorf("%w: grid size %d outside [1, %d]", ErrInvalidConfig, c.GridSize, MaxGridSize)
	}
	sizes := []struct {
		name string
		n    int
	}{
		{"process capacity", c.ProcessCapacity},
		{"event capacity", c.EventCapacity},
		{"edge capacity", c.EdgeCapacity},
		{"generic capacity", c.GenericCapacity},
		{"generic slot size", c.GenericSlotSize},
		{"pending capacity", c.PendingCapacity},
	}
	for _, s := range sizes {
		if s.n < 1 {
			return fmt.Errorf("%w: %s must be positive, got %d", ErrInvalidConfig, s.name, s.n)
		}
	}
	if c.HeapCapacity < 0 {
		return fmt.Errorf("%w: heap capacity must not be negative, got %d", ErrInvalidConfig, c.HeapCapacity)
	}
	if c.Edge.MinDelay > c.Edge.MaxDelay {
		return fmt.Errorf("%w: edge min delay %d above max delay %d", ErrInvalidConfig, c.Edge.MinDelay, c.Edge.MaxDelay)
	}
	if c.Edge.DefaultDelay < c.Edge.MinDelay || c.Edge.DefaultDelay > c.Edge.MaxDelay {
		return fmt.Errorf("%w: edge default delay %d outside [%d, %d]", ErrInvalidConfig,
			c.Edge.DefaultDelay, c.Edge.MinDelay, c.Edge.MaxDelay)
	}
	return nil
}

// LoadConfig reads a YAML file over DefaultConfig and validates the result.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("config %q: %w", path, os.ErrNotExist)
		}
		return Config{}, fmt.Errorf("read %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("config validation after load: %w", err)
	}
	return cfg, nil
}
