// Package production provides production integrations: run reports, delivery
// publishing, topology visualization.
package production

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/comalice/eventgrid/internal/core"
	"github.com/comalice/eventgrid/internal/primitives"
)

// Report is the serializable summary of one engine instance.
type Report struct {
	EngineID      string            `json:"engineID" yaml:"engineID"`
	GeneratedAt   time.Time         `json:"generatedAt" yaml:"generatedAt"`
	ConfigVersion string            `json:"configVersion" yaml:"configVersion"`
	Config        primitives.Config `json:"config" yaml:"config"`
	Stats         core.Stats        `json:"stats" yaml:"stats"`
}

// NewReport stamps stats with the engine ID and the current time.
func NewReport(id uuid.UUID, cfg primitives.Config, stats core.Stats) Report {
	return Report{
		EngineID:      id.String(),
		GeneratedAt:   time.Now().UTC(),
		ConfigVersion: primitives.ConfigVersion(cfg),
		Config:        cfg,
		Stats:         stats,
	}
}

// Reporter stores and retrieves reports.
type Reporter interface {
	Save(ctx context.Context, r Report) error
	Load(ctx context.Context, engineID string) (Report, error)
}

// JSONReporter is a file-based reporter using JSON serialization.
type JSONReporter struct {
	dir string
}

// NewJSONReporter creates a JSONReporter, ensuring the directory exists.
func NewJSONReporter(dir string) (*JSONReporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &JSONReporter{dir: dir}, nil
}

func (p *JSONReporter) Save(ctx context.Context, r Report) error {
	if err := checkID(r.EngineID); err != nil {
		return err
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}

	fn := filepath.Join(p.dir, r.EngineID+".json")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *JSONReporter) Load(ctx context.Context, engineID string) (Report, error) {
	if err := checkID(engineID); err != nil {
		return Report{}, err
	}
	fn := filepath.Join(p.dir, engineID+".json")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Report{}, fmt.Errorf("engine %q: %w", engineID, os.ErrNotExist)
		}
		return Report{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var r Report
	if err := json.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("json unmarshal: %w", err)
	}
	r.EngineID = engineID // Ensure ID
	return r, nil
}

// YAMLReporter is a file-based reporter using YAML serialization.
type YAMLReporter struct {
	dir string
}

// NewYAMLReporter creates a YAMLReporter, ensuring the directory exists.
func NewYAMLReporter(dir string) (*YAMLReporter, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("mkdir %s: %w", dir, err)
	}
	return &YAMLReporter{dir: dir}, nil
}

func (p *YAMLReporter) Save(ctx context.Context, r Report) error {
	if err := checkID(r.EngineID); err != nil {
		return err
	}
	data, err := yaml.Marshal(r)
	if err != nil {
		return fmt.Errorf("yaml marshal: %w", err)
	}

	fn := filepath.Join(p.dir, r.EngineID+".yaml")
	if err := os.WriteFile(fn, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", fn, err)
	}
	return nil
}

func (p *YAMLReporter) Load(ctx context.Context, engineID string) (Report, error) {
	if err := checkID(engineID); err != nil {
		return Report{}, err
	}
	fn := filepath.Join(p.dir, engineID+".yaml")
	data, err := os.ReadFile(fn)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Report{}, fmt.Errorf("engine %q: %w", engineID, os.ErrNotExist)
		}
		return Report{}, fmt.Errorf("read %s: %w", fn, err)
	}

	var r Report
	if err := yaml.Unmarshal(data, &r); err != nil {
		return Report{}, fmt.Errorf("yaml unmarshal: %w", err)
	}
	r.EngineID = engineID // Ensure ID
	if err := r.Config.Validate(); err != nil {
		return Report{}, fmt.Errorf("config validation after load: %w", err)
	}
	return r, nil
}

// checkID rejects anything that is not a UUID, so IDs cannot escape dir.
func checkID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return fmt.Errorf("engine id %q: %w", id, err)
	}
	return nil
}
