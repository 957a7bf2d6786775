package production

import (
	"context"
	"errors"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/comalice/eventgrid/internal/core"
	"github.com/comalice/eventgrid/internal/primitives"
)

func sampleReport() Report {
	return NewReport(uuid.New(), primitives.DefaultConfig(), core.Stats{
		EventsProcessed: 15,
		CurrentTime:     2,
		Processes:       1,
		Orphaned:        1,
	})
}

func TestReporters_SaveLoad(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	jr, err := NewJSONReporter(dir)
	require.NoError(t, err)
	yr, err := NewYAMLReporter(dir)
	require.NoError(t, err)

	for name, rep := range map[string]Reporter{"json": jr, "yaml": yr} {
		t.Run(name, func(t *testing.T) {
			r := sampleReport()
			require.NoError(t, rep.Save(ctx, r))

			got, err := rep.Load(ctx, r.EngineID)
			require.NoError(t, err)
			assert.Equal(t, r.EngineID, got.EngineID)
			assert.Equal(t, uint64(15), got.Stats.EventsProcessed)
			assert.Equal(t, r.Config, got.Config)
			assert.Equal(t, primitives.ConfigVersion(got.Config), got.ConfigVersion)
			assert.True(t, r.GeneratedAt.Equal(got.GeneratedAt))
		})
	}
}

func TestReporters_Errors(t *testing.T) {
	ctx := context.Background()
	jr, err := NewJSONReporter(t.TempDir())
	require.NoError(t, err)

	_, err = jr.Load(ctx, uuid.NewString())
	assert.True(t, errors.Is(err, os.ErrNotExist))

	err = jr.Save(ctx, Report{EngineID: "../escape"})
	assert.Error(t, err)
}
