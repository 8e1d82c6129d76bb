package metrics_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/test/helpers"
)

type advanceCommand struct{}

func TestCommandName(t *testing.T) {
	assert.Equal(t, "advanceCommand", metrics.CommandName(&advanceCommand{}))
	assert.Equal(t, "UnknownCommand", metrics.CommandName(nil))
}

func TestPrometheusMiddleware_RecordsStatus(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	collector := metrics.NewCommandMetricsCollector()
	require.NoError(t, collector.Register())
	mw := metrics.PrometheusMiddleware(collector)

	// Act
	_, _ = mw(context.Background(), &advanceCommand{}, func(ctx context.Context, r mediator.Request) (mediator.Response, error) {
		return nil, nil
	})
	_, err := mw(context.Background(), &advanceCommand{}, func(ctx context.Context, r mediator.Request) (mediator.Response, error) {
		return nil, errors.New("boom")
	})

	// Assert
	require.Error(t, err)
	assert.Equal(t, 2, seriesCount(t, "greens_mediator_commands_total"))
}

func TestLifecycleCollector_TransitionOutcome(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	collector := metrics.NewLifecycleMetricsCollector()
	require.NoError(t, collector.Register())
	metrics.SetGlobalLifecycleCollector(collector)
	defer metrics.SetGlobalLifecycleCollector(nil)

	// Act
	metrics.RecordTransition("bulk_advance", 3, 1)
	metrics.RecordDueTasks(7)

	// Assert
	assert.Equal(t, 1, seriesCount(t, "greens_lifecycle_transitions_total"))
	assert.Equal(t, 1, seriesCount(t, "greens_lifecycle_due_tasks"))
	assert.Equal(t, 2, seriesCount(t, "greens_lifecycle_crops_transitioned_total"))
}

func seriesCount(t *testing.T, name string) int {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() == name {
			return len(f.GetMetric())
		}
	}
	return 0
}

func TestInventoryCollector_CountsGrowingCropsByStage(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	start := time.Date(2025, 5, 4, 7, 0, 0, 0, time.UTC)
	repos := helpers.MustTestRepositories(t, start)
	_, err := repos.SeedRecipe("radish", "radish", helpers.RadishParams())
	require.NoError(t, err)
	batch, err := repos.CreateBatch("radish", 3, start)
	require.NoError(t, err)
	_, err = repos.Advance(start.Add(24*time.Hour), batch.CropIDs[0])
	require.NoError(t, err)

	collector := metrics.NewInventoryMetricsCollector(repos.CropRepo, time.Minute)
	require.NoError(t, collector.Register())

	// Act
	err = collector.Refresh(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 2.0, gaugeValue(t, "greens_lifecycle_crops_growing", "germination"))
	assert.Equal(t, 1.0, gaugeValue(t, "greens_lifecycle_crops_growing", "blackout"))
	assert.Equal(t, 0.0, gaugeValue(t, "greens_lifecycle_crops_watering_suspended", ""))
}

func gaugeValue(t *testing.T, name, stage string) float64 {
	t.Helper()
	families, err := metrics.Registry.Gather()
	require.NoError(t, err)
	for _, f := range families {
		if f.GetName() != name {
			continue
		}
		for _, m := range f.GetMetric() {
			if stage == "" {
				return m.GetGauge().GetValue()
			}
			for _, label := range m.GetLabel() {
				if label.GetName() == "stage" && label.GetValue() == stage {
					return m.GetGauge().GetValue()
				}
			}
		}
	}
	return 0
}
