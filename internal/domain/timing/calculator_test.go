package timing_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
	"github.com/andrescamacho/microgreens-go/internal/domain/timing"
)

var t0 = time.Date(2025, 1, 10, 8, 0, 0, 0, time.UTC)

func peaParams() recipe.Parameters {
	return recipe.Parameters{
		SeedSoakHours:      8,
		GerminationDays:    recipe.Days(3),
		BlackoutDays:       recipe.Days(2),
		LightDays:          recipe.Days(5),
		ExpectedYieldGrams: 150,
		BufferPercentage:   10,
		SuspendWaterHours:  12,
	}
}

func TestCalculate_StageAgeTruncatesToMinutes(t *testing.T) {
	// Arrange
	ts := stage.Timestamps{}.With(stage.CodeGermination, &t0)
	now := t0.Add(90*time.Minute + 59*time.Second)

	// Act
	phase := timing.Calculate(timing.Input{Stage: stage.CodeGermination, Timestamps: ts, Recipe: peaParams(), Now: now})

	// Assert
	assert.Equal(t, int64(90), phase.StageAgeMinutes)
	assert.Equal(t, "1h 30m", phase.StageAgeDisplay)
	require.NotNil(t, phase.TimeToNextStageMinutes)
	assert.Equal(t, int64(3*24*60-91), *phase.TimeToNextStageMinutes)
	assert.Equal(t, "2d 22h", phase.TimeToNextStageDisplay)
	assert.Empty(t, phase.Warnings)
}

func TestCalculate_OverdueReadsReadyToAdvance(t *testing.T) {
	// Arrange
	ts := stage.Timestamps{}.With(stage.CodeBlackout, &t0)
	now := t0.Add(49 * time.Hour)

	// Act
	phase := timing.Calculate(timing.Input{Stage: stage.CodeBlackout, Timestamps: ts, Recipe: peaParams(), Now: now})

	// Assert
	require.NotNil(t, phase.TimeToNextStageMinutes)
	assert.LessOrEqual(t, *phase.TimeToNextStageMinutes, int64(0))
	assert.Equal(t, int64(-60), *phase.TimeToNextStageMinutes)
	assert.Equal(t, timing.DisplayReadyToAdvance, phase.TimeToNextStageDisplay)
	assert.True(t, phase.Overdue())
}

func TestCalculate_ExactlyDueIsReadyToAdvance(t *testing.T) {
	// Arrange
	ts := stage.Timestamps{}.With(stage.CodeSoaking, &t0)

	// Act
	phase := timing.Calculate(timing.Input{Stage: stage.CodeSoaking, Timestamps: ts, Recipe: peaParams(), Now: t0.Add(8 * time.Hour)})

	// Assert
	assert.Equal(t, int64(0), *phase.TimeToNextStageMinutes)
	assert.Equal(t, timing.DisplayReadyToAdvance, phase.TimeToNextStageDisplay)
}

func TestCalculate_TerminalStage(t *testing.T) {
	// Arrange
	soak := t0
	harvested := t0.Add(10 * 24 * time.Hour)
	ts := stage.Timestamps{Soaking: &soak, Harvested: &harvested}

	// Act
	phase := timing.Calculate(timing.Input{Stage: stage.CodeHarvested, Timestamps: ts, Recipe: peaParams(), Now: harvested.Add(2 * time.Hour)})

	// Assert
	require.NotNil(t, phase.TimeToNextStageMinutes)
	assert.Equal(t, int64(0), *phase.TimeToNextStageMinutes)
	assert.Equal(t, timing.DisplayHarvested, phase.TimeToNextStageDisplay)
	assert.Equal(t, int64(120), phase.StageAgeMinutes)
	assert.Equal(t, "10d 2h", phase.TotalAgeDisplay)
}

func TestCalculate_MissingDurationIsWarning(t *testing.T) {
	// Arrange
	params := peaParams()
	params.BlackoutDays = nil
	ts := stage.Timestamps{}.With(stage.CodeBlackout, &t0)

	// Act
	phase := timing.Calculate(timing.Input{CropID: "c1", Stage: stage.CodeBlackout, Timestamps: ts, Recipe: params, Now: t0.Add(time.Hour)})

	// Assert
	assert.Nil(t, phase.TimeToNextStageMinutes)
	assert.Equal(t, timing.DisplayUnknown, phase.TimeToNextStageDisplay)
	require.Len(t, phase.Warnings, 1)
	assert.Equal(t, shared.WarningRecipeParameterMissing, phase.Warnings[0].Kind)
	assert.Equal(t, "c1", phase.Warnings[0].CropID)
}

func TestCalculate_TotalAgeUsesEarliestTimestamp(t *testing.T) {
	// Arrange
	soak := t0
	germ := t0.Add(8 * time.Hour)
	ts := stage.Timestamps{Soaking: &soak, Germination: &germ}

	// Act
	phase := timing.Calculate(timing.Input{Stage: stage.CodeGermination, Timestamps: ts, Recipe: peaParams(), Now: germ.Add(30 * time.Minute)})

	// Assert
	assert.Equal(t, int64(8*60+30), phase.TotalAgeMinutes)
	assert.Equal(t, int64(30), phase.StageAgeMinutes)
}

func TestCalculate_NoTimestampsMeansZeroAge(t *testing.T) {
	// Act
	phase := timing.Calculate(timing.Input{Stage: stage.CodeLight, Recipe: peaParams(), Now: t0})

	// Assert
	assert.Equal(t, int64(0), phase.TotalAgeMinutes)
	assert.Nil(t, phase.ExpectedHarvestAt)
	assert.Equal(t, timing.DisplayUnknown, phase.TimeToNextStageDisplay)
}

func TestExpectedHarvestAt(t *testing.T) {
	ts := stage.Timestamps{}.With(stage.CodeGermination, &t0)

	t.Run("sums grow days", func(t *testing.T) {
		at := timing.ExpectedHarvestAt(ts, peaParams())
		require.NotNil(t, at)
		assert.Equal(t, t0.Add(10*24*time.Hour), *at)
	})

	t.Run("falls back to days to maturity", func(t *testing.T) {
		params := peaParams()
		params.LightDays = nil
		params.DaysToMaturity = recipe.Days(12)
		at := timing.ExpectedHarvestAt(ts, params)
		require.NotNil(t, at)
		assert.Equal(t, t0.Add(12*24*time.Hour), *at)
	})

	t.Run("degrades to nil", func(t *testing.T) {
		params := peaParams()
		params.LightDays = nil
		assert.Nil(t, timing.ExpectedHarvestAt(ts, params))
	})
}

func TestCalculateBatch_UsesLeastAdvancedCropAndEarliestTimestamps(t *testing.T) {
	// Arrange
	reg := stage.MustNewRegistry(stage.DefaultStages())
	germA := t0
	germB := t0.Add(2 * time.Hour)
	blackB := t0.Add(3 * 24 * time.Hour)
	members := []timing.Member{
		{CropID: "b", Stage: stage.CodeBlackout, Timestamps: stage.Timestamps{Germination: &germB, Blackout: &blackB}},
		{CropID: "a", Stage: stage.CodeGermination, Timestamps: stage.Timestamps{Germination: &germA}},
	}

	// Act
	view, err := timing.CalculateBatch(reg, members, peaParams(), t0.Add(24*time.Hour))

	// Assert
	require.NoError(t, err)
	assert.Equal(t, stage.CodeGermination, view.Stage)
	assert.Equal(t, germA, *view.Timestamps.Germination)
	assert.Equal(t, int64(24*60), view.Phase.StageAgeMinutes)
}
