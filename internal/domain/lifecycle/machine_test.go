package lifecycle_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

var t0 = time.Date(2025, 1, 10, 6, 0, 0, 0, time.UTC)

func params() recipe.Parameters {
	return recipe.Parameters{
		SeedSoakHours:     8,
		GerminationDays:   recipe.Days(3),
		BlackoutDays:      recipe.Days(2),
		LightDays:         recipe.Days(5),
		SuspendWaterHours: 12,
	}
}

func newMachine() *lifecycle.StageMachine {
	return lifecycle.NewStageMachine(stage.MustNewRegistry(stage.DefaultStages()))
}

func cropAt(t *testing.T, code stage.Code, ts stage.Timestamps) *crop.Crop {
	t.Helper()
	batch := "batch-1"
	return crop.ReconstructCrop("crop-1", &batch, "pea", 1, code, ts, nil, "", 3, t0)
}

func TestPlanAdvance_MovesToSuccessor(t *testing.T) {
	// Arrange
	m := newMachine()
	c := cropAt(t, stage.CodeSoaking, stage.Timestamps{Soaking: &t0})
	at := t0.Add(8 * time.Hour)

	// Act
	change, warnings, rejection := m.PlanAdvance(c, params(), at, at, shared.NewActor("grower"))

	// Assert
	require.Nil(t, rejection)
	assert.Empty(t, warnings)
	assert.Equal(t, stage.CodeSoaking, change.From)
	assert.Equal(t, stage.CodeGermination, change.To)
	assert.Equal(t, 3, change.ExpectedVersion)
	assert.Equal(t, stage.CodeGermination, change.Crop.CurrentStage())
	assert.Equal(t, at, *change.Crop.Timestamps().Germination)
	assert.Equal(t, at, change.CloseOpenHistoryAt)
	assert.Equal(t, stage.CodeGermination, change.OpenHistory.Stage())
	assert.Equal(t, at, change.OpenHistory.EnteredAt())
	assert.Equal(t, "grower", change.OpenHistory.CreatedBy())
	assert.Equal(t, stage.CodeSoaking, change.DismissStage)
	require.Len(t, change.NewTasks, 1)
	assert.Equal(t, scheduling.TaskTypeEndStage, change.NewTasks[0].TaskType())

	// the snapshot is untouched
	assert.Equal(t, stage.CodeSoaking, c.CurrentStage())
}

func TestPlanAdvance_HarvestedHasNoNextStage(t *testing.T) {
	m := newMachine()
	harvested := t0
	c := cropAt(t, stage.CodeHarvested, stage.Timestamps{Harvested: &harvested})

	change, _, rejection := m.PlanAdvance(c, params(), t0, t0, shared.NewActor(""))

	assert.Nil(t, change)
	require.NotNil(t, rejection)
	assert.Equal(t, lifecycle.ReasonNoNextStage, rejection.Reason)
}

func TestPlanAdvance_WarnsWhenAlreadyWateringSuspended(t *testing.T) {
	m := newMachine()
	batch := "batch-1"
	suspended := t0
	c := crop.ReconstructCrop("crop-1", &batch, "pea", 1, stage.CodeGermination,
		stage.Timestamps{Germination: &t0}, &suspended, "", 1, t0)

	change, warnings, rejection := m.PlanAdvance(c, params(), t0.Add(time.Hour), t0, shared.NewActor(""))

	require.Nil(t, rejection)
	require.NotNil(t, change)
	require.Len(t, warnings, 1)
	assert.Equal(t, shared.WarningWateringSuspended, warnings[0].Kind)
}

func TestPlanRevert_RequiresReason(t *testing.T) {
	m := newMachine()
	c := cropAt(t, stage.CodeGermination, stage.Timestamps{Germination: &t0})

	change, _, rejection := m.PlanRevert(c, params(), "", t0, t0, shared.NewActor(""))

	assert.Nil(t, change)
	require.NotNil(t, rejection)
	assert.Equal(t, lifecycle.ReasonMissingReason, rejection.Reason)
}

func TestPlanRevert_FirstStageHasNoPrevious(t *testing.T) {
	m := newMachine()
	c := cropAt(t, stage.CodeSoaking, stage.Timestamps{Soaking: &t0})

	_, _, rejection := m.PlanRevert(c, params(), "mistake", t0, t0, shared.NewActor(""))

	require.NotNil(t, rejection)
	assert.Equal(t, lifecycle.ReasonNoPreviousStage, rejection.Reason)
}

func TestPlanRevert_RestoresPriorStageAndClearsLeftStage(t *testing.T) {
	// Arrange
	m := newMachine()
	blackout := t0
	light := t0.Add(48 * time.Hour)
	batch := "batch-1"
	suspended := light.Add(100 * time.Hour)
	c := crop.ReconstructCrop("crop-1", &batch, "pea", 1, stage.CodeLight,
		stage.Timestamps{Blackout: &blackout, Light: &light}, &suspended, "", 5, t0)
	at := light.Add(110 * time.Hour)

	// Act
	change, warnings, rejection := m.PlanRevert(c, params(), "advanced by mistake", at, at, shared.NewActor(""))

	// Assert
	require.Nil(t, rejection)
	assert.Equal(t, stage.CodeBlackout, change.Crop.CurrentStage())
	assert.Nil(t, change.Crop.Timestamps().Light)
	assert.Equal(t, blackout, *change.Crop.Timestamps().Blackout)
	assert.False(t, change.Crop.IsWateringSuspended())
	assert.Equal(t, blackout, change.OpenHistory.EnteredAt())
	assert.Equal(t, at, change.CloseOpenHistoryAt)
	assert.Equal(t, stage.CodeLight, change.DismissStage)
	require.NotEmpty(t, warnings)
	assert.Equal(t, shared.WarningWateringSuspended, warnings[0].Kind)
}

func TestPlanRevert_MissingPriorTimestampIsRestamped(t *testing.T) {
	m := newMachine()
	c := cropAt(t, stage.CodeBlackout, stage.Timestamps{Blackout: &t0})
	at := t0.Add(time.Hour)

	change, warnings, rejection := m.PlanRevert(c, params(), "wrong tray", at, at, shared.NewActor(""))

	require.Nil(t, rejection)
	assert.Equal(t, at, *change.Crop.Timestamps().Germination)
	require.Len(t, warnings, 1)
	assert.Equal(t, shared.WarningMissingStageTimestamp, warnings[0].Kind)
}
