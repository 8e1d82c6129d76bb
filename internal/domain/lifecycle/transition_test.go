package lifecycle_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

func TestNewTransition_SummarizesResult(t *testing.T) {
	// Arrange
	result := lifecycle.NewResult(lifecycle.TransitionBulkAdvance)
	result.Succeed("a", stage.CodeLight, stage.CodeHarvested)
	result.Succeed("b", stage.CodeLight, stage.CodeHarvested)
	result.Fail("c", stage.CodeHarvested, lifecycle.ReasonNoNextStage, "terminal")
	result.Warn(shared.NewWarning(shared.WarningBatchDivergence, "", "batch spans 2 stages"))
	batch := "batch-1"

	// Act
	tr, err := lifecycle.NewTransition(lifecycle.TransitionSpec{
		Type:         lifecycle.TransitionBulkAdvance,
		BatchID:      &batch,
		TransitionAt: t0,
		RecordedAt:   t0,
		Actor:        shared.NewActor("grower"),
		Result:       result,
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 3, tr.CropCount())
	assert.Equal(t, 2, tr.SucceededCount())
	assert.Equal(t, 1, tr.FailedCount())
	assert.Equal(t, "c", tr.FailedCrops()[0].CropID)
	assert.Equal(t, "grower", *tr.UserID())
	assert.Nil(t, tr.Reason())
	assert.Contains(t, tr.Metadata(), lifecycle.MetadataValidationWarnings)
}

func TestNewTransition_SystemActorHasNoUser(t *testing.T) {
	tr, err := lifecycle.NewTransition(lifecycle.TransitionSpec{
		Type:   lifecycle.TransitionRevert,
		Actor:  shared.NewActor(""),
		Reason: "oops",
		Result: lifecycle.NewResult(lifecycle.TransitionRevert),
	})

	require.NoError(t, err)
	assert.Nil(t, tr.UserID())
	assert.Equal(t, "oops", *tr.Reason())
}

func TestResult_StagesMoved(t *testing.T) {
	result := lifecycle.NewResult(lifecycle.TransitionAdvance)
	result.Succeed("a", stage.CodeSoaking, stage.CodeGermination)
	result.Succeed("b", stage.CodeBlackout, stage.CodeLight)
	result.Fail("c", stage.CodeHarvested, lifecycle.ReasonNoNextStage, "")

	from, to := result.StagesMoved()

	assert.Equal(t, []stage.Code{stage.CodeSoaking, stage.CodeBlackout}, from)
	assert.Equal(t, []stage.Code{stage.CodeGermination, stage.CodeLight}, to)
}
