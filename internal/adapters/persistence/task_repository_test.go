package persistence_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/adapters/persistence"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
	"github.com/andrescamacho/microgreens-go/test/helpers"
)

func TestTaskRepository_EnsureScheduledSkipsExistingKeys(t *testing.T) {
	// Arrange
	repo := persistence.NewGormTaskRepository(helpers.NewTestDB(t))
	due := plantedAt.Add(24 * time.Hour)
	original := scheduling.NewCropTask("crop-1", "radish", scheduling.TaskTypeEndStage, stage.CodeGermination, due, plantedAt, nil)
	duplicate := scheduling.NewCropTask("crop-1", "radish", scheduling.TaskTypeEndStage, stage.CodeGermination, due, plantedAt.Add(time.Hour), nil)
	other := scheduling.NewCropTask("crop-1", "radish", scheduling.TaskTypeExpectedHarvest, stage.CodeLight, due, plantedAt, nil)

	// Act
	first, err1 := repo.EnsureScheduled(context.Background(), []*scheduling.CropTask{original})
	second, err2 := repo.EnsureScheduled(context.Background(), []*scheduling.CropTask{duplicate, other})

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 1, first)
	assert.Equal(t, 1, second)

	tasks, err := repo.FindByCrop(context.Background(), "crop-1")
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestTaskRepository_UpdateFromIsGuardedByStatus(t *testing.T) {
	// Arrange
	repo := persistence.NewGormTaskRepository(helpers.NewTestDB(t))
	task := scheduling.NewCropTask("crop-1", "radish", scheduling.TaskTypeEndStage, stage.CodeGermination, plantedAt, plantedAt, nil)
	_, err := repo.EnsureScheduled(context.Background(), []*scheduling.CropTask{task})
	require.NoError(t, err)

	triggered, err := repo.FindByID(context.Background(), task.ID())
	require.NoError(t, err)
	_, err = triggered.Trigger(plantedAt.Add(time.Minute))
	require.NoError(t, err)

	dismissed, err := repo.FindByID(context.Background(), task.ID())
	require.NoError(t, err)
	_, err = dismissed.Dismiss(plantedAt.Add(2*time.Minute), "manual")
	require.NoError(t, err)

	// Act
	won, err1 := repo.UpdateFrom(context.Background(), triggered, scheduling.TaskStatusPending)
	lost, err2 := repo.UpdateFrom(context.Background(), dismissed, scheduling.TaskStatusPending)

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.True(t, won)
	assert.False(t, lost)

	stored, err := repo.FindByID(context.Background(), task.ID())
	require.NoError(t, err)
	assert.Equal(t, scheduling.TaskStatusTriggered, stored.Status())
	require.NotNil(t, stored.TriggeredAt())
}

func TestTaskRepository_FindDueReturnsPendingOldestFirst(t *testing.T) {
	// Arrange
	repo := persistence.NewGormTaskRepository(helpers.NewTestDB(t))
	now := plantedAt.Add(48 * time.Hour)
	late := scheduling.NewCropTask("crop-1", "radish", scheduling.TaskTypeEndStage, stage.CodeBlackout, now.Add(-time.Hour), plantedAt, nil)
	early := scheduling.NewCropTask("crop-2", "radish", scheduling.TaskTypeEndStage, stage.CodeGermination, now.Add(-10*time.Hour), plantedAt, nil)
	future := scheduling.NewCropTask("crop-3", "radish", scheduling.TaskTypeEndStage, stage.CodeGermination, now.Add(time.Hour), plantedAt, nil)
	_, err := repo.EnsureScheduled(context.Background(), []*scheduling.CropTask{late, early, future})
	require.NoError(t, err)

	// Act
	due, err := repo.FindDue(context.Background(), now, 0)
	limited, errLimited := repo.FindDue(context.Background(), now, 1)

	// Assert
	require.NoError(t, err)
	require.NoError(t, errLimited)
	require.Len(t, due, 2)
	assert.Equal(t, early.ID(), due[0].ID())
	assert.Equal(t, late.ID(), due[1].ID())
	require.Len(t, limited, 1)
	assert.Equal(t, early.ID(), limited[0].ID())
}
