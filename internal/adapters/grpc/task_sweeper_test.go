package grpc_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/test/helpers"
)

var sownAt = time.Date(2025, 5, 4, 7, 0, 0, 0, time.UTC)

func sweeperFixture(t *testing.T) (*helpers.TestRepositories, string) {
	t.Helper()
	repos := helpers.MustTestRepositories(t, sownAt)
	_, err := repos.SeedRecipe("radish", "radish", helpers.RadishParams())
	require.NoError(t, err)
	batch, err := repos.CreateBatch("radish", 1, sownAt)
	require.NoError(t, err)
	return repos, batch.CropIDs[0]
}

func TestTaskSweeper_ReportsDueTasksWithoutTriggering(t *testing.T) {
	// Arrange
	repos, cropID := sweeperFixture(t)
	repos.Clock.SetTime(sownAt.Add(36 * time.Hour))
	sweeper := grpcAdapter.NewTaskSweeper(repos.Mediator, nil)

	// Act
	result, err := sweeper.Sweep(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, result.TasksCreated)
	assert.Equal(t, 1, result.Due)
	assert.Equal(t, 0, result.Triggered)

	tasks, err := repos.TaskRepo.FindByCrop(context.Background(), cropID)
	require.NoError(t, err)
	for _, task := range tasks {
		assert.True(t, task.IsPending())
	}
}

func TestTaskSweeper_AutoTriggerMarksDueTasksTriggered(t *testing.T) {
	// Arrange
	repos, cropID := sweeperFixture(t)
	repos.Clock.SetTime(sownAt.Add(36 * time.Hour))
	sweeper := grpcAdapter.NewTaskSweeper(repos.Mediator, nil, grpcAdapter.WithAutoTrigger(100, 10))

	// Act
	first, err1 := sweeper.Sweep(context.Background())
	second, err2 := sweeper.Sweep(context.Background())

	// Assert
	require.NoError(t, err1)
	require.NoError(t, err2)
	assert.Equal(t, 1, first.Triggered)
	assert.Equal(t, 0, first.Errors)
	assert.Equal(t, 0, second.Due)

	tasks, err := repos.TaskRepo.FindByCrop(context.Background(), cropID)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, scheduling.TaskStatusTriggered, tasks[0].Status())
}

func TestTaskSweeper_NothingDueBeforeStageEnds(t *testing.T) {
	// Arrange
	repos, _ := sweeperFixture(t)
	repos.Clock.SetTime(sownAt.Add(6 * time.Hour))
	sweeper := grpcAdapter.NewTaskSweeper(repos.Mediator, nil, grpcAdapter.WithAutoTrigger(100, 10))

	// Act
	result, err := sweeper.Sweep(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 0, result.Due)
	assert.Equal(t, 0, result.Triggered)
}
