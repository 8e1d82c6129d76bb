package commands_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
	"github.com/andrescamacho/microgreens-go/test/helpers"
)

var soakedAt = time.Date(2025, 3, 1, 6, 0, 0, 0, time.UTC)

func setup(t *testing.T) *helpers.TestRepositories {
	t.Helper()
	repos := helpers.MustTestRepositories(t, soakedAt)
	_, err := repos.SeedRecipe("pea", "pea-shoots", helpers.PeaShootParams())
	require.NoError(t, err)
	_, err = repos.SeedRecipe("radish", "radish", helpers.RadishParams())
	require.NoError(t, err)
	return repos
}

// send ticks the clock first so audit rows get distinct recorded_at values
func send(t *testing.T, repos *helpers.TestRepositories, request interface{}) (interface{}, error) {
	t.Helper()
	repos.Clock.Advance(time.Second)
	return repos.Send(request)
}

func createBatch(t *testing.T, repos *helpers.TestRepositories, recipeID string, trays int) *commands.CreateBatchResponse {
	t.Helper()
	resp, err := repos.Send(&commands.CreateBatchCommand{
		RecipeID:  recipeID,
		TrayCount: trays,
		At:        &soakedAt,
		Actor:     "grower",
	})
	require.NoError(t, err)
	return resp.(*commands.CreateBatchResponse)
}

func advance(t *testing.T, repos *helpers.TestRepositories, at time.Time, ids ...string) *lifecycle.Result {
	t.Helper()
	resp, err := repos.Send(&commands.AdvanceCropsCommand{CropIDs: ids, At: &at, Actor: "grower"})
	require.NoError(t, err)
	return resp.(*commands.TransitionResponse).Result
}

func transitionsOf(t *testing.T, repos *helpers.TestRepositories) []*lifecycle.Transition {
	t.Helper()
	rows, err := repos.Store.ListTransitions(context.Background(), lifecycle.TransitionQuery{})
	require.NoError(t, err)
	return rows
}

func TestCreateBatch_SoakedRecipeStartsInSoaking(t *testing.T) {
	// Arrange
	repos := setup(t)

	// Act
	resp := createBatch(t, repos, "pea", 3)

	// Assert
	assert.Equal(t, string(stage.CodeSoaking), resp.InitialStage)
	assert.Len(t, resp.CropIDs, 3)
	assert.Equal(t, 3, resp.TasksScheduled)

	tasks, err := repos.TaskRepo.FindByCrop(context.Background(), resp.CropIDs[0])
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, scheduling.TaskTypeEndStage, tasks[0].TaskType())
	assert.True(t, soakedAt.Add(8*time.Hour).Equal(tasks[0].ScheduledAt()))
}

func TestCreateBatch_DirectSownRecipeStartsInGermination(t *testing.T) {
	// Arrange
	repos := setup(t)

	// Act
	resp := createBatch(t, repos, "radish", 1)

	// Assert
	assert.Equal(t, string(stage.CodeGermination), resp.InitialStage)
}

func TestCreateBatch_DepletedSeedLotIsRejected(t *testing.T) {
	// Arrange
	repos := setup(t)
	require.NoError(t, repos.RecipeRepo.SetLotDepleted(context.Background(), "pea", true))

	// Act
	_, err := repos.Send(&commands.CreateBatchCommand{RecipeID: "pea", TrayCount: 2})

	// Assert
	var depleted *recipe.ErrSeedLotDepleted
	require.True(t, errors.As(err, &depleted))
	crops, err := repos.CropRepo.FindGrowingCrops(context.Background())
	require.NoError(t, err)
	assert.Empty(t, crops)
}

func TestCreateBatch_InvalidTrayCount(t *testing.T) {
	// Arrange
	repos := setup(t)

	// Act
	_, err := repos.Send(&commands.CreateBatchCommand{RecipeID: "pea", TrayCount: 0})

	// Assert
	var invalid *common.ErrInvalidRequest
	assert.True(t, errors.As(err, &invalid))
}

func TestAdvanceCrops_PartialFailureWritesOneAuditRow(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 2)
	at := soakedAt.Add(8 * time.Hour)

	// Act
	result := advance(t, repos, at, batch.CropIDs[0], "ghost", batch.CropIDs[1])

	// Assert
	assert.Equal(t, 3, result.CropCount)
	assert.Equal(t, 2, result.SucceededCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.FailedCrops, 1)
	assert.Equal(t, "ghost", result.FailedCrops[0].CropID)
	assert.Equal(t, lifecycle.ReasonUnknownCrop, result.FailedCrops[0].Reason)

	rows := transitionsOf(t, repos)
	require.Len(t, rows, 1)
	assert.Equal(t, result.TransitionID, rows[0].ID())
	assert.Equal(t, 2, rows[0].SucceededCount())
	require.NotNil(t, rows[0].ToStage())
	assert.Equal(t, stage.CodeGermination, *rows[0].ToStage())

	moved, err := repos.CropRepo.FindCrop(context.Background(), batch.CropIDs[0])
	require.NoError(t, err)
	assert.Equal(t, stage.CodeGermination, moved.CurrentStage())
	require.NotNil(t, moved.Timestamps().Get(stage.CodeGermination))
	assert.True(t, at.Equal(*moved.Timestamps().Get(stage.CodeGermination)))
}

func TestAdvanceCrops_ExpectedStageMismatchIsStale(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 1)
	at := soakedAt.Add(8 * time.Hour)

	// Act
	resp, err := repos.Send(&commands.AdvanceCropsCommand{
		CropIDs:       batch.CropIDs,
		At:            &at,
		ExpectedStage: string(stage.CodeBlackout),
	})

	// Assert
	require.NoError(t, err)
	result := resp.(*commands.TransitionResponse).Result
	assert.Equal(t, 0, result.SucceededCount)
	require.Len(t, result.FailedCrops, 1)
	assert.Equal(t, lifecycle.ReasonStaleState, result.FailedCrops[0].Reason)
}

func TestAdvanceCrops_TerminalCropHasNoNextStage(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "radish", 1)
	id := batch.CropIDs[0]
	advance(t, repos, soakedAt.Add(24*time.Hour), id)
	advance(t, repos, soakedAt.Add(72*time.Hour), id)
	advance(t, repos, soakedAt.Add(168*time.Hour), id)

	// Act
	result := advance(t, repos, soakedAt.Add(169*time.Hour), id)

	// Assert
	require.Len(t, result.FailedCrops, 1)
	assert.Equal(t, lifecycle.ReasonNoNextStage, result.FailedCrops[0].Reason)
	assert.Len(t, transitionsOf(t, repos), 4)
}

func TestRevertCrops_RestoresPredecessorEntryTime(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 1)
	id := batch.CropIDs[0]
	germinatedAt := soakedAt.Add(8 * time.Hour)
	advance(t, repos, germinatedAt, id)
	advance(t, repos, germinatedAt.Add(48*time.Hour), id)
	revertAt := germinatedAt.Add(50 * time.Hour)

	// Act
	resp, err := repos.Send(&commands.RevertCropsCommand{
		CropIDs: []string{id},
		Reason:  "moved to blackout too early",
		At:      &revertAt,
		Actor:   "grower",
	})

	// Assert
	require.NoError(t, err)
	result := resp.(*commands.TransitionResponse).Result
	assert.Equal(t, 1, result.SucceededCount)

	c, err := repos.CropRepo.FindCrop(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, stage.CodeGermination, c.CurrentStage())
	assert.Nil(t, c.Timestamps().Get(stage.CodeBlackout))
	require.NotNil(t, c.Timestamps().Get(stage.CodeGermination))
	assert.True(t, germinatedAt.Equal(*c.Timestamps().Get(stage.CodeGermination)))

	open, err := repos.CropRepo.FindOpenHistory(context.Background(), id)
	require.NoError(t, err)
	require.NotNil(t, open)
	assert.Equal(t, stage.CodeGermination, open.Stage())
	assert.True(t, germinatedAt.Equal(open.EnteredAt()))

	rows := transitionsOf(t, repos)
	require.NotEmpty(t, rows)
	assert.Equal(t, lifecycle.TransitionRevert, rows[0].Type())
	require.NotNil(t, rows[0].Reason())
	assert.Equal(t, "moved to blackout too early", *rows[0].Reason())
}

func TestRevertCrops_MissingReasonFailsEveryCropButIsAudited(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 2)
	advance(t, repos, soakedAt.Add(8*time.Hour), batch.CropIDs...)

	// Act
	resp, err := repos.Send(&commands.RevertCropsCommand{CropIDs: batch.CropIDs, Reason: "   "})

	// Assert
	require.NoError(t, err)
	result := resp.(*commands.TransitionResponse).Result
	assert.Equal(t, 2, result.FailedCount)
	for _, f := range result.FailedCrops {
		assert.Equal(t, lifecycle.ReasonMissingReason, f.Reason)
	}
	rows := transitionsOf(t, repos)
	require.Len(t, rows, 2)
	assert.Equal(t, lifecycle.TransitionRevert, rows[0].Type())
	assert.Equal(t, 0, rows[0].SucceededCount())

	c, err := repos.CropRepo.FindCrop(context.Background(), batch.CropIDs[0])
	require.NoError(t, err)
	assert.Equal(t, stage.CodeGermination, c.CurrentStage())
}

func TestRevertCrops_FirstStageHasNoPredecessor(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 1)

	// Act
	resp, err := repos.Send(&commands.RevertCropsCommand{CropIDs: batch.CropIDs, Reason: "mistake"})

	// Assert
	require.NoError(t, err)
	result := resp.(*commands.TransitionResponse).Result
	require.Len(t, result.FailedCrops, 1)
	assert.Equal(t, lifecycle.ReasonNoPreviousStage, result.FailedCrops[0].Reason)
}

func TestBulkAdvance_OnlyMovesCropsInSourceStage(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 3)
	germinatedAt := soakedAt.Add(8 * time.Hour)
	advance(t, repos, germinatedAt, batch.CropIDs[0])
	at := germinatedAt.Add(time.Hour)

	// Act
	resp, err := repos.Send(&commands.BulkAdvanceCommand{
		BatchID:   batch.BatchID,
		StageCode: string(stage.CodeSoaking),
		At:        &at,
		Actor:     "grower",
	})

	// Assert
	require.NoError(t, err)
	result := resp.(*commands.TransitionResponse).Result
	assert.Equal(t, lifecycle.TransitionBulkAdvance, result.Type)
	assert.Equal(t, 2, result.SucceededCount)
	assert.Equal(t, 0, result.FailedCount)

	crops, err := repos.CropRepo.FindCropsByBatch(context.Background(), batch.BatchID)
	require.NoError(t, err)
	for _, c := range crops {
		assert.Equal(t, stage.CodeGermination, c.CurrentStage())
	}
	first, err := repos.CropRepo.FindCrop(context.Background(), batch.CropIDs[0])
	require.NoError(t, err)
	assert.True(t, germinatedAt.Equal(*first.Timestamps().Get(stage.CodeGermination)))

	rows := transitionsOf(t, repos)
	require.NotEmpty(t, rows)
	require.NotNil(t, rows[0].BatchID())
	assert.Equal(t, batch.BatchID, *rows[0].BatchID())
}

func TestBulkAdvance_UnknownBatch(t *testing.T) {
	// Arrange
	repos := setup(t)

	// Act
	_, err := repos.Send(&commands.BulkAdvanceCommand{BatchID: "missing"})

	// Assert
	require.Error(t, err)
	assert.Empty(t, transitionsOf(t, repos))
}

func TestAdvanceCrops_DismissesExitedStageTasksAndSchedulesNext(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 1)
	id := batch.CropIDs[0]
	germinatedAt := soakedAt.Add(8 * time.Hour)
	blackoutAt := germinatedAt.Add(48 * time.Hour)
	lightAt := blackoutAt.Add(72 * time.Hour)

	// Act
	advance(t, repos, germinatedAt, id)
	advance(t, repos, blackoutAt, id)
	advance(t, repos, lightAt, id)

	// Assert
	tasks, err := repos.TaskRepo.FindByCrop(context.Background(), id)
	require.NoError(t, err)

	pending := map[scheduling.TaskType]time.Time{}
	for _, task := range tasks {
		if task.Stage() != stage.CodeLight {
			assert.Equal(t, scheduling.TaskStatusDismissed, task.Status(), "task %s", task)
			continue
		}
		assert.Equal(t, scheduling.TaskStatusPending, task.Status())
		pending[task.TaskType()] = task.ScheduledAt()
	}
	require.Len(t, pending, 3)
	endAt := lightAt.Add(5 * 24 * time.Hour)
	assert.True(t, endAt.Equal(pending[scheduling.TaskTypeEndStage]))
	assert.True(t, endAt.Add(-12*time.Hour).Equal(pending[scheduling.TaskTypeSuspendWatering]))
	// earliest stage timestamp + 10 grow days
	assert.True(t, soakedAt.Add(10*24*time.Hour).Equal(pending[scheduling.TaskTypeExpectedHarvest]))
}

func TestAdvanceCrops_WithoutActorHasNoUserID(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "radish", 1)
	at := soakedAt.Add(24 * time.Hour)

	// Act
	_, err := repos.Send(&commands.AdvanceCropsCommand{CropIDs: batch.CropIDs, At: &at})

	// Assert
	require.NoError(t, err)
	rows := transitionsOf(t, repos)
	require.Len(t, rows, 1)
	assert.Nil(t, rows[0].UserID())
}

func TestBulkAdvance_HarvestedCropFailsAndStaysUnchanged(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "radish", 4)
	harvestedID := batch.CropIDs[0]
	advance(t, repos, soakedAt.Add(24*time.Hour), harvestedID)
	advance(t, repos, soakedAt.Add(72*time.Hour), harvestedID)
	advance(t, repos, soakedAt.Add(168*time.Hour), harvestedID)

	before, err := repos.CropRepo.FindCrop(context.Background(), harvestedID)
	require.NoError(t, err)
	require.Equal(t, stage.CodeHarvested, before.CurrentStage())
	historyBefore, err := repos.CropRepo.FindHistory(context.Background(), harvestedID)
	require.NoError(t, err)
	at := soakedAt.Add(170 * time.Hour)

	// Act
	resp, err := send(t, repos, &commands.BulkAdvanceCommand{
		BatchID: batch.BatchID,
		At:      &at,
		Actor:   "grower",
	})

	// Assert
	require.NoError(t, err)
	result := resp.(*commands.TransitionResponse).Result
	assert.Equal(t, 3, result.SucceededCount)
	assert.Equal(t, 1, result.FailedCount)
	require.Len(t, result.FailedCrops, 1)
	assert.Equal(t, harvestedID, result.FailedCrops[0].CropID)
	assert.Equal(t, lifecycle.ReasonNoNextStage, result.FailedCrops[0].Reason)

	after, err := repos.CropRepo.FindCrop(context.Background(), harvestedID)
	require.NoError(t, err)
	assert.Equal(t, stage.CodeHarvested, after.CurrentStage())
	assert.Equal(t, before.Version(), after.Version())
	assert.True(t, before.Timestamps().Get(stage.CodeHarvested).Equal(*after.Timestamps().Get(stage.CodeHarvested)))
	historyAfter, err := repos.CropRepo.FindHistory(context.Background(), harvestedID)
	require.NoError(t, err)
	assert.Len(t, historyAfter, len(historyBefore))

	for _, id := range batch.CropIDs[1:] {
		moved, err := repos.CropRepo.FindCrop(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, stage.CodeBlackout, moved.CurrentStage())
	}
}

func TestAdvanceCrops_EveryAdvanceClosesOneHistoryRow(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "pea", 1)
	id := batch.CropIDs[0]
	steps := []time.Duration{8 * time.Hour, 56 * time.Hour, 128 * time.Hour, 248 * time.Hour}

	for n, step := range steps {
		// Act
		advance(t, repos, soakedAt.Add(step), id)

		// Assert
		history, err := repos.CropRepo.FindHistory(context.Background(), id)
		require.NoError(t, err)
		require.Len(t, history, n+2)
		open := 0
		for _, h := range history {
			if h.IsOpen() {
				open++
			}
		}
		assert.Equal(t, 1, open, "after %d advances", n+1)
		assert.True(t, history[len(history)-1].IsOpen())
	}
}

func TestAdvanceCrops_ConcurrentAdvancesFromSameStageSucceedOnce(t *testing.T) {
	// Arrange
	repos := setup(t)
	batch := createBatch(t, repos, "radish", 1)
	id := batch.CropIDs[0]
	at := soakedAt.Add(24 * time.Hour)
	const callers = 4

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results []*lifecycle.Result
		errs    []error
	)

	// Act
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := repos.Send(&commands.AdvanceCropsCommand{
				CropIDs:       []string{id},
				At:            &at,
				Actor:         "grower",
				ExpectedStage: string(stage.CodeGermination),
			})
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs = append(errs, err)
				return
			}
			results = append(results, resp.(*commands.TransitionResponse).Result)
		}()
	}
	wg.Wait()

	// Assert
	require.Empty(t, errs)
	require.Len(t, results, callers)
	succeeded := 0
	for _, r := range results {
		succeeded += r.SucceededCount
		for _, f := range r.FailedCrops {
			assert.Equal(t, lifecycle.ReasonStaleState, f.Reason)
		}
	}
	assert.Equal(t, 1, succeeded)

	moved, err := repos.CropRepo.FindCrop(context.Background(), id)
	require.NoError(t, err)
	assert.Equal(t, stage.CodeBlackout, moved.CurrentStage())
	history, err := repos.CropRepo.FindHistory(context.Background(), id)
	require.NoError(t, err)
	assert.Len(t, history, 2)
}
