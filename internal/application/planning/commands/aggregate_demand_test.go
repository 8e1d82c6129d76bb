package commands_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/application/planning/commands"
	"github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/test/helpers"
)

var (
	now     = time.Date(2025, 4, 1, 9, 0, 0, 0, time.UTC)
	harvest = time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)
)

func setup(t *testing.T) *helpers.TestRepositories {
	t.Helper()
	repos := helpers.MustTestRepositories(t, now)
	_, err := repos.SeedRecipe("pea", "pea-shoots", helpers.PeaShootParams())
	require.NoError(t, err)
	return repos
}

func aggregate(t *testing.T, repos *helpers.TestRepositories, signals ...planning.DemandSignal) *commands.AggregateDemandResponse {
	t.Helper()
	resp, err := repos.Send(&commands.AggregateDemandCommand{Signals: signals})
	require.NoError(t, err)
	return resp.(*commands.AggregateDemandResponse)
}

func signal(order, variety string, grams float64, date time.Time) planning.DemandSignal {
	return planning.DemandSignal{OrderID: order, VarietyID: variety, QuantityGrams: grams, HarvestDate: date}
}

func TestAggregateDemand_GroupsByVarietyAndHarvestDate(t *testing.T) {
	// Arrange
	repos := setup(t)

	// Act
	resp := aggregate(t, repos,
		signal("o-1", "pea-shoots", 300, harvest),
		signal("o-2", "pea-shoots", 200, harvest.Add(10*time.Hour)),
		signal("o-3", "pea-shoots", 100, harvest.AddDate(0, 0, 1)),
	)

	// Assert
	require.Len(t, resp.Plans, 2)
	assert.Empty(t, resp.Rejected)
	first := resp.Plans[0]
	assert.Equal(t, "2025-04-20", first.HarvestDate)
	assert.Equal(t, 500.0, first.TotalGramsNeeded)
	// 500g * 1.10 / 250g = 2.2
	assert.Equal(t, 3, first.TotalTraysNeeded)
	assert.Equal(t, "2025-04-10", first.PlantDate)
	require.NotNil(t, first.SeedSoakDate)
	assert.Equal(t, "2025-04-09", *first.SeedSoakDate)
	assert.Equal(t, []string{"o-1", "o-2"}, first.OrderIDs)
	assert.Equal(t, string(planning.PlanStatusDraft), first.Status)
}

func TestAggregateDemand_RecalculatesDraftInPlace(t *testing.T) {
	// Arrange
	repos := setup(t)
	initial := aggregate(t, repos, signal("o-1", "pea-shoots", 250, harvest))

	// Act
	updated := aggregate(t, repos, signal("o-1", "pea-shoots", 250, harvest), signal("o-2", "pea-shoots", 750, harvest))

	// Assert
	require.Len(t, updated.Plans, 1)
	assert.Equal(t, initial.Plans[0].ID, updated.Plans[0].ID)
	assert.Equal(t, 1000.0, updated.Plans[0].TotalGramsNeeded)

	plans, err := repos.PlanRepo.List(context.Background(), nil)
	require.NoError(t, err)
	assert.Len(t, plans, 1)
}

func TestAggregateDemand_ConfirmedPlanIsRejected(t *testing.T) {
	// Arrange
	repos := setup(t)
	initial := aggregate(t, repos, signal("o-1", "pea-shoots", 250, harvest))
	_, err := repos.Send(&commands.UpdatePlanStatusCommand{PlanID: initial.Plans[0].ID, Status: string(planning.PlanStatusConfirmed)})
	require.NoError(t, err)

	// Act
	resp := aggregate(t, repos, signal("o-2", "pea-shoots", 900, harvest))

	// Assert
	assert.Empty(t, resp.Plans)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "pea-shoots", resp.Rejected[0].VarietyID)

	stored, err := repos.PlanRepo.FindByID(context.Background(), initial.Plans[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 250.0, stored.TotalGramsNeeded())
}

func TestAggregateDemand_UnknownVarietyIsRejectedOthersSucceed(t *testing.T) {
	// Arrange
	repos := setup(t)

	// Act
	resp := aggregate(t, repos, signal("o-1", "sunflower", 100, harvest), signal("o-2", "pea-shoots", 100, harvest))

	// Assert
	require.Len(t, resp.Plans, 1)
	assert.Equal(t, "pea-shoots", resp.Plans[0].VarietyID)
	require.Len(t, resp.Rejected, 1)
	assert.Equal(t, "sunflower", resp.Rejected[0].VarietyID)
}

func TestUpdatePlanStatus_FollowsLifecycle(t *testing.T) {
	// Arrange
	repos := setup(t)
	plan := aggregate(t, repos, signal("o-1", "pea-shoots", 250, harvest)).Plans[0]

	// Act
	_, skipErr := repos.Send(&commands.UpdatePlanStatusCommand{PlanID: plan.ID, Status: string(planning.PlanStatusCompleted)})
	resp, err := repos.Send(&commands.UpdatePlanStatusCommand{PlanID: plan.ID, Status: string(planning.PlanStatusConfirmed)})

	// Assert
	var invalid *planning.ErrInvalidPlanTransition
	assert.True(t, errors.As(skipErr, &invalid))
	require.NoError(t, err)
	assert.Equal(t, string(planning.PlanStatusConfirmed), resp.(*queries.PlanDTO).Status)
}

func TestAggregateDemand_SeparateCallsForOneHarvestAddUp(t *testing.T) {
	// Arrange
	repos := setup(t)
	initial := aggregate(t, repos, signal("o-1", "pea-shoots", 250, harvest))

	// Act
	updated := aggregate(t, repos, signal("o-2", "pea-shoots", 250, harvest))

	// Assert
	require.Len(t, updated.Plans, 1)
	plan := updated.Plans[0]
	assert.Equal(t, initial.Plans[0].ID, plan.ID)
	assert.Equal(t, 500.0, plan.TotalGramsNeeded)
	// 500g * 1.10 / 250g = 2.2
	assert.Equal(t, 3, plan.TotalTraysNeeded)
	assert.Equal(t, []string{"o-1", "o-2"}, plan.OrderIDs)

	stored, err := repos.PlanRepo.FindByID(context.Background(), plan.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]float64{"o-1": 250, "o-2": 250}, stored.OrderGrams())
}

func TestAggregateDemand_ResendingAnOrderDoesNotCountItTwice(t *testing.T) {
	// Arrange
	repos := setup(t)
	aggregate(t, repos, signal("o-1", "pea-shoots", 250, harvest), signal("o-2", "pea-shoots", 250, harvest))

	// Act
	resent := aggregate(t, repos, signal("o-1", "pea-shoots", 250, harvest))
	amended := aggregate(t, repos, signal("o-2", "pea-shoots", 500, harvest))

	// Assert
	assert.Equal(t, 500.0, resent.Plans[0].TotalGramsNeeded)
	assert.Equal(t, 750.0, amended.Plans[0].TotalGramsNeeded)
	// 750g * 1.10 / 250g = 3.3
	assert.Equal(t, 4, amended.Plans[0].TotalTraysNeeded)
}
