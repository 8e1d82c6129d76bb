package queries_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/application/planning/commands"
	"github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/test/helpers"
)

func TestListPlans_FiltersByStatus(t *testing.T) {
	// Arrange
	repos := helpers.MustTestRepositories(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC))
	_, err := repos.SeedRecipe("radish", "radish", helpers.RadishParams())
	require.NoError(t, err)
	resp, err := repos.Send(&commands.AggregateDemandCommand{Signals: []planning.DemandSignal{
		{OrderID: "o-1", VarietyID: "radish", QuantityGrams: 400, HarvestDate: time.Date(2025, 4, 20, 0, 0, 0, 0, time.UTC)},
		{OrderID: "o-2", VarietyID: "radish", QuantityGrams: 400, HarvestDate: time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC)},
	}})
	require.NoError(t, err)
	confirmed := resp.(*commands.AggregateDemandResponse).Plans[1].ID
	_, err = repos.Send(&commands.UpdatePlanStatusCommand{PlanID: confirmed, Status: "confirmed"})
	require.NoError(t, err)

	// Act
	all, errAll := repos.Send(&queries.ListPlansQuery{})
	filtered, errFiltered := repos.Send(&queries.ListPlansQuery{Status: "confirmed"})
	_, errInvalid := repos.Send(&queries.ListPlansQuery{Status: "shipped"})

	// Assert
	require.NoError(t, errAll)
	require.NoError(t, errFiltered)
	assert.Error(t, errInvalid)
	assert.Len(t, all.(*queries.ListPlansResponse).Plans, 2)
	require.Len(t, filtered.(*queries.ListPlansResponse).Plans, 1)
	assert.Equal(t, confirmed, filtered.(*queries.ListPlansResponse).Plans[0].ID)
}
