package planning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
)

func date(s string) time.Time {
	d, err := time.Parse(planning.DateLayout, s)
	if err != nil {
		panic(err)
	}
	return d
}

func peaRecipe(t *testing.T, soakHours float64) *recipe.Recipe {
	r, err := recipe.NewRecipe("pea-recipe", "pea", "Pea", recipe.Parameters{
		SeedSoakHours:      soakHours,
		GerminationDays:    recipe.Days(3),
		BlackoutDays:       recipe.Days(2),
		LightDays:          recipe.Days(5),
		ExpectedYieldGrams: 150,
		BufferPercentage:   10,
	}, false)
	require.NoError(t, err)
	return r
}

func TestGroupDemand_SameVarietyAndDateIsAdditive(t *testing.T) {
	// Arrange
	harvest := date("2025-01-20")
	signals := []planning.DemandSignal{
		{OrderID: "o-1", VarietyID: "pea", QuantityGrams: 250, HarvestDate: harvest},
		{OrderID: "o-2", VarietyID: "pea", QuantityGrams: 250, HarvestDate: harvest.Add(15 * time.Hour)},
		{OrderID: "o-3", VarietyID: "radish", QuantityGrams: 100, HarvestDate: harvest},
	}

	// Act
	groups := planning.GroupDemand(signals)

	// Assert
	require.Len(t, groups, 2)
	assert.Equal(t, "pea", groups[0].Key.VarietyID)
	assert.Equal(t, 500.0, groups[0].TotalGrams)
	assert.Equal(t, []string{"o-1", "o-2"}, groups[0].OrderIDs)
	assert.Equal(t, "radish", groups[1].Key.VarietyID)
}

func TestCompute_PeaDemand(t *testing.T) {
	// Arrange
	groups := planning.GroupDemand([]planning.DemandSignal{
		{OrderID: "o-1", VarietyID: "pea", QuantityGrams: 250, HarvestDate: date("2025-01-20")},
		{OrderID: "o-2", VarietyID: "pea", QuantityGrams: 250, HarvestDate: date("2025-01-20")},
	})

	// Act
	req, err := planning.Compute(groups[0], peaRecipe(t, 24), 0)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, 500.0, req.TotalGrams)
	assert.Equal(t, 4, req.TraysNeeded)
	assert.Equal(t, date("2025-01-10"), req.PlantDate)
	require.NotNil(t, req.SeedSoakDate)
	assert.Equal(t, date("2025-01-09"), *req.SeedSoakDate)
}

func TestCompute_NoSoakingMeansNoSoakDate(t *testing.T) {
	groups := planning.GroupDemand([]planning.DemandSignal{
		{OrderID: "o-1", VarietyID: "pea", QuantityGrams: 100, HarvestDate: date("2025-01-20")},
	})

	req, err := planning.Compute(groups[0], peaRecipe(t, 0), 0)

	require.NoError(t, err)
	assert.Nil(t, req.SeedSoakDate)
}

func TestCompute_GramsPerTrayOverride(t *testing.T) {
	groups := planning.GroupDemand([]planning.DemandSignal{
		{OrderID: "o-1", VarietyID: "pea", QuantityGrams: 500, HarvestDate: date("2025-01-20")},
	})

	req, err := planning.Compute(groups[0], peaRecipe(t, 0), 100)

	require.NoError(t, err)
	assert.Equal(t, 100.0, req.GramsPerTray)
	assert.Equal(t, 6, req.TraysNeeded)
}

func TestTraysNeeded_ExactMultipleDoesNotRoundUp(t *testing.T) {
	assert.Equal(t, 1, planning.TraysNeeded(150, 10, 165))
	assert.Equal(t, 2, planning.TraysNeeded(300, 0, 150))
	assert.Equal(t, 0, planning.TraysNeeded(0, 10, 150))
}

func TestSeedSoakDate_RoundsPartialDaysUp(t *testing.T) {
	p := recipe.Parameters{SeedSoakHours: 30}

	soak := planning.SeedSoakDate(date("2025-01-10"), p)

	require.NotNil(t, soak)
	assert.Equal(t, date("2025-01-08"), *soak)
}

func TestCompute_MissingGrowDays(t *testing.T) {
	r, err := recipe.NewRecipe("r", "basil", "Basil", recipe.Parameters{ExpectedYieldGrams: 80}, false)
	require.NoError(t, err)
	groups := planning.GroupDemand([]planning.DemandSignal{{VarietyID: "basil", QuantityGrams: 10, HarvestDate: date("2025-02-01")}})

	_, err = planning.Compute(groups[0], r, 0)

	var missing *recipe.ErrParameterMissing
	assert.ErrorAs(t, err, &missing)
}
