package planning_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
)

func TestPlan_StatusMachine(t *testing.T) {
	// Arrange
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := planning.NewPlan(planning.Requirement{
		Key:         planning.Key{VarietyID: "pea", HarvestDate: date("2025-01-20")},
		TotalGrams:  500,
		TraysNeeded: 4,
	}, now)

	// Act / Assert
	assert.Equal(t, planning.PlanStatusDraft, plan.Status())
	assert.Error(t, plan.TransitionTo(planning.PlanStatusInProgress, now))
	require.NoError(t, plan.TransitionTo(planning.PlanStatusConfirmed, now))
	require.NoError(t, plan.TransitionTo(planning.PlanStatusInProgress, now))
	require.NoError(t, plan.TransitionTo(planning.PlanStatusCompleted, now))
	assert.Error(t, plan.TransitionTo(planning.PlanStatusDraft, now))
}

func TestPlan_OnlyDraftsRecalculate(t *testing.T) {
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	plan := planning.NewPlan(planning.Requirement{TotalGrams: 100, TraysNeeded: 1}, now)

	require.NoError(t, plan.Recalculate(planning.Requirement{TotalGrams: 400, TraysNeeded: 3}, now))
	assert.Equal(t, 3, plan.TotalTraysNeeded())

	require.NoError(t, plan.TransitionTo(planning.PlanStatusConfirmed, now))
	err := plan.Recalculate(planning.Requirement{TotalGrams: 800, TraysNeeded: 6}, now)

	var locked *planning.ErrPlanLocked
	assert.ErrorAs(t, err, &locked)
	assert.Equal(t, 3, plan.TotalTraysNeeded())
}

func TestPlan_MergeAddsNewOrdersAndReplacesResentOnes(t *testing.T) {
	// Arrange
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	key := planning.Key{VarietyID: "pea", HarvestDate: date("2025-01-20")}
	plan := planning.NewPlan(planning.Requirement{
		Key:        key,
		TotalGrams: 250,
		OrderIDs:   []string{"o-1"},
		OrderGrams: map[string]float64{"o-1": 250},
	}, now)

	// Act
	merged := plan.Merge(planning.NewDemandGroup(key, map[string]float64{"o-1": 300, "o-2": 250}))

	// Assert
	assert.Equal(t, 550.0, merged.TotalGrams)
	assert.Equal(t, []string{"o-1", "o-2"}, merged.OrderIDs)
	assert.Equal(t, 300.0, merged.OrderGrams["o-1"])
	assert.Equal(t, map[string]float64{"o-1": 250}, plan.OrderGrams(), "merging leaves the plan untouched")
}
