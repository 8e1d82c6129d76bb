package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// StageMachine validates single-crop moves and plans the resulting change.
// It never touches storage; the caller persists the returned StageChange.
type StageMachine struct {
	registry *stage.Registry
	planner  *scheduling.Planner
}

// NewStageMachine creates a stage machine over the registry
func NewStageMachine(registry *stage.Registry) *StageMachine {
	return &StageMachine{
		registry: registry,
		planner:  scheduling.NewPlanner(registry),
	}
}

// Registry returns the stage registry
func (m *StageMachine) Registry() *stage.Registry {
	return m.registry
}

// Rejection is a per-crop validation failure
type Rejection struct {
	Reason FailureReason
	Detail string
}

// PlanAdvance moves a copy of c to its immediate successor entered at `at`
func (m *StageMachine) PlanAdvance(c *crop.Crop, params recipe.Parameters, at, recordedAt time.Time, actor shared.Actor) (*StageChange, []shared.Warning, *Rejection) {
	from := c.CurrentStage()
	next, err := m.registry.Next(from)
	if err != nil {
		return nil, nil, &Rejection{Reason: ReasonStaleState, Detail: err.Error()}
	}
	if next == nil {
		return nil, nil, &Rejection{Reason: ReasonNoNextStage, Detail: fmt.Sprintf("crop is in terminal stage %s", from)}
	}

	var warnings []shared.Warning
	if c.IsWateringSuspended() && !next.IsTerminal() {
		warnings = append(warnings, shared.NewWarning(shared.WarningWateringSuspended, c.ID(),
			"crop already watering-suspended since %s", c.WateringSuspendedAt().UTC().Format(time.RFC3339)))
	}

	moved := c.Clone()
	moved.EnterStage(next, at)
	entryID := uuid.New().String()

	tasks, taskWarnings := m.planner.ForStageEntry(scheduling.StageEntry{
		CropID:     c.ID(),
		RecipeID:   c.RecipeID(),
		Stage:      next.Code(),
		EntryID:    entryID,
		EnteredAt:  at,
		Timestamps: moved.Timestamps(),
		Recipe:     params,
		CreatedAt:  recordedAt,
	})
	warnings = append(warnings, taskWarnings...)

	return &StageChange{
		Crop:               moved,
		ExpectedVersion:    c.Version(),
		From:               from,
		To:                 next.Code(),
		CloseOpenHistoryAt: at,
		OpenHistory:        crop.OpenHistoryEntry(entryID, c.ID(), c.BatchID(), next.Code(), at, "", actor.Value()),
		DismissStage:       from,
		DismissAt:          at,
		DismissReason:      fmt.Sprintf("crop advanced to %s", next.Code()),
		NewTasks:           tasks,
	}, warnings, nil
}

// PlanRevert moves a copy of c back to its immediate predecessor.
// The stage left behind loses its timestamp; the predecessor keeps its original
// entry time, which also becomes the entry time of the reopened history row.
func (m *StageMachine) PlanRevert(c *crop.Crop, params recipe.Parameters, reason string, at, recordedAt time.Time, actor shared.Actor) (*StageChange, []shared.Warning, *Rejection) {
	from := c.CurrentStage()
	if reason == "" {
		return nil, nil, &Rejection{Reason: ReasonMissingReason, Detail: "revert requires a reason"}
	}
	prev, err := m.registry.Previous(from)
	if err != nil {
		return nil, nil, &Rejection{Reason: ReasonStaleState, Detail: err.Error()}
	}
	if prev == nil {
		return nil, nil, &Rejection{Reason: ReasonNoPreviousStage, Detail: fmt.Sprintf("crop is in first stage %s", from)}
	}

	var warnings []shared.Warning
	moved := c.Clone()
	if m.registry.IsFinalPreHarvest(from) && moved.IsWateringSuspended() {
		moved.ResumeWatering()
		warnings = append(warnings, shared.NewWarning(shared.WarningWateringSuspended, c.ID(),
			"watering suspension cleared on revert out of %s", from))
	}

	enteredAt, restamped := moved.ReturnToStage(prev, at)
	if restamped {
		warnings = append(warnings, shared.NewWarning(shared.WarningMissingStageTimestamp, c.ID(),
			"stage %s had no entry timestamp; using transition time", prev.Code()))
	}
	entryID := uuid.New().String()

	tasks, taskWarnings := m.planner.ForStageEntry(scheduling.StageEntry{
		CropID:     c.ID(),
		RecipeID:   c.RecipeID(),
		Stage:      prev.Code(),
		EntryID:    entryID,
		EnteredAt:  enteredAt,
		Timestamps: moved.Timestamps(),
		Recipe:     params,
		CreatedAt:  recordedAt,
	})
	warnings = append(warnings, taskWarnings...)

	return &StageChange{
		Crop:               moved,
		ExpectedVersion:    c.Version(),
		From:               from,
		To:                 prev.Code(),
		CloseOpenHistoryAt: at,
		OpenHistory:        crop.OpenHistoryEntry(entryID, c.ID(), c.BatchID(), prev.Code(), enteredAt, "reopened: "+reason, actor.Value()),
		DismissStage:       from,
		DismissAt:          at,
		DismissReason:      fmt.Sprintf("crop reverted to %s", prev.Code()),
		NewTasks:           tasks,
	}, warnings, nil
}

// PlanInitial returns the tasks owed to a freshly created crop whose opening
// history row is entryID
func (m *StageMachine) PlanInitial(c *crop.Crop, entryID string, params recipe.Parameters, recordedAt time.Time) ([]*scheduling.CropTask, []shared.Warning) {
	entered := c.EnteredCurrentStageAt()
	if entered == nil {
		return nil, nil
	}
	return m.planner.ForStageEntry(scheduling.StageEntry{
		CropID:     c.ID(),
		RecipeID:   c.RecipeID(),
		Stage:      c.CurrentStage(),
		EntryID:    entryID,
		EnteredAt:  *entered,
		Timestamps: c.Timestamps(),
		Recipe:     params,
		CreatedAt:  recordedAt,
	})
}

// Planner exposes the task planner for the reconcile sweep
func (m *StageMachine) Planner() *scheduling.Planner {
	return m.planner
}
