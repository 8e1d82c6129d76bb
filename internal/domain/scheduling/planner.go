package scheduling

import (
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
	"github.com/andrescamacho/microgreens-go/internal/domain/timing"
)

// StageEntry describes a crop entering a stage. EntryID is the id of the
// history row opened for the stay.
type StageEntry struct {
	CropID     string
	RecipeID   string
	Stage      stage.Code
	EntryID    string
	EnteredAt  time.Time
	Timestamps stage.Timestamps
	Recipe     recipe.Parameters
	CreatedAt  time.Time
}

// Planner derives the tasks owed to a stage entry
type Planner struct {
	registry *stage.Registry
}

// NewPlanner creates a planner over the stage registry
func NewPlanner(registry *stage.Registry) *Planner {
	return &Planner{registry: registry}
}

// ForStageEntry returns the tasks to schedule when a crop enters a stage:
//   - end_stage at enteredAt + stage duration
//   - suspend_watering at end_stage - suspendWaterHours, final pre-harvest stage only,
//     when 0 < suspendWaterHours < stage duration
//   - expected_harvest at the expected harvest time, final pre-harvest stage only
//
// The terminal stage owes nothing. Missing recipe durations skip the task and
// come back as warnings.
func (p *Planner) ForStageEntry(e StageEntry) ([]*CropTask, []shared.Warning) {
	if e.Stage == p.registry.Terminal().Code() {
		return nil, nil
	}

	var (
		tasks    []*CropTask
		warnings []shared.Warning
	)
	finalPreHarvest := p.registry.IsFinalPreHarvest(e.Stage)

	duration, ok := e.Recipe.StageDuration(e.Stage)
	if !ok {
		warnings = append(warnings, shared.NewWarning(shared.WarningRecipeParameterMissing, e.CropID,
			"recipe %s has no duration for stage %s; end_stage not scheduled", e.RecipeID, e.Stage))
	} else {
		endAt := e.EnteredAt.Add(duration)
		tasks = append(tasks, p.newTask(e, TaskTypeEndStage, endAt))

		if offset, suspends := e.Recipe.SuspendWaterOffset(); finalPreHarvest && suspends && offset < duration {
			tasks = append(tasks, p.newTask(e, TaskTypeSuspendWatering, endAt.Add(-offset)))
		}
	}

	if finalPreHarvest {
		if harvestAt := timing.ExpectedHarvestAt(e.Timestamps, e.Recipe); harvestAt != nil {
			tasks = append(tasks, p.newTask(e, TaskTypeExpectedHarvest, *harvestAt))
		} else {
			warnings = append(warnings, shared.NewWarning(shared.WarningRecipeParameterMissing, e.CropID,
				"recipe %s lacks grow days; expected_harvest not scheduled", e.RecipeID))
		}
	}

	return tasks, warnings
}

func (p *Planner) newTask(e StageEntry, taskType TaskType, at time.Time) *CropTask {
	t := NewCropTask(e.CropID, e.RecipeID, taskType, e.Stage, at, e.CreatedAt, map[string]interface{}{
		"stage":      string(e.Stage),
		"entered_at": e.EnteredAt.UTC().Format(time.RFC3339),
	})
	t.entryID = e.EntryID
	return t
}
