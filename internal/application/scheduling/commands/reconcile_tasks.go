package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// ReconcileTasksCommand repairs drift: every growing crop gets the tasks owed
// to its current stage entry if any are missing
type ReconcileTasksCommand struct{}

// ReconcileTasksResponse summarizes a reconcile pass
type ReconcileTasksResponse struct {
	CropsScanned int              `json:"crops_scanned"`
	TasksCreated int              `json:"tasks_created"`
	Warnings     []shared.Warning `json:"warnings,omitempty"`
}

// ReconcileTasksHandler handles ReconcileTasksCommand
type ReconcileTasksHandler struct {
	crops   crop.Repository
	recipes recipe.Repository
	tasks   scheduling.Repository
	planner *scheduling.Planner
	clock   shared.Clock
}

// NewReconcileTasksHandler creates a new ReconcileTasksHandler
func NewReconcileTasksHandler(
	crops crop.Repository,
	recipes recipe.Repository,
	tasks scheduling.Repository,
	planner *scheduling.Planner,
	clock shared.Clock,
) *ReconcileTasksHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &ReconcileTasksHandler{crops: crops, recipes: recipes, tasks: tasks, planner: planner, clock: clock}
}

// Handle executes the ReconcileTasks command
func (h *ReconcileTasksHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	if _, ok := request.(*ReconcileTasksCommand); !ok {
		return nil, fmt.Errorf("invalid request type: expected *ReconcileTasksCommand")
	}

	growing, err := h.crops.FindGrowingCrops(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load growing crops: %w", err)
	}

	resp := &ReconcileTasksResponse{CropsScanned: len(growing)}
	params := make(map[string]recipe.Parameters)
	now := h.clock.Now()

	for _, c := range growing {
		if err := ctx.Err(); err != nil {
			return resp, err
		}

		p, ok := params[c.RecipeID()]
		if !ok {
			r, err := h.recipes.FindByID(ctx, c.RecipeID())
			if err != nil {
				resp.Warnings = append(resp.Warnings, shared.NewWarning(shared.WarningRecipeParameterMissing, c.ID(),
					"recipe %s unavailable: %v", c.RecipeID(), err))
				continue
			}
			p = r.Parameters()
			params[c.RecipeID()] = p
		}

		entered := c.EnteredCurrentStageAt()
		if entered == nil {
			continue
		}
		open, err := h.crops.FindOpenHistory(ctx, c.ID())
		if err != nil {
			return resp, fmt.Errorf("failed to load open history for crop %s: %w", c.ID(), err)
		}
		if open == nil || open.Stage() != c.CurrentStage() {
			resp.Warnings = append(resp.Warnings, shared.NewWarning(shared.WarningMissingStageTimestamp, c.ID(),
				"crop has no open history row for %s; tasks not reconciled", c.CurrentStage()))
			continue
		}
		owed, warnings := h.planner.ForStageEntry(scheduling.StageEntry{
			CropID:     c.ID(),
			RecipeID:   c.RecipeID(),
			Stage:      c.CurrentStage(),
			EntryID:    open.ID(),
			EnteredAt:  *entered,
			Timestamps: c.Timestamps(),
			Recipe:     p,
			CreatedAt:  now,
		})
		resp.Warnings = append(resp.Warnings, warnings...)
		if len(owed) == 0 {
			continue
		}

		created, err := h.tasks.EnsureScheduled(ctx, owed)
		if err != nil {
			return resp, fmt.Errorf("failed to schedule tasks for crop %s: %w", c.ID(), err)
		}
		resp.TasksCreated += created
	}

	metrics.RecordTasksScheduled(resp.TasksCreated)
	if resp.TasksCreated > 0 {
		logging.LoggerFromContext(ctx).Log(logging.LevelInfo, fmt.Sprintf("Reconcile created %d missing tasks", resp.TasksCreated), map[string]interface{}{
			"crops_scanned": resp.CropsScanned,
			"tasks_created": resp.TasksCreated,
			"at":            now.Format(time.RFC3339),
		})
	}
	return resp, nil
}
