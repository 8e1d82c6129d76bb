package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// CreateBatchCommand plants or soaks TrayCount trays of a recipe as one batch
type CreateBatchCommand struct {
	RecipeID   string     `json:"recipe_id,omitempty" validate:"required"`
	TrayCount  int        `json:"tray_count,omitempty" validate:"required,min=1,max=500"`
	OrderID    string     `json:"order_id,omitempty"`
	CropPlanID string     `json:"crop_plan_id,omitempty"`
	At         *time.Time `json:"at,omitempty"`
	Actor      string     `json:"actor,omitempty"`
	Notes      string     `json:"notes,omitempty"`
}

// CreateBatchResponse describes the created batch
type CreateBatchResponse struct {
	BatchID        string           `json:"batch_id"`
	CropIDs        []string         `json:"crop_ids"`
	InitialStage   string           `json:"initial_stage"`
	TasksScheduled int              `json:"tasks_scheduled"`
	Warnings       []shared.Warning `json:"warnings,omitempty"`
}

// CreateBatchHandler handles CreateBatchCommand
type CreateBatchHandler struct {
	recipes recipe.Repository
	lots    recipe.LotAvailability
	plans   planning.Repository
	store   lifecycle.Store
	machine *lifecycle.StageMachine
	clock   shared.Clock
}

// NewCreateBatchHandler creates a new CreateBatchHandler.
// lots may be nil, in which case the recipe's own depletion flag is authoritative.
func NewCreateBatchHandler(
	recipes recipe.Repository,
	lots recipe.LotAvailability,
	plans planning.Repository,
	store lifecycle.Store,
	machine *lifecycle.StageMachine,
	clock shared.Clock,
) *CreateBatchHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &CreateBatchHandler{
		recipes: recipes,
		lots:    lots,
		plans:   plans,
		store:   store,
		machine: machine,
		clock:   clock,
	}
}

// Handle executes the CreateBatch command
func (h *CreateBatchHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*CreateBatchCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *CreateBatchCommand")
	}
	if err := common.ValidateRequest(cmd); err != nil {
		return nil, err
	}

	r, err := h.recipes.FindByID(ctx, cmd.RecipeID)
	if err != nil {
		return nil, err
	}
	if err := h.checkSeedLot(ctx, r); err != nil {
		return nil, err
	}

	var plan *planning.AggregatedCropPlan
	if cmd.CropPlanID != "" {
		plan, err = h.plans.FindByID(ctx, cmd.CropPlanID)
		if err != nil {
			return nil, err
		}
	}

	at := h.clock.Now()
	if cmd.At != nil {
		at = cmd.At.UTC()
	}
	recordedAt := h.clock.Now()
	actor := shared.NewActor(cmd.Actor)

	batch, err := crop.NewBatch(uuid.New().String(), r.ID(), optional(cmd.OrderID), optional(cmd.CropPlanID), at)
	if err != nil {
		return nil, err
	}

	initial := h.machine.Registry().InitialFor(r.RequiresSoaking())
	creation := lifecycle.BatchCreation{Batch: batch}
	var warnings []shared.Warning

	for tray := 1; tray <= cmd.TrayCount; tray++ {
		c, err := crop.NewCrop(uuid.New().String(), batch.ID(), r.ID(), tray, initial, at)
		if err != nil {
			return nil, err
		}
		batch.AddCrop(c.ID())
		creation.Crops = append(creation.Crops, c)
		entry := crop.OpenHistoryEntry(uuid.New().String(), c.ID(), c.BatchID(), initial.Code(), at, cmd.Notes, actor.Value())
		creation.History = append(creation.History, entry)

		tasks, w := h.machine.PlanInitial(c, entry.ID(), r.Parameters(), recordedAt)
		creation.Tasks = append(creation.Tasks, tasks...)
		warnings = append(warnings, w...)
	}

	if err := h.store.CreateBatch(ctx, creation); err != nil {
		return nil, fmt.Errorf("failed to create batch: %w", err)
	}

	if plan != nil && plan.Status() == planning.PlanStatusConfirmed {
		if err := plan.TransitionTo(planning.PlanStatusInProgress, recordedAt); err != nil {
			return nil, err
		}
		if err := h.plans.Save(ctx, plan); err != nil {
			return nil, fmt.Errorf("failed to start crop plan %s: %w", plan.ID(), err)
		}
	}

	metrics.RecordTasksScheduled(len(creation.Tasks))
	logging.LoggerFromContext(ctx).Log(logging.LevelInfo, fmt.Sprintf("Batch %s created with %d trays in %s", batch.ID(), cmd.TrayCount, initial.Code()), map[string]interface{}{
		"batch_id":  batch.ID(),
		"recipe_id": r.ID(),
		"trays":     cmd.TrayCount,
		"stage":     string(initial.Code()),
		"tasks":     len(creation.Tasks),
	})

	return &CreateBatchResponse{
		BatchID:        batch.ID(),
		CropIDs:        batch.CropIDs(),
		InitialStage:   string(initial.Code()),
		TasksScheduled: len(creation.Tasks),
		Warnings:       warnings,
	}, nil
}

// checkSeedLot enforces the inventory precondition on new batches
func (h *CreateBatchHandler) checkSeedLot(ctx context.Context, r *recipe.Recipe) error {
	depleted := r.SeedLotDepleted()
	if h.lots != nil {
		var err error
		depleted, err = h.lots.IsDepleted(ctx, r.ID())
		if err != nil {
			return fmt.Errorf("failed to check seed lot: %w", err)
		}
	}
	if depleted {
		return &recipe.ErrSeedLotDepleted{RecipeID: r.ID()}
	}
	return nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
