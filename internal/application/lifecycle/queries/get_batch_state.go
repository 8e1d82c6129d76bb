package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
	"github.com/andrescamacho/microgreens-go/internal/domain/timing"
)

// GetBatchStateQuery asks for the current-state projection of a batch
type GetBatchStateQuery struct {
	BatchID string     `json:"batch_id,omitempty"`
	Now     *time.Time `json:"now,omitempty"`
}

// CropState is one crop in the batch projection
type CropState struct {
	CropID              string           `json:"crop_id"`
	TrayNumber          int              `json:"tray_number"`
	StageCode           string           `json:"stage_code"`
	WateringSuspendedAt *time.Time       `json:"watering_suspended_at,omitempty"`
	Timing              timing.Phase     `json:"timing"`
	Timestamps          stage.Timestamps `json:"timestamps"`
}

// BatchState is the projection consumed by presentation layers
type BatchState struct {
	BatchID          string           `json:"batch_id"`
	RecipeID         string           `json:"recipe_id"`
	OrderID          *string          `json:"order_id,omitempty"`
	CropPlanID       *string          `json:"crop_plan_id,omitempty"`
	Crops            []CropState      `json:"crops"`
	CurrentStageCode string           `json:"current_stage_code"`
	DerivedTiming    timing.Phase     `json:"derived_timing"`
	Warnings         []shared.Warning `json:"warnings,omitempty"`
}

// GetBatchStateHandler handles GetBatchStateQuery. Timing is computed on every
// read and never stored.
type GetBatchStateHandler struct {
	crops    crop.Repository
	recipes  recipe.Repository
	registry *stage.Registry
	clock    shared.Clock
}

// NewGetBatchStateHandler creates a new GetBatchStateHandler
func NewGetBatchStateHandler(crops crop.Repository, recipes recipe.Repository, registry *stage.Registry, clock shared.Clock) *GetBatchStateHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GetBatchStateHandler{crops: crops, recipes: recipes, registry: registry, clock: clock}
}

// Handle executes the GetBatchState query
func (h *GetBatchStateHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*GetBatchStateQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetBatchStateQuery")
	}

	now := h.clock.Now()
	if q.Now != nil {
		now = *q.Now
	}

	batch, err := h.crops.FindBatch(ctx, q.BatchID)
	if err != nil {
		return nil, err
	}
	r, err := h.recipes.FindByID(ctx, batch.RecipeID())
	if err != nil {
		return nil, err
	}
	members, err := h.crops.FindCropsByBatch(ctx, batch.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load batch crops: %w", err)
	}

	state := &BatchState{
		BatchID:    batch.ID(),
		RecipeID:   batch.RecipeID(),
		OrderID:    batch.OrderID(),
		CropPlanID: batch.CropPlanID(),
		Crops:      make([]CropState, 0, len(members)),
	}

	timingMembers := make([]timing.Member, 0, len(members))
	stages := make(map[stage.Code]bool)
	for _, c := range members {
		phase := timing.Calculate(timing.Input{
			CropID:     c.ID(),
			Stage:      c.CurrentStage(),
			Timestamps: c.Timestamps(),
			Recipe:     r.Parameters(),
			Now:        now,
		})
		state.Crops = append(state.Crops, CropState{
			CropID:              c.ID(),
			TrayNumber:          c.TrayNumber(),
			StageCode:           string(c.CurrentStage()),
			WateringSuspendedAt: c.WateringSuspendedAt(),
			Timing:              phase,
			Timestamps:          c.Timestamps(),
		})
		timingMembers = append(timingMembers, timing.Member{CropID: c.ID(), Stage: c.CurrentStage(), Timestamps: c.Timestamps()})
		stages[c.CurrentStage()] = true
	}

	view, err := timing.CalculateBatch(h.registry, timingMembers, r.Parameters(), now)
	if err != nil {
		return nil, err
	}
	state.CurrentStageCode = string(view.Stage)
	state.DerivedTiming = view.Phase
	state.Warnings = append(state.Warnings, view.Phase.Warnings...)
	if len(stages) > 1 {
		state.Warnings = append(state.Warnings, shared.NewWarning(shared.WarningBatchDivergence, "",
			"batch %s spans %d stages", batch.ID(), len(stages)))
	}

	return state, nil
}
