package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// UpdatePlanStatusCommand moves a plan one step along draft → confirmed → in_progress → completed
type UpdatePlanStatusCommand struct {
	PlanID string `json:"plan_id,omitempty" validate:"required"`
	Status string `json:"status,omitempty" validate:"required,oneof=draft confirmed in_progress completed"`
}

// UpdatePlanStatusHandler handles UpdatePlanStatusCommand
type UpdatePlanStatusHandler struct {
	plans planning.Repository
	clock shared.Clock
}

// NewUpdatePlanStatusHandler creates a new UpdatePlanStatusHandler
func NewUpdatePlanStatusHandler(plans planning.Repository, clock shared.Clock) *UpdatePlanStatusHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &UpdatePlanStatusHandler{plans: plans, clock: clock}
}

// Handle executes the UpdatePlanStatus command
func (h *UpdatePlanStatusHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*UpdatePlanStatusCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *UpdatePlanStatusCommand")
	}
	if err := common.ValidateRequest(cmd); err != nil {
		return nil, err
	}

	target, err := planning.ParsePlanStatus(cmd.Status)
	if err != nil {
		return nil, err
	}

	plan, err := h.plans.FindByID(ctx, cmd.PlanID)
	if err != nil {
		return nil, err
	}
	if err := plan.TransitionTo(target, h.clock.Now()); err != nil {
		return nil, err
	}
	if err := h.plans.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save crop plan: %w", err)
	}

	dto := queries.PlanToDTO(plan)
	return &dto, nil
}
