package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// AdvanceCropsCommand moves each named crop to its next stage.
// ExpectedStage, when set, fails crops not currently in that stage with StaleState.
type AdvanceCropsCommand struct {
	CropIDs       []string   `json:"crop_ids,omitempty" validate:"required,min=1,dive,required"`
	At            *time.Time `json:"at,omitempty"` // defaults to now
	Actor         string     `json:"actor,omitempty"`
	ExpectedStage string     `json:"expected_stage,omitempty" validate:"omitempty,stage_code"`
}

// AdvanceCropsHandler handles AdvanceCropsCommand
type AdvanceCropsHandler struct {
	executor *Executor
}

// NewAdvanceCropsHandler creates a new AdvanceCropsHandler
func NewAdvanceCropsHandler(executor *Executor) *AdvanceCropsHandler {
	return &AdvanceCropsHandler{executor: executor}
}

// Handle executes the AdvanceCrops command
func (h *AdvanceCropsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*AdvanceCropsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AdvanceCropsCommand")
	}
	if err := common.ValidateRequest(cmd); err != nil {
		return nil, err
	}

	var expected *stage.Code
	if cmd.ExpectedStage != "" {
		s, err := h.executor.Registry().ByCode(stage.Code(cmd.ExpectedStage))
		if err != nil {
			return nil, err
		}
		code := s.Code()
		expected = &code
	}

	order, snapshot, unknown, err := h.executor.resolveByIDs(ctx, cmd.CropIDs)
	if err != nil {
		return nil, err
	}

	result, err := h.executor.run(ctx, &resolvedCall{
		transitionType: lifecycle.TransitionAdvance,
		order:          order,
		snapshot:       snapshot,
		unknown:        unknown,
		expectedStage:  expected,
		at:             h.executor.resolveAt(cmd.At),
		actor:          shared.NewActor(cmd.Actor),
	})
	if err != nil {
		return nil, err
	}
	return &TransitionResponse{Result: result}, nil
}
