package commands

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// RevertCropsCommand moves each named crop back one stage.
// A blank Reason fails every crop with MissingReason; the call is still audited.
type RevertCropsCommand struct {
	CropIDs []string   `json:"crop_ids,omitempty" validate:"required,min=1,dive,required"`
	Reason  string     `json:"reason,omitempty"`
	At      *time.Time `json:"at,omitempty"`
	Actor   string     `json:"actor,omitempty"`
}

// RevertCropsHandler handles RevertCropsCommand
type RevertCropsHandler struct {
	executor *Executor
}

// NewRevertCropsHandler creates a new RevertCropsHandler
func NewRevertCropsHandler(executor *Executor) *RevertCropsHandler {
	return &RevertCropsHandler{executor: executor}
}

// Handle executes the RevertCrops command
func (h *RevertCropsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*RevertCropsCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *RevertCropsCommand")
	}
	if err := common.ValidateRequest(cmd); err != nil {
		return nil, err
	}

	order, snapshot, unknown, err := h.executor.resolveByIDs(ctx, cmd.CropIDs)
	if err != nil {
		return nil, err
	}

	result, err := h.executor.run(ctx, &resolvedCall{
		transitionType: lifecycle.TransitionRevert,
		order:          order,
		snapshot:       snapshot,
		unknown:        unknown,
		reason:         strings.TrimSpace(cmd.Reason),
		at:             h.executor.resolveAt(cmd.At),
		actor:          shared.NewActor(cmd.Actor),
	})
	if err != nil {
		return nil, err
	}
	return &TransitionResponse{Result: result}, nil
}
