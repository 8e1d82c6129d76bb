package commands

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// BulkAdvanceCommand advances every crop of a batch currently in StageCode.
// An empty StageCode targets every crop of the batch.
type BulkAdvanceCommand struct {
	BatchID   string     `json:"batch_id,omitempty" validate:"required"`
	StageCode string     `json:"stage_code,omitempty" validate:"omitempty,stage_code"`
	At        *time.Time `json:"at,omitempty"`
	Actor     string     `json:"actor,omitempty"`
}

// BulkRevertCommand reverts every crop of a batch currently in StageCode.
// An empty StageCode targets every crop of the batch.
type BulkRevertCommand struct {
	BatchID   string     `json:"batch_id,omitempty" validate:"required"`
	StageCode string     `json:"stage_code,omitempty" validate:"omitempty,stage_code"`
	Reason    string     `json:"reason,omitempty"`
	At        *time.Time `json:"at,omitempty"`
	Actor     string     `json:"actor,omitempty"`
}

// BulkTransitionHandler handles both bulk commands. The crop set is resolved at
// call time, so crops of the batch that sit in another stage are left alone.
type BulkTransitionHandler struct {
	executor *Executor
}

// NewBulkTransitionHandler creates a new BulkTransitionHandler
func NewBulkTransitionHandler(executor *Executor) *BulkTransitionHandler {
	return &BulkTransitionHandler{executor: executor}
}

// Handle executes BulkAdvanceCommand or BulkRevertCommand
func (h *BulkTransitionHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	var (
		transitionType lifecycle.TransitionType
		batchID        string
		stageCode      string
		reason         string
		at             *time.Time
		actor          string
	)
	switch cmd := request.(type) {
	case *BulkAdvanceCommand:
		if err := common.ValidateRequest(cmd); err != nil {
			return nil, err
		}
		transitionType, batchID, stageCode, at, actor = lifecycle.TransitionBulkAdvance, cmd.BatchID, cmd.StageCode, cmd.At, cmd.Actor
	case *BulkRevertCommand:
		if err := common.ValidateRequest(cmd); err != nil {
			return nil, err
		}
		transitionType, batchID, stageCode, at, actor = lifecycle.TransitionBulkRevert, cmd.BatchID, cmd.StageCode, cmd.At, cmd.Actor
		reason = strings.TrimSpace(cmd.Reason)
	default:
		return nil, fmt.Errorf("invalid request type: expected *BulkAdvanceCommand or *BulkRevertCommand")
	}

	var (
		source *stage.Stage
		target *stage.Stage
		err    error
	)
	if stageCode != "" {
		registry := h.executor.Registry()
		source, err = registry.ByCode(stage.Code(stageCode))
		if err != nil {
			return nil, err
		}
		if transitionType.IsRevert() {
			target, err = registry.Previous(source.Code())
		} else {
			target, err = registry.Next(source.Code())
		}
		if err != nil {
			return nil, err
		}
	}

	batch, err := h.executor.crops.FindBatch(ctx, batchID)
	if err != nil {
		return nil, err
	}
	members, err := h.executor.crops.FindCropsByBatch(ctx, batch.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load batch crops: %w", err)
	}

	call := &resolvedCall{
		transitionType: transitionType,
		batchID:        &batchID,
		snapshot:       make(map[string]*crop.Crop),
		reason:         reason,
		at:             h.executor.resolveAt(at),
		actor:          shared.NewActor(actor),
	}
	if source != nil {
		from := source.Code()
		call.fromStage = &from
		call.expectedStage = &from
		if target != nil {
			to := target.Code()
			call.toStage = &to
		}
	}

	stages := make(map[stage.Code]int)
	for _, c := range members {
		stages[c.CurrentStage()]++
		if source != nil && c.CurrentStage() != source.Code() {
			continue
		}
		call.order = append(call.order, c.ID())
		call.snapshot[c.ID()] = c
	}
	if w, diverged := divergenceWarning(batchID, stages); diverged {
		call.warnings = append(call.warnings, w)
	}

	result, err := h.executor.run(ctx, call)
	if err != nil {
		return nil, err
	}
	return &TransitionResponse{Result: result}, nil
}

func divergenceWarning(batchID string, stages map[stage.Code]int) (shared.Warning, bool) {
	if len(stages) < 2 {
		return shared.Warning{}, false
	}
	parts := make([]string, 0, len(stages))
	for code, n := range stages {
		parts = append(parts, fmt.Sprintf("%s=%d", code, n))
	}
	sort.Strings(parts)
	return shared.NewWarning(shared.WarningBatchDivergence, "",
		"batch %s spans %d stages (%s)", batchID, len(stages), strings.Join(parts, ", ")), true
}
