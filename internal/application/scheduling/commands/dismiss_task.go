package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// DismissTaskCommand retires a pending task without acting on it
type DismissTaskCommand struct {
	TaskID string     `json:"task_id,omitempty"`
	Reason string     `json:"reason,omitempty"`
	At     *time.Time `json:"at,omitempty"`
}

// DismissTaskHandler handles DismissTaskCommand
type DismissTaskHandler struct {
	tasks scheduling.Repository
	clock shared.Clock
}

// NewDismissTaskHandler creates a new DismissTaskHandler
func NewDismissTaskHandler(tasks scheduling.Repository, clock shared.Clock) *DismissTaskHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &DismissTaskHandler{tasks: tasks, clock: clock}
}

// Handle executes the DismissTask command
func (h *DismissTaskHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*DismissTaskCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *DismissTaskCommand")
	}

	at := h.clock.Now()
	if cmd.At != nil {
		at = cmd.At.UTC()
	}

	task, err := h.tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	changed, err := task.Dismiss(at, cmd.Reason)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &TaskStatusResponse{TaskID: task.ID(), Status: string(task.Status())}, nil
	}

	changed, err = h.tasks.UpdateFrom(ctx, task, scheduling.TaskStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to dismiss task: %w", err)
	}
	if !changed {
		return currentStatus(ctx, h.tasks, task.ID())
	}
	metrics.RecordTasksDismissed(1)

	return &TaskStatusResponse{TaskID: task.ID(), Status: string(task.Status()), Changed: true}, nil
}
