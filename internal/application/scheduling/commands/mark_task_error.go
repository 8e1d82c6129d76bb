package commands

import (
	"context"
	"fmt"

	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
)

// MarkTaskErrorCommand records that acting on a task failed
type MarkTaskErrorCommand struct {
	TaskID  string `json:"task_id,omitempty"`
	Message string `json:"message,omitempty"`
}

// MarkTaskErrorHandler handles MarkTaskErrorCommand
type MarkTaskErrorHandler struct {
	tasks scheduling.Repository
}

// NewMarkTaskErrorHandler creates a new MarkTaskErrorHandler
func NewMarkTaskErrorHandler(tasks scheduling.Repository) *MarkTaskErrorHandler {
	return &MarkTaskErrorHandler{tasks: tasks}
}

// Handle executes the MarkTaskError command
func (h *MarkTaskErrorHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*MarkTaskErrorCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *MarkTaskErrorCommand")
	}

	task, err := h.tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}
	changed, err := task.MarkError(cmd.Message)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &TaskStatusResponse{TaskID: task.ID(), Status: string(task.Status())}, nil
	}

	changed, err = h.tasks.UpdateFrom(ctx, task, scheduling.TaskStatusPending)
	if err != nil {
		return nil, fmt.Errorf("failed to mark task error: %w", err)
	}
	if !changed {
		return currentStatus(ctx, h.tasks, task.ID())
	}
	logging.LoggerFromContext(ctx).Log(logging.LevelError, fmt.Sprintf("Task %s failed: %s", task.ID(), cmd.Message), map[string]interface{}{
		"task_id": task.ID(),
		"crop_id": task.CropID(),
	})

	return &TaskStatusResponse{TaskID: task.ID(), Status: string(task.Status()), Changed: true}, nil
}
