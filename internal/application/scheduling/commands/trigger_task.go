package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// TriggerTaskCommand marks a task as acted upon. Safe under at-least-once delivery.
type TriggerTaskCommand struct {
	TaskID string     `json:"task_id,omitempty"`
	At     *time.Time `json:"at,omitempty"`
}

// TaskStatusResponse reports a task's status after a mutation
type TaskStatusResponse struct {
	TaskID  string `json:"task_id"`
	Status  string `json:"status"`
	Changed bool   `json:"changed"`
}

// TriggerTaskHandler handles TriggerTaskCommand
type TriggerTaskHandler struct {
	tasks scheduling.Repository
	store lifecycle.Store
	clock shared.Clock
}

// NewTriggerTaskHandler creates a new TriggerTaskHandler
func NewTriggerTaskHandler(tasks scheduling.Repository, store lifecycle.Store, clock shared.Clock) *TriggerTaskHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &TriggerTaskHandler{tasks: tasks, store: store, clock: clock}
}

// Handle executes the TriggerTask command
func (h *TriggerTaskHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*TriggerTaskCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *TriggerTaskCommand")
	}

	at := h.clock.Now()
	if cmd.At != nil {
		at = cmd.At.UTC()
	}

	task, err := h.tasks.FindByID(ctx, cmd.TaskID)
	if err != nil {
		return nil, err
	}

	changed, err := task.Trigger(at)
	if err != nil {
		return nil, err
	}
	if !changed {
		return &TaskStatusResponse{TaskID: task.ID(), Status: string(task.Status())}, nil
	}

	changed, err = h.store.ApplyTrigger(ctx, task)
	if err != nil {
		return nil, fmt.Errorf("failed to trigger task %s: %w", task.ID(), err)
	}
	if !changed {
		return currentStatus(ctx, h.tasks, task.ID())
	}

	metrics.RecordTaskTriggered(string(task.TaskType()))
	logging.LoggerFromContext(ctx).Log(logging.LevelInfo, fmt.Sprintf("Task %s triggered for crop %s", task.TaskType(), task.CropID()), map[string]interface{}{
		"task_id":      task.ID(),
		"crop_id":      task.CropID(),
		"task_type":    string(task.TaskType()),
		"scheduled_at": task.ScheduledAt().Format(time.RFC3339),
	})

	return &TaskStatusResponse{TaskID: task.ID(), Status: string(task.Status()), Changed: true}, nil
}

// currentStatus reports the stored status of a task another writer moved first
func currentStatus(ctx context.Context, tasks scheduling.Repository, taskID string) (*TaskStatusResponse, error) {
	stored, err := tasks.FindByID(ctx, taskID)
	if err != nil {
		return nil, err
	}
	return &TaskStatusResponse{TaskID: stored.ID(), Status: string(stored.Status())}, nil
}
