package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// DueTasksQuery lists pending tasks with scheduledAt <= Now
type DueTasksQuery struct {
	Now   *time.Time `json:"now,omitempty"`
	Limit int        `json:"limit,omitempty"`
}

// DueTask is one entry of the due-task feed
type DueTask struct {
	ID          string                 `json:"id"`
	CropID      string                 `json:"crop_id"`
	TaskType    string                 `json:"task_type"`
	StageCode   string                 `json:"stage_code"`
	ScheduledAt time.Time              `json:"scheduled_at"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// DueTasksResponse is the due-task feed
type DueTasksResponse struct {
	AsOf  time.Time `json:"as_of"`
	Tasks []DueTask `json:"tasks"`
}

// DueTasksHandler handles DueTasksQuery
type DueTasksHandler struct {
	tasks scheduling.Repository
	clock shared.Clock
}

// NewDueTasksHandler creates a new DueTasksHandler
func NewDueTasksHandler(tasks scheduling.Repository, clock shared.Clock) *DueTasksHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &DueTasksHandler{tasks: tasks, clock: clock}
}

// Handle executes the DueTasks query
func (h *DueTasksHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*DueTasksQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *DueTasksQuery")
	}

	now := h.clock.Now()
	if q.Now != nil {
		now = q.Now.UTC()
	}

	due, err := h.tasks.FindDue(ctx, now, q.Limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load due tasks: %w", err)
	}

	resp := &DueTasksResponse{AsOf: now, Tasks: make([]DueTask, 0, len(due))}
	for _, t := range due {
		resp.Tasks = append(resp.Tasks, DueTask{
			ID:          t.ID(),
			CropID:      t.CropID(),
			TaskType:    string(t.TaskType()),
			StageCode:   string(t.Stage()),
			ScheduledAt: t.ScheduledAt(),
			Details:     t.Details(),
		})
	}
	return resp, nil
}
