package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
)

// GetCropHistoryQuery asks for a crop's stage history and tasks
type GetCropHistoryQuery struct {
	CropID string `json:"crop_id,omitempty"`
}

// HistoryEntryDTO is one stay of a crop in a stage
type HistoryEntryDTO struct {
	StageCode string     `json:"stage_code"`
	EnteredAt time.Time  `json:"entered_at"`
	ExitedAt  *time.Time `json:"exited_at,omitempty"`
	Notes     string     `json:"notes,omitempty"`
	CreatedBy string     `json:"created_by"`
}

// TaskDTO is a task as seen by readers
type TaskDTO struct {
	ID          string                 `json:"id"`
	CropID      string                 `json:"crop_id"`
	TaskType    string                 `json:"task_type"`
	StageCode   string                 `json:"stage_code"`
	ScheduledAt time.Time              `json:"scheduled_at"`
	TriggeredAt *time.Time             `json:"triggered_at,omitempty"`
	Status      string                 `json:"status"`
	Details     map[string]interface{} `json:"details,omitempty"`
}

// CropHistory is the response of GetCropHistoryQuery
type CropHistory struct {
	CropID       string            `json:"crop_id"`
	BatchID      *string           `json:"batch_id,omitempty"`
	CurrentStage string            `json:"current_stage"`
	Entries      []HistoryEntryDTO `json:"entries"`
	Tasks        []TaskDTO         `json:"tasks"`
}

// GetCropHistoryHandler handles GetCropHistoryQuery
type GetCropHistoryHandler struct {
	crops crop.Repository
	tasks scheduling.Repository
}

// NewGetCropHistoryHandler creates a new GetCropHistoryHandler
func NewGetCropHistoryHandler(crops crop.Repository, tasks scheduling.Repository) *GetCropHistoryHandler {
	return &GetCropHistoryHandler{crops: crops, tasks: tasks}
}

// Handle executes the GetCropHistory query
func (h *GetCropHistoryHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*GetCropHistoryQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *GetCropHistoryQuery")
	}

	c, err := h.crops.FindCrop(ctx, q.CropID)
	if err != nil {
		return nil, err
	}
	entries, err := h.crops.FindHistory(ctx, c.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}
	tasks, err := h.tasks.FindByCrop(ctx, c.ID())
	if err != nil {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	out := &CropHistory{
		CropID:       c.ID(),
		BatchID:      c.BatchID(),
		CurrentStage: string(c.CurrentStage()),
		Entries:      make([]HistoryEntryDTO, 0, len(entries)),
		Tasks:        make([]TaskDTO, 0, len(tasks)),
	}
	for _, e := range entries {
		out.Entries = append(out.Entries, HistoryEntryDTO{
			StageCode: string(e.Stage()),
			EnteredAt: e.EnteredAt(),
			ExitedAt:  e.ExitedAt(),
			Notes:     e.Notes(),
			CreatedBy: e.CreatedBy(),
		})
	}
	for _, t := range tasks {
		out.Tasks = append(out.Tasks, TaskToDTO(t))
	}
	return out, nil
}

// TaskToDTO converts a task for readers
func TaskToDTO(t *scheduling.CropTask) TaskDTO {
	return TaskDTO{
		ID:          t.ID(),
		CropID:      t.CropID(),
		TaskType:    string(t.TaskType()),
		StageCode:   string(t.Stage()),
		ScheduledAt: t.ScheduledAt(),
		TriggeredAt: t.TriggeredAt(),
		Status:      string(t.Status()),
		Details:     t.Details(),
	}
}
