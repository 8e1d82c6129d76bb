package scheduling

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// TaskType identifies what a scheduled task announces
type TaskType string

const (
	TaskTypeEndStage        TaskType = "end_stage"
	TaskTypeSuspendWatering TaskType = "suspend_watering"
	TaskTypeExpectedHarvest TaskType = "expected_harvest"
)

// TaskStatus is the lifecycle state of a task
type TaskStatus string

const (
	TaskStatusPending   TaskStatus = "pending"
	TaskStatusTriggered TaskStatus = "triggered"
	TaskStatusError     TaskStatus = "error"
	TaskStatusDismissed TaskStatus = "dismissed"
)

// ParseTaskStatus parses a status string
func ParseTaskStatus(s string) (TaskStatus, error) {
	switch TaskStatus(s) {
	case TaskStatusPending, TaskStatusTriggered, TaskStatusError, TaskStatusDismissed:
		return TaskStatus(s), nil
	}
	return "", fmt.Errorf("invalid task status: %s", s)
}

// Key identifies a task occurrence; at most one task exists per key.
// EntryID names the stay in the stage that owes the task, so re-entering a
// stage after a revert owes fresh tasks.
type Key struct {
	CropID      string
	TaskType    TaskType
	Stage       stage.Code
	EntryID     string
	ScheduledAt time.Time
}

// CropTask is a future-dated action derived from a crop's stage entry.
//
// State machine:
//
//	pending -> triggered | dismissed | error
//
// Only pending tasks change; repeating the transition a task already made is a no-op.
type CropTask struct {
	id          string
	cropID      string
	recipeID    string
	taskType    TaskType
	stage       stage.Code
	entryID     string
	scheduledAt time.Time
	triggeredAt *time.Time
	status      TaskStatus
	details     map[string]interface{}
	createdAt   time.Time
}

// NewCropTask creates a pending task
func NewCropTask(cropID, recipeID string, taskType TaskType, code stage.Code, scheduledAt, createdAt time.Time, details map[string]interface{}) *CropTask {
	if details == nil {
		details = make(map[string]interface{})
	}
	return &CropTask{
		id:          uuid.New().String(),
		cropID:      cropID,
		recipeID:    recipeID,
		taskType:    taskType,
		stage:       code,
		scheduledAt: scheduledAt,
		status:      TaskStatusPending,
		details:     details,
		createdAt:   createdAt,
	}
}

// ReconstructCropTask rebuilds a task from persistence
func ReconstructCropTask(
	id, cropID, recipeID string,
	taskType TaskType,
	code stage.Code,
	entryID string,
	scheduledAt time.Time,
	triggeredAt *time.Time,
	status TaskStatus,
	details map[string]interface{},
	createdAt time.Time,
) *CropTask {
	if details == nil {
		details = make(map[string]interface{})
	}
	return &CropTask{
		id:          id,
		cropID:      cropID,
		recipeID:    recipeID,
		taskType:    taskType,
		stage:       code,
		entryID:     entryID,
		scheduledAt: scheduledAt,
		triggeredAt: triggeredAt,
		status:      status,
		details:     details,
		createdAt:   createdAt,
	}
}

func (t *CropTask) ID() string                      { return t.id }
func (t *CropTask) CropID() string                  { return t.cropID }
func (t *CropTask) RecipeID() string                { return t.recipeID }
func (t *CropTask) TaskType() TaskType              { return t.taskType }
func (t *CropTask) Stage() stage.Code               { return t.stage }
func (t *CropTask) EntryID() string                 { return t.entryID }
func (t *CropTask) ScheduledAt() time.Time          { return t.scheduledAt }
func (t *CropTask) TriggeredAt() *time.Time         { return t.triggeredAt }
func (t *CropTask) Status() TaskStatus              { return t.status }
func (t *CropTask) Details() map[string]interface{} { return t.details }
func (t *CropTask) CreatedAt() time.Time            { return t.createdAt }
func (t *CropTask) IsPending() bool                 { return t.status == TaskStatusPending }
func (t *CropTask) IsDue(now time.Time) bool        { return t.IsPending() && !t.scheduledAt.After(now) }
func (t *CropTask) Key() Key {
	return Key{CropID: t.cropID, TaskType: t.taskType, Stage: t.stage, EntryID: t.entryID, ScheduledAt: t.scheduledAt}
}

// Trigger marks the task done. Triggering a triggered task is a no-op and
// returns changed=false so callers can skip side effects.
func (t *CropTask) Trigger(at time.Time) (changed bool, err error) {
	switch t.status {
	case TaskStatusTriggered:
		return false, nil
	case TaskStatusPending:
		t.status = TaskStatusTriggered
		t.triggeredAt = &at
		return true, nil
	default:
		return false, &ErrInvalidTaskTransition{TaskID: t.id, From: t.status, To: TaskStatusTriggered}
	}
}

// Dismiss retires a pending task without acting on it
func (t *CropTask) Dismiss(at time.Time, reason string) (changed bool, err error) {
	switch t.status {
	case TaskStatusDismissed:
		return false, nil
	case TaskStatusPending:
		t.status = TaskStatusDismissed
		t.details["dismissed_at"] = at.UTC().Format(time.RFC3339)
		if reason != "" {
			t.details["dismiss_reason"] = reason
		}
		return true, nil
	default:
		return false, &ErrInvalidTaskTransition{TaskID: t.id, From: t.status, To: TaskStatusDismissed}
	}
}

// MarkError records that acting on the task failed
func (t *CropTask) MarkError(message string) (changed bool, err error) {
	switch t.status {
	case TaskStatusError:
		return false, nil
	case TaskStatusPending:
		t.status = TaskStatusError
		t.details["error"] = message
		return true, nil
	default:
		return false, &ErrInvalidTaskTransition{TaskID: t.id, From: t.status, To: TaskStatusError}
	}
}

func (t *CropTask) String() string {
	return fmt.Sprintf("CropTask[%s, crop=%s, %s@%s, %s]", t.id, t.cropID, t.taskType, t.scheduledAt.Format(time.RFC3339), t.status)
}
