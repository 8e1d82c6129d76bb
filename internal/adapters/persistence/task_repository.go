package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// GormTaskRepository implements scheduling.Repository using GORM
type GormTaskRepository struct {
	db *gorm.DB
}

// NewGormTaskRepository creates a new GORM task repository
func NewGormTaskRepository(db *gorm.DB) *GormTaskRepository {
	return &GormTaskRepository{db: db}
}

// FindByID retrieves a task by ID
func (r *GormTaskRepository) FindByID(ctx context.Context, id string) (*scheduling.CropTask, error) {
	var model CropTaskModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &scheduling.ErrTaskNotFound{TaskID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find task: %w", err)
	}
	return modelToTask(&model)
}

// FindDue retrieves pending tasks scheduled at or before now, oldest first.
// A non-positive limit returns every due task.
func (r *GormTaskRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]*scheduling.CropTask, error) {
	query := r.db.WithContext(ctx).
		Where("status = ? AND scheduled_at <= ?", string(scheduling.TaskStatusPending), now).
		Order("scheduled_at ASC, id ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []CropTaskModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find due tasks: %w", err)
	}
	return modelsToTasks(models)
}

// FindByCrop retrieves every task of a crop ordered by schedule
func (r *GormTaskRepository) FindByCrop(ctx context.Context, cropID string) ([]*scheduling.CropTask, error) {
	var models []CropTaskModel
	err := r.db.WithContext(ctx).
		Where("crop_id = ?", cropID).
		Order("scheduled_at ASC, task_type ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find tasks for crop %s: %w", cropID, err)
	}
	return modelsToTasks(models)
}

// UpdateFrom writes the task's status only if the stored row still has status
// from. Returns false when another writer got there first.
func (r *GormTaskRepository) UpdateFrom(ctx context.Context, task *scheduling.CropTask, from scheduling.TaskStatus) (bool, error) {
	return updateTaskFrom(r.db.WithContext(ctx), task, from)
}

// EnsureScheduled inserts tasks whose uniqueness key is not yet taken and
// returns how many were new
func (r *GormTaskRepository) EnsureScheduled(ctx context.Context, tasks []*scheduling.CropTask) (int, error) {
	return insertTasks(r.db.WithContext(ctx), tasks)
}

func updateTaskFrom(db *gorm.DB, task *scheduling.CropTask, from scheduling.TaskStatus) (bool, error) {
	details, err := marshalJSON(task.Details())
	if err != nil {
		return false, fmt.Errorf("failed to marshal task details: %w", err)
	}

	result := db.Model(&CropTaskModel{}).
		Where("id = ? AND status = ?", task.ID(), string(from)).
		Updates(map[string]interface{}{
			"status":       string(task.Status()),
			"triggered_at": task.TriggeredAt(),
			"details":      details,
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected == 1, nil
}

func insertTasks(db *gorm.DB, tasks []*scheduling.CropTask) (int, error) {
	created := 0
	for _, t := range tasks {
		model, err := taskToModel(t)
		if err != nil {
			return created, err
		}
		result := db.Clauses(clause.OnConflict{DoNothing: true}).Create(model)
		if result.Error != nil {
			return created, fmt.Errorf("failed to insert task %s: %w", t.Key(), result.Error)
		}
		created += int(result.RowsAffected)
	}
	return created, nil
}

// dismissPending retires the pending tasks a crop was owed for a stage it just left
func dismissPending(db *gorm.DB, cropID string, code stage.Code, at time.Time, reason string) (int, error) {
	var models []CropTaskModel
	err := db.Where("crop_id = ? AND stage_code = ? AND status = ?", cropID, string(code), string(scheduling.TaskStatusPending)).
		Find(&models).Error
	if err != nil {
		return 0, fmt.Errorf("failed to load pending tasks: %w", err)
	}

	dismissed := 0
	for i := range models {
		task, err := modelToTask(&models[i])
		if err != nil {
			return dismissed, err
		}
		if _, err := task.Dismiss(at, reason); err != nil {
			return dismissed, err
		}
		ok, err := updateTaskFrom(db, task, scheduling.TaskStatusPending)
		if err != nil {
			return dismissed, fmt.Errorf("failed to dismiss task %s: %w", task.ID(), err)
		}
		if ok {
			dismissed++
		}
	}
	return dismissed, nil
}

func modelsToTasks(models []CropTaskModel) ([]*scheduling.CropTask, error) {
	tasks := make([]*scheduling.CropTask, 0, len(models))
	for i := range models {
		t, err := modelToTask(&models[i])
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}

func modelToTask(m *CropTaskModel) (*scheduling.CropTask, error) {
	status, err := scheduling.ParseTaskStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("task %s: %w", m.ID, err)
	}
	var details map[string]interface{}
	if m.Details != "" {
		if err := json.Unmarshal([]byte(m.Details), &details); err != nil {
			return nil, fmt.Errorf("task %s: failed to unmarshal details: %w", m.ID, err)
		}
	}
	return scheduling.ReconstructCropTask(
		m.ID, m.CropID, m.RecipeID,
		scheduling.TaskType(m.TaskType),
		stage.Code(m.StageCode),
		m.EntryID,
		m.ScheduledAt.UTC(),
		m.TriggeredAt,
		status,
		details,
		m.CreatedAt,
	), nil
}

func taskToModel(t *scheduling.CropTask) (*CropTaskModel, error) {
	details, err := marshalJSON(t.Details())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task details: %w", err)
	}
	return &CropTaskModel{
		ID:          t.ID(),
		CropID:      t.CropID(),
		RecipeID:    t.RecipeID(),
		TaskType:    string(t.TaskType()),
		StageCode:   string(t.Stage()),
		EntryID:     t.EntryID(),
		ScheduledAt: t.ScheduledAt().UTC(),
		TriggeredAt: t.TriggeredAt(),
		Status:      string(t.Status()),
		Details:     details,
		CreatedAt:   t.CreatedAt(),
	}, nil
}

// marshalJSON stores empty maps and slices as an empty column
func marshalJSON(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case map[string]interface{}:
		if len(x) == 0 {
			return "", nil
		}
	case []string:
		if len(x) == 0 {
			return "", nil
		}
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
