package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// GormLifecycleStore implements lifecycle.Store using GORM.
// Every write method runs in one database transaction.
type GormLifecycleStore struct {
	db     *gorm.DB
	stages *StageCodes
	clock  shared.Clock
}

// NewGormLifecycleStore creates a new lifecycle store
func NewGormLifecycleStore(db *gorm.DB, stages *StageCodes, clock shared.Clock) *GormLifecycleStore {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormLifecycleStore{db: db, stages: stages, clock: clock}
}

// CreateBatch persists a batch, its crops, their opening history rows and initial tasks
func (s *GormLifecycleStore) CreateBatch(ctx context.Context, creation lifecycle.BatchCreation) error {
	now := s.clock.Now()
	b := creation.Batch

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		batchModel := &BatchModel{
			ID:         b.ID(),
			RecipeID:   b.RecipeID(),
			OrderID:    b.OrderID(),
			CropPlanID: b.CropPlanID(),
			CreatedAt:  b.CreatedAt(),
		}
		if err := tx.Create(batchModel).Error; err != nil {
			return fmt.Errorf("failed to create batch: %w", err)
		}

		for _, c := range creation.Crops {
			model, err := cropToModel(c, s.stages, now)
			if err != nil {
				return err
			}
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to create crop %s: %w", c.ID(), err)
			}
		}

		for _, h := range creation.History {
			model, err := historyToModel(h, s.stages, now)
			if err != nil {
				return err
			}
			if err := tx.Create(model).Error; err != nil {
				return fmt.Errorf("failed to create stage history: %w", err)
			}
		}

		if _, err := insertTasks(tx, creation.Tasks); err != nil {
			return err
		}
		return nil
	})
}

// ApplyChange persists one crop's transition: the crop row guarded by its
// version, history close-out and reopen, dismissal of the exited stage's
// pending tasks and the new stage's tasks
func (s *GormLifecycleStore) ApplyChange(ctx context.Context, change *lifecycle.StageChange) (int, error) {
	now := s.clock.Now()
	c := change.Crop

	model, err := cropToModel(c, s.stages, now)
	if err != nil {
		return 0, err
	}

	dismissed := 0
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&CropModel{}).
			Where("id = ? AND version = ?", c.ID(), change.ExpectedVersion).
			Updates(map[string]interface{}{
				"current_stage_id":      model.CurrentStageID,
				"soaking_at":            model.SoakingAt,
				"germination_at":        model.GerminationAt,
				"blackout_at":           model.BlackoutAt,
				"light_at":              model.LightAt,
				"harvested_at":          model.HarvestedAt,
				"watering_suspended_at": model.WateringSuspendedAt,
				"version":               change.ExpectedVersion + 1,
				"updated_at":            now,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to update crop: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return &crop.ErrVersionConflict{CropID: c.ID(), ExpectedVersion: change.ExpectedVersion}
		}

		err := tx.Model(&CropStageHistoryModel{}).
			Where("crop_id = ? AND exited_at IS NULL", c.ID()).
			Update("exited_at", change.CloseOpenHistoryAt).Error
		if err != nil {
			return fmt.Errorf("failed to close stage history: %w", err)
		}

		if change.OpenHistory != nil {
			h, err := historyToModel(change.OpenHistory, s.stages, now)
			if err != nil {
				return err
			}
			if err := tx.Create(h).Error; err != nil {
				return fmt.Errorf("failed to open stage history: %w", err)
			}
		}

		if change.DismissStage != "" {
			n, err := dismissPending(tx, c.ID(), change.DismissStage, change.DismissAt, change.DismissReason)
			if err != nil {
				return err
			}
			dismissed = n
		}

		_, err = insertTasks(tx, change.NewTasks)
		return err
	})
	if err != nil {
		return 0, err
	}
	return dismissed, nil
}

// ApplyTrigger persists a triggered task and its crop side effect in one
// transaction, so a failed crop write leaves the task pending for redelivery
func (s *GormLifecycleStore) ApplyTrigger(ctx context.Context, task *scheduling.CropTask) (bool, error) {
	if task.TriggeredAt() == nil {
		return false, fmt.Errorf("task %s has not been triggered", task.ID())
	}

	changed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		ok, err := updateTaskFrom(tx, task, scheduling.TaskStatusPending)
		if err != nil {
			return fmt.Errorf("failed to trigger task: %w", err)
		}
		if !ok {
			return nil
		}
		if task.TaskType() == scheduling.TaskTypeSuspendWatering {
			if _, err := suspendWatering(tx, task.CropID(), *task.TriggeredAt(), s.clock.Now()); err != nil {
				return err
			}
		}
		changed = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return changed, nil
}

// suspendWatering stamps wateringSuspendedAt when unset; false if it was already set
func suspendWatering(db *gorm.DB, cropID string, at, now time.Time) (bool, error) {
	result := db.Model(&CropModel{}).
		Where("id = ? AND watering_suspended_at IS NULL", cropID).
		Updates(map[string]interface{}{
			"watering_suspended_at": at,
			"version":               gorm.Expr("version + 1"),
			"updated_at":            now,
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to suspend watering: %w", result.Error)
	}
	if result.RowsAffected == 1 {
		return true, nil
	}

	var count int64
	if err := db.Model(&CropModel{}).Where("id = ?", cropID).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check crop: %w", err)
	}
	if count == 0 {
		return false, &crop.ErrCropNotFound{CropID: cropID}
	}
	return false, nil
}

// AppendTransition writes an audit row
func (s *GormLifecycleStore) AppendTransition(ctx context.Context, t *lifecycle.Transition) error {
	model, err := s.transitionToModel(t)
	if err != nil {
		return err
	}
	if err := s.db.WithContext(ctx).Create(model).Error; err != nil {
		return fmt.Errorf("failed to append transition: %w", err)
	}
	return nil
}

// ListTransitions reads the audit feed, newest first
func (s *GormLifecycleStore) ListTransitions(ctx context.Context, q lifecycle.TransitionQuery) ([]*lifecycle.Transition, error) {
	query := s.db.WithContext(ctx).Order("recorded_at DESC, id DESC")
	if q.BatchID != nil {
		query = query.Where("batch_id = ?", *q.BatchID)
	}
	if q.Since != nil {
		query = query.Where("recorded_at >= ?", *q.Since)
	}
	if q.Limit > 0 {
		query = query.Limit(q.Limit)
	}

	var models []CropStageTransitionModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}

	out := make([]*lifecycle.Transition, 0, len(models))
	for i := range models {
		t, err := s.modelToTransition(&models[i])
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}

func (s *GormLifecycleStore) transitionToModel(t *lifecycle.Transition) (*CropStageTransitionModel, error) {
	fromID, err := s.stages.optionalID(t.FromStage())
	if err != nil {
		return nil, err
	}
	toID, err := s.stages.optionalID(t.ToStage())
	if err != nil {
		return nil, err
	}

	failed := ""
	if crops := t.FailedCrops(); len(crops) > 0 {
		b, err := json.Marshal(crops)
		if err != nil {
			return nil, fmt.Errorf("failed to marshal failed crops: %w", err)
		}
		failed = string(b)
	}
	metadata, err := marshalJSON(t.Metadata())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal transition metadata: %w", err)
	}

	return &CropStageTransitionModel{
		ID:             t.ID(),
		TransitionType: string(t.Type()),
		BatchID:        t.BatchID(),
		CropCount:      t.CropCount(),
		FromStageID:    fromID,
		ToStageID:      toID,
		TransitionAt:   t.TransitionAt(),
		RecordedAt:     t.RecordedAt(),
		UserID:         t.UserID(),
		Reason:         t.Reason(),
		SucceededCount: t.SucceededCount(),
		FailedCount:    t.FailedCount(),
		FailedCrops:    failed,
		Metadata:       metadata,
	}, nil
}

func (s *GormLifecycleStore) modelToTransition(m *CropStageTransitionModel) (*lifecycle.Transition, error) {
	transitionType, err := lifecycle.ParseTransitionType(m.TransitionType)
	if err != nil {
		return nil, fmt.Errorf("transition %s: %w", m.ID, err)
	}
	from, err := s.stages.optionalCode(m.FromStageID)
	if err != nil {
		return nil, err
	}
	to, err := s.stages.optionalCode(m.ToStageID)
	if err != nil {
		return nil, err
	}

	var failed []lifecycle.FailedCrop
	if m.FailedCrops != "" {
		if err := json.Unmarshal([]byte(m.FailedCrops), &failed); err != nil {
			return nil, fmt.Errorf("transition %s: failed to unmarshal failed crops: %w", m.ID, err)
		}
	}
	var metadata map[string]interface{}
	if m.Metadata != "" {
		if err := json.Unmarshal([]byte(m.Metadata), &metadata); err != nil {
			return nil, fmt.Errorf("transition %s: failed to unmarshal metadata: %w", m.ID, err)
		}
	}

	return lifecycle.ReconstructTransition(
		m.ID, transitionType, m.BatchID, m.CropCount, from, to,
		m.TransitionAt.UTC(), m.RecordedAt.UTC(),
		m.UserID, m.Reason,
		m.SucceededCount, m.FailedCount,
		failed, metadata,
	), nil
}
