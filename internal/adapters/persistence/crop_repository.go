package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// GormCropRepository implements crop.Repository using GORM
type GormCropRepository struct {
	db     *gorm.DB
	stages *StageCodes
}

// NewGormCropRepository creates a new GORM crop repository
func NewGormCropRepository(db *gorm.DB, stages *StageCodes) *GormCropRepository {
	return &GormCropRepository{db: db, stages: stages}
}

// FindCrop retrieves a crop by ID
func (r *GormCropRepository) FindCrop(ctx context.Context, id string) (*crop.Crop, error) {
	var model CropModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &crop.ErrCropNotFound{CropID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find crop: %w", err)
	}
	return r.modelToCrop(&model)
}

// FindCrops retrieves the crops that exist among ids
func (r *GormCropRepository) FindCrops(ctx context.Context, ids []string) ([]*crop.Crop, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var models []CropModel
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to find crops: %w", err)
	}
	return r.modelsToCrops(models)
}

// FindCropsByBatch retrieves all crops of a batch ordered by tray number
func (r *GormCropRepository) FindCropsByBatch(ctx context.Context, batchID string) ([]*crop.Crop, error) {
	var models []CropModel
	err := r.db.WithContext(ctx).
		Where("batch_id = ?", batchID).
		Order("tray_number ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find crops for batch %s: %w", batchID, err)
	}
	return r.modelsToCrops(models)
}

// FindGrowingCrops retrieves every crop not yet harvested
func (r *GormCropRepository) FindGrowingCrops(ctx context.Context) ([]*crop.Crop, error) {
	terminalID, err := r.stages.IDOf(stage.CodeHarvested)
	if err != nil {
		return nil, err
	}
	var models []CropModel
	err = r.db.WithContext(ctx).
		Where("current_stage_id <> ?", terminalID).
		Order("created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find growing crops: %w", err)
	}
	return r.modelsToCrops(models)
}

// FindBatch retrieves a batch with its member crop IDs
func (r *GormCropRepository) FindBatch(ctx context.Context, id string) (*crop.Batch, error) {
	var model BatchModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &crop.ErrBatchNotFound{BatchID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find batch: %w", err)
	}

	var cropIDs []string
	err = r.db.WithContext(ctx).Model(&CropModel{}).
		Where("batch_id = ?", id).
		Order("tray_number ASC").
		Pluck("id", &cropIDs).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load batch members: %w", err)
	}

	return crop.ReconstructBatch(model.ID, model.RecipeID, model.OrderID, model.CropPlanID, model.CreatedAt, cropIDs), nil
}

// FindHistory retrieves a crop's stage history ordered by entry time
func (r *GormCropRepository) FindHistory(ctx context.Context, cropID string) ([]*crop.HistoryEntry, error) {
	var models []CropStageHistoryModel
	err := r.db.WithContext(ctx).
		Where("crop_id = ?", cropID).
		Order("entered_at ASC, created_at ASC").
		Find(&models).Error
	if err != nil {
		return nil, fmt.Errorf("failed to find stage history: %w", err)
	}

	entries := make([]*crop.HistoryEntry, 0, len(models))
	for i := range models {
		entry, err := r.modelToHistory(&models[i])
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	return entries, nil
}

// FindOpenHistory retrieves the crop's open history entry, nil when there is none
func (r *GormCropRepository) FindOpenHistory(ctx context.Context, cropID string) (*crop.HistoryEntry, error) {
	var model CropStageHistoryModel
	err := r.db.WithContext(ctx).
		Where("crop_id = ? AND exited_at IS NULL", cropID).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find open stage history: %w", err)
	}
	return r.modelToHistory(&model)
}

func (r *GormCropRepository) modelsToCrops(models []CropModel) ([]*crop.Crop, error) {
	crops := make([]*crop.Crop, 0, len(models))
	for i := range models {
		c, err := r.modelToCrop(&models[i])
		if err != nil {
			return nil, err
		}
		crops = append(crops, c)
	}
	return crops, nil
}

func (r *GormCropRepository) modelToCrop(m *CropModel) (*crop.Crop, error) {
	return modelToCrop(m, r.stages)
}

func (r *GormCropRepository) modelToHistory(m *CropStageHistoryModel) (*crop.HistoryEntry, error) {
	code, err := r.stages.CodeOf(m.StageID)
	if err != nil {
		return nil, fmt.Errorf("history row %s: %w", m.ID, err)
	}
	return crop.ReconstructHistoryEntry(m.ID, m.CropID, m.BatchID, code, m.EnteredAt, m.ExitedAt, m.Notes, m.CreatedBy), nil
}

func modelToCrop(m *CropModel, stages *StageCodes) (*crop.Crop, error) {
	code, err := stages.CodeOf(m.CurrentStageID)
	if err != nil {
		return nil, fmt.Errorf("crop %s: %w", m.ID, err)
	}
	ts := stage.Timestamps{
		Soaking:     m.SoakingAt,
		Germination: m.GerminationAt,
		Blackout:    m.BlackoutAt,
		Light:       m.LightAt,
		Harvested:   m.HarvestedAt,
	}
	return crop.ReconstructCrop(m.ID, m.BatchID, m.RecipeID, m.TrayNumber, code, ts,
		m.WateringSuspendedAt, m.Notes, m.Version, m.CreatedAt), nil
}

func cropToModel(c *crop.Crop, stages *StageCodes, updatedAt time.Time) (*CropModel, error) {
	stageID, err := stages.IDOf(c.CurrentStage())
	if err != nil {
		return nil, fmt.Errorf("crop %s: %w", c.ID(), err)
	}
	ts := c.Timestamps()
	return &CropModel{
		ID:                  c.ID(),
		BatchID:             c.BatchID(),
		RecipeID:            c.RecipeID(),
		TrayNumber:          c.TrayNumber(),
		CurrentStageID:      stageID,
		SoakingAt:           ts.Soaking,
		GerminationAt:       ts.Germination,
		BlackoutAt:          ts.Blackout,
		LightAt:             ts.Light,
		HarvestedAt:         ts.Harvested,
		WateringSuspendedAt: c.WateringSuspendedAt(),
		Notes:               c.Notes(),
		Version:             c.Version(),
		CreatedAt:           c.CreatedAt(),
		UpdatedAt:           updatedAt,
	}, nil
}

func historyToModel(h *crop.HistoryEntry, stages *StageCodes, createdAt time.Time) (*CropStageHistoryModel, error) {
	stageID, err := stages.IDOf(h.Stage())
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", h.ID(), err)
	}
	return &CropStageHistoryModel{
		ID:        h.ID(),
		CropID:    h.CropID(),
		BatchID:   h.BatchID(),
		StageID:   stageID,
		EnteredAt: h.EnteredAt(),
		ExitedAt:  h.ExitedAt(),
		Notes:     h.Notes(),
		CreatedBy: h.CreatedBy(),
		CreatedAt: createdAt,
	}, nil
}
