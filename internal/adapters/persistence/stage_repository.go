package persistence

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// GormStageRepository implements stage.Repository using GORM
type GormStageRepository struct {
	db *gorm.DB
}

// NewGormStageRepository creates a new GORM stage repository
func NewGormStageRepository(db *gorm.DB) *GormStageRepository {
	return &GormStageRepository{db: db}
}

// FindAll returns every catalog entry ordered by sort order
func (r *GormStageRepository) FindAll(ctx context.Context) ([]*stage.Stage, error) {
	var models []StageModel
	if err := r.db.WithContext(ctx).Order("sort_order ASC").Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to load stages: %w", err)
	}

	stages := make([]*stage.Stage, 0, len(models))
	for _, m := range models {
		s, err := stage.NewStage(m.ID, stage.Code(m.Code), m.Name, m.SortOrder, m.IsActive)
		if err != nil {
			return nil, fmt.Errorf("invalid stage row %d: %w", m.ID, err)
		}
		stages = append(stages, s)
	}
	return stages, nil
}

// Save inserts or updates a catalog entry
func (r *GormStageRepository) Save(ctx context.Context, s *stage.Stage) error {
	model := &StageModel{
		ID:        s.ID(),
		Code:      string(s.Code()),
		Name:      s.Name(),
		SortOrder: s.SortOrder(),
		IsActive:  s.IsActive(),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save stage %s: %w", s.Code(), err)
	}
	return nil
}

// LoadCatalog builds the stage registry and the full id/code index from the
// catalog, seeding the default stages into an empty table first
func (r *GormStageRepository) LoadCatalog(ctx context.Context) (*stage.Registry, *StageCodes, error) {
	stages, err := r.FindAll(ctx)
	if err != nil {
		return nil, nil, err
	}

	if len(stages) == 0 {
		stages = stage.DefaultStages()
		for _, s := range stages {
			if err := r.Save(ctx, s); err != nil {
				return nil, nil, err
			}
		}
	}

	registry, err := stage.NewRegistry(stages)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid stage catalog: %w", err)
	}
	return registry, NewStageCodes(stages), nil
}
