package persistence

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
)

// GormPlanRepository implements planning.Repository using GORM
type GormPlanRepository struct {
	db *gorm.DB
}

// NewGormPlanRepository creates a new GORM crop plan repository
func NewGormPlanRepository(db *gorm.DB) *GormPlanRepository {
	return &GormPlanRepository{db: db}
}

// FindByID retrieves a plan by ID
func (r *GormPlanRepository) FindByID(ctx context.Context, id string) (*planning.AggregatedCropPlan, error) {
	var model CropPlanModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &planning.ErrPlanNotFound{PlanID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find crop plan: %w", err)
	}
	return modelToPlan(&model)
}

// FindByKey retrieves the plan of a (variety, harvest date); nil when none exists
func (r *GormPlanRepository) FindByKey(ctx context.Context, varietyID string, harvestDate time.Time) (*planning.AggregatedCropPlan, error) {
	var model CropPlanModel
	err := r.db.WithContext(ctx).
		Where("variety_id = ? AND harvest_date = ?", varietyID, planning.NormalizeDate(harvestDate)).
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find crop plan: %w", err)
	}
	return modelToPlan(&model)
}

// Save inserts or updates a plan
func (r *GormPlanRepository) Save(ctx context.Context, p *planning.AggregatedCropPlan) error {
	model, err := planToModel(p)
	if err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save crop plan: %w", err)
	}
	return nil
}

// List retrieves plans ordered by harvest date, optionally filtered by status
func (r *GormPlanRepository) List(ctx context.Context, status *planning.PlanStatus) ([]*planning.AggregatedCropPlan, error) {
	query := r.db.WithContext(ctx).Order("harvest_date ASC, variety_id ASC")
	if status != nil {
		query = query.Where("status = ?", string(*status))
	}

	var models []CropPlanModel
	if err := query.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list crop plans: %w", err)
	}

	plans := make([]*planning.AggregatedCropPlan, 0, len(models))
	for i := range models {
		p, err := modelToPlan(&models[i])
		if err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, nil
}

func planToModel(p *planning.AggregatedCropPlan) (*CropPlanModel, error) {
	orderIDs, err := marshalJSON(p.OrderIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal order ids: %w", err)
	}
	orderGrams := ""
	if len(p.OrderGrams()) > 0 {
		b, err := json.Marshal(p.OrderGrams())
		if err != nil {
			return nil, fmt.Errorf("failed to marshal order grams: %w", err)
		}
		orderGrams = string(b)
	}
	details, err := marshalJSON(p.CalculationDetails())
	if err != nil {
		return nil, fmt.Errorf("failed to marshal calculation details: %w", err)
	}
	return &CropPlanModel{
		ID:                 p.ID(),
		RecipeID:           p.RecipeID(),
		VarietyID:          p.VarietyID(),
		HarvestDate:        planning.NormalizeDate(p.HarvestDate()),
		TotalGramsNeeded:   p.TotalGramsNeeded(),
		TotalTraysNeeded:   p.TotalTraysNeeded(),
		GramsPerTray:       p.GramsPerTray(),
		PlantDate:          p.PlantDate().UTC(),
		SeedSoakDate:       p.SeedSoakDate(),
		Status:             string(p.Status()),
		OrderIDs:           orderIDs,
		OrderGrams:         orderGrams,
		CalculationDetails: details,
		CreatedAt:          p.CreatedAt(),
		UpdatedAt:          p.UpdatedAt(),
	}, nil
}

func modelToPlan(m *CropPlanModel) (*planning.AggregatedCropPlan, error) {
	status, err := planning.ParsePlanStatus(m.Status)
	if err != nil {
		return nil, fmt.Errorf("crop plan %s: %w", m.ID, err)
	}

	var orderIDs []string
	if m.OrderIDs != "" {
		if err := json.Unmarshal([]byte(m.OrderIDs), &orderIDs); err != nil {
			return nil, fmt.Errorf("crop plan %s: failed to unmarshal order ids: %w", m.ID, err)
		}
	}
	var orderGrams map[string]float64
	if m.OrderGrams != "" {
		if err := json.Unmarshal([]byte(m.OrderGrams), &orderGrams); err != nil {
			return nil, fmt.Errorf("crop plan %s: failed to unmarshal order grams: %w", m.ID, err)
		}
	}
	var details map[string]interface{}
	if m.CalculationDetails != "" {
		if err := json.Unmarshal([]byte(m.CalculationDetails), &details); err != nil {
			return nil, fmt.Errorf("crop plan %s: failed to unmarshal calculation details: %w", m.ID, err)
		}
	}

	return planning.ReconstructPlan(
		m.ID, m.RecipeID, m.VarietyID,
		m.HarvestDate.UTC(),
		m.TotalGramsNeeded,
		m.TotalTraysNeeded,
		m.GramsPerTray,
		m.PlantDate.UTC(),
		m.SeedSoakDate,
		status,
		orderIDs,
		orderGrams,
		details,
		m.CreatedAt,
		m.UpdatedAt,
	), nil
}
