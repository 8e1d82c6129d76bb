package persistence

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// GormRecipeRepository implements recipe.Repository and recipe.LotAvailability using GORM
type GormRecipeRepository struct {
	db    *gorm.DB
	clock shared.Clock
}

// NewGormRecipeRepository creates a new GORM recipe repository
func NewGormRecipeRepository(db *gorm.DB, clock shared.Clock) *GormRecipeRepository {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &GormRecipeRepository{db: db, clock: clock}
}

// FindByID retrieves a recipe by ID
func (r *GormRecipeRepository) FindByID(ctx context.Context, id string) (*recipe.Recipe, error) {
	var model RecipeModel
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &recipe.ErrRecipeNotFound{RecipeID: id}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe: %w", err)
	}
	return modelToRecipe(&model)
}

// FindByVariety retrieves the active recipe of a variety
func (r *GormRecipeRepository) FindByVariety(ctx context.Context, varietyID string) (*recipe.Recipe, error) {
	var model RecipeModel
	err := r.db.WithContext(ctx).
		Where("variety_id = ? AND is_active = ?", varietyID, true).
		Order("updated_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &recipe.ErrRecipeNotFound{RecipeID: "variety:" + varietyID}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find recipe for variety %s: %w", varietyID, err)
	}
	return modelToRecipe(&model)
}

// Save inserts or updates a recipe
func (r *GormRecipeRepository) Save(ctx context.Context, rec *recipe.Recipe) error {
	p := rec.Parameters()
	model := &RecipeModel{
		ID:                 rec.ID(),
		VarietyID:          rec.VarietyID(),
		Name:               rec.Name(),
		SeedSoakHours:      p.SeedSoakHours,
		GerminationDays:    p.GerminationDays,
		BlackoutDays:       p.BlackoutDays,
		LightDays:          p.LightDays,
		DaysToMaturity:     p.DaysToMaturity,
		ExpectedYieldGrams: p.ExpectedYieldGrams,
		BufferPercentage:   p.BufferPercentage,
		SuspendWaterHours:  p.SuspendWaterHours,
		SeedLotDepleted:    rec.SeedLotDepleted(),
		IsActive:           true,
		UpdatedAt:          r.clock.Now(),
	}
	if err := r.db.WithContext(ctx).Save(model).Error; err != nil {
		return fmt.Errorf("failed to save recipe: %w", err)
	}
	return nil
}

// IsDepleted reports the mirrored seed-lot depletion flag
func (r *GormRecipeRepository) IsDepleted(ctx context.Context, recipeID string) (bool, error) {
	var model RecipeModel
	err := r.db.WithContext(ctx).Select("seed_lot_depleted").Where("id = ?", recipeID).First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, &recipe.ErrRecipeNotFound{RecipeID: recipeID}
	}
	if err != nil {
		return false, fmt.Errorf("failed to read seed lot state: %w", err)
	}
	return model.SeedLotDepleted, nil
}

// SetLotDepleted mirrors an inventory depletion event into the read model
func (r *GormRecipeRepository) SetLotDepleted(ctx context.Context, recipeID string, depleted bool) error {
	result := r.db.WithContext(ctx).Model(&RecipeModel{}).
		Where("id = ?", recipeID).
		Updates(map[string]interface{}{"seed_lot_depleted": depleted, "updated_at": r.clock.Now()})
	if result.Error != nil {
		return fmt.Errorf("failed to update seed lot state: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return &recipe.ErrRecipeNotFound{RecipeID: recipeID}
	}
	return nil
}

func modelToRecipe(m *RecipeModel) (*recipe.Recipe, error) {
	return recipe.NewRecipe(m.ID, m.VarietyID, m.Name, recipe.Parameters{
		SeedSoakHours:      m.SeedSoakHours,
		GerminationDays:    m.GerminationDays,
		BlackoutDays:       m.BlackoutDays,
		LightDays:          m.LightDays,
		DaysToMaturity:     m.DaysToMaturity,
		ExpectedYieldGrams: m.ExpectedYieldGrams,
		BufferPercentage:   m.BufferPercentage,
		SuspendWaterHours:  m.SuspendWaterHours,
	}, m.SeedLotDepleted)
}
