package helpers

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/andrescamacho/microgreens-go/internal/adapters/persistence"
	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/application/setup"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// TestRepositories holds real repository instances wired to a mediator
type TestRepositories struct {
	DB         *gorm.DB
	Clock      *shared.MockClock
	Registry   *stage.Registry
	StageCodes *persistence.StageCodes
	CropRepo   *persistence.GormCropRepository
	RecipeRepo *persistence.GormRecipeRepository
	TaskRepo   *persistence.GormTaskRepository
	PlanRepo   *persistence.GormPlanRepository
	Store      *persistence.GormLifecycleStore
	Mediator   mediator.Mediator
}

// NewTestRepositories loads the stage catalog into db and wires every handler.
// The clock starts at start; a zero start uses MockClock's default.
func NewTestRepositories(db *gorm.DB, start time.Time, settings lifecycleCommands.Settings) (*TestRepositories, error) {
	ctx := context.Background()
	clock := shared.NewMockClock(start)

	registry, codes, err := persistence.NewGormStageRepository(db).LoadCatalog(ctx)
	if err != nil {
		return nil, err
	}

	repos := &TestRepositories{
		DB:         db,
		Clock:      clock,
		Registry:   registry,
		StageCodes: codes,
		CropRepo:   persistence.NewGormCropRepository(db, codes),
		RecipeRepo: persistence.NewGormRecipeRepository(db, clock),
		TaskRepo:   persistence.NewGormTaskRepository(db),
		PlanRepo:   persistence.NewGormPlanRepository(db),
		Store:      persistence.NewGormLifecycleStore(db, codes, clock),
		Mediator:   mediator.NewMediator(),
	}

	handlers := setup.NewHandlerRegistry(
		registry,
		repos.CropRepo,
		repos.RecipeRepo,
		repos.RecipeRepo,
		repos.TaskRepo,
		repos.PlanRepo,
		repos.Store,
		clock,
		settings,
	)
	if err := handlers.RegisterAll(repos.Mediator); err != nil {
		return nil, err
	}
	return repos, nil
}

// MustTestRepositories is NewTestRepositories on a fresh database, failing t on error
func MustTestRepositories(t *testing.T, start time.Time) *TestRepositories {
	t.Helper()
	repos, err := NewTestRepositories(NewTestDB(t), start, lifecycleCommands.DefaultSettings())
	if err != nil {
		t.Fatalf("failed to wire test repositories: %v", err)
	}
	return repos
}

// SeedRecipe saves a recipe with the given parameters
func (r *TestRepositories) SeedRecipe(id, varietyID string, params recipe.Parameters) (*recipe.Recipe, error) {
	rec, err := recipe.NewRecipe(id, varietyID, id, params, false)
	if err != nil {
		return nil, err
	}
	if err := r.RecipeRepo.Save(context.Background(), rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// PeaShootParams is a soaked variety with every duration defined:
// 8h soak, 2d germination, 3d blackout, 5d light, 12h suspend-water
func PeaShootParams() recipe.Parameters {
	return recipe.Parameters{
		SeedSoakHours:      8,
		GerminationDays:    recipe.Days(2),
		BlackoutDays:       recipe.Days(3),
		LightDays:          recipe.Days(5),
		DaysToMaturity:     recipe.Days(10),
		ExpectedYieldGrams: 250,
		BufferPercentage:   10,
		SuspendWaterHours:  12,
	}
}

// RadishParams is a direct-sown variety without a suspend-water offset
func RadishParams() recipe.Parameters {
	return recipe.Parameters{
		GerminationDays:    recipe.Days(1),
		BlackoutDays:       recipe.Days(2),
		LightDays:          recipe.Days(4),
		DaysToMaturity:     recipe.Days(7),
		ExpectedYieldGrams: 200,
	}
}
