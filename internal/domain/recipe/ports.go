package recipe

import "context"

// Repository provides read access to recipe parameters owned by the catalog
type Repository interface {
	// FindByID retrieves a recipe by ID
	FindByID(ctx context.Context, id string) (*Recipe, error)

	// FindByVariety retrieves the active recipe of a variety
	FindByVariety(ctx context.Context, varietyID string) (*Recipe, error)

	// Save inserts or updates a recipe (catalog sync and tests)
	Save(ctx context.Context, r *Recipe) error
}

// LotAvailability answers the inventory precondition for new batches
type LotAvailability interface {
	// IsDepleted reports whether the recipe's seed lot is depleted
	IsDepleted(ctx context.Context, recipeID string) (bool, error)
}
