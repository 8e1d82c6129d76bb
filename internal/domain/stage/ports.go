package stage

import "context"

// Repository handles persistence of the stage catalog
type Repository interface {
	// FindAll returns every catalog entry, active or not
	FindAll(ctx context.Context) ([]*Stage, error)

	// Save inserts or updates a catalog entry
	Save(ctx context.Context, stage *Stage) error
}
