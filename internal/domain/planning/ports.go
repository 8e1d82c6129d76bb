package planning

import (
	"context"
	"time"
)

// Repository persists aggregated crop plans
type Repository interface {
	// FindByID retrieves a plan by ID
	FindByID(ctx context.Context, id string) (*AggregatedCropPlan, error)

	// FindByKey retrieves the plan of a (variety, harvest date); nil when none exists
	FindByKey(ctx context.Context, varietyID string, harvestDate time.Time) (*AggregatedCropPlan, error)

	// Save inserts or updates a plan
	Save(ctx context.Context, plan *AggregatedCropPlan) error

	// List retrieves plans ordered by harvest date, optionally filtered by status
	List(ctx context.Context, status *PlanStatus) ([]*AggregatedCropPlan, error)
}
