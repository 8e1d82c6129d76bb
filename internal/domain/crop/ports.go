package crop

import (
	"context"
)

// Repository reads crops, batches and stage history.
// Writes go through the lifecycle store so that a crop, its history and its
// tasks always change together.
type Repository interface {
	// FindCrop retrieves a crop by ID
	FindCrop(ctx context.Context, id string) (*Crop, error)

	// FindCrops retrieves the crops that exist among ids; missing IDs are omitted
	FindCrops(ctx context.Context, ids []string) ([]*Crop, error)

	// FindCropsByBatch retrieves all crops of a batch ordered by tray number
	FindCropsByBatch(ctx context.Context, batchID string) ([]*Crop, error)

	// FindGrowingCrops retrieves every crop not yet in the terminal stage
	FindGrowingCrops(ctx context.Context) ([]*Crop, error)

	// FindBatch retrieves a batch with its member crop IDs
	FindBatch(ctx context.Context, id string) (*Batch, error)

	// FindHistory retrieves a crop's stage history ordered by entry time
	FindHistory(ctx context.Context, cropID string) ([]*HistoryEntry, error)

	// FindOpenHistory retrieves the crop's open history entry, nil when there is none
	FindOpenHistory(ctx context.Context, cropID string) (*HistoryEntry, error)
}
