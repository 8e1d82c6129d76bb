package crop

import (
	"fmt"
	"time"
)

// Batch groups trays planted or soaked together under one recipe.
// It references its crops by ID only; crops are loaded separately.
type Batch struct {
	id         string
	recipeID   string
	orderID    *string
	cropPlanID *string
	createdAt  time.Time
	cropIDs    []string
}

// NewBatch creates an empty batch
func NewBatch(id, recipeID string, orderID, cropPlanID *string, createdAt time.Time) (*Batch, error) {
	if id == "" {
		return nil, fmt.Errorf("batch id cannot be empty")
	}
	if recipeID == "" {
		return nil, fmt.Errorf("batch %s: recipe id cannot be empty", id)
	}
	return &Batch{
		id:         id,
		recipeID:   recipeID,
		orderID:    orderID,
		cropPlanID: cropPlanID,
		createdAt:  createdAt,
	}, nil
}

// ReconstructBatch rebuilds a batch from persistence
func ReconstructBatch(id, recipeID string, orderID, cropPlanID *string, createdAt time.Time, cropIDs []string) *Batch {
	return &Batch{
		id:         id,
		recipeID:   recipeID,
		orderID:    orderID,
		cropPlanID: cropPlanID,
		createdAt:  createdAt,
		cropIDs:    cropIDs,
	}
}

func (b *Batch) ID() string           { return b.id }
func (b *Batch) RecipeID() string     { return b.recipeID }
func (b *Batch) OrderID() *string     { return b.orderID }
func (b *Batch) CropPlanID() *string  { return b.cropPlanID }
func (b *Batch) CreatedAt() time.Time { return b.createdAt }

// CropIDs returns a copy of the member crop IDs
func (b *Batch) CropIDs() []string {
	out := make([]string, len(b.cropIDs))
	copy(out, b.cropIDs)
	return out
}

// AddCrop registers a crop as a member; duplicates are ignored
func (b *Batch) AddCrop(cropID string) {
	for _, id := range b.cropIDs {
		if id == cropID {
			return
		}
	}
	b.cropIDs = append(b.cropIDs, cropID)
}

// Size returns the number of member crops
func (b *Batch) Size() int {
	return len(b.cropIDs)
}
