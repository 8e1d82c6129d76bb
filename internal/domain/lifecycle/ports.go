package lifecycle

import (
	"context"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
)

// BatchCreation is a new batch with its crops, opening history rows and tasks
type BatchCreation struct {
	Batch   *crop.Batch
	Crops   []*crop.Crop
	History []*crop.HistoryEntry
	Tasks   []*scheduling.CropTask
}

// TransitionQuery filters the audit feed
type TransitionQuery struct {
	BatchID *string
	Since   *time.Time
	Limit   int
}

// Store is the write side of the crop lifecycle
type Store interface {
	// CreateBatch persists a batch and everything created with it in one transaction
	CreateBatch(ctx context.Context, creation BatchCreation) error

	// ApplyChange persists one crop's transition in one transaction and returns
	// how many pending tasks it dismissed.
	// Returns *crop.ErrVersionConflict when the crop moved since it was read.
	ApplyChange(ctx context.Context, change *StageChange) (dismissed int, err error)

	// ApplyTrigger persists a task moved to triggered together with its effect
	// on the crop: suspend_watering stamps wateringSuspendedAt when unset.
	// Returns false when the stored task was no longer pending.
	ApplyTrigger(ctx context.Context, task *scheduling.CropTask) (bool, error)

	// AppendTransition writes an audit row
	AppendTransition(ctx context.Context, t *Transition) error

	// ListTransitions reads the audit feed, newest first
	ListTransitions(ctx context.Context, q TransitionQuery) ([]*Transition, error)
}
