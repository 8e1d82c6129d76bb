package scheduling

import (
	"context"
	"time"
)

// Repository persists crop tasks
type Repository interface {
	// FindByID retrieves a task by ID
	FindByID(ctx context.Context, id string) (*CropTask, error)

	// FindDue retrieves pending tasks with scheduledAt <= now, oldest first.
	// limit <= 0 means no limit.
	FindDue(ctx context.Context, now time.Time, limit int) ([]*CropTask, error)

	// FindByCrop retrieves all tasks of a crop ordered by scheduledAt
	FindByCrop(ctx context.Context, cropID string) ([]*CropTask, error)

	// UpdateFrom persists a status change only if the stored status still equals from.
	// Returns false when another writer moved the task first.
	UpdateFrom(ctx context.Context, task *CropTask, from TaskStatus) (bool, error)

	// EnsureScheduled inserts the tasks whose key is not stored yet and
	// returns how many were created
	EnsureScheduled(ctx context.Context, tasks []*CropTask) (int, error)
}
