package crop

import (
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// HistoryEntry records one stay of a crop in a stage.
// Rows are write-once apart from the single close-out of exitedAt.
type HistoryEntry struct {
	id        string
	cropID    string
	batchID   *string
	stage     stage.Code
	enteredAt time.Time
	exitedAt  *time.Time
	notes     string
	createdBy string
}

// OpenHistoryEntry starts a new open stay
func OpenHistoryEntry(id, cropID string, batchID *string, code stage.Code, enteredAt time.Time, notes, createdBy string) *HistoryEntry {
	return &HistoryEntry{
		id:        id,
		cropID:    cropID,
		batchID:   batchID,
		stage:     code,
		enteredAt: enteredAt,
		notes:     notes,
		createdBy: createdBy,
	}
}

// ReconstructHistoryEntry rebuilds an entry from persistence
func ReconstructHistoryEntry(id, cropID string, batchID *string, code stage.Code, enteredAt time.Time, exitedAt *time.Time, notes, createdBy string) *HistoryEntry {
	return &HistoryEntry{
		id:        id,
		cropID:    cropID,
		batchID:   batchID,
		stage:     code,
		enteredAt: enteredAt,
		exitedAt:  exitedAt,
		notes:     notes,
		createdBy: createdBy,
	}
}

func (h *HistoryEntry) ID() string           { return h.id }
func (h *HistoryEntry) CropID() string       { return h.cropID }
func (h *HistoryEntry) BatchID() *string     { return h.batchID }
func (h *HistoryEntry) Stage() stage.Code    { return h.stage }
func (h *HistoryEntry) EnteredAt() time.Time { return h.enteredAt }
func (h *HistoryEntry) ExitedAt() *time.Time { return h.exitedAt }
func (h *HistoryEntry) Notes() string        { return h.notes }
func (h *HistoryEntry) CreatedBy() string    { return h.createdBy }
func (h *HistoryEntry) IsOpen() bool         { return h.exitedAt == nil }

// Close sets exitedAt; an entry can be closed once
func (h *HistoryEntry) Close(at time.Time) error {
	if h.exitedAt != nil {
		return fmt.Errorf("history entry %s already closed", h.id)
	}
	h.exitedAt = &at
	return nil
}
