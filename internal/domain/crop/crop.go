package crop

import (
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// Crop is one tray of a recipe moving through the growth stages.
//
// Invariants:
//   - the entry timestamp of the current stage is always set
//   - new crops always belong to a batch; a nil batch only appears on legacy rows
//   - version increases by one on every persisted mutation
type Crop struct {
	id                  string
	batchID             *string
	recipeID            string
	trayNumber          int
	currentStage        stage.Code
	timestamps          stage.Timestamps
	wateringSuspendedAt *time.Time
	notes               string
	version             int
	createdAt           time.Time
}

// NewCrop creates a crop in its initial stage, entered at the given time
func NewCrop(id, batchID, recipeID string, trayNumber int, initial *stage.Stage, at time.Time) (*Crop, error) {
	if id == "" {
		return nil, fmt.Errorf("crop id cannot be empty")
	}
	if batchID == "" {
		return nil, fmt.Errorf("crop %s: batch id is required for new crops", id)
	}
	if recipeID == "" {
		return nil, fmt.Errorf("crop %s: recipe id cannot be empty", id)
	}
	if trayNumber <= 0 {
		return nil, fmt.Errorf("crop %s: tray number must be positive", id)
	}
	if initial == nil || initial.IsTerminal() {
		return nil, fmt.Errorf("crop %s: invalid initial stage", id)
	}

	b := batchID
	return &Crop{
		id:           id,
		batchID:      &b,
		recipeID:     recipeID,
		trayNumber:   trayNumber,
		currentStage: initial.Code(),
		timestamps:   stage.Timestamps{}.With(initial.Code(), &at),
		version:      1,
		createdAt:    at,
	}, nil
}

// ReconstructCrop rebuilds a crop from persistence
func ReconstructCrop(
	id string,
	batchID *string,
	recipeID string,
	trayNumber int,
	currentStage stage.Code,
	timestamps stage.Timestamps,
	wateringSuspendedAt *time.Time,
	notes string,
	version int,
	createdAt time.Time,
) *Crop {
	return &Crop{
		id:                  id,
		batchID:             batchID,
		recipeID:            recipeID,
		trayNumber:          trayNumber,
		currentStage:        currentStage,
		timestamps:          timestamps,
		wateringSuspendedAt: wateringSuspendedAt,
		notes:               notes,
		version:             version,
		createdAt:           createdAt,
	}
}

// Getters

func (c *Crop) ID() string                        { return c.id }
func (c *Crop) BatchID() *string                  { return c.batchID }
func (c *Crop) RecipeID() string                  { return c.recipeID }
func (c *Crop) TrayNumber() int                   { return c.trayNumber }
func (c *Crop) CurrentStage() stage.Code          { return c.currentStage }
func (c *Crop) Timestamps() stage.Timestamps      { return c.timestamps }
func (c *Crop) WateringSuspendedAt() *time.Time   { return c.wateringSuspendedAt }
func (c *Crop) Notes() string                     { return c.notes }
func (c *Crop) Version() int                      { return c.version }
func (c *Crop) CreatedAt() time.Time              { return c.createdAt }
func (c *Crop) IsWateringSuspended() bool         { return c.wateringSuspendedAt != nil }
func (c *Crop) HasBatch() bool                    { return c.batchID != nil }
func (c *Crop) EnteredCurrentStageAt() *time.Time { return c.timestamps.Get(c.currentStage) }

// InBatch reports whether the crop belongs to the given batch
func (c *Crop) InBatch(batchID string) bool {
	return c.batchID != nil && *c.batchID == batchID
}

// Clone returns an independent copy, used to plan a change without touching the snapshot
func (c *Crop) Clone() *Crop {
	cp := *c
	if c.batchID != nil {
		b := *c.batchID
		cp.batchID = &b
	}
	if c.wateringSuspendedAt != nil {
		w := *c.wateringSuspendedAt
		cp.wateringSuspendedAt = &w
	}
	return &cp
}

// EnterStage moves the crop forward into next, stamping its entry time
func (c *Crop) EnterStage(next *stage.Stage, at time.Time) {
	c.currentStage = next.Code()
	c.timestamps = c.timestamps.With(next.Code(), &at)
}

// ReturnToStage moves the crop back into prev and clears the timestamp of the
// stage it leaves. It returns the entry time of prev; when prev has no recorded
// entry it is stamped with at and restamped is true.
func (c *Crop) ReturnToStage(prev *stage.Stage, at time.Time) (enteredAt time.Time, restamped bool) {
	c.timestamps = c.timestamps.With(c.currentStage, nil)
	c.currentStage = prev.Code()

	if ts := c.timestamps.Get(prev.Code()); ts != nil {
		return *ts, false
	}
	c.timestamps = c.timestamps.With(prev.Code(), &at)
	return at, true
}

// SuspendWatering marks the crop as no longer watered.
// Returns false when watering was already suspended; the first timestamp wins.
func (c *Crop) SuspendWatering(at time.Time) bool {
	if c.wateringSuspendedAt != nil {
		return false
	}
	c.wateringSuspendedAt = &at
	return true
}

// ResumeWatering clears the suspension
func (c *Crop) ResumeWatering() {
	c.wateringSuspendedAt = nil
}

func (c *Crop) String() string {
	return fmt.Sprintf("Crop[%s, tray=%d, stage=%s, v%d]", c.id, c.trayNumber, c.currentStage, c.version)
}
