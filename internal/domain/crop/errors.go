package crop

import "fmt"

// ErrCropNotFound is returned when a referenced crop does not exist
type ErrCropNotFound struct {
	CropID string
}

func (e *ErrCropNotFound) Error() string {
	return fmt.Sprintf("crop not found: %s", e.CropID)
}

// ErrBatchNotFound is returned when a referenced batch does not exist
type ErrBatchNotFound struct {
	BatchID string
}

func (e *ErrBatchNotFound) Error() string {
	return fmt.Sprintf("batch not found: %s", e.BatchID)
}

// ErrVersionConflict is returned when a crop changed since it was read
type ErrVersionConflict struct {
	CropID          string
	ExpectedVersion int
}

func (e *ErrVersionConflict) Error() string {
	return fmt.Sprintf("crop %s was modified concurrently (expected version %d)", e.CropID, e.ExpectedVersion)
}
