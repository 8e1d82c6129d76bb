package shared

import "fmt"

// WarningKind classifies a non-blocking validation finding
type WarningKind string

const (
	WarningRecipeParameterMissing WarningKind = "RecipeParameterMissing"
	WarningWateringSuspended      WarningKind = "WateringSuspended"
	WarningBatchDivergence        WarningKind = "BatchDivergence"
	WarningMissingStageTimestamp  WarningKind = "MissingStageTimestamp"
	WarningLegacyCropWithoutBatch WarningKind = "LegacyCropWithoutBatch"
)

// Warning is a validation finding that never blocks an operation
type Warning struct {
	Kind    WarningKind `json:"kind"`
	CropID  string      `json:"crop_id,omitempty"`
	Message string      `json:"message"`
}

// NewWarning creates a warning with a formatted message
func NewWarning(kind WarningKind, cropID string, format string, args ...interface{}) Warning {
	return Warning{
		Kind:    kind,
		CropID:  cropID,
		Message: fmt.Sprintf(format, args...),
	}
}

func (w Warning) String() string {
	if w.CropID == "" {
		return fmt.Sprintf("%s: %s", w.Kind, w.Message)
	}
	return fmt.Sprintf("%s [%s]: %s", w.Kind, w.CropID, w.Message)
}
