package lifecycle

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// TransitionType is the kind of operation an audit row summarizes
type TransitionType string

const (
	TransitionAdvance     TransitionType = "advance"
	TransitionRevert      TransitionType = "revert"
	TransitionBulkAdvance TransitionType = "bulk_advance"
	TransitionBulkRevert  TransitionType = "bulk_revert"
)

// IsRevert reports whether the type moves crops backwards
func (t TransitionType) IsRevert() bool {
	return t == TransitionRevert || t == TransitionBulkRevert
}

// IsBulk reports whether the crop set was resolved from a batch
func (t TransitionType) IsBulk() bool {
	return t == TransitionBulkAdvance || t == TransitionBulkRevert
}

// ParseTransitionType parses a transition type string
func ParseTransitionType(s string) (TransitionType, error) {
	switch TransitionType(s) {
	case TransitionAdvance, TransitionRevert, TransitionBulkAdvance, TransitionBulkRevert:
		return TransitionType(s), nil
	}
	return "", fmt.Errorf("invalid transition type: %s", s)
}

// Metadata keys written on audit rows
const (
	MetadataValidationWarnings = "validation_warnings"
	MetadataFromStages         = "from_stages"
	MetadataChunkCount         = "chunk_count"
)

// Transition is the append-only audit row written once per transition call.
// It has no mutators; every field is fixed at construction.
type Transition struct {
	id             string
	transitionType TransitionType
	batchID        *string
	cropCount      int
	fromStage      *stage.Code
	toStage        *stage.Code
	transitionAt   time.Time
	recordedAt     time.Time
	userID         *string
	reason         *string
	succeededCount int
	failedCount    int
	failedCrops    []FailedCrop
	metadata       map[string]interface{}
}

// TransitionSpec carries the inputs of an audit row
type TransitionSpec struct {
	Type         TransitionType
	BatchID      *string
	FromStage    *stage.Code
	ToStage      *stage.Code
	TransitionAt time.Time
	RecordedAt   time.Time
	Actor        shared.Actor
	Reason       string
	Result       *Result
	Metadata     map[string]interface{}
}

// NewTransition builds the audit row summarizing a call's result
func NewTransition(spec TransitionSpec) (*Transition, error) {
	if spec.Result == nil {
		return nil, fmt.Errorf("transition requires a result")
	}
	if _, err := ParseTransitionType(string(spec.Type)); err != nil {
		return nil, err
	}

	metadata := make(map[string]interface{}, len(spec.Metadata)+1)
	for k, v := range spec.Metadata {
		metadata[k] = v
	}
	if len(spec.Result.Warnings) > 0 {
		metadata[MetadataValidationWarnings] = spec.Result.Warnings
	}

	var reason *string
	if spec.Reason != "" {
		r := spec.Reason
		reason = &r
	}

	failed := make([]FailedCrop, len(spec.Result.FailedCrops))
	copy(failed, spec.Result.FailedCrops)

	return &Transition{
		id:             uuid.New().String(),
		transitionType: spec.Type,
		batchID:        spec.BatchID,
		cropCount:      spec.Result.CropCount,
		fromStage:      spec.FromStage,
		toStage:        spec.ToStage,
		transitionAt:   spec.TransitionAt,
		recordedAt:     spec.RecordedAt,
		userID:         spec.Actor.UserID(),
		reason:         reason,
		succeededCount: spec.Result.SucceededCount,
		failedCount:    spec.Result.FailedCount,
		failedCrops:    failed,
		metadata:       metadata,
	}, nil
}

// ReconstructTransition rebuilds an audit row from persistence
func ReconstructTransition(
	id string,
	transitionType TransitionType,
	batchID *string,
	cropCount int,
	fromStage, toStage *stage.Code,
	transitionAt, recordedAt time.Time,
	userID, reason *string,
	succeededCount, failedCount int,
	failedCrops []FailedCrop,
	metadata map[string]interface{},
) *Transition {
	if metadata == nil {
		metadata = make(map[string]interface{})
	}
	return &Transition{
		id:             id,
		transitionType: transitionType,
		batchID:        batchID,
		cropCount:      cropCount,
		fromStage:      fromStage,
		toStage:        toStage,
		transitionAt:   transitionAt,
		recordedAt:     recordedAt,
		userID:         userID,
		reason:         reason,
		succeededCount: succeededCount,
		failedCount:    failedCount,
		failedCrops:    failedCrops,
		metadata:       metadata,
	}
}

func (t *Transition) ID() string                       { return t.id }
func (t *Transition) Type() TransitionType             { return t.transitionType }
func (t *Transition) BatchID() *string                 { return t.batchID }
func (t *Transition) CropCount() int                   { return t.cropCount }
func (t *Transition) FromStage() *stage.Code           { return t.fromStage }
func (t *Transition) ToStage() *stage.Code             { return t.toStage }
func (t *Transition) TransitionAt() time.Time          { return t.transitionAt }
func (t *Transition) RecordedAt() time.Time            { return t.recordedAt }
func (t *Transition) UserID() *string                  { return t.userID }
func (t *Transition) Reason() *string                  { return t.reason }
func (t *Transition) SucceededCount() int              { return t.succeededCount }
func (t *Transition) FailedCount() int                 { return t.failedCount }
func (t *Transition) Metadata() map[string]interface{} { return t.metadata }

// FailedCrops returns a copy of the per-crop failures
func (t *Transition) FailedCrops() []FailedCrop {
	out := make([]FailedCrop, len(t.failedCrops))
	copy(out, t.failedCrops)
	return out
}

func (t *Transition) String() string {
	return fmt.Sprintf("Transition[%s, %s, ok=%d, failed=%d]", t.id, t.transitionType, t.succeededCount, t.failedCount)
}
