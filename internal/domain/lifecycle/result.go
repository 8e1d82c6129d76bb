package lifecycle

import (
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// FailureReason names why a single crop's transition did not happen
type FailureReason string

const (
	ReasonNoNextStage     FailureReason = "NoNextStage"
	ReasonNoPreviousStage FailureReason = "NoPreviousStage"
	ReasonMissingReason   FailureReason = "MissingReason"
	ReasonUnknownCrop     FailureReason = "UnknownCrop"
	ReasonStaleState      FailureReason = "StaleState"
	ReasonPersistence     FailureReason = "PersistenceError"
)

// FailedCrop is one entry of an audit row's failedCrops list
type FailedCrop struct {
	CropID string        `json:"crop_id"`
	Reason FailureReason `json:"reason"`
	Detail string        `json:"detail,omitempty"`
}

// Outcome is the per-crop result of a transition call
type Outcome struct {
	CropID    string      `json:"crop_id"`
	Succeeded bool        `json:"succeeded"`
	From      stage.Code  `json:"from,omitempty"`
	To        stage.Code  `json:"to,omitempty"`
	Failure   *FailedCrop `json:"failure,omitempty"`
}

// Result summarizes a transition call. A call where every crop failed is
// still a valid result, not an error.
type Result struct {
	TransitionID   string           `json:"transition_id"`
	Type           TransitionType   `json:"type"`
	CropCount      int              `json:"crop_count"`
	SucceededCount int              `json:"succeeded_count"`
	FailedCount    int              `json:"failed_count"`
	FailedCrops    []FailedCrop     `json:"failed_crops"`
	Outcomes       []Outcome        `json:"outcomes"`
	Warnings       []shared.Warning `json:"warnings,omitempty"`
}

// NewResult starts an empty result for a call of the given type
func NewResult(t TransitionType) *Result {
	return &Result{
		Type:        t,
		FailedCrops: []FailedCrop{},
		Outcomes:    []Outcome{},
	}
}

// Succeed records a crop that moved from one stage to another
func (r *Result) Succeed(cropID string, from, to stage.Code) {
	r.CropCount++
	r.SucceededCount++
	r.Outcomes = append(r.Outcomes, Outcome{CropID: cropID, Succeeded: true, From: from, To: to})
}

// Fail records a crop that did not move
func (r *Result) Fail(cropID string, from stage.Code, reason FailureReason, detail string) {
	f := FailedCrop{CropID: cropID, Reason: reason, Detail: detail}
	r.CropCount++
	r.FailedCount++
	r.FailedCrops = append(r.FailedCrops, f)
	r.Outcomes = append(r.Outcomes, Outcome{CropID: cropID, From: from, Failure: &f})
}

// Warn appends non-blocking validation warnings
func (r *Result) Warn(w ...shared.Warning) {
	r.Warnings = append(r.Warnings, w...)
}

// StagesMoved returns the distinct from and to stages of succeeded crops.
// Audit rows record a single pair only when the call was uniform.
func (r *Result) StagesMoved() (from, to []stage.Code) {
	seenFrom := map[stage.Code]bool{}
	seenTo := map[stage.Code]bool{}
	for _, o := range r.Outcomes {
		if !o.Succeeded {
			continue
		}
		if !seenFrom[o.From] {
			seenFrom[o.From] = true
			from = append(from, o.From)
		}
		if !seenTo[o.To] {
			seenTo[o.To] = true
			to = append(to, o.To)
		}
	}
	return from, to
}
