package timing

import (
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// Input is everything the calculator needs; it reads no other state.
type Input struct {
	CropID     string
	Stage      stage.Code
	Timestamps stage.Timestamps
	Recipe     recipe.Parameters
	Now        time.Time
}

// Phase is the derived timing of a crop or batch at a point in time.
// Nothing here is ever persisted; it is recomputed on every read.
type Phase struct {
	StageAgeMinutes int64  `json:"stage_age_minutes"`
	StageAgeDisplay string `json:"stage_age_display"`

	// TimeToNextStageMinutes is nil when the recipe lacks the stage duration
	TimeToNextStageMinutes *int64 `json:"time_to_next_stage_minutes,omitempty"`
	TimeToNextStageDisplay string `json:"time_to_next_stage_display"`

	TotalAgeMinutes int64  `json:"total_age_minutes"`
	TotalAgeDisplay string `json:"total_age_display"`

	ExpectedHarvestAt *time.Time `json:"expected_harvest_at,omitempty"`

	Warnings []shared.Warning `json:"warnings,omitempty"`
}

// Overdue reports whether the crop has spent its full stage duration
func (p Phase) Overdue() bool {
	return p.TimeToNextStageMinutes != nil && *p.TimeToNextStageMinutes <= 0
}

// Calculate derives stage age, time to next stage, total age and expected harvest
func Calculate(in Input) Phase {
	var phase Phase

	enteredAt := in.Timestamps.Get(in.Stage)
	if enteredAt != nil {
		phase.StageAgeMinutes = minutesBetween(*enteredAt, in.Now)
	} else {
		phase.Warnings = append(phase.Warnings, shared.NewWarning(
			shared.WarningMissingStageTimestamp, in.CropID,
			"no entry timestamp recorded for stage %s", in.Stage))
	}
	phase.StageAgeDisplay = FormatMinutes(phase.StageAgeMinutes)

	switch {
	case in.Stage == stage.CodeHarvested:
		zero := int64(0)
		phase.TimeToNextStageMinutes = &zero
		phase.TimeToNextStageDisplay = DisplayHarvested
	default:
		duration, ok := in.Recipe.StageDuration(in.Stage)
		if !ok {
			phase.Warnings = append(phase.Warnings, shared.NewWarning(
				shared.WarningRecipeParameterMissing, in.CropID,
				"recipe has no duration for stage %s", in.Stage))
			phase.TimeToNextStageDisplay = DisplayUnknown
			break
		}
		if enteredAt == nil {
			phase.TimeToNextStageDisplay = DisplayUnknown
			break
		}
		remaining := minutesBetween(in.Now, enteredAt.Add(duration))
		phase.TimeToNextStageMinutes = &remaining
		phase.TimeToNextStageDisplay = FormatCountdown(remaining)
	}

	if earliest := in.Timestamps.Earliest(); earliest != nil {
		phase.TotalAgeMinutes = minutesBetween(*earliest, in.Now)
	}
	phase.TotalAgeDisplay = FormatMinutes(phase.TotalAgeMinutes)

	phase.ExpectedHarvestAt = ExpectedHarvestAt(in.Timestamps, in.Recipe)

	return phase
}

// ExpectedHarvestAt is the earliest growing-stage timestamp plus the grow days
// (germination + blackout + light). When any of those is missing it falls back
// to daysToMaturity, and to nil when that is missing too.
func ExpectedHarvestAt(ts stage.Timestamps, params recipe.Parameters) *time.Time {
	earliest := ts.Earliest()
	if earliest == nil {
		return nil
	}

	growDays, ok := params.GrowDays()
	if !ok {
		if params.DaysToMaturity == nil {
			return nil
		}
		growDays = *params.DaysToMaturity
	}

	at := earliest.Add(daysToDuration(growDays))
	return &at
}

// minutesBetween returns whole minutes from a to b, truncated toward zero
func minutesBetween(a, b time.Time) int64 {
	return int64(b.Sub(a) / time.Minute)
}

func daysToDuration(days float64) time.Duration {
	return time.Duration(days * 24 * float64(time.Hour))
}
