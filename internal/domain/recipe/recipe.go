package recipe

import (
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// Parameters are the growth timings of a variety.
// Day counts are optional: nil means the recipe does not define the duration,
// which is different from a zero-day stage (e.g. varieties that skip blackout).
type Parameters struct {
	SeedSoakHours      float64
	GerminationDays    *float64
	BlackoutDays       *float64
	LightDays          *float64
	DaysToMaturity     *float64
	ExpectedYieldGrams float64
	BufferPercentage   float64
	SuspendWaterHours  float64
}

// RequiresSoaking reports whether seed must be soaked before planting
func (p Parameters) RequiresSoaking() bool {
	return p.SeedSoakHours > 0
}

// StageDuration maps a stage to its recipe offset.
// Returns ok=false when the recipe lacks the duration for that stage.
// The terminal stage has a zero duration.
func (p Parameters) StageDuration(code stage.Code) (time.Duration, bool) {
	switch code {
	case stage.CodeSoaking:
		return hours(p.SeedSoakHours), true
	case stage.CodeGermination:
		return days(p.GerminationDays)
	case stage.CodeBlackout:
		return days(p.BlackoutDays)
	case stage.CodeLight:
		return days(p.LightDays)
	case stage.CodeHarvested:
		return 0, true
	default:
		return 0, false
	}
}

// GrowDays returns germination + blackout + light days.
// ok=false when any of the three is missing.
func (p Parameters) GrowDays() (float64, bool) {
	if p.GerminationDays == nil || p.BlackoutDays == nil || p.LightDays == nil {
		return 0, false
	}
	return *p.GerminationDays + *p.BlackoutDays + *p.LightDays, true
}

// SuspendWaterOffset returns how long before the end of a stage watering stops.
// ok=false when watering is never suspended.
func (p Parameters) SuspendWaterOffset() (time.Duration, bool) {
	if p.SuspendWaterHours <= 0 {
		return 0, false
	}
	return hours(p.SuspendWaterHours), true
}

func hours(h float64) time.Duration {
	return time.Duration(h * float64(time.Hour))
}

func days(d *float64) (time.Duration, bool) {
	if d == nil {
		return 0, false
	}
	return time.Duration(*d * 24 * float64(time.Hour)), true
}

// Days is a helper for building optional day counts
func Days(d float64) *float64 {
	return &d
}

// Recipe is the read-only growth profile of a variety.
// Its lifecycle is owned by the catalog; this engine never mutates it.
type Recipe struct {
	id              string
	varietyID       string
	name            string
	params          Parameters
	seedLotDepleted bool
}

// NewRecipe creates a recipe read model
func NewRecipe(id, varietyID, name string, params Parameters, seedLotDepleted bool) (*Recipe, error) {
	if id == "" {
		return nil, fmt.Errorf("recipe id cannot be empty")
	}
	if varietyID == "" {
		return nil, fmt.Errorf("recipe %s: variety id cannot be empty", id)
	}
	if params.SeedSoakHours < 0 || params.SuspendWaterHours < 0 || params.BufferPercentage < 0 {
		return nil, fmt.Errorf("recipe %s: negative timing parameters", id)
	}
	return &Recipe{
		id:              id,
		varietyID:       varietyID,
		name:            name,
		params:          params,
		seedLotDepleted: seedLotDepleted,
	}, nil
}

func (r *Recipe) ID() string             { return r.id }
func (r *Recipe) VarietyID() string      { return r.varietyID }
func (r *Recipe) Name() string           { return r.name }
func (r *Recipe) Parameters() Parameters { return r.params }

// SeedLotDepleted mirrors the inventory subsystem's depletion flag
func (r *Recipe) SeedLotDepleted() bool { return r.seedLotDepleted }

// RequiresSoaking reports whether seed must be soaked before planting
func (r *Recipe) RequiresSoaking() bool { return r.params.RequiresSoaking() }
