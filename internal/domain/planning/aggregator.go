package planning

import (
	"math"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
)

// ceilEpsilon absorbs float noise so exact multiples do not round up a tray
const ceilEpsilon = 1e-9

// Requirement is the planting need derived from one demand group
type Requirement struct {
	Key          Key
	RecipeID     string
	TotalGrams   float64
	GramsPerTray float64
	TraysNeeded  int
	PlantDate    time.Time
	SeedSoakDate *time.Time
	OrderIDs     []string
	OrderGrams   map[string]float64
	Details      map[string]interface{}
}

// TraysNeeded returns ceil(grams * (1 + buffer/100) / gramsPerTray)
func TraysNeeded(grams, bufferPercentage, gramsPerTray float64) int {
	if grams <= 0 || gramsPerTray <= 0 {
		return 0
	}
	raw := grams * (1 + bufferPercentage/100) / gramsPerTray
	return int(math.Ceil(raw - ceilEpsilon))
}

// PlantDate returns harvestDate minus germination + blackout + light days
func PlantDate(harvestDate time.Time, params recipe.Parameters) (time.Time, bool) {
	growDays, ok := params.GrowDays()
	if !ok {
		return time.Time{}, false
	}
	return harvestDate.Add(-time.Duration(growDays * 24 * float64(time.Hour))), true
}

// SeedSoakDate returns plantDate minus ceil(soakHours/24) days, nil when the recipe does not soak
func SeedSoakDate(plantDate time.Time, params recipe.Parameters) *time.Time {
	if !params.RequiresSoaking() {
		return nil
	}
	days := int(math.Ceil(params.SeedSoakHours/24 - ceilEpsilon))
	d := plantDate.AddDate(0, 0, -days)
	return &d
}

// Compute derives the requirement of a demand group from its variety's recipe.
// gramsPerTrayOverride replaces the recipe yield when positive.
func Compute(group DemandGroup, r *recipe.Recipe, gramsPerTrayOverride float64) (Requirement, error) {
	params := r.Parameters()

	gramsPerTray := params.ExpectedYieldGrams
	if gramsPerTrayOverride > 0 {
		gramsPerTray = gramsPerTrayOverride
	}
	if gramsPerTray <= 0 {
		return Requirement{}, &recipe.ErrParameterMissing{RecipeID: r.ID(), Parameter: "expected_yield_grams"}
	}

	plantDate, ok := PlantDate(group.Key.HarvestDate, params)
	if !ok {
		return Requirement{}, &recipe.ErrParameterMissing{RecipeID: r.ID(), Parameter: "germination/blackout/light days"}
	}

	trays := TraysNeeded(group.TotalGrams, params.BufferPercentage, gramsPerTray)
	soak := SeedSoakDate(plantDate, params)
	growDays, _ := params.GrowDays()

	details := map[string]interface{}{
		"buffer_percentage": params.BufferPercentage,
		"buffered_grams":    group.TotalGrams * (1 + params.BufferPercentage/100),
		"grow_days":         growDays,
		"seed_soak_hours":   params.SeedSoakHours,
		"order_count":       len(group.OrderIDs),
	}
	if gramsPerTrayOverride > 0 {
		details["grams_per_tray_override"] = gramsPerTrayOverride
	}

	return Requirement{
		Key:          group.Key,
		RecipeID:     r.ID(),
		TotalGrams:   group.TotalGrams,
		GramsPerTray: gramsPerTray,
		TraysNeeded:  trays,
		PlantDate:    plantDate,
		SeedSoakDate: soak,
		OrderIDs:     group.OrderIDs,
		OrderGrams:   group.OrderGrams,
		Details:      details,
	}, nil
}
