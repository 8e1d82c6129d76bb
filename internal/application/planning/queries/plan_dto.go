package queries

import (
	"time"

	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
)

// PlanDTO is the read model of an aggregated crop plan
type PlanDTO struct {
	ID                 string                 `json:"id"`
	RecipeID           string                 `json:"recipe_id"`
	VarietyID          string                 `json:"variety_id"`
	HarvestDate        string                 `json:"harvest_date"`
	TotalGramsNeeded   float64                `json:"total_grams_needed"`
	TotalTraysNeeded   int                    `json:"total_trays_needed"`
	GramsPerTray       float64                `json:"grams_per_tray"`
	PlantDate          string                 `json:"plant_date"`
	SeedSoakDate       *string                `json:"seed_soak_date,omitempty"`
	Status             string                 `json:"status"`
	OrderIDs           []string               `json:"order_ids"`
	OrderGrams         map[string]float64     `json:"order_grams,omitempty"`
	CalculationDetails map[string]interface{} `json:"calculation_details,omitempty"`
	UpdatedAt          time.Time              `json:"updated_at"`
}

// PlanToDTO converts a plan entity to its read model
func PlanToDTO(p *planning.AggregatedCropPlan) PlanDTO {
	dto := PlanDTO{
		ID:                 p.ID(),
		RecipeID:           p.RecipeID(),
		VarietyID:          p.VarietyID(),
		HarvestDate:        p.HarvestDate().Format(planning.DateLayout),
		TotalGramsNeeded:   p.TotalGramsNeeded(),
		TotalTraysNeeded:   p.TotalTraysNeeded(),
		GramsPerTray:       p.GramsPerTray(),
		PlantDate:          p.PlantDate().Format(planning.DateLayout),
		Status:             string(p.Status()),
		OrderIDs:           p.OrderIDs(),
		OrderGrams:         p.OrderGrams(),
		CalculationDetails: p.CalculationDetails(),
		UpdatedAt:          p.UpdatedAt(),
	}
	if soak := p.SeedSoakDate(); soak != nil {
		s := soak.Format(planning.DateLayout)
		dto.SeedSoakDate = &s
	}
	return dto
}
