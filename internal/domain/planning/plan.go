package planning

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// PlanStatus is the lifecycle state of an aggregated plan
type PlanStatus string

const (
	PlanStatusDraft      PlanStatus = "draft"
	PlanStatusConfirmed  PlanStatus = "confirmed"
	PlanStatusInProgress PlanStatus = "in_progress"
	PlanStatusCompleted  PlanStatus = "completed"
)

// ParsePlanStatus parses a status string
func ParsePlanStatus(s string) (PlanStatus, error) {
	switch PlanStatus(s) {
	case PlanStatusDraft, PlanStatusConfirmed, PlanStatusInProgress, PlanStatusCompleted:
		return PlanStatus(s), nil
	}
	return "", fmt.Errorf("invalid plan status: %s", s)
}

var planTransitions = map[PlanStatus]PlanStatus{
	PlanStatusDraft:      PlanStatusConfirmed,
	PlanStatusConfirmed:  PlanStatusInProgress,
	PlanStatusInProgress: PlanStatusCompleted,
}

// AggregatedCropPlan is the demand rollup for one (variety, harvest date).
//
// State machine:
//
//	draft -> confirmed -> in_progress -> completed
//
// Only drafts are recalculated when new demand arrives.
type AggregatedCropPlan struct {
	id                 string
	recipeID           string
	varietyID          string
	harvestDate        time.Time
	totalGramsNeeded   float64
	totalTraysNeeded   int
	gramsPerTray       float64
	plantDate          time.Time
	seedSoakDate       *time.Time
	status             PlanStatus
	orderIDs           []string
	orderGrams         map[string]float64
	calculationDetails map[string]interface{}
	createdAt          time.Time
	updatedAt          time.Time
}

// NewPlan creates a draft plan from a requirement
func NewPlan(req Requirement, now time.Time) *AggregatedCropPlan {
	p := &AggregatedCropPlan{
		id:          uuid.New().String(),
		varietyID:   req.Key.VarietyID,
		harvestDate: req.Key.HarvestDate,
		status:      PlanStatusDraft,
		createdAt:   now,
	}
	p.apply(req, now)
	return p
}

// ReconstructPlan rebuilds a plan from persistence. A plan stored without
// per-order quantities keeps its total under the empty order id.
func ReconstructPlan(
	id, recipeID, varietyID string,
	harvestDate time.Time,
	totalGramsNeeded float64,
	totalTraysNeeded int,
	gramsPerTray float64,
	plantDate time.Time,
	seedSoakDate *time.Time,
	status PlanStatus,
	orderIDs []string,
	orderGrams map[string]float64,
	calculationDetails map[string]interface{},
	createdAt, updatedAt time.Time,
) *AggregatedCropPlan {
	if calculationDetails == nil {
		calculationDetails = make(map[string]interface{})
	}
	if len(orderGrams) == 0 && totalGramsNeeded > 0 {
		orderGrams = map[string]float64{"": totalGramsNeeded}
	}
	return &AggregatedCropPlan{
		id:                 id,
		recipeID:           recipeID,
		varietyID:          varietyID,
		harvestDate:        harvestDate,
		totalGramsNeeded:   totalGramsNeeded,
		totalTraysNeeded:   totalTraysNeeded,
		gramsPerTray:       gramsPerTray,
		plantDate:          plantDate,
		seedSoakDate:       seedSoakDate,
		status:             status,
		orderIDs:           orderIDs,
		orderGrams:         orderGrams,
		calculationDetails: calculationDetails,
		createdAt:          createdAt,
		updatedAt:          updatedAt,
	}
}

func (p *AggregatedCropPlan) ID() string                                 { return p.id }
func (p *AggregatedCropPlan) RecipeID() string                           { return p.recipeID }
func (p *AggregatedCropPlan) VarietyID() string                          { return p.varietyID }
func (p *AggregatedCropPlan) HarvestDate() time.Time                     { return p.harvestDate }
func (p *AggregatedCropPlan) TotalGramsNeeded() float64                  { return p.totalGramsNeeded }
func (p *AggregatedCropPlan) TotalTraysNeeded() int                      { return p.totalTraysNeeded }
func (p *AggregatedCropPlan) GramsPerTray() float64                      { return p.gramsPerTray }
func (p *AggregatedCropPlan) PlantDate() time.Time                       { return p.plantDate }
func (p *AggregatedCropPlan) SeedSoakDate() *time.Time                   { return p.seedSoakDate }
func (p *AggregatedCropPlan) Status() PlanStatus                         { return p.status }
func (p *AggregatedCropPlan) OrderIDs() []string                         { return p.orderIDs }
func (p *AggregatedCropPlan) OrderGrams() map[string]float64             { return p.orderGrams }
func (p *AggregatedCropPlan) CalculationDetails() map[string]interface{} { return p.calculationDetails }
func (p *AggregatedCropPlan) CreatedAt() time.Time                       { return p.createdAt }
func (p *AggregatedCropPlan) UpdatedAt() time.Time                       { return p.updatedAt }
func (p *AggregatedCropPlan) Key() Key {
	return Key{VarietyID: p.varietyID, HarvestDate: p.harvestDate}
}

// Merge folds new demand into the orders already on the plan. An order the
// plan already holds takes the new quantity, so resending it does not count twice.
func (p *AggregatedCropPlan) Merge(group DemandGroup) DemandGroup {
	orders := make(map[string]float64, len(p.orderGrams)+len(group.OrderGrams))
	for id, grams := range p.orderGrams {
		orders[id] = grams
	}
	for id, grams := range group.OrderGrams {
		orders[id] = grams
	}
	return NewDemandGroup(group.Key, orders)
}

// Recalculate replaces a draft's figures with a requirement computed from
// its merged demand
func (p *AggregatedCropPlan) Recalculate(req Requirement, now time.Time) error {
	if p.status != PlanStatusDraft {
		return &ErrPlanLocked{PlanID: p.id, Status: p.status}
	}
	p.apply(req, now)
	return nil
}

// TransitionTo moves the plan one step along its lifecycle
func (p *AggregatedCropPlan) TransitionTo(target PlanStatus, now time.Time) error {
	if planTransitions[p.status] != target {
		return &ErrInvalidPlanTransition{PlanID: p.id, From: p.status, To: target}
	}
	p.status = target
	p.updatedAt = now
	return nil
}

func (p *AggregatedCropPlan) apply(req Requirement, now time.Time) {
	p.recipeID = req.RecipeID
	p.totalGramsNeeded = req.TotalGrams
	p.totalTraysNeeded = req.TraysNeeded
	p.gramsPerTray = req.GramsPerTray
	p.plantDate = req.PlantDate
	p.seedSoakDate = req.SeedSoakDate
	p.orderIDs = append([]string(nil), req.OrderIDs...)
	p.orderGrams = make(map[string]float64, len(req.OrderGrams))
	for id, grams := range req.OrderGrams {
		p.orderGrams[id] = grams
	}
	p.calculationDetails = req.Details
	p.updatedAt = now
}
