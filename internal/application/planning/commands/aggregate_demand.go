package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
)

// AggregateDemandCommand turns order demand into draft crop plans
type AggregateDemandCommand struct {
	Signals []planning.DemandSignal `json:"signals,omitempty" validate:"required,min=1,dive"`

	// GramsPerTray overrides every recipe's expected yield when positive
	GramsPerTray float64 `json:"grams_per_tray,omitempty" validate:"gte=0"`
}

// RejectedGroup is a demand group that produced no plan
type RejectedGroup struct {
	VarietyID   string `json:"variety_id"`
	HarvestDate string `json:"harvest_date"`
	Reason      string `json:"reason"`
}

// AggregateDemandResponse lists the plans written and the groups rejected
type AggregateDemandResponse struct {
	Plans    []queries.PlanDTO `json:"plans"`
	Rejected []RejectedGroup   `json:"rejected,omitempty"`
}

// AggregateDemandHandler handles AggregateDemandCommand
type AggregateDemandHandler struct {
	recipes recipe.Repository
	plans   planning.Repository
	clock   shared.Clock
}

// NewAggregateDemandHandler creates a new AggregateDemandHandler
func NewAggregateDemandHandler(recipes recipe.Repository, plans planning.Repository, clock shared.Clock) *AggregateDemandHandler {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	return &AggregateDemandHandler{recipes: recipes, plans: plans, clock: clock}
}

// Handle executes the AggregateDemand command.
// Each (variety, harvest date) group is upserted independently; a group whose
// plan is already confirmed or whose recipe cannot size it is reported as rejected.
func (h *AggregateDemandHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	cmd, ok := request.(*AggregateDemandCommand)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *AggregateDemandCommand")
	}
	if err := common.ValidateRequest(cmd); err != nil {
		return nil, err
	}

	now := h.clock.Now()
	logger := logging.LoggerFromContext(ctx)
	resp := &AggregateDemandResponse{Plans: []queries.PlanDTO{}}

	for _, group := range planning.GroupDemand(cmd.Signals) {
		plan, err := h.upsert(ctx, group, cmd.GramsPerTray, now)
		if err != nil {
			var locked *planning.ErrPlanLocked
			var missing *recipe.ErrParameterMissing
			var unknown *recipe.ErrRecipeNotFound
			if !errors.As(err, &locked) && !errors.As(err, &missing) && !errors.As(err, &unknown) {
				return nil, err
			}
			resp.Rejected = append(resp.Rejected, RejectedGroup{
				VarietyID:   group.Key.VarietyID,
				HarvestDate: group.Key.HarvestDate.Format(planning.DateLayout),
				Reason:      err.Error(),
			})
			metrics.RecordPlanAggregated("rejected")
			logger.Log(logging.LevelWarning, fmt.Sprintf("Demand for %s rejected: %v", group.Key, err), nil)
			continue
		}

		metrics.RecordPlanAggregated(string(plan.Status()))
		resp.Plans = append(resp.Plans, queries.PlanToDTO(plan))
	}

	logger.Log(logging.LevelInfo, fmt.Sprintf("Aggregated %d demand signals into %d plans", len(cmd.Signals), len(resp.Plans)), map[string]interface{}{
		"plans":    len(resp.Plans),
		"rejected": len(resp.Rejected),
	})
	return resp, nil
}

// upsert drafts a plan for the group or adds the group's orders to the draft
// already stored under its key
func (h *AggregateDemandHandler) upsert(ctx context.Context, group planning.DemandGroup, gramsPerTray float64, now time.Time) (*planning.AggregatedCropPlan, error) {
	r, err := h.recipes.FindByVariety(ctx, group.Key.VarietyID)
	if err != nil {
		return nil, err
	}

	plan, err := h.plans.FindByKey(ctx, group.Key.VarietyID, group.Key.HarvestDate)
	if err != nil {
		return nil, fmt.Errorf("failed to load crop plan for %s: %w", group.Key, err)
	}
	if plan != nil {
		if plan.Status() != planning.PlanStatusDraft {
			return nil, &planning.ErrPlanLocked{PlanID: plan.ID(), Status: plan.Status()}
		}
		group = plan.Merge(group)
	}

	req, err := planning.Compute(group, r, gramsPerTray)
	if err != nil {
		return nil, err
	}

	if plan == nil {
		plan = planning.NewPlan(req, now)
	} else if err := plan.Recalculate(req, now); err != nil {
		return nil, err
	}

	if err := h.plans.Save(ctx, plan); err != nil {
		return nil, fmt.Errorf("failed to save crop plan for %s: %w", group.Key, err)
	}
	return plan, nil
}
