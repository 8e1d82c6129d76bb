package queries

import (
	"context"
	"fmt"

	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
)

// ListPlansQuery lists crop plans, optionally filtered by status
type ListPlansQuery struct {
	Status string `json:"status,omitempty"`
}

// ListPlansResponse holds the matching plans ordered by harvest date
type ListPlansResponse struct {
	Plans []PlanDTO `json:"plans"`
}

// ListPlansHandler handles ListPlansQuery
type ListPlansHandler struct {
	plans planning.Repository
}

// NewListPlansHandler creates a new ListPlansHandler
func NewListPlansHandler(plans planning.Repository) *ListPlansHandler {
	return &ListPlansHandler{plans: plans}
}

// Handle executes the ListPlans query
func (h *ListPlansHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*ListPlansQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListPlansQuery")
	}

	var filter *planning.PlanStatus
	if q.Status != "" {
		status, err := planning.ParsePlanStatus(q.Status)
		if err != nil {
			return nil, err
		}
		filter = &status
	}

	plans, err := h.plans.List(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list crop plans: %w", err)
	}

	resp := &ListPlansResponse{Plans: make([]PlanDTO, 0, len(plans))}
	for _, p := range plans {
		resp.Plans = append(resp.Plans, PlanToDTO(p))
	}
	return resp, nil
}
