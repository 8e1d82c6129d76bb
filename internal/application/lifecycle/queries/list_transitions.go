package queries

import (
	"context"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
)

const defaultTransitionLimit = 100

// ListTransitionsQuery reads the transition audit feed
type ListTransitionsQuery struct {
	BatchID string     `json:"batch_id,omitempty"`
	Since   *time.Time `json:"since,omitempty"`
	Limit   int        `json:"limit,omitempty"`
}

// TransitionDTO is one audit row as exposed to reporting tools
type TransitionDTO struct {
	ID             string                 `json:"id"`
	Type           string                 `json:"type"`
	BatchID        *string                `json:"batch_id,omitempty"`
	CropCount      int                    `json:"crop_count"`
	FromStage      *string                `json:"from_stage,omitempty"`
	ToStage        *string                `json:"to_stage,omitempty"`
	TransitionAt   time.Time              `json:"transition_at"`
	RecordedAt     time.Time              `json:"recorded_at"`
	UserID         *string                `json:"user_id,omitempty"`
	Reason         *string                `json:"reason,omitempty"`
	SucceededCount int                    `json:"succeeded_count"`
	FailedCount    int                    `json:"failed_count"`
	FailedCrops    []lifecycle.FailedCrop `json:"failed_crops"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// ListTransitionsResponse wraps the feed page
type ListTransitionsResponse struct {
	Transitions []TransitionDTO `json:"transitions"`
}

// ListTransitionsHandler handles ListTransitionsQuery
type ListTransitionsHandler struct {
	store lifecycle.Store
}

// NewListTransitionsHandler creates a new ListTransitionsHandler
func NewListTransitionsHandler(store lifecycle.Store) *ListTransitionsHandler {
	return &ListTransitionsHandler{store: store}
}

// Handle executes the ListTransitions query
func (h *ListTransitionsHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	q, ok := request.(*ListTransitionsQuery)
	if !ok {
		return nil, fmt.Errorf("invalid request type: expected *ListTransitionsQuery")
	}

	query := lifecycle.TransitionQuery{Since: q.Since, Limit: q.Limit}
	if query.Limit <= 0 {
		query.Limit = defaultTransitionLimit
	}
	if q.BatchID != "" {
		b := q.BatchID
		query.BatchID = &b
	}

	rows, err := h.store.ListTransitions(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list transitions: %w", err)
	}

	resp := &ListTransitionsResponse{Transitions: make([]TransitionDTO, 0, len(rows))}
	for _, t := range rows {
		resp.Transitions = append(resp.Transitions, TransitionToDTO(t))
	}
	return resp, nil
}

// TransitionToDTO converts an audit row for readers
func TransitionToDTO(t *lifecycle.Transition) TransitionDTO {
	dto := TransitionDTO{
		ID:             t.ID(),
		Type:           string(t.Type()),
		BatchID:        t.BatchID(),
		CropCount:      t.CropCount(),
		TransitionAt:   t.TransitionAt(),
		RecordedAt:     t.RecordedAt(),
		UserID:         t.UserID(),
		Reason:         t.Reason(),
		SucceededCount: t.SucceededCount(),
		FailedCount:    t.FailedCount(),
		FailedCrops:    t.FailedCrops(),
		Metadata:       t.Metadata(),
	}
	if s := t.FromStage(); s != nil {
		v := string(*s)
		dto.FromStage = &v
	}
	if s := t.ToStage(); s != nil {
		v := string(*s)
		dto.ToStage = &v
	}
	return dto
}
