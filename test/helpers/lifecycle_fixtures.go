package helpers

import (
	"context"
	"time"

	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
)

// Send ticks the mock clock by a second and dispatches request, so audit rows
// written by consecutive calls get distinct recorded_at values
func (r *TestRepositories) Send(request mediator.Request) (mediator.Response, error) {
	r.Clock.Advance(time.Second)
	return r.Mediator.Send(context.Background(), request)
}

// CreateBatch plants trays of a recipe at the given time as "grower"
func (r *TestRepositories) CreateBatch(recipeID string, trays int, at time.Time) (*lifecycleCommands.CreateBatchResponse, error) {
	resp, err := r.Send(&lifecycleCommands.CreateBatchCommand{
		RecipeID:  recipeID,
		TrayCount: trays,
		At:        &at,
		Actor:     "grower",
	})
	if err != nil {
		return nil, err
	}
	return resp.(*lifecycleCommands.CreateBatchResponse), nil
}

// Advance moves the crops one stage forward at the given time
func (r *TestRepositories) Advance(at time.Time, cropIDs ...string) (*lifecycle.Result, error) {
	resp, err := r.Send(&lifecycleCommands.AdvanceCropsCommand{CropIDs: cropIDs, At: &at, Actor: "grower"})
	if err != nil {
		return nil, err
	}
	return resp.(*lifecycleCommands.TransitionResponse).Result, nil
}

// Revert moves the crops one stage back at the given time
func (r *TestRepositories) Revert(at time.Time, reason string, cropIDs ...string) (*lifecycle.Result, error) {
	resp, err := r.Send(&lifecycleCommands.RevertCropsCommand{CropIDs: cropIDs, Reason: reason, At: &at, Actor: "grower"})
	if err != nil {
		return nil, err
	}
	return resp.(*lifecycleCommands.TransitionResponse).Result, nil
}
