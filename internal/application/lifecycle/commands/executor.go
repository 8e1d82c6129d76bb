package commands

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	"github.com/andrescamacho/microgreens-go/internal/application/common"
	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// Settings bound the work a single transition call does
type Settings struct {
	ChunkSize   int
	LockTimeout time.Duration
}

// DefaultSettings are used when a handler is built without explicit settings
func DefaultSettings() Settings {
	return Settings{ChunkSize: 100, LockTimeout: 10 * time.Second}
}

// TransitionResponse is returned by every transition command
type TransitionResponse struct {
	Result *lifecycle.Result `json:"result"`
}

// resolvedCall is a transition call after its crop set has been resolved
type resolvedCall struct {
	transitionType lifecycle.TransitionType
	batchID        *string
	order          []string
	snapshot       map[string]*crop.Crop
	unknown        []string
	expectedStage  *stage.Code
	fromStage      *stage.Code
	toStage        *stage.Code
	reason         string
	at             time.Time
	actor          shared.Actor
	warnings       []shared.Warning
}

// Executor runs resolved transition calls: lock, process chunk by chunk, audit.
// Every call that gets its locks writes exactly one audit row.
type Executor struct {
	crops    crop.Repository
	recipes  recipe.Repository
	store    lifecycle.Store
	machine  *lifecycle.StageMachine
	locks    *common.BatchLocks
	clock    shared.Clock
	settings Settings
}

// NewExecutor creates a transition executor
func NewExecutor(
	crops crop.Repository,
	recipes recipe.Repository,
	store lifecycle.Store,
	machine *lifecycle.StageMachine,
	locks *common.BatchLocks,
	clock shared.Clock,
	settings Settings,
) *Executor {
	if clock == nil {
		clock = shared.NewRealClock()
	}
	if locks == nil {
		locks = common.NewBatchLocks()
	}
	if settings.ChunkSize <= 0 {
		settings.ChunkSize = DefaultSettings().ChunkSize
	}
	return &Executor{
		crops:    crops,
		recipes:  recipes,
		store:    store,
		machine:  machine,
		locks:    locks,
		clock:    clock,
		settings: settings,
	}
}

// Registry returns the stage registry the executor validates against
func (e *Executor) Registry() *stage.Registry {
	return e.machine.Registry()
}

// resolveByIDs snapshots the named crops; unknown IDs are kept for failure reporting
func (e *Executor) resolveByIDs(ctx context.Context, ids []string) (order []string, snapshot map[string]*crop.Crop, unknown []string, err error) {
	found, err := e.crops.FindCrops(ctx, ids)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("failed to load crops: %w", err)
	}

	snapshot = make(map[string]*crop.Crop, len(found))
	for _, c := range found {
		snapshot[c.ID()] = c
	}

	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		if seen[id] {
			continue
		}
		seen[id] = true
		if _, ok := snapshot[id]; ok {
			order = append(order, id)
		} else {
			unknown = append(unknown, id)
		}
	}
	return order, snapshot, unknown, nil
}

// loadParameters resolves the recipes of the snapshot up front so a dangling
// recipe reference fails the call before anything is locked or written
func (e *Executor) loadParameters(ctx context.Context, snapshot map[string]*crop.Crop) (map[string]recipe.Parameters, error) {
	params := make(map[string]recipe.Parameters)
	for _, c := range snapshot {
		if _, ok := params[c.RecipeID()]; ok {
			continue
		}
		r, err := e.recipes.FindByID(ctx, c.RecipeID())
		if err != nil {
			return nil, fmt.Errorf("crop %s references recipe %s: %w", c.ID(), c.RecipeID(), err)
		}
		params[r.ID()] = r.Parameters()
	}
	return params, nil
}

func (e *Executor) lockKeys(call *resolvedCall) []string {
	keys := make([]string, 0, len(call.snapshot)+1)
	if call.batchID != nil {
		keys = append(keys, common.BatchKey(*call.batchID))
	}
	for _, c := range call.snapshot {
		if c.BatchID() != nil {
			keys = append(keys, common.BatchKey(*c.BatchID()))
		} else {
			keys = append(keys, common.CropKey(c.ID()))
		}
	}
	return keys
}

func (e *Executor) run(ctx context.Context, call *resolvedCall) (*lifecycle.Result, error) {
	logger := logging.LoggerFromContext(ctx)

	params, err := e.loadParameters(ctx, call.snapshot)
	if err != nil {
		return nil, err
	}

	release, err := e.locks.Acquire(ctx, e.settings.LockTimeout, e.lockKeys(call)...)
	if err != nil {
		logger.Log(logging.LevelWarning, "Transition not started: lock timeout", map[string]interface{}{
			"type":  string(call.transitionType),
			"error": err.Error(),
		})
		return nil, err
	}
	defer release()

	result := lifecycle.NewResult(call.transitionType)
	result.Warn(call.warnings...)

	for _, id := range call.unknown {
		result.Fail(id, "", lifecycle.ReasonUnknownCrop, "crop does not exist")
	}

	chunks := 0
	if call.transitionType.IsRevert() && call.reason == "" {
		for _, id := range call.order {
			result.Fail(id, call.snapshot[id].CurrentStage(), lifecycle.ReasonMissingReason, "revert requires a reason")
		}
	} else {
		for start := 0; start < len(call.order); start += e.settings.ChunkSize {
			end := start + e.settings.ChunkSize
			if end > len(call.order) {
				end = len(call.order)
			}
			if err := e.processChunk(ctx, call, call.order[start:end], params, result); err != nil {
				return nil, err
			}
			chunks++
		}
	}

	transition, err := e.audit(ctx, call, result, chunks)
	if err != nil {
		return result, err
	}
	result.TransitionID = transition.ID()

	metrics.RecordTransition(string(call.transitionType), result.SucceededCount, result.FailedCount)
	for _, f := range result.FailedCrops {
		metrics.RecordCropFailure(string(f.Reason))
	}

	logger.Log(logging.LevelInfo, fmt.Sprintf("%s: %d succeeded, %d failed", call.transitionType, result.SucceededCount, result.FailedCount), map[string]interface{}{
		"transition_id": transition.ID(),
		"type":          string(call.transitionType),
		"crop_count":    result.CropCount,
		"succeeded":     result.SucceededCount,
		"failed":        result.FailedCount,
		"warnings":      len(result.Warnings),
	})

	return result, nil
}

// processChunk re-reads a chunk under lock and applies each crop in its own transaction
func (e *Executor) processChunk(ctx context.Context, call *resolvedCall, ids []string, params map[string]recipe.Parameters, result *lifecycle.Result) error {
	fresh, err := e.crops.FindCrops(ctx, ids)
	if err != nil {
		return fmt.Errorf("failed to reload crops: %w", err)
	}
	current := make(map[string]*crop.Crop, len(fresh))
	for _, c := range fresh {
		current[c.ID()] = c
	}

	recordedAt := e.clock.Now()
	for _, id := range ids {
		snap := call.snapshot[id]
		c, ok := current[id]
		if !ok {
			result.Fail(id, snap.CurrentStage(), lifecycle.ReasonUnknownCrop, "crop disappeared during transition")
			continue
		}
		if c.Version() != snap.Version() {
			result.Fail(id, c.CurrentStage(), lifecycle.ReasonStaleState,
				fmt.Sprintf("crop changed since resolution (now in %s)", c.CurrentStage()))
			continue
		}
		if call.expectedStage != nil && c.CurrentStage() != *call.expectedStage {
			result.Fail(id, c.CurrentStage(), lifecycle.ReasonStaleState,
				fmt.Sprintf("crop is in %s, expected %s", c.CurrentStage(), *call.expectedStage))
			continue
		}
		if !c.HasBatch() {
			result.Warn(shared.NewWarning(shared.WarningLegacyCropWithoutBatch, id, "crop has no batch"))
		}

		var (
			change    *lifecycle.StageChange
			warnings  []shared.Warning
			rejection *lifecycle.Rejection
		)
		if call.transitionType.IsRevert() {
			change, warnings, rejection = e.machine.PlanRevert(c, params[c.RecipeID()], call.reason, call.at, recordedAt, call.actor)
		} else {
			change, warnings, rejection = e.machine.PlanAdvance(c, params[c.RecipeID()], call.at, recordedAt, call.actor)
		}
		if rejection != nil {
			result.Fail(id, c.CurrentStage(), rejection.Reason, rejection.Detail)
			continue
		}

		dismissed, err := e.store.ApplyChange(ctx, change)
		if err != nil {
			var conflict *crop.ErrVersionConflict
			if errors.As(err, &conflict) {
				result.Fail(id, c.CurrentStage(), lifecycle.ReasonStaleState, conflict.Error())
			} else {
				result.Fail(id, c.CurrentStage(), lifecycle.ReasonPersistence, err.Error())
			}
			continue
		}

		result.Warn(warnings...)
		result.Succeed(id, change.From, change.To)
		metrics.RecordTasksDismissed(dismissed)
		metrics.RecordTasksScheduled(len(change.NewTasks))
	}
	return nil
}

func (e *Executor) audit(ctx context.Context, call *resolvedCall, result *lifecycle.Result, chunks int) (*lifecycle.Transition, error) {
	metadata := map[string]interface{}{
		lifecycle.MetadataChunkCount: chunks,
	}

	fromStage, toStage := call.fromStage, call.toStage
	if fromStage == nil && toStage == nil {
		from, to := result.StagesMoved()
		if len(from) == 1 && len(to) == 1 {
			fromStage, toStage = &from[0], &to[0]
		} else if len(from) > 1 {
			metadata[lifecycle.MetadataFromStages] = from
		}
	}

	transition, err := lifecycle.NewTransition(lifecycle.TransitionSpec{
		Type:         call.transitionType,
		BatchID:      call.batchID,
		FromStage:    fromStage,
		ToStage:      toStage,
		TransitionAt: call.at,
		RecordedAt:   e.clock.Now(),
		Actor:        call.actor,
		Reason:       call.reason,
		Result:       result,
		Metadata:     metadata,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to build transition record: %w", err)
	}

	if err := e.store.AppendTransition(ctx, transition); err != nil {
		return nil, fmt.Errorf("failed to write transition record: %w", err)
	}
	return transition, nil
}

func (e *Executor) resolveAt(at *time.Time) time.Time {
	if at != nil {
		return at.UTC()
	}
	return e.clock.Now()
}
