package setup

import (
	"reflect"

	"github.com/andrescamacho/microgreens-go/internal/application/common"
	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	planningCommands "github.com/andrescamacho/microgreens-go/internal/application/planning/commands"
	planningQueries "github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	schedulingCommands "github.com/andrescamacho/microgreens-go/internal/application/scheduling/commands"
	schedulingQueries "github.com/andrescamacho/microgreens-go/internal/application/scheduling/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/planning"
	"github.com/andrescamacho/microgreens-go/internal/domain/recipe"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
	"github.com/andrescamacho/microgreens-go/internal/domain/shared"
	"github.com/andrescamacho/microgreens-go/internal/domain/stage"
)

// HandlerRegistry holds all application dependencies for handler creation
type HandlerRegistry struct {
	registry *stage.Registry
	crops    crop.Repository
	recipes  recipe.Repository
	lots     recipe.LotAvailability
	tasks    scheduling.Repository
	plans    planning.Repository
	store    lifecycle.Store
	locks    *common.BatchLocks
	clock    shared.Clock
	settings lifecycleCommands.Settings
}

// NewHandlerRegistry creates a new handler registry with required dependencies.
// lots is optional.
func NewHandlerRegistry(
	registry *stage.Registry,
	crops crop.Repository,
	recipes recipe.Repository,
	lots recipe.LotAvailability,
	tasks scheduling.Repository,
	plans planning.Repository,
	store lifecycle.Store,
	clock shared.Clock,
	settings lifecycleCommands.Settings,
) *HandlerRegistry {
	// Default to real clock if not provided
	if clock == nil {
		clock = shared.NewRealClock()
	}

	return &HandlerRegistry{
		registry: registry,
		crops:    crops,
		recipes:  recipes,
		lots:     lots,
		tasks:    tasks,
		plans:    plans,
		store:    store,
		locks:    common.NewBatchLocks(),
		clock:    clock,
		settings: settings,
	}
}

// RegisterAll registers every command and query handler with the mediator
func (r *HandlerRegistry) RegisterAll(m mediator.Mediator) error {
	if err := r.RegisterLifecycleHandlers(m); err != nil {
		return err
	}
	if err := r.RegisterSchedulingHandlers(m); err != nil {
		return err
	}
	return r.RegisterPlanningHandlers(m)
}

// RegisterLifecycleHandlers registers batch creation, stage transitions and
// the lifecycle read projections.
//
// All transition commands share one Executor and therefore one lock table.
func (r *HandlerRegistry) RegisterLifecycleHandlers(m mediator.Mediator) error {
	machine := lifecycle.NewStageMachine(r.registry)
	executor := lifecycleCommands.NewExecutor(r.crops, r.recipes, r.store, machine, r.locks, r.clock, r.settings)
	bulk := lifecycleCommands.NewBulkTransitionHandler(executor)

	handlers := []struct {
		request interface{}
		handler mediator.RequestHandler
	}{
		{&lifecycleCommands.CreateBatchCommand{}, lifecycleCommands.NewCreateBatchHandler(r.recipes, r.lots, r.plans, r.store, machine, r.clock)},
		{&lifecycleCommands.AdvanceCropsCommand{}, lifecycleCommands.NewAdvanceCropsHandler(executor)},
		{&lifecycleCommands.RevertCropsCommand{}, lifecycleCommands.NewRevertCropsHandler(executor)},
		{&lifecycleCommands.BulkAdvanceCommand{}, bulk},
		{&lifecycleCommands.BulkRevertCommand{}, bulk},
		{&lifecycleQueries.GetBatchStateQuery{}, lifecycleQueries.NewGetBatchStateHandler(r.crops, r.recipes, r.registry, r.clock)},
		{&lifecycleQueries.GetCropHistoryQuery{}, lifecycleQueries.NewGetCropHistoryHandler(r.crops, r.tasks)},
		{&lifecycleQueries.ListTransitionsQuery{}, lifecycleQueries.NewListTransitionsHandler(r.store)},
	}
	for _, h := range handlers {
		if err := m.Register(reflect.TypeOf(h.request), h.handler); err != nil {
			return err
		}
	}
	return nil
}

// RegisterSchedulingHandlers registers task trigger, dismissal, reconcile and the due-task feed
func (r *HandlerRegistry) RegisterSchedulingHandlers(m mediator.Mediator) error {
	planner := scheduling.NewPlanner(r.registry)

	if err := m.Register(
		reflect.TypeOf(&schedulingCommands.TriggerTaskCommand{}),
		schedulingCommands.NewTriggerTaskHandler(r.tasks, r.store, r.clock),
	); err != nil {
		return err
	}
	if err := m.Register(
		reflect.TypeOf(&schedulingCommands.DismissTaskCommand{}),
		schedulingCommands.NewDismissTaskHandler(r.tasks, r.clock),
	); err != nil {
		return err
	}
	if err := m.Register(
		reflect.TypeOf(&schedulingCommands.MarkTaskErrorCommand{}),
		schedulingCommands.NewMarkTaskErrorHandler(r.tasks),
	); err != nil {
		return err
	}
	if err := m.Register(
		reflect.TypeOf(&schedulingCommands.ReconcileTasksCommand{}),
		schedulingCommands.NewReconcileTasksHandler(r.crops, r.recipes, r.tasks, planner, r.clock),
	); err != nil {
		return err
	}
	return m.Register(
		reflect.TypeOf(&schedulingQueries.DueTasksQuery{}),
		schedulingQueries.NewDueTasksHandler(r.tasks, r.clock),
	)
}

// RegisterPlanningHandlers registers demand aggregation and plan handlers
func (r *HandlerRegistry) RegisterPlanningHandlers(m mediator.Mediator) error {
	if err := m.Register(
		reflect.TypeOf(&planningCommands.AggregateDemandCommand{}),
		planningCommands.NewAggregateDemandHandler(r.recipes, r.plans, r.clock),
	); err != nil {
		return err
	}
	if err := m.Register(
		reflect.TypeOf(&planningCommands.UpdatePlanStatusCommand{}),
		planningCommands.NewUpdatePlanStatusHandler(r.plans, r.clock),
	); err != nil {
		return err
	}
	return m.Register(
		reflect.TypeOf(&planningQueries.ListPlansQuery{}),
		planningQueries.NewListPlansHandler(r.plans),
	)
}
