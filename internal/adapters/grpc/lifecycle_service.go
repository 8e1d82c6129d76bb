package grpc

import (
	"context"
	"fmt"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/andrescamacho/microgreens-go/internal/application/logging"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"

	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
	planningCommands "github.com/andrescamacho/microgreens-go/internal/application/planning/commands"
	planningQueries "github.com/andrescamacho/microgreens-go/internal/application/planning/queries"
	schedulingCommands "github.com/andrescamacho/microgreens-go/internal/application/scheduling/commands"
	schedulingQueries "github.com/andrescamacho/microgreens-go/internal/application/scheduling/queries"
)

// requestFactories builds an empty mediator request for each method
var requestFactories = map[string]func() mediator.Request{
	MethodCreateBatch:      func() mediator.Request { return &lifecycleCommands.CreateBatchCommand{} },
	MethodAdvanceCrops:     func() mediator.Request { return &lifecycleCommands.AdvanceCropsCommand{} },
	MethodRevertCrops:      func() mediator.Request { return &lifecycleCommands.RevertCropsCommand{} },
	MethodBulkAdvance:      func() mediator.Request { return &lifecycleCommands.BulkAdvanceCommand{} },
	MethodBulkRevert:       func() mediator.Request { return &lifecycleCommands.BulkRevertCommand{} },
	MethodGetBatchState:    func() mediator.Request { return &lifecycleQueries.GetBatchStateQuery{} },
	MethodGetCropHistory:   func() mediator.Request { return &lifecycleQueries.GetCropHistoryQuery{} },
	MethodListTransitions:  func() mediator.Request { return &lifecycleQueries.ListTransitionsQuery{} },
	MethodDueTasks:         func() mediator.Request { return &schedulingQueries.DueTasksQuery{} },
	MethodTriggerTask:      func() mediator.Request { return &schedulingCommands.TriggerTaskCommand{} },
	MethodDismissTask:      func() mediator.Request { return &schedulingCommands.DismissTaskCommand{} },
	MethodMarkTaskError:    func() mediator.Request { return &schedulingCommands.MarkTaskErrorCommand{} },
	MethodReconcileTasks:   func() mediator.Request { return &schedulingCommands.ReconcileTasksCommand{} },
	MethodAggregateDemand:  func() mediator.Request { return &planningCommands.AggregateDemandCommand{} },
	MethodUpdatePlanStatus: func() mediator.Request { return &planningCommands.UpdatePlanStatusCommand{} },
	MethodListPlans:        func() mediator.Request { return &planningQueries.ListPlansQuery{} },
}

// LifecycleService implements LifecycleServer by decoding each payload into
// the matching command or query and sending it through the mediator
type LifecycleService struct {
	mediator     mediator.Mediator
	logger       logging.OperationLogger
	defaultActor string
}

// NewLifecycleService creates the service behind greens.v1.Lifecycle.
// defaultActor is recorded on mutations whose payload names no actor.
func NewLifecycleService(m mediator.Mediator, logger logging.OperationLogger, defaultActor string) *LifecycleService {
	return &LifecycleService{mediator: m, logger: logger, defaultActor: defaultActor}
}

// Invoke dispatches one call
func (s *LifecycleService) Invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error) {
	factory, ok := requestFactories[method]
	if !ok {
		return nil, status.Errorf(codes.Unimplemented, "unknown method %s", method)
	}

	request := factory()
	if err := decodeRequest(req, request); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to decode %s request: %v", method, err)
	}
	s.applyDefaultActor(request)

	if s.logger != nil {
		ctx = logging.WithLogger(ctx, s.logger)
	}

	start := time.Now()
	resp, err := s.mediator.Send(ctx, request)
	if err != nil {
		logging.LoggerFromContext(ctx).Log(logging.LevelDebug, fmt.Sprintf("%s failed: %v", method, err), map[string]interface{}{
			"method":      method,
			"duration_ms": time.Since(start).Milliseconds(),
		})
		return nil, toStatus(err)
	}

	out, err := encodeResponse(resp)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to encode %s response: %v", method, err)
	}
	return out, nil
}

func (s *LifecycleService) applyDefaultActor(request mediator.Request) {
	if s.defaultActor == "" {
		return
	}
	switch cmd := request.(type) {
	case *lifecycleCommands.CreateBatchCommand:
		cmd.Actor = orDefault(cmd.Actor, s.defaultActor)
	case *lifecycleCommands.AdvanceCropsCommand:
		cmd.Actor = orDefault(cmd.Actor, s.defaultActor)
	case *lifecycleCommands.RevertCropsCommand:
		cmd.Actor = orDefault(cmd.Actor, s.defaultActor)
	case *lifecycleCommands.BulkAdvanceCommand:
		cmd.Actor = orDefault(cmd.Actor, s.defaultActor)
	case *lifecycleCommands.BulkRevertCommand:
		cmd.Actor = orDefault(cmd.Actor, s.defaultActor)
	}
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

// decodeRequest copies a Struct payload into a tagged Go request via its JSON form
func decodeRequest(in *structpb.Struct, out interface{}) error {
	if in == nil || len(in.GetFields()) == 0 {
		return nil
	}
	b, err := protojson.Marshal(in)
	if err != nil {
		return err
	}
	return unmarshalJSON(b, out)
}

// encodeResponse turns a tagged Go response into a Struct payload
func encodeResponse(resp interface{}) (*structpb.Struct, error) {
	if resp == nil {
		return &structpb.Struct{}, nil
	}
	b, err := marshalJSON(resp)
	if err != nil {
		return nil, err
	}
	out := &structpb.Struct{}
	if err := protojson.Unmarshal(b, out); err != nil {
		return nil, err
	}
	return out, nil
}
