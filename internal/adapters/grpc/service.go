package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name served on the daemon socket
const ServiceName = "greens.v1.Lifecycle"

// Method names of the Lifecycle service
const (
	MethodCreateBatch      = "CreateBatch"
	MethodAdvanceCrops     = "AdvanceCrops"
	MethodRevertCrops      = "RevertCrops"
	MethodBulkAdvance      = "BulkAdvance"
	MethodBulkRevert       = "BulkRevert"
	MethodGetBatchState    = "GetBatchState"
	MethodGetCropHistory   = "GetCropHistory"
	MethodListTransitions  = "ListTransitions"
	MethodDueTasks         = "DueTasks"
	MethodTriggerTask      = "TriggerTask"
	MethodDismissTask      = "DismissTask"
	MethodMarkTaskError    = "MarkTaskError"
	MethodReconcileTasks   = "ReconcileTasks"
	MethodAggregateDemand  = "AggregateDemand"
	MethodUpdatePlanStatus = "UpdatePlanStatus"
	MethodListPlans        = "ListPlans"
)

// Methods lists every method of the Lifecycle service in registration order
var Methods = []string{
	MethodCreateBatch,
	MethodAdvanceCrops,
	MethodRevertCrops,
	MethodBulkAdvance,
	MethodBulkRevert,
	MethodGetBatchState,
	MethodGetCropHistory,
	MethodListTransitions,
	MethodDueTasks,
	MethodTriggerTask,
	MethodDismissTask,
	MethodMarkTaskError,
	MethodReconcileTasks,
	MethodAggregateDemand,
	MethodUpdatePlanStatus,
	MethodListPlans,
}

// LifecycleServer is the server side of greens.v1.Lifecycle.
// Every method takes and returns a generic Struct payload.
type LifecycleServer interface {
	Invoke(ctx context.Context, method string, req *structpb.Struct) (*structpb.Struct, error)
}

// FullMethod returns the gRPC path of a Lifecycle method
func FullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

// RegisterLifecycleServer registers srv on s under ServiceName
func RegisterLifecycleServer(s grpc.ServiceRegistrar, srv LifecycleServer) {
	s.RegisterService(lifecycleServiceDesc(), srv)
}

func lifecycleServiceDesc() *grpc.ServiceDesc {
	methods := make([]grpc.MethodDesc, 0, len(Methods))
	for _, name := range Methods {
		methods = append(methods, grpc.MethodDesc{
			MethodName: name,
			Handler:    unaryHandler(name),
		})
	}
	return &grpc.ServiceDesc{
		ServiceName: ServiceName,
		HandlerType: (*LifecycleServer)(nil),
		Methods:     methods,
		Streams:     []grpc.StreamDesc{},
		Metadata:    "greens/v1/lifecycle.proto",
	}
}

func unaryHandler(method string) func(interface{}, context.Context, func(interface{}) error, grpc.UnaryServerInterceptor) (interface{}, error) {
	return func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		server := srv.(LifecycleServer)
		if interceptor == nil {
			return server.Invoke(ctx, method, in)
		}
		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: FullMethod(method),
		}
		handler := func(ctx context.Context, req interface{}) (interface{}, error) {
			return server.Invoke(ctx, method, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
