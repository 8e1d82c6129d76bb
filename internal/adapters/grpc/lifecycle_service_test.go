package grpc_test

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	grpcAdapter "github.com/andrescamacho/microgreens-go/internal/adapters/grpc"
	lifecycleCommands "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/commands"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	schedulingCommands "github.com/andrescamacho/microgreens-go/internal/application/scheduling/commands"
	schedulingQueries "github.com/andrescamacho/microgreens-go/internal/application/scheduling/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/lifecycle"
	"github.com/andrescamacho/microgreens-go/internal/domain/scheduling"
)

type handlerFunc func(ctx context.Context, request mediator.Request) (mediator.Response, error)

func (f handlerFunc) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	return f(ctx, request)
}

func startDaemon(t *testing.T, m mediator.Mediator) *grpcAdapter.DaemonClientGRPC {
	t.Helper()

	listener := bufconn.Listen(1 << 20)
	server := grpcAdapter.NewDaemonServerOnListener(grpcAdapter.NewLifecycleService(m, nil, "tester"), listener, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = server.Start(ctx)
		close(done)
	}()

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return listener.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)
	client := grpcAdapter.NewDaemonClientFromConn(conn)

	t.Cleanup(func() {
		client.Close()
		cancel()
		<-done
	})
	return client
}

func TestLifecycleService_DecodesRequestAndEncodesResponse(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	var received *schedulingQueries.DueTasksQuery
	require.NoError(t, mediator.RegisterHandler[*schedulingQueries.DueTasksQuery](m, handlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			received = request.(*schedulingQueries.DueTasksQuery)
			return &schedulingQueries.DueTasksResponse{
				AsOf: now,
				Tasks: []schedulingQueries.DueTask{
					{ID: "task-1", CropID: "crop-1", TaskType: "end_stage", StageCode: "germination", ScheduledAt: now.Add(-time.Hour)},
				},
			}, nil
		})))
	client := startDaemon(t, m)

	// Act
	var resp schedulingQueries.DueTasksResponse
	err := client.Call(context.Background(), grpcAdapter.MethodDueTasks, &schedulingQueries.DueTasksQuery{Now: &now, Limit: 10}, &resp)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, received)
	assert.Equal(t, 10, received.Limit)
	require.NotNil(t, received.Now)
	assert.True(t, now.Equal(*received.Now))
	require.Len(t, resp.Tasks, 1)
	assert.Equal(t, "task-1", resp.Tasks[0].ID)
	assert.Equal(t, "germination", resp.Tasks[0].StageCode)
	assert.True(t, now.Equal(resp.AsOf))
}

func TestLifecycleService_FillsDefaultActor(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	var actor string
	require.NoError(t, mediator.RegisterHandler[*lifecycleCommands.AdvanceCropsCommand](m, handlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			actor = request.(*lifecycleCommands.AdvanceCropsCommand).Actor
			return &lifecycleCommands.TransitionResponse{Result: lifecycle.NewResult(lifecycle.TransitionAdvance)}, nil
		})))
	client := startDaemon(t, m)

	// Act
	var resp lifecycleCommands.TransitionResponse
	err := client.Call(context.Background(), grpcAdapter.MethodAdvanceCrops, &lifecycleCommands.AdvanceCropsCommand{CropIDs: []string{"crop-1"}}, &resp)

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "tester", actor)
	require.NotNil(t, resp.Result)
	assert.Equal(t, lifecycle.TransitionAdvance, resp.Result.Type)
}

func TestLifecycleService_MapsDomainErrorsToStatusCodes(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*schedulingCommands.TriggerTaskCommand](m, handlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			return nil, &scheduling.ErrTaskNotFound{TaskID: request.(*schedulingCommands.TriggerTaskCommand).TaskID}
		})))
	require.NoError(t, mediator.RegisterHandler[*lifecycleCommands.BulkAdvanceCommand](m, handlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			return nil, &lifecycle.ErrLockTimeout{Keys: []string{"batch:b-1"}}
		})))
	client := startDaemon(t, m)

	// Act
	triggerErr := client.Call(context.Background(), grpcAdapter.MethodTriggerTask, &schedulingCommands.TriggerTaskCommand{TaskID: "missing"}, nil)
	bulkErr := client.Call(context.Background(), grpcAdapter.MethodBulkAdvance, &lifecycleCommands.BulkAdvanceCommand{BatchID: "b-1"}, nil)

	// Assert
	assert.Equal(t, codes.NotFound, status.Code(triggerErr))
	assert.Equal(t, codes.Unavailable, status.Code(bulkErr))
}

func TestLifecycleService_RejectsUnknownFields(t *testing.T) {
	// Arrange
	client := startDaemon(t, mediator.NewMediator())

	// Act
	err := client.Call(context.Background(), grpcAdapter.MethodListPlans, map[string]interface{}{"stauts": "draft"}, nil)

	// Assert
	assert.Equal(t, codes.InvalidArgument, status.Code(err))
}

func TestDaemonClient_HealthReportsServing(t *testing.T) {
	// Arrange
	client := startDaemon(t, mediator.NewMediator())

	// Act
	state, err := client.Health(context.Background())

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "SERVING", state)
}
