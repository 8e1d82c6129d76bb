package mediator_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
)

type pingQuery struct{ Value string }

type pingHandler struct{}

func (pingHandler) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	return request.(*pingQuery).Value, nil
}

func TestMediator_DispatchesThroughMiddlewareInOrder(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*pingQuery](m, pingHandler{}))

	var calls []string
	trace := func(name string) mediator.Middleware {
		return func(ctx context.Context, req mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
			calls = append(calls, name+":before")
			resp, err := next(ctx, req)
			calls = append(calls, name+":after")
			return resp, err
		}
	}
	m.Use(trace("outer"))
	m.Use(trace("inner"))

	// Act
	resp, err := m.Send(context.Background(), &pingQuery{Value: "pong"})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, "pong", resp)
	assert.Equal(t, []string{"outer:before", "inner:before", "inner:after", "outer:after"}, calls)
}

func TestMediator_RejectsDuplicateAndUnknown(t *testing.T) {
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*pingQuery](m, pingHandler{}))

	assert.Error(t, mediator.RegisterHandler[*pingQuery](m, pingHandler{}))

	_, err := m.Send(context.Background(), &struct{}{})
	assert.Error(t, err)
}
