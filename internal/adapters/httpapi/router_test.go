package httpapi_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrescamacho/microgreens-go/internal/adapters/httpapi"
	"github.com/andrescamacho/microgreens-go/internal/adapters/metrics"
	lifecycleQueries "github.com/andrescamacho/microgreens-go/internal/application/lifecycle/queries"
	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
	schedulingQueries "github.com/andrescamacho/microgreens-go/internal/application/scheduling/queries"
	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
)

type handlerFunc func(ctx context.Context, request mediator.Request) (mediator.Response, error)

func (f handlerFunc) Handle(ctx context.Context, request mediator.Request) (mediator.Response, error) {
	return f(ctx, request)
}

func TestFeeds_TransitionsPassesFilters(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	var got *lifecycleQueries.ListTransitionsQuery
	require.NoError(t, mediator.RegisterHandler[*lifecycleQueries.ListTransitionsQuery](m, handlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			got = request.(*lifecycleQueries.ListTransitionsQuery)
			return &lifecycleQueries.ListTransitionsResponse{Transitions: []lifecycleQueries.TransitionDTO{{ID: "t-1", Type: "advance"}}}, nil
		})))
	srv := httptest.NewServer(httpapi.NewServer(m, nil, httpapi.Options{}).Routes())
	defer srv.Close()

	// Act
	resp, err := http.Get(srv.URL + "/feeds/transitions?batch_id=b-1&since=2026-03-01T00:00:00Z&limit=5")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.NotNil(t, got)
	assert.Equal(t, "b-1", got.BatchID)
	assert.Equal(t, 5, got.Limit)
	require.NotNil(t, got.Since)
	assert.True(t, got.Since.Equal(time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)))

	var body lifecycleQueries.ListTransitionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Len(t, body.Transitions, 1)
	assert.Equal(t, "t-1", body.Transitions[0].ID)
}

func TestFeeds_DueTasksRejectsMalformedNow(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*schedulingQueries.DueTasksQuery](m, handlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			return &schedulingQueries.DueTasksResponse{}, nil
		})))
	srv := httptest.NewServer(httpapi.NewServer(m, nil, httpapi.Options{}).Routes())
	defer srv.Close()

	// Act
	resp, err := http.Get(srv.URL + "/feeds/due-tasks?now=yesterday")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestFeeds_UnknownBatchIsNotFound(t *testing.T) {
	// Arrange
	m := mediator.NewMediator()
	require.NoError(t, mediator.RegisterHandler[*lifecycleQueries.GetBatchStateQuery](m, handlerFunc(
		func(ctx context.Context, request mediator.Request) (mediator.Response, error) {
			return nil, &crop.ErrBatchNotFound{BatchID: request.(*lifecycleQueries.GetBatchStateQuery).BatchID}
		})))
	srv := httptest.NewServer(httpapi.NewServer(m, nil, httpapi.Options{}).Routes())
	defer srv.Close()

	// Act
	resp, err := http.Get(srv.URL + "/batches/missing")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestFeeds_ServesMetricsWhenRegistryPresent(t *testing.T) {
	// Arrange
	registry := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{Name: "greens_test_total", Help: "test"})
	registry.MustRegister(counter)
	counter.Inc()
	srv := httptest.NewServer(httpapi.NewServer(mediator.NewMediator(), registry, httpapi.Options{}).Routes())
	defer srv.Close()

	// Act
	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFeeds_Healthz(t *testing.T) {
	// Arrange
	srv := httptest.NewServer(httpapi.NewServer(mediator.NewMediator(), nil, httpapi.Options{}).Routes())
	defer srv.Close()

	// Act
	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	// Assert
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestFeeds_RecordsRequestsByRoutePattern(t *testing.T) {
	// Arrange
	metrics.InitRegistry()
	defer func() { metrics.Registry = nil }()
	collector := metrics.NewHTTPMetricsCollector()
	require.NoError(t, collector.Register())
	srv := httptest.NewServer(httpapi.NewServer(mediator.NewMediator(), metrics.GetRegistry(), httpapi.Options{Metrics: collector}).Routes())
	defer srv.Close()

	// Act
	for _, path := range []string{"/healthz", "/healthz", "/crops/c-1/history"} {
		resp, err := http.Get(srv.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
	}

	// Assert
	families, err := metrics.GetRegistry().Gather()
	require.NoError(t, err)
	routes := map[string]float64{}
	for _, family := range families {
		if family.GetName() != "greens_http_requests_total" {
			continue
		}
		for _, m := range family.GetMetric() {
			for _, label := range m.GetLabel() {
				if label.GetName() == "route" {
					routes[label.GetValue()] += m.GetCounter().GetValue()
				}
			}
		}
	}
	assert.Equal(t, 2.0, routes["/healthz"])
	assert.Equal(t, 1.0, routes["/crops/{id}/history"])
}
