package metrics

import (
	"context"
	"reflect"
	"strings"
	"time"

	"github.com/andrescamacho/microgreens-go/internal/application/mediator"
)

// PrometheusMiddleware records duration and status of every mediator request.
// A nil collector turns the middleware into a pass-through.
func PrometheusMiddleware(collector *CommandMetricsCollector) mediator.Middleware {
	return func(ctx context.Context, request mediator.Request, next mediator.HandlerFunc) (mediator.Response, error) {
		if collector == nil {
			return next(ctx, request)
		}

		done := collector.Begin(CommandName(request))
		start := time.Now()
		response, err := next(ctx, request)
		done(time.Since(start).Seconds(), err == nil)

		return response, err
	}
}

// CommandName strips package and pointer prefixes from a request's type:
// "*commands.AdvanceCropsCommand" becomes "AdvanceCropsCommand"
func CommandName(request mediator.Request) string {
	if request == nil {
		return "UnknownCommand"
	}

	fullName := strings.TrimPrefix(reflect.TypeOf(request).String(), "*")
	if i := strings.LastIndex(fullName, "."); i >= 0 {
		return fullName[i+1:]
	}
	return fullName
}
