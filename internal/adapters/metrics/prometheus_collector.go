package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const (
	// Namespace for all metrics
	namespace = "greens"
	// Subsystem for daemon metrics
	subsystem = "lifecycle"
)

var (
	// Registry is the global Prometheus registry for all metrics
	Registry *prometheus.Registry

	// globalLifecycleCollector is set by SetGlobalLifecycleCollector when metrics are enabled
	globalLifecycleCollector LifecycleMetricsRecorder
)

// LifecycleMetricsRecorder records engine events; application code calls the
// package-level Record* functions, which are no-ops while metrics are disabled
type LifecycleMetricsRecorder interface {
	RecordTransition(transitionType string, succeeded, failed int)
	RecordCropFailure(reason string)
	RecordTaskTriggered(taskType string)
	RecordTasksDismissed(count int)
	RecordTasksScheduled(count int)
	RecordDueTasks(count int)
	RecordPlanAggregated(status string)
	RecordSweep(duration float64, success bool)
}

// InitRegistry initializes the Prometheus registry
// Should be called once at application startup if metrics are enabled
func InitRegistry() {
	Registry = prometheus.NewRegistry()
}

// GetRegistry returns the global Prometheus registry, nil when metrics are disabled
func GetRegistry() *prometheus.Registry {
	return Registry
}

// IsEnabled returns true if metrics collection is enabled
func IsEnabled() bool {
	return Registry != nil
}

// SetGlobalLifecycleCollector installs the lifecycle collector
func SetGlobalLifecycleCollector(collector LifecycleMetricsRecorder) {
	globalLifecycleCollector = collector
}

// RecordTransition records one transition call and its per-crop outcome counts
func RecordTransition(transitionType string, succeeded, failed int) {
	if globalLifecycleCollector != nil {
		globalLifecycleCollector.RecordTransition(transitionType, succeeded, failed)
	}
}

// RecordCropFailure records a single crop failing a transition
func RecordCropFailure(reason string) {
	if globalLifecycleCollector != nil {
		globalLifecycleCollector.RecordCropFailure(reason)
	}
}

// RecordTaskTriggered records a task moving to triggered
func RecordTaskTriggered(taskType string) {
	if globalLifecycleCollector != nil {
		globalLifecycleCollector.RecordTaskTriggered(taskType)
	}
}

// RecordTasksDismissed records tasks dismissed on stage exit or by hand
func RecordTasksDismissed(count int) {
	if globalLifecycleCollector != nil && count > 0 {
		globalLifecycleCollector.RecordTasksDismissed(count)
	}
}

// RecordTasksScheduled records newly created tasks
func RecordTasksScheduled(count int) {
	if globalLifecycleCollector != nil && count > 0 {
		globalLifecycleCollector.RecordTasksScheduled(count)
	}
}

// RecordDueTasks sets the due-task gauge
func RecordDueTasks(count int) {
	if globalLifecycleCollector != nil {
		globalLifecycleCollector.RecordDueTasks(count)
	}
}

// RecordPlanAggregated records a plan written by the demand aggregator
func RecordPlanAggregated(status string) {
	if globalLifecycleCollector != nil {
		globalLifecycleCollector.RecordPlanAggregated(status)
	}
}

// RecordSweep records a scheduler sweep
func RecordSweep(duration float64, success bool) {
	if globalLifecycleCollector != nil {
		globalLifecycleCollector.RecordSweep(duration, success)
	}
}
