package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// LifecycleMetricsCollector exposes transition, task and planning metrics
type LifecycleMetricsCollector struct {
	transitionsTotal  *prometheus.CounterVec
	cropsTransitioned *prometheus.CounterVec
	cropFailures      *prometheus.CounterVec
	tasksTriggered    *prometheus.CounterVec
	tasksDismissed    prometheus.Counter
	tasksScheduled    prometheus.Counter
	dueTasks          prometheus.Gauge
	plansAggregated   *prometheus.CounterVec
	sweepDuration     *prometheus.HistogramVec
}

// NewLifecycleMetricsCollector creates a new lifecycle metrics collector
func NewLifecycleMetricsCollector() *LifecycleMetricsCollector {
	return &LifecycleMetricsCollector{
		transitionsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "transitions_total",
				Help:      "Transition calls by type and outcome (complete, partial, failed)",
			},
			[]string{"type", "outcome"},
		),
		cropsTransitioned: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "crops_transitioned_total",
				Help:      "Crops processed by transition calls by type and result",
			},
			[]string{"type", "result"},
		),
		cropFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "crop_failures_total",
				Help:      "Per-crop transition failures by reason",
			},
			[]string{"reason"},
		),
		tasksTriggered: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_triggered_total",
				Help:      "Tasks triggered by type",
			},
			[]string{"task_type"},
		),
		tasksDismissed: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_dismissed_total",
				Help:      "Pending tasks dismissed",
			},
		),
		tasksScheduled: prometheus.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "tasks_scheduled_total",
				Help:      "Tasks created by stage entries and reconcile sweeps",
			},
		),
		dueTasks: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "due_tasks",
				Help:      "Pending tasks due at the last sweep",
			},
		),
		plansAggregated: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "plans_aggregated_total",
				Help:      "Crop plans written by demand aggregation by result",
			},
			[]string{"result"},
		),
		sweepDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "sweep_duration_seconds",
				Help:      "Scheduler sweep duration distribution",
				Buckets:   []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5, 5.0},
			},
			[]string{"status"},
		),
	}
}

// Register registers all lifecycle metrics with the Prometheus registry
func (c *LifecycleMetricsCollector) Register() error {
	if Registry == nil {
		return nil
	}

	collectors := []prometheus.Collector{
		c.transitionsTotal,
		c.cropsTransitioned,
		c.cropFailures,
		c.tasksTriggered,
		c.tasksDismissed,
		c.tasksScheduled,
		c.dueTasks,
		c.plansAggregated,
		c.sweepDuration,
	}
	for _, collector := range collectors {
		if err := Registry.Register(collector); err != nil {
			return err
		}
	}
	return nil
}

func (c *LifecycleMetricsCollector) RecordTransition(transitionType string, succeeded, failed int) {
	outcome := "complete"
	switch {
	case succeeded == 0:
		outcome = "failed"
	case failed > 0:
		outcome = "partial"
	}
	c.transitionsTotal.WithLabelValues(transitionType, outcome).Inc()
	c.cropsTransitioned.WithLabelValues(transitionType, "succeeded").Add(float64(succeeded))
	c.cropsTransitioned.WithLabelValues(transitionType, "failed").Add(float64(failed))
}

func (c *LifecycleMetricsCollector) RecordCropFailure(reason string) {
	c.cropFailures.WithLabelValues(reason).Inc()
}

func (c *LifecycleMetricsCollector) RecordTaskTriggered(taskType string) {
	c.tasksTriggered.WithLabelValues(taskType).Inc()
}

func (c *LifecycleMetricsCollector) RecordTasksDismissed(count int) {
	c.tasksDismissed.Add(float64(count))
}

func (c *LifecycleMetricsCollector) RecordTasksScheduled(count int) {
	c.tasksScheduled.Add(float64(count))
}

func (c *LifecycleMetricsCollector) RecordDueTasks(count int) {
	c.dueTasks.Set(float64(count))
}

func (c *LifecycleMetricsCollector) RecordPlanAggregated(result string) {
	c.plansAggregated.WithLabelValues(result).Inc()
}

func (c *LifecycleMetricsCollector) RecordSweep(duration float64, success bool) {
	status := "success"
	if !success {
		status = "error"
	}
	c.sweepDuration.WithLabelValues(status).Observe(duration)
}
