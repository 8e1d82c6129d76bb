package metrics

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/andrescamacho/microgreens-go/internal/domain/crop"
)

// DefaultInventoryInterval is how often growing crops are counted
const DefaultInventoryInterval = 30 * time.Second

// InventoryMetricsCollector publishes gauges of the crops currently growing
type InventoryMetricsCollector struct {
	crops    crop.Repository
	interval time.Duration

	cropsByStage      *prometheus.GaugeVec
	wateringSuspended prometheus.Gauge

	// Lifecycle
	ctx        context.Context
	cancelFunc context.CancelFunc
	wg         sync.WaitGroup
}

// NewInventoryMetricsCollector creates a collector polling crops every interval
func NewInventoryMetricsCollector(crops crop.Repository, interval time.Duration) *InventoryMetricsCollector {
	if interval <= 0 {
		interval = DefaultInventoryInterval
	}
	return &InventoryMetricsCollector{
		crops:    crops,
		interval: interval,

		cropsByStage: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "crops_growing",
				Help:      "Number of growing crops by current stage",
			},
			[]string{"stage"},
		),

		wateringSuspended: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "crops_watering_suspended",
				Help:      "Number of growing crops whose watering has been suspended",
			},
		),
	}
}

// Register registers the inventory gauges with the Prometheus registry
func (c *InventoryMetricsCollector) Register() error {
	if Registry == nil {
		return nil // Metrics not enabled
	}

	for _, metric := range []prometheus.Collector{c.cropsByStage, c.wateringSuspended} {
		if err := Registry.Register(metric); err != nil {
			return err
		}
	}
	return nil
}

// Start begins polling in the background
func (c *InventoryMetricsCollector) Start(ctx context.Context) {
	c.ctx, c.cancelFunc = context.WithCancel(ctx)

	c.wg.Add(1)
	go c.poll()
}

// Stop gracefully stops polling
func (c *InventoryMetricsCollector) Stop() {
	if c.cancelFunc != nil {
		c.cancelFunc()
	}
	c.wg.Wait()
}

func (c *InventoryMetricsCollector) poll() {
	defer c.wg.Done()

	if err := c.Refresh(c.ctx); err != nil {
		log.Printf("inventory metrics: %v", err)
	}

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-c.ctx.Done():
			return
		case <-ticker.C:
			if err := c.Refresh(c.ctx); err != nil {
				log.Printf("inventory metrics: %v", err)
			}
		}
	}
}

// Refresh recounts growing crops and replaces the gauges
func (c *InventoryMetricsCollector) Refresh(ctx context.Context) error {
	growing, err := c.crops.FindGrowingCrops(ctx)
	if err != nil {
		return err
	}

	counts := make(map[string]int)
	suspended := 0
	for _, cr := range growing {
		counts[string(cr.CurrentStage())]++
		if cr.IsWateringSuspended() {
			suspended++
		}
	}

	// Reset so stages that emptied out drop to absent
	c.cropsByStage.Reset()
	for stage, n := range counts {
		c.cropsByStage.WithLabelValues(stage).Set(float64(n))
	}
	c.wateringSuspended.Set(float64(suspended))
	return nil
}
