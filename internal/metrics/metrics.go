// Package metrics provides engine metrics collection and reporting.
// Counters are written periodically to Redis for centralized access.
package metrics

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// MetricsKey is the Redis key engine metrics are written to.
	MetricsKey = "metrics:engine"
	// MetricsTTL is how long metrics stay in Redis if not refreshed.
	MetricsTTL = 2 * time.Minute
	// DefaultReportInterval is the default interval for writing metrics to Redis.
	DefaultReportInterval = 30 * time.Second
)

// EngineMetrics holds a snapshot of engine counters.
type EngineMetrics struct {
	StartedAt   time.Time `json:"started_at"`
	LastUpdated time.Time `json:"last_updated"`

	DirectivesReceived uint64 `json:"directives_received"`
	Executions         uint64 `json:"executions"`
	TriggersRouted     uint64 `json:"triggers_routed"`
	ParseFailures      uint64 `json:"parse_failures"`
	Passivations       uint64 `json:"passivations"`
	DeliveriesFailed   uint64 `json:"deliveries_failed"`
}

// Collector collects and reports engine metrics.
type Collector struct {
	redis          *redis.Client
	startedAt      time.Time
	reportInterval time.Duration

	directivesReceived atomic.Uint64
	executions         atomic.Uint64
	triggersRouted     atomic.Uint64
	parseFailures      atomic.Uint64
	passivations       atomic.Uint64
	deliveriesFailed   atomic.Uint64

	stopCh chan struct{}
	once   sync.Once
	wg     sync.WaitGroup
}

// NewCollector creates a new metrics collector.
func NewCollector(redisClient *redis.Client) *Collector {
	return &Collector{
		redis:          redisClient,
		startedAt:      time.Now().UTC(),
		reportInterval: DefaultReportInterval,
		stopCh:         make(chan struct{}),
	}
}

// SetReportInterval sets the interval for writing metrics to Redis.
func (c *Collector) SetReportInterval(interval time.Duration) {
	c.reportInterval = interval
}

// Start begins the periodic metrics reporting to Redis.
func (c *Collector) Start(ctx context.Context) {
	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		ticker := time.NewTicker(c.reportInterval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				c.writeMetrics(context.Background()) // Final write
				return
			case <-c.stopCh:
				c.writeMetrics(context.Background()) // Final write
				return
			case <-ticker.C:
				c.writeMetrics(ctx)
			}
		}
	}()
}

// Stop stops the metrics reporting.
func (c *Collector) Stop() {
	c.once.Do(func() { close(c.stopCh) })
	c.wg.Wait()
}

// RecordDirective increments the directives received counter.
func (c *Collector) RecordDirective() {
	c.directivesReceived.Add(1)
}

// RecordExecution increments the executions counter.
func (c *Collector) RecordExecution() {
	c.executions.Add(1)
}

// RecordTrigger increments the triggers routed counter.
func (c *Collector) RecordTrigger() {
	c.triggersRouted.Add(1)
}

// RecordParseFailure increments the parse failures counter.
func (c *Collector) RecordParseFailure() {
	c.parseFailures.Add(1)
}

// RecordPassivation increments the passivations counter.
func (c *Collector) RecordPassivation() {
	c.passivations.Add(1)
}

// RecordDeliveryFailure increments the failed deliveries counter.
func (c *Collector) RecordDeliveryFailure() {
	c.deliveriesFailed.Add(1)
}

// Snapshot returns the current counter values.
func (c *Collector) Snapshot() EngineMetrics {
	return EngineMetrics{
		StartedAt:          c.startedAt,
		LastUpdated:        time.Now().UTC(),
		DirectivesReceived: c.directivesReceived.Load(),
		Executions:         c.executions.Load(),
		TriggersRouted:     c.triggersRouted.Load(),
		ParseFailures:      c.parseFailures.Load(),
		Passivations:       c.passivations.Load(),
		DeliveriesFailed:   c.deliveriesFailed.Load(),
	}
}

// writeMetrics writes the current snapshot to Redis.
func (c *Collector) writeMetrics(ctx context.Context) {
	if c.redis == nil {
		return
	}

	data, err := json.Marshal(c.Snapshot())
	if err != nil {
		slog.Error("Failed to marshal metrics", "error", err)
		return
	}

	if err := c.redis.Set(ctx, MetricsKey, data, MetricsTTL).Err(); err != nil {
		slog.Warn("Failed to write metrics to Redis", "error", err)
		return
	}
}

// String implements fmt.Stringer for debug logging.
func (c *Collector) String() string {
	s := c.Snapshot()
	return fmt.Sprintf("executions=%d triggers=%d parse_failures=%d passivations=%d",
		s.Executions, s.TriggersRouted, s.ParseFailures, s.Passivations)
}
