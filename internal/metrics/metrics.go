// Package metrics holds the OpenTelemetry instruments of the EduConnect API.
// Repositories time every query through Database, the event publisher
// reports through Messaging, and the booking, review and verification
// services count marketplace activity through Marketplace.
package metrics

import (
	"context"
	"fmt"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"
)

// Latency buckets in seconds, 1ms to 10s.
var latencyBuckets = []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10}

type Metrics struct {
	Runtime  *RuntimeMetrics
	Database *DatabaseMetrics

	// Messaging covers session/review/verification event publishing.
	Messaging *MessagingMetrics

	// Health backs the /ready probe and the service.info gauge.
	Health *HealthMetrics

	// Marketplace counts bookings, slot conflicts, status transitions,
	// reviews and tutor verifications.
	Marketplace *MarketplaceMetrics

	meter metric.Meter
}

// New registers every collector on the meter named after the service. The
// meter comes from the global provider, so with telemetry export disabled
// the instruments exist but record nothing.
func New(ctx context.Context, serviceName string, logger *slog.Logger) (*Metrics, error) {
	meter := otel.Meter(serviceName)
	m := &Metrics{meter: meter}

	var err error
	if m.Runtime, err = NewRuntimeMetrics(ctx, meter); err != nil {
		return nil, fmt.Errorf("runtime collectors: %w", err)
	}
	if m.Database, err = NewDatabaseMetrics(meter); err != nil {
		return nil, fmt.Errorf("database collectors: %w", err)
	}
	if m.Messaging, err = NewMessagingMetrics(meter); err != nil {
		return nil, fmt.Errorf("event publishing collectors: %w", err)
	}
	if m.Health, err = NewHealthMetrics(meter); err != nil {
		return nil, fmt.Errorf("health collectors: %w", err)
	}
	if m.Marketplace, err = NewMarketplaceMetrics(meter); err != nil {
		return nil, fmt.Errorf("marketplace collectors: %w", err)
	}

	logger.Info("metrics registered", "meter", serviceName,
		"groups", []string{"runtime", "database", "messaging", "health", "marketplace"})
	return m, nil
}

// Meter is used for callbacks registered after startup, such as the bun
// connection pool gauges.
func (m *Metrics) Meter() metric.Meter {
	return m.meter
}

// NewMock returns Metrics with no instruments behind it, for repository and
// handler tests. Health still tracks dependency state so readiness tests
// can inspect it.
func NewMock() *Metrics {
	return &Metrics{
		Runtime:     &RuntimeMetrics{},
		Database:    &DatabaseMetrics{},
		Messaging:   &MessagingMetrics{},
		Health:      &HealthMetrics{dependencies: map[string]*DependencyStatus{}},
		Marketplace: &MarketplaceMetrics{},
	}
}
