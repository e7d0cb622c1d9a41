package metrics

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func TestNewMock_IgnoresRecords(t *testing.T) {
	m := NewMock()
	ctx := context.Background()

	assert.NotPanics(t, func() {
		m.Database.RecordQuery(ctx, "select", "sessions", time.Millisecond, errors.New("x"))
		m.Messaging.RecordPublish(ctx, "nats", "session.booked", time.Millisecond, nil)
		m.Marketplace.RecordSessionBooked(ctx, "online")
		m.Marketplace.RecordReview(ctx, 5)
		m.Health.RecordDependencyCheck(ctx, "postgres", time.Millisecond, nil)
	})
	assert.True(t, m.Health.Available("postgres"))
}

func TestMarketplaceMetrics_Counts(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	mm, err := NewMarketplaceMetrics(provider.Meter("test"))
	require.NoError(t, err)

	ctx := context.Background()
	mm.RecordSessionBooked(ctx, "online")
	mm.RecordSessionBooked(ctx, "online")
	mm.RecordBookingConflict(ctx)

	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(ctx, &rm))

	totals := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if sum, ok := m.Data.(metricdata.Sum[int64]); ok {
				for _, dp := range sum.DataPoints {
					totals[m.Name] += dp.Value
				}
			}
		}
	}
	assert.Equal(t, int64(2), totals["marketplace.sessions.booked"])
	assert.Equal(t, int64(1), totals["marketplace.sessions.conflicts"])
}
