package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

// newTestMeter returns a meter backed by a manual reader
func newTestMeter(t *testing.T) (*sdkmetric.ManualReader, *sdkmetric.MeterProvider) {
	t.Helper()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })
	return reader, provider
}

func collect(t *testing.T, reader *sdkmetric.ManualReader) metricdata.ResourceMetrics {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))
	return rm
}

func findMetric(rm metricdata.ResourceMetrics, name string) (metricdata.Metrics, bool) {
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name == name {
				return m, true
			}
		}
	}
	return metricdata.Metrics{}, false
}

// sumInt64 adds every data point of an int64 sum or gauge whose attributes
// include all of attrs
func sumInt64(t *testing.T, rm metricdata.ResourceMetrics, name string, attrs ...attribute.KeyValue) int64 {
	t.Helper()
	m, ok := findMetric(rm, name)
	require.True(t, ok, "metric %s not collected", name)

	var points []metricdata.DataPoint[int64]
	switch data := m.Data.(type) {
	case metricdata.Sum[int64]:
		points = data.DataPoints
	case metricdata.Gauge[int64]:
		points = data.DataPoints
	default:
		t.Fatalf("metric %s has unexpected data type %T", name, m.Data)
	}

	var total int64
	for _, p := range points {
		if hasAll(p.Attributes, attrs) {
			total += p.Value
		}
	}
	return total
}

func hasAll(set attribute.Set, attrs []attribute.KeyValue) bool {
	for _, kv := range attrs {
		v, ok := set.Value(kv.Key)
		if !ok || v != kv.Value {
			return false
		}
	}
	return true
}

func TestCounterAndGauge(t *testing.T) {
	reader, provider := newTestMeter(t)
	meter := provider.Meter("test")
	ctx := context.Background()

	counter, err := NewCounter(meter, "test_total", "test counter", "{things}")
	require.NoError(t, err)
	counter.Inc(ctx, AttrOperation.String("reserve"))
	counter.Add(ctx, 4, AttrOperation.String("reserve"))
	counter.Inc(ctx, AttrOperation.String("release"))

	gauge, err := NewGauge(meter, "test_gauge", "test gauge", "{things}")
	require.NoError(t, err)
	gauge.Record(ctx, 3)
	gauge.Record(ctx, 7)

	rm := collect(t, reader)
	require.Equal(t, int64(5), sumInt64(t, rm, "test_total", AttrOperation.String("reserve")))
	require.Equal(t, int64(6), sumInt64(t, rm, "test_total"))
	require.Equal(t, int64(7), sumInt64(t, rm, "test_gauge"))
}
