package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/handmade/backend/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewProfiler(t *testing.T) {
	t.Run("disabled is a no-op", func(t *testing.T) {
		p, err := NewProfiler(config.TelemetryConfig{}, zap.NewNop())
		require.NoError(t, err)
		assert.False(t, p.IsEnabled())
		assert.NoError(t, p.Stop())
	})

	t.Run("enabled requires an endpoint", func(t *testing.T) {
		_, err := NewProfiler(config.TelemetryConfig{ProfilingEnabled: true, ServiceName: "inventory"}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestSanitizeLabels(t *testing.T) {
	long := make([]byte, MaxLabelValueLength+10)
	for i := range long {
		long[i] = 'a'
	}

	pairs := sanitizeLabels(map[string]string{
		"Route":    "/api/v1/inventory/:product_id",
		"method":   "POST",
		"order_id": "7f1c",
		"empty":    "",
		"job name": string(long),
	})
	assert.Equal(t, []string{
		"job_name", string(long[:MaxLabelValueLength]),
		"method", "POST",
		"route", "/api/v1/inventory/:product_id",
	}, pairs)
}

func TestWithProfilingLabels(t *testing.T) {
	var got string
	WithProfilingLabels(context.Background(), map[string]string{ProfilingLabelJob: "catalog_sync"}, func(ctx context.Context) {
		got, _ = pprof.Label(ctx, ProfilingLabelJob)
	})
	assert.Equal(t, "catalog_sync", got)

	called := false
	WithProfilingLabels(context.Background(), nil, func(context.Context) { called = true })
	assert.True(t, called)
}
