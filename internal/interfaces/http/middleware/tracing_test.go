package middleware

import (
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func setupTestTracer(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prevTP, prevProp := otel.GetTracerProvider(), otel.GetTextMapPropagator()
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	t.Cleanup(func() {
		_ = tp.Shutdown(t.Context())
		otel.SetTracerProvider(prevTP)
		otel.SetTextMapPropagator(prevProp)
	})
	return sr
}

func tracedRouter() *gin.Engine {
	router := gin.New()
	router.Use(
		RequestID(),
		Tracing(TracingConfig{ServiceName: "inventory-test", Enabled: true}),
		ActorAuth(ActorAuthConfig{JWTService: newJWTService()}),
		SpanEnricher(),
	)
	router.GET("/api/v1/inventory/:product_id", func(c *gin.Context) {
		switch c.Param("product_id") {
		case "boom":
			c.Status(http.StatusInternalServerError)
		case "missing":
			c.Status(http.StatusNotFound)
		default:
			c.Status(http.StatusOK)
		}
	})
	return router
}

func spanAttr(s sdktrace.ReadOnlySpan, key string) (attribute.Value, bool) {
	for _, kv := range s.Attributes() {
		if string(kv.Key) == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestTracing_Disabled(t *testing.T) {
	sr := setupTestTracer(t)

	router := gin.New()
	router.Use(Tracing(TracingConfig{Enabled: false}), SpanEnricher())
	router.GET("/test", func(c *gin.Context) { c.Status(http.StatusOK) })

	assert.Equal(t, http.StatusOK, serve(router, http.MethodGet, "/test", nil).Code)
	assert.Empty(t, sr.Ended())
}

func TestTracing_SpanPerRequest(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedRouter()

	serve(router, http.MethodGet, "/api/v1/inventory/p-1", map[string]string{
		RequestIDHeader: "req-9",
		ActorHeader:     "maker-3",
	})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	span := spans[0]
	assert.Equal(t, "GET /api/v1/inventory/:product_id", span.Name())

	requestID, ok := spanAttr(span, "request_id")
	require.True(t, ok)
	assert.Equal(t, "req-9", requestID.AsString())
	actor, ok := spanAttr(span, "actor_id")
	require.True(t, ok)
	assert.Equal(t, "maker-3", actor.AsString())
	assert.NotEqual(t, codes.Error, span.Status().Code)
}

func TestTracing_ContinuesIncomingTrace(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedRouter()

	serve(router, http.MethodGet, "/api/v1/inventory/p-1", map[string]string{
		"traceparent": "00-4bf92f3577b34da6a3ce929d0e0e4736-00f067aa0ba902b7-01",
	})

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", spans[0].SpanContext().TraceID().String())
}

func TestSpanEnricher_ErrorStatus(t *testing.T) {
	sr := setupTestTracer(t)
	router := tracedRouter()

	serve(router, http.MethodGet, "/api/v1/inventory/missing", nil)
	serve(router, http.MethodGet, "/api/v1/inventory/boom", nil)

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.NotEqual(t, codes.Error, spans[0].Status().Code, "4xx is an expected outcome")
	assert.Equal(t, codes.Error, spans[1].Status().Code)
}
