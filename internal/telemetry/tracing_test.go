package telemetry

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func TestInitTracerProviderRecordsSpans(t *testing.T) {
	previous := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(previous) })

	rec := tracetest.NewSpanRecorder()
	tp, err := InitTracerProvider(context.Background(), "run-1", sdktrace.WithSpanProcessor(rec))
	require.NoError(t, err)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	_, span := otel.Tracer("test").Start(context.Background(), "work")
	span.End()

	ended := rec.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "work", ended[0].Name())

	var service, runID string
	for _, kv := range ended[0].Resource().Attributes() {
		switch kv.Key {
		case "service.name":
			service = kv.Value.AsString()
		case "bunprodict.run_id":
			runID = kv.Value.AsString()
		}
	}
	assert.Equal(t, ServiceName, service)
	assert.Equal(t, "run-1", runID)
}
