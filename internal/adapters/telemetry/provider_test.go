package telemetry_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.trai.ch/lockforge/internal/adapters/telemetry"
	"go.trai.ch/lockforge/internal/core/ports"
)

func TestInterfaceSatisfaction(_ *testing.T) {
	var _ ports.Tracer = (*telemetry.OTelTracer)(nil)
	var _ ports.Span = (*telemetry.OTelSpan)(nil)
	var _ ports.Tracer = (*telemetry.NoOpTracer)(nil)
	var _ ports.Span = telemetry.NoOpSpan{}
}

func TestOTelTracer_RecordsSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	provider := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	tracer := telemetry.NewOTelTracerFrom(provider.Tracer("test"))

	_, span := tracer.Start(context.Background(), "lock linux-64")
	span.SetAttribute("platform", "linux-64")
	span.SetAttribute("packages", 12)
	span.SetAttribute("skipped", false)
	span.RecordError(errors.New("solver exited 1"))
	span.End()

	ended := recorder.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "lock linux-64", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)
	assert.Contains(t, ended[0].Attributes(), attribute.String("platform", "linux-64"))
	assert.Contains(t, ended[0].Attributes(), attribute.Int("packages", 12))
	assert.Len(t, ended[0].Events(), 1)
}

func TestOTelTracer_GlobalProvider(t *testing.T) {
	tracer := telemetry.NewOTelTracer(telemetry.InstrumentationName)
	_, span := tracer.Start(context.Background(), "noop")
	assert.NotPanics(t, func() {
		span.RecordError(nil)
		span.End()
	})
}

func TestNoOpTracer(t *testing.T) {
	ctx := context.Background()
	got, span := telemetry.NewNoOpTracer().Start(ctx, "x")
	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() {
		span.SetAttribute("k", "v")
		span.RecordError(errors.New("x"))
		span.End()
	})
}
