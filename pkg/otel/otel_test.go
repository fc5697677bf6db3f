package otel

import (
	"bytes"
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"gotur/pkg/logger"
)

func TestAddSpanWithoutTracer(t *testing.T) {
	ctx, span := AddSpan(context.Background(), "nothing")
	defer span.End()

	assert.False(t, span.SpanContext().IsValid())
	assert.Empty(t, GetTraceID(ctx))
}

func TestAddSpanRecordsTraceID(t *testing.T) {
	tp := sdktrace.NewTracerProvider(sdktrace.WithSampler(sdktrace.AlwaysSample()))
	defer tp.Shutdown(context.Background())

	ctx := InjectTracing(context.Background(), tp.Tracer("test"))
	ctx, span := AddSpan(ctx, "checkout")
	defer span.End()

	id := GetTraceID(ctx)
	assert.Len(t, id, 32)
	assert.Equal(t, span.SpanContext().TraceID().String(), id)
}

func TestInitTracingWithoutExport(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", GetTraceID)

	tp, shutdown, err := InitTracing(log, Config{ServiceName: "test", Probability: 1})
	require.NoError(t, err)
	defer shutdown(context.Background())

	ctx := InjectTracing(context.Background(), tp.Tracer("test"))
	ctx, span := AddSpan(ctx, "op")
	defer span.End()
	assert.NotEmpty(t, GetTraceID(ctx))
}

func TestInitTracingToStdout(t *testing.T) {
	log := logger.New(io.Discard, logger.LevelInfo, "test", GetTraceID)
	var buf bytes.Buffer

	tp, shutdown, err := InitTracing(log, Config{ServiceName: "test", Host: StdoutHost, Probability: 1, Writer: &buf})
	require.NoError(t, err)

	ctx := InjectTracing(context.Background(), tp.Tracer("test"))
	_, span := AddSpan(ctx, "checkout")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), "checkout")
}
