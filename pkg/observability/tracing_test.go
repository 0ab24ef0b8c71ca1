package observability

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	SetTracerProvider(tp)
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })
	return sr
}

func attrs(span sdktrace.ReadOnlySpan) map[attribute.Key]attribute.Value {
	out := make(map[attribute.Key]attribute.Value)
	for _, kv := range span.Attributes() {
		out[kv.Key] = kv.Value
	}
	return out
}

type stringer struct{}

func (stringer) String() string { return "three_level" }

func TestSpanAttributesAndStatus(t *testing.T) {
	sr := recordSpans(t)

	ctx, parent := StartSpan(context.Background(), "parent")
	_, child := StartSpan(ctx, "child")
	child.SetAttribute("rows", 3)
	child.SetAttribute("bytes", int64(42))
	child.SetAttribute("ratio", 0.5)
	child.SetAttribute("ok", true)
	child.SetAttribute("name", "orders")
	child.SetAttribute("encoding", stringer{})
	child.SetAttribute("other", []int{1})
	child.End(nil)
	parent.End(errors.New(errors.ErrorTypeRecursiveType, "cycle"))

	spans := sr.Ended()
	require.Len(t, spans, 2)

	c := spans[0]
	assert.Equal(t, "child", c.Name())
	assert.Equal(t, spans[1].SpanContext().SpanID(), c.Parent().SpanID())
	assert.Equal(t, codes.Ok, c.Status().Code)
	a := attrs(c)
	assert.Equal(t, int64(3), a["rows"].AsInt64())
	assert.Equal(t, int64(42), a["bytes"].AsInt64())
	assert.Equal(t, 0.5, a["ratio"].AsFloat64())
	assert.True(t, a["ok"].AsBool())
	assert.Equal(t, "orders", a["name"].AsString())
	assert.Equal(t, "three_level", a["encoding"].AsString())
	assert.Equal(t, "[1]", a["other"].AsString())
	assert.Contains(t, a, attribute.Key("duration_ms"))

	p := spans[1]
	assert.Equal(t, codes.Error, p.Status().Code)
	assert.Equal(t, "recursive_type", attrs(p)["error.type"].AsString())
	require.Len(t, p.Events(), 1)
	assert.Equal(t, "exception", p.Events()[0].Name)
}

func TestInitTracing(t *testing.T) {
	shutdown, err := InitTracing(DefaultTracingConfig())
	require.NoError(t, err)
	assert.NoError(t, shutdown(context.Background()))

	cfg := DefaultTracingConfig()
	cfg.Exporter = "jaeger"
	_, err = InitTracing(cfg)
	assert.True(t, errors.IsType(err, errors.ErrorTypeConfig))

	var out bytes.Buffer
	cfg = DefaultTracingConfig()
	cfg.Exporter = "stdout"
	cfg.Output = &out
	shutdown, err = InitTracing(cfg)
	require.NoError(t, err)

	_, span := StartSpan(context.Background(), "exported")
	span.End(nil)
	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, out.String(), `"Name":"exported"`)
}
