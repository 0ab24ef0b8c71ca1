// Package observability provides OpenTelemetry tracing for colschema
package observability

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"

	"github.com/ajitpratap0/colschema/pkg/errors"
)

// InstrumentationName names the tracer every colschema span is started from.
const InstrumentationName = "github.com/ajitpratap0/colschema"

// TracingConfig contains tracing configuration
type TracingConfig struct {
	ServiceName    string
	ServiceVersion string
	// Exporter is "none" or "stdout"
	Exporter     string
	SamplingRate float64
	// Output receives stdout exporter spans; nil means stderr
	Output io.Writer
}

// DefaultTracingConfig returns tracing disabled
func DefaultTracingConfig() TracingConfig {
	return TracingConfig{
		ServiceName:  "colschema",
		Exporter:     "none",
		SamplingRate: 1.0,
	}
}

var (
	providerMu sync.Mutex
	provider   *sdktrace.TracerProvider
)

// InitTracing installs a global tracer provider for the configuration. With
// the "none" exporter spans stay no-ops. The returned function flushes and
// shuts the provider down.
func InitTracing(config TracingConfig) (func(context.Context) error, error) {
	noop := func(context.Context) error { return nil }

	var exporter sdktrace.SpanExporter
	switch config.Exporter {
	case "", "none":
		return noop, nil
	case "stdout":
		out := config.Output
		if out == nil {
			out = os.Stderr
		}
		exp, err := stdouttrace.New(stdouttrace.WithWriter(out))
		if err != nil {
			return noop, errors.Wrap(err, errors.ErrorTypeConfig, "failed to create stdout exporter")
		}
		exporter = exp
	default:
		return noop, errors.Newf(errors.ErrorTypeConfig, "unknown trace exporter %q", config.Exporter).
			WithDetail("allowed", "none, stdout")
	}

	res := resource.NewSchemaless(
		attribute.String("service.name", config.ServiceName),
		attribute.String("service.version", config.ServiceVersion),
	)

	// Configure sampling
	var sampler sdktrace.Sampler
	switch {
	case config.SamplingRate <= 0:
		sampler = sdktrace.NeverSample()
	case config.SamplingRate >= 1.0:
		sampler = sdktrace.AlwaysSample()
	default:
		sampler = sdktrace.TraceIDRatioBased(config.SamplingRate)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
		sdktrace.WithSyncer(exporter),
	)
	SetTracerProvider(tp)

	return func(ctx context.Context) error {
		providerMu.Lock()
		defer providerMu.Unlock()
		if provider == tp {
			provider = nil
		}
		return tp.Shutdown(ctx)
	}, nil
}

// SetTracerProvider replaces the global tracer provider.
func SetTracerProvider(tp *sdktrace.TracerProvider) {
	providerMu.Lock()
	defer providerMu.Unlock()
	provider = tp
	otel.SetTracerProvider(tp)
}

// Tracer returns the colschema tracer from the global provider
func Tracer() trace.Tracer {
	return otel.Tracer(InstrumentationName)
}

// Span wraps a trace span and batches its attributes until End.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// StartSpan starts a span named operation as a child of any span in ctx.
func StartSpan(ctx context.Context, operation string) (context.Context, *Span) {
	ctx, span := Tracer().Start(ctx, operation)
	return ctx, &Span{span: span, startTime: time.Now()}
}

// SetAttribute adds an attribute to the span
func (s *Span) SetAttribute(key string, value interface{}) {
	var attr attribute.KeyValue

	switch v := value.(type) {
	case string:
		attr = attribute.String(key, v)
	case int:
		attr = attribute.Int(key, v)
	case int64:
		attr = attribute.Int64(key, v)
	case float64:
		attr = attribute.Float64(key, v)
	case bool:
		attr = attribute.Bool(key, v)
	case fmt.Stringer:
		attr = attribute.String(key, v.String())
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// End records err as the span status and ends the span.
func (s *Span) End(err error) {
	s.attributes = append(s.attributes, attribute.Float64("duration_ms",
		float64(time.Since(s.startTime).Microseconds())/1000))

	if err != nil {
		s.span.RecordError(err)
		s.span.SetStatus(codes.Error, err.Error())
		if t := errors.TypeOf(err); t != "" {
			s.attributes = append(s.attributes, attribute.String("error.type", string(t)))
		}
	} else {
		s.span.SetStatus(codes.Ok, "")
	}

	s.span.SetAttributes(s.attributes...)
	s.span.End()
}
