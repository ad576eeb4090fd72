package observability

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the tracer name used for tool spans.
const InstrumentationName = "github.com/hupe1980/agentmcp"

// FinishFunc completes an observation.
type FinishFunc func(outcome string, err error)

// Observer observes tool invocations.
type Observer interface {
	Start(ctx context.Context, tool, invocationID string) (context.Context, FinishFunc)
}

// NoOp is an Observer that records nothing.
type NoOp struct{}

// Start returns ctx unchanged.
func (NoOp) Start(ctx context.Context, _, _ string) (context.Context, FinishFunc) {
	return ctx, func(string, error) {}
}

// Options configures a Recorder.
type Options struct {
	// Registerer receives the metric collectors. Nil disables metrics.
	Registerer prometheus.Registerer

	// Namespace prefixes metric names.
	Namespace string

	// TracerProvider creates the tool tracer. Defaults to the global provider.
	TracerProvider trace.TracerProvider
}

// Recorder is an Observer backed by Prometheus and OpenTelemetry. It is safe
// for concurrent use.
type Recorder struct {
	metrics *Metrics
	tracer  trace.Tracer
}

var _ Observer = (*Recorder)(nil)

// New creates a Recorder.
func New(optFns ...func(o *Options)) (*Recorder, error) {
	opts := Options{
		Namespace: "agentmcp",
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	r := &Recorder{tracer: opts.TracerProvider.Tracer(InstrumentationName)}

	if opts.Registerer != nil {
		m, err := NewMetrics(opts.Registerer, opts.Namespace)
		if err != nil {
			return nil, err
		}
		r.metrics = m
	}

	return r, nil
}

// Metrics returns the recorder's metrics, nil when disabled.
func (r *Recorder) Metrics() *Metrics { return r.metrics }

// Start opens a span for the invocation and marks it in flight.
func (r *Recorder) Start(ctx context.Context, tool, invocationID string) (context.Context, FinishFunc) {
	start := time.Now()

	ctx, span := r.tracer.Start(ctx, "tool.invoke",
		trace.WithSpanKind(trace.SpanKindServer),
		trace.WithAttributes(
			attribute.String("tool.name", tool),
			attribute.String("tool.invocation_id", invocationID),
		),
	)

	r.metrics.begin(tool)

	return ctx, func(outcome string, err error) {
		span.SetAttributes(attribute.String("tool.outcome", outcome))

		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, outcome)
		} else {
			span.SetStatus(codes.Ok, "")
		}

		span.End()

		r.metrics.end(tool, outcome, time.Since(start))
	}
}
