package observability

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecorder(t *testing.T) (*Recorder, *prometheus.Registry, *tracetest.SpanRecorder) {
	t.Helper()

	reg := prometheus.NewRegistry()
	spans := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(spans))

	r, err := New(func(o *Options) {
		o.Registerer = reg
		o.TracerProvider = tp
	})
	require.NoError(t, err)

	return r, reg, spans
}

func TestRecorder_Metrics(t *testing.T) {
	r, _, _ := newRecorder(t)
	m := r.Metrics()

	_, finish := r.Start(context.Background(), "echo", "id-1")
	assert.Equal(t, float64(1), testutil.ToFloat64(m.inFlight.WithLabelValues("echo")))
	finish("success", nil)

	_, finish = r.Start(context.Background(), "echo", "id-2")
	finish("execution_failure", errors.New("boom"))

	assert.Equal(t, float64(0), testutil.ToFloat64(m.inFlight.WithLabelValues("echo")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.callsTotal.WithLabelValues("echo", "success")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.callsTotal.WithLabelValues("echo", "execution_failure")))

	m.AddModelTokens("gpt", 12)
	assert.Equal(t, float64(12), testutil.ToFloat64(m.modelTokens.WithLabelValues("gpt")))
}

func TestRecorder_Spans(t *testing.T) {
	r, _, spans := newRecorder(t)

	_, finish := r.Start(context.Background(), "echo", "id-1")
	finish("execution_failure", errors.New("boom"))

	ended := spans.Ended()
	require.Len(t, ended, 1)
	assert.Equal(t, "tool.invoke", ended[0].Name())
	assert.Equal(t, codes.Error, ended[0].Status().Code)

	attrs := map[string]string{}
	for _, kv := range ended[0].Attributes() {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}
	assert.Equal(t, "echo", attrs["tool.name"])
	assert.Equal(t, "id-1", attrs["tool.invocation_id"])
	assert.Equal(t, "execution_failure", attrs["tool.outcome"])
}

func TestNewMetrics_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()

	_, err := NewMetrics(reg, "x")
	require.NoError(t, err)

	_, err = NewMetrics(reg, "x")
	assert.Error(t, err)
}

func TestHandler(t *testing.T) {
	r, reg, _ := newRecorder(t)

	_, finish := r.Start(context.Background(), "echo", "id")
	finish("success", nil)

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `agentmcp_tool_calls_total{outcome="success",tool="echo"} 1`)
}

func TestNoOp(t *testing.T) {
	ctx := context.Background()
	got, finish := NoOp{}.Start(ctx, "t", "id")
	assert.Equal(t, ctx, got)
	assert.NotPanics(t, func() { finish("success", nil) })
}

func TestInitTracer(t *testing.T) {
	tp, shutdown, err := InitTracer(context.Background(), TracerConfig{}, nil)
	require.NoError(t, err)
	assert.NotNil(t, tp)
	require.NoError(t, shutdown(context.Background()))

	var buf bytes.Buffer
	tp, shutdown, err = InitTracer(context.Background(), TracerConfig{Enabled: true, ServiceName: "svc"}, &buf)
	require.NoError(t, err)

	_, span := tp.Tracer("test").Start(context.Background(), "span")
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"span"`)
}
