package diagnostics_test

import (
	"errors"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/junioryono/inject"
	"github.com/junioryono/inject/diagnostics"
)

var errBroken = errors.New("broken")

type Clock struct{ Started time.Time }

func newClock() *Clock { return &Clock{Started: time.Now()} }

type Broken struct{}

func newBroken() (*Broken, error) { return nil, errBroken }

// exercise builds a provider with callback and resolves a healthy service
// three times and a failing one once.
func exercise(t *testing.T, callback inject.Callback) {
	t.Helper()

	c := inject.NewCollection()
	require.NoError(t, c.AddSingleton(newClock))
	require.NoError(t, c.AddTransient(newBroken))

	provider, err := c.Build(inject.WithCallback(callback), inject.WithPromotionThreshold(2))
	require.NoError(t, err)

	for range 3 {
		_, err := inject.Resolve[*Clock](provider)
		require.NoError(t, err)
	}
	_, err = inject.Resolve[*Broken](provider)
	require.ErrorIs(t, err, errBroken)

	require.NoError(t, provider.Close())
}

func TestLogCallback(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	exercise(t, diagnostics.NewLogCallback(zap.New(core)))

	created := logs.FilterMessage("call site created").All()
	require.Len(t, created, 2)
	assert.Equal(t, "inject", created[0].LoggerName)
	assert.Equal(t, "*diagnostics_test.Clock", created[0].ContextMap()["service"])
	assert.Equal(t, "Singleton", created[0].ContextMap()["kind"])

	assert.Equal(t, 3, logs.FilterMessage("service resolved").Len())

	failed := logs.FilterMessage("service resolution failed").All()
	require.Len(t, failed, 1)
	assert.Equal(t, zapcore.WarnLevel, failed[0].Level)
	assert.Equal(t, "broken", failed[0].ContextMap()["error"])

	assert.Equal(t, 1, logs.FilterMessage("service compiled").Len())
}

func TestLogCallback_NilLogger(t *testing.T) {
	cb := diagnostics.NewLogCallback(nil)
	assert.NotPanics(t, func() {
		cb.OnResolve(nil, time.Millisecond, errBroken)
		cb.OnPromote(reflect.TypeOf(0), errBroken)
	})
}

func TestMetricsCallback(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics, err := diagnostics.NewMetricsCallback(reg)
	require.NoError(t, err)

	exercise(t, metrics)

	expected := `
# HELP inject_callsites_created_total Number of call sites built, by call site kind.
# TYPE inject_callsites_created_total counter
inject_callsites_created_total{kind="Singleton"} 1
inject_callsites_created_total{kind="Transient"} 1
# HELP inject_resolutions_total Number of service resolutions, by service and result.
# TYPE inject_resolutions_total counter
inject_resolutions_total{result="success",service="*diagnostics_test.Clock"} 3
inject_resolutions_total{result="error",service="*diagnostics_test.Broken"} 1
# HELP inject_promotions_total Number of background compilations, by result.
# TYPE inject_promotions_total counter
inject_promotions_total{result="success"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected),
		"inject_callsites_created_total",
		"inject_resolutions_total",
		"inject_promotions_total",
	))

	series, err := testutil.GatherAndCount(reg, "inject_resolution_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 2, series)
}

func TestMetricsCallback_DuplicateRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := diagnostics.NewMetricsCallback(reg)
	require.NoError(t, err)

	_, err = diagnostics.NewMetricsCallback(reg)
	var already prometheus.AlreadyRegisteredError
	assert.ErrorAs(t, err, &already)
}

func TestTraceCallback(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	t.Cleanup(func() { _ = tp.Shutdown(t.Context()) })

	exercise(t, diagnostics.NewTraceCallback(tp.Tracer("inject")))

	counts := make(map[string]int)
	var failed sdktrace.ReadOnlySpan
	for _, span := range recorder.Ended() {
		counts[span.Name()]++
		if span.Name() == diagnostics.SpanResolve && span.Status().Code == codes.Error {
			failed = span
		}
		assert.False(t, span.EndTime().Before(span.StartTime()), span.Name())
	}

	assert.Equal(t, 2, counts[diagnostics.SpanCreate])
	assert.Equal(t, 4, counts[diagnostics.SpanResolve])
	assert.Equal(t, 1, counts[diagnostics.SpanPromote])

	require.NotNil(t, failed)
	assert.Equal(t, "broken", failed.Status().Description)
	require.Len(t, failed.Events(), 1)
	assert.Equal(t, "exception", failed.Events()[0].Name)

	var service string
	for _, attr := range failed.Attributes() {
		if attr.Key == "inject.service" {
			service = attr.Value.AsString()
		}
	}
	assert.Equal(t, "*diagnostics_test.Broken", service)
}

type countingCallback struct {
	creates, resolves, promotes int
}

func (c *countingCallback) OnCreate(reflect.Type, inject.CallSite)       { c.creates++ }
func (c *countingCallback) OnResolve(reflect.Type, time.Duration, error) { c.resolves++ }
func (c *countingCallback) OnPromote(reflect.Type, error)                { c.promotes++ }

func TestMulti(t *testing.T) {
	a, b := &countingCallback{}, &countingCallback{}
	exercise(t, diagnostics.Multi(a, nil, b))

	for _, cb := range []*countingCallback{a, b} {
		assert.Equal(t, 2, cb.creates)
		assert.Equal(t, 4, cb.resolves)
		assert.Equal(t, 1, cb.promotes)
	}
}
