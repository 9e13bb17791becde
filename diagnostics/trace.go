package diagnostics

import (
	"context"
	"reflect"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/junioryono/inject"
)

// Span names emitted by TraceCallback.
const (
	SpanCreate  = "inject.callsite.create"
	SpanResolve = "inject.resolve"
	SpanPromote = "inject.promote"
)

// TraceCallback emits one OpenTelemetry span per provider event. The
// callback has no request context, so spans are roots of their own traces;
// resolve spans are backdated to cover the resolution.
type TraceCallback struct {
	tracer trace.Tracer
}

var _ inject.Callback = (*TraceCallback)(nil)

// NewTraceCallback creates a callback emitting spans through tracer.
func NewTraceCallback(tracer trace.Tracer) *TraceCallback {
	return &TraceCallback{tracer: tracer}
}

func (c *TraceCallback) OnCreate(serviceType reflect.Type, cs inject.CallSite) {
	_, span := c.tracer.Start(context.Background(), SpanCreate,
		trace.WithAttributes(
			attribute.String("inject.service", typeName(serviceType)),
			attribute.String("inject.kind", cs.Kind().String()),
		),
	)
	span.End()
}

func (c *TraceCallback) OnResolve(serviceType reflect.Type, elapsed time.Duration, err error) {
	end := time.Now()

	_, span := c.tracer.Start(context.Background(), SpanResolve,
		trace.WithTimestamp(end.Add(-elapsed)),
		trace.WithAttributes(attribute.String("inject.service", typeName(serviceType))),
	)
	finish(span, err)
	span.End(trace.WithTimestamp(end))
}

func (c *TraceCallback) OnPromote(serviceType reflect.Type, err error) {
	_, span := c.tracer.Start(context.Background(), SpanPromote,
		trace.WithAttributes(attribute.String("inject.service", typeName(serviceType))),
	)
	finish(span, err)
	span.End()
}

func finish(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return
	}
	span.SetStatus(codes.Ok, "")
}
