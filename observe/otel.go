package observe

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const instrumentationName = "github.com/seb7887/retryx/observe"

// Tracer is an Observer emitting one OpenTelemetry span per run, with an
// event per attempt and per backoff wait. Spans are rooted in the
// background context; the observer protocol carries no caller context, so
// parenting to an enclosing span is up to the caller's own tracing.
type Tracer struct {
	tracer trace.Tracer

	mu    sync.Mutex
	spans map[string]trace.Span
}

var _ Observer = (*Tracer)(nil)

// NewTracer creates a tracing observer with the given tracer provider.
// If provider is nil, uses the global tracer provider.
func NewTracer(provider trace.TracerProvider) *Tracer {
	if provider == nil {
		provider = otel.GetTracerProvider()
	}

	return &Tracer{
		tracer: provider.Tracer(instrumentationName),
		spans:  make(map[string]trace.Span),
	}
}

// OnStart implements the Observer interface.
func (t *Tracer) OnStart(op, runID string) {
	_, span := t.tracer.Start(context.Background(), fmt.Sprintf("retry %s", op),
		trace.WithSpanKind(trace.SpanKindInternal),
	)
	span.SetAttributes(
		attribute.String("retry.op", op),
		attribute.String("retry.run_id", runID),
	)

	t.mu.Lock()
	t.spans[runID] = span
	t.mu.Unlock()
}

// OnAttempt implements the Observer interface.
func (t *Tracer) OnAttempt(_, runID string, try int, err error) {
	span, ok := t.span(runID)
	if !ok {
		return
	}

	attrs := []attribute.KeyValue{attribute.Int("retry.try", try)}
	if err != nil {
		attrs = append(attrs, attribute.String("retry.error", err.Error()))
	}
	span.AddEvent("attempt", trace.WithAttributes(attrs...))
}

// OnWait implements the Observer interface.
func (t *Tracer) OnWait(_, runID string, try int, wait time.Duration) {
	span, ok := t.span(runID)
	if !ok {
		return
	}

	span.AddEvent("backoff", trace.WithAttributes(
		attribute.Int("retry.try", try),
		attribute.Int64("retry.wait_ms", wait.Milliseconds()),
	))
}

// OnResolve implements the Observer interface.
func (t *Tracer) OnResolve(_, runID string, tries int, _ time.Duration, err error) {
	t.mu.Lock()
	span, ok := t.spans[runID]
	delete(t.spans, runID)
	t.mu.Unlock()
	if !ok {
		return
	}

	span.SetAttributes(attribute.Int("retry.tries", tries))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

func (t *Tracer) span(runID string) (trace.Span, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	span, ok := t.spans[runID]
	return span, ok
}
