package observability

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Span wraps a tracing span and batches its attributes until End.
type Span struct {
	span       trace.Span
	startTime  time.Time
	attributes []attribute.KeyValue
}

// NewSpan starts a span on the global tracer.
func NewSpan(ctx context.Context, operationName string) (context.Context, *Span) {
	ctx, span := GetTracer().Start(ctx, operationName)

	return ctx, &Span{
		span:      span,
		startTime: time.Now(),
	}
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
	default:
		attr = attribute.String(key, fmt.Sprintf("%v", v))
	}

	s.attributes = append(s.attributes, attr)
}

// Fail marks the span as failed.
func (s *Span) Fail(err error) {
	s.span.RecordError(err)
	s.span.SetStatus(codes.Error, err.Error())
}

// Duration returns the time since the span started.
func (s *Span) Duration() time.Duration {
	return time.Since(s.startTime)
}

// End sets the batched attributes and ends the span.
func (s *Span) End() {
	if len(s.attributes) > 0 {
		s.span.SetAttributes(s.attributes...)
	}
	s.span.SetAttributes(attribute.Int64("duration_ms", s.Duration().Milliseconds()))
	s.span.End()
}

// Trace runs fn inside a span named operation. A returned error marks the
// span as failed.
func Trace(ctx context.Context, operation string, attrs map[string]interface{}, fn func(ctx context.Context) error) error {
	ctx, span := NewSpan(ctx, operation)
	defer span.End()

	for k, v := range attrs {
		span.SetAttribute(k, v)
	}
	if err := fn(ctx); err != nil {
		span.Fail(err)
		return err
	}
	span.span.SetStatus(codes.Ok, "")
	return nil
}
