package tracing

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/id"
	"github.com/jo-oikawa/very-good-reads/backend/internal/shared/utils"
	"go.uber.org/zap"
)

// Propagation headers
const (
	HeaderTraceID = "X-Trace-ID"
	HeaderSpanID  = "X-Span-ID"
)

// SlowThreshold is the duration above which a span is logged as slow.
const SlowThreshold = 2 * time.Second

// TraceID represents a unique trace identifier
type TraceID string

// SpanID represents a unique span identifier
type SpanID string

// Span represents a single operation in a trace
type Span struct {
	TraceID    TraceID
	SpanID     SpanID
	ParentID   SpanID
	Name       string
	Service    string
	StartTime  time.Time
	EndTime    time.Time
	Duration   time.Duration
	Tags       map[string]string
	Error      error
	StatusCode int
}

// Tracer collects finished spans and logs them.
type Tracer struct {
	service string
	logger  *zap.Logger
	spans   chan *Span

	closeOnce sync.Once
	done      chan struct{}
}

// New creates a tracer and starts its collector. Call Close to stop it.
func New(service string, logger *zap.Logger) *Tracer {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracer{
		service: service,
		logger:  logger,
		spans:   make(chan *Span, 1000),
		done:    make(chan struct{}),
	}

	go t.collectSpans()
	return t
}

// StartSpan creates a span that continues the trace in ctx, if any.
func (t *Tracer) StartSpan(ctx context.Context, name string) (*Span, context.Context) {
	traceID := GetTraceID(ctx)
	if traceID == "" {
		traceID = TraceID(id.NewRequestID())
	}

	span := &Span{
		TraceID:   traceID,
		SpanID:    SpanID(id.NewSpanID()),
		ParentID:  GetSpanID(ctx),
		Name:      name,
		Service:   t.service,
		StartTime: time.Now(),
		Tags:      make(map[string]string),
	}

	ctx = context.WithValue(ctx, traceIDKey, traceID)
	ctx = context.WithValue(ctx, spanIDKey, span.SpanID)
	return span, ctx
}

// Finish marks the span as complete
func (s *Span) Finish() {
	s.EndTime = time.Now()
	s.Duration = s.EndTime.Sub(s.StartTime)
}

// SetTag adds a tag to the span
func (s *Span) SetTag(key, value string) {
	s.Tags[key] = value
}

// SetError records an error in the span
func (s *Span) SetError(err error) {
	s.Error = err
	if s.StatusCode < 500 {
		s.StatusCode = 500
	}
}

// SetStatus sets the HTTP status code
func (s *Span) SetStatus(code int) {
	s.StatusCode = code
}

func (t *Tracer) collectSpans() {
	defer close(t.done)
	for span := range t.spans {
		t.processSpan(span)
	}
}

func (t *Tracer) processSpan(span *Span) {
	fields := []zap.Field{
		zap.String("trace_id", string(span.TraceID)),
		zap.String("span_id", string(span.SpanID)),
		zap.String("operation", span.Name),
		zap.Int("status", span.StatusCode),
		zap.Duration("duration", span.Duration),
		zap.String("service", span.Service),
	}
	if span.ParentID != "" {
		fields = append(fields, zap.String("parent_id", string(span.ParentID)))
	}
	for k, v := range span.Tags {
		fields = append(fields, zap.String(k, v))
	}

	switch {
	case span.Error != nil || span.StatusCode >= 500:
		if span.Error != nil {
			fields = append(fields, zap.Error(span.Error))
		}
		t.logger.Error("Span completed with error", fields...)
	case span.Duration > SlowThreshold:
		t.logger.Warn("Slow span", fields...)
	default:
		t.logger.Debug("Span completed", fields...)
	}
}

// Submit sends a span to the collector, dropping it when the buffer is full.
func (t *Tracer) Submit(span *Span) {
	select {
	case <-t.done:
		return
	default:
	}
	select {
	case t.spans <- span:
	default:
		t.logger.Warn("Span buffer full, dropping span",
			zap.String("trace_id", string(span.TraceID)),
			zap.String("span_id", string(span.SpanID)),
		)
	}
}

// Close stops the collector after draining buffered spans. Spans submitted
// afterwards must not race with Close.
func (t *Tracer) Close() {
	t.closeOnce.Do(func() {
		close(t.spans)
		<-t.done
	})
}

// Extract reads the trace context from request headers.
func Extract(ctx context.Context, h http.Header) context.Context {
	if traceID := h.Get(HeaderTraceID); traceID != "" && len(traceID) <= utils.MaxIDLength {
		ctx = context.WithValue(ctx, traceIDKey, TraceID(traceID))
	}
	if spanID := h.Get(HeaderSpanID); spanID != "" && len(spanID) <= utils.MaxIDLength {
		ctx = context.WithValue(ctx, spanIDKey, SpanID(spanID))
	}
	return ctx
}

// Inject writes the trace context of ctx into outgoing headers.
func Inject(ctx context.Context, h http.Header) {
	if traceID := GetTraceID(ctx); traceID != "" {
		h.Set(HeaderTraceID, string(traceID))
	}
	if spanID := GetSpanID(ctx); spanID != "" {
		h.Set(HeaderSpanID, string(spanID))
	}
}

type contextKey string

const (
	traceIDKey contextKey = "trace_id"
	spanIDKey  contextKey = "span_id"
)

// GetTraceID retrieves the trace ID from context
func GetTraceID(ctx context.Context) TraceID {
	if ctx == nil {
		return ""
	}
	traceID, _ := ctx.Value(traceIDKey).(TraceID)
	return traceID
}

// GetSpanID retrieves the span ID from context
func GetSpanID(ctx context.Context) SpanID {
	if ctx == nil {
		return ""
	}
	spanID, _ := ctx.Value(spanIDKey).(SpanID)
	return spanID
}

// FormatTrace returns a formatted trace string for logging
func FormatTrace(traceID TraceID, spanID SpanID) string {
	return fmt.Sprintf("[trace:%s span:%s]", traceID, spanID)
}
