package tracing

import (
	"strconv"

	"github.com/gin-gonic/gin"
)

// Gin context keys set by HTTPMiddleware.
const (
	ContextTraceID = "trace_id"
	ContextSpanID  = "span_id"
)

// HTTPMiddleware creates Gin middleware for HTTP tracing
func HTTPMiddleware(tracer *Tracer) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := Extract(c.Request.Context(), c.Request.Header)

		name := c.FullPath()
		if name == "" {
			name = "unmatched"
		}
		span, ctx := tracer.StartSpan(ctx, c.Request.Method+" "+name)
		span.SetTag("http.method", c.Request.Method)
		span.SetTag("http.path", c.Request.URL.Path)
		span.SetTag("http.client_ip", c.ClientIP())

		c.Request = c.Request.WithContext(ctx)
		c.Set(ContextTraceID, string(span.TraceID))
		c.Set(ContextSpanID, string(span.SpanID))

		// Set before the handler writes the status line
		c.Header(HeaderTraceID, string(span.TraceID))
		c.Header(HeaderSpanID, string(span.SpanID))

		c.Next()

		status := c.Writer.Status()
		span.SetStatus(status)
		span.SetTag("http.status", strconv.Itoa(status))
		if len(c.Errors) > 0 {
			span.SetError(c.Errors.Last())
		}

		span.Finish()
		tracer.Submit(span)
	}
}
