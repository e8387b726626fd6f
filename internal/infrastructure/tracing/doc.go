/*
Package tracing provides lightweight request tracing.

Each HTTP request gets a span. The trace ID is taken from the incoming
X-Trace-ID header or generated, and returned to the client together with the
span ID so desktop error reports can be matched with server logs. Outgoing
calls made with the request context carry the same headers (see Inject).

Finished spans are buffered and logged by a collector goroutine: errors at
error level, slow spans as warnings, everything else at debug level.

# Usage

	tracer := tracing.New("very-good-reads", logger)
	defer tracer.Close()

	router.Use(tracing.HTTPMiddleware(tracer))

	span, ctx := tracer.StartSpan(ctx, "export")
	defer func() {
		span.Finish()
		tracer.Submit(span)
	}()
*/
package tracing
