// Package client builds the outbound HTTP clients used by the provider
// packages.
//
// A Client wraps go-resty with an optional token-bucket limiter, an optional
// circuit breaker and an optional retrying transport from go-retryablehttp.
// Upstream statuses of 500 and above count as failures for the breaker.
// Other non-2xx statuses are returned to the caller as *StatusError.
//
// Example Usage:
//
//	c := client.New(client.Options{
//	    Name:             "llm",
//	    BaseURL:          endpoint,
//	    Timeout:          30 * time.Second,
//	    TransportRetries: 2,
//	    Breaker:          &resilience.Settings{Timeout: 30 * time.Second},
//	})
//	resp, err := c.Do(ctx, func(r *resty.Request) (*resty.Response, error) {
//	    return r.SetBody(payload).Post("/chat/completions")
//	})
package client
