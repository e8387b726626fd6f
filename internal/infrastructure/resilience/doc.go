/*
Package resilience stops calling an upstream that keeps failing.

A Breaker counts the outcome of every call made through it. While closed,
calls pass and failures are counted; once ReadyToTrip agrees, the breaker
opens and calls fail at once with ErrCircuitOpen. After Timeout it lets
MaxRequests trial calls through (half-open). Enough successes close it again
and any failure reopens it.

	closed --ReadyToTrip--> open --Timeout--> half-open --successes--> closed
	                                              |
	                                              +--failure--> open

IsSuccessful decides what counts as a failure. The shared HTTP client treats
4xx responses as the caller's fault, so a bad prompt does not open the
breaker around the recommendation model:

	breaker := resilience.New("azure-openai", resilience.Settings{
		MaxRequests: 1,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts resilience.Counts) bool {
			return counts.ConsecutiveFailures >= 3
		},
	})

	reply, err := resilience.Call(breaker, func() (*resty.Response, error) {
		return req.Post(path)
	})
	if errors.Is(err, resilience.ErrCircuitOpen) {
		// serve the fallback recommendations
	}

Call is the typed form of Execute. Counts are reset every Interval while
closed and on every state change.
*/
package resilience
