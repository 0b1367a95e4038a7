// Package resilience provides the fault-tolerance primitives used around
// provider calls and the HTTP surface. Retry supports exponential or fixed
// backoff; CircuitBreaker and Bulkhead guard backends, and FixedWindowLimiter
// throttles per key.
//
//	out, err := resilience.Retry(ctx, resilience.FixedRetryConfig(2, time.Second), func() (*Reply, error) {
//	    return client.Send(ctx, req)
//	})
package resilience
