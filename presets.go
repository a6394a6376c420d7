package guard

import "time"

// StandardClient returns options for a typical outbound client: 5s
// timeout, two retries on 100ms doubling backoff with jitter, and a breaker
// tripping after 5 consecutive failures with a 30s cooldown.
func StandardClient() []any {
	return []any{
		WithTimeout(5 * time.Second),
		WithRetry(
			MaxRetries(2),
			InitialDelay(100*time.Millisecond),
			WithJitter(),
		),
		WithBreaker(
			Threshold(5),
			Cooldown(30*time.Second),
		),
	}
}

// LowLatencyClient returns options for latency-sensitive paths: 1s
// timeout, a single fast retry, a 200ms hedge, and a quick-tripping
// breaker.
func LowLatencyClient() []any {
	return []any{
		WithTimeout(time.Second),
		WithRetry(
			MaxRetries(1),
			InitialDelay(25*time.Millisecond),
			MaxDelay(100*time.Millisecond),
		),
		WithHedge(200 * time.Millisecond),
		WithBreaker(
			Threshold(3),
			Cooldown(10*time.Second),
		),
	}
}

// BatchWorker returns options for background work that prefers waiting
// over failing: a blocking rate limit, patient retries with jitter, and a
// bulkhead sized for modest parallelism.
func BatchWorker() []any {
	return []any{
		WithBlockingRateLimit(10, 10),
		WithRetry(
			MaxRetries(5),
			InitialDelay(time.Second),
			MaxDelay(time.Minute),
			WithJitter(),
		),
		WithBulkhead(4),
	}
}
