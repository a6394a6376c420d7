package guard

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

// LogHooks returns a hook set that reports every lifecycle event through a
// structured logger. Breaker transitions log at warn, rejections and
// timeouts at warn, recoveries and routine events at info or debug.
func LogHooks(logger *zap.Logger) *Hooks {
	return &Hooks{
		OnRetry: func(attempt int, delay time.Duration, err error) {
			logger.Info("retrying",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err),
			)
		},
		OnBreakerOpen: func() {
			logger.Warn("circuit breaker opened")
		},
		OnBreakerClose: func() {
			logger.Info("circuit breaker closed")
		},
		OnBreakerProbe: func() {
			logger.Info("circuit breaker probing")
		},
		OnRateLimited: func() {
			logger.Warn("call rate limited")
		},
		OnTimeout: func() {
			logger.Warn("call timed out")
		},
		OnBulkheadFull: func() {
			logger.Warn("bulkhead full, call rejected")
		},
		OnHedge: func() {
			logger.Debug("hedged attempt launched")
		},
		OnHedgeWon: func() {
			logger.Debug("hedged attempt won")
		},
		OnFallback: func(err error) {
			logger.Warn("fallback used", zap.Error(err))
		},
		OnStaleServed: func(age time.Duration) {
			logger.Warn("stale value served", zap.Duration("age", age))
		},
	}
}

// Metrics is a set of Prometheus collectors for one guard's lifecycle
// events. Create it with [NewMetrics], register it, and wire it in via
// [Metrics.Hooks] (combined with other hook sets through [JoinHooks] if
// needed).
type Metrics struct {
	Retries       prometheus.Counter
	BreakerOpens  prometheus.Counter
	BreakerCloses prometheus.Counter
	BreakerState  prometheus.Gauge
	RateLimited   prometheus.Counter
	Timeouts      prometheus.Counter
	BulkheadFull  prometheus.Counter
	Hedges        prometheus.Counter
	Fallbacks     prometheus.Counter
	StaleServed   prometheus.Counter
}

// NewMetrics creates collectors labelled with the guard's name. The state
// gauge encodes the breaker position: 0 closed, 1 open, 2 half-open.
func NewMetrics(name string) *Metrics {
	labels := prometheus.Labels{"guard": name}

	counter := func(metric, help string) prometheus.Counter {
		return prometheus.NewCounter(prometheus.CounterOpts{
			Name:        metric,
			Help:        help,
			ConstLabels: labels,
		})
	}

	return &Metrics{
		Retries:       counter("guard_retries_total", "Retry attempts"),
		BreakerOpens:  counter("guard_breaker_opens_total", "Circuit breaker open transitions"),
		BreakerCloses: counter("guard_breaker_closes_total", "Circuit breaker close transitions"),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name:        "guard_breaker_state",
			Help:        "Circuit breaker state (0 closed, 1 open, 2 half-open)",
			ConstLabels: labels,
		}),
		RateLimited:  counter("guard_rate_limited_total", "Calls rejected by the token bucket"),
		Timeouts:     counter("guard_timeouts_total", "Calls that exceeded their deadline"),
		BulkheadFull: counter("guard_bulkhead_rejections_total", "Calls rejected for lack of a concurrency slot"),
		Hedges:       counter("guard_hedges_total", "Hedged attempts launched"),
		Fallbacks:    counter("guard_fallbacks_total", "Errors absorbed by a fallback"),
		StaleServed:  counter("guard_stale_served_total", "Failures masked by a stale cached value"),
	}
}

// Register registers every collector with reg.
func (m *Metrics) Register(reg prometheus.Registerer) error {
	for _, c := range m.collectors() {
		if err := reg.Register(c); err != nil {
			return err
		}
	}

	return nil
}

// MustRegister registers every collector with reg, panicking on conflict.
func (m *Metrics) MustRegister(reg prometheus.Registerer) {
	reg.MustRegister(m.collectors()...)
}

func (m *Metrics) collectors() []prometheus.Collector {
	return []prometheus.Collector{
		m.Retries,
		m.BreakerOpens,
		m.BreakerCloses,
		m.BreakerState,
		m.RateLimited,
		m.Timeouts,
		m.BulkheadFull,
		m.Hedges,
		m.Fallbacks,
		m.StaleServed,
	}
}

// Hooks returns a hook set feeding the collectors.
func (m *Metrics) Hooks() *Hooks {
	return &Hooks{
		OnRetry: func(int, time.Duration, error) {
			m.Retries.Inc()
		},
		OnBreakerOpen: func() {
			m.BreakerOpens.Inc()
			m.BreakerState.Set(1)
		},
		OnBreakerClose: func() {
			m.BreakerCloses.Inc()
			m.BreakerState.Set(0)
		},
		OnBreakerProbe: func() {
			m.BreakerState.Set(2)
		},
		OnRateLimited: func() {
			m.RateLimited.Inc()
		},
		OnTimeout: func() {
			m.Timeouts.Inc()
		},
		OnBulkheadFull: func() {
			m.BulkheadFull.Inc()
		},
		OnHedge: func() {
			m.Hedges.Inc()
		},
		OnFallback: func(error) {
			m.Fallbacks.Inc()
		},
		OnStaleServed: func(time.Duration) {
			m.StaleServed.Inc()
		},
	}
}
