package guard

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	json "github.com/goccy/go-json"
	"gopkg.in/yaml.v3"
)

type (
	// configFile is the top-level document structure.
	configFile struct {
		Guards map[string]GuardConfig `json:"guards" yaml:"guards"`
	}

	// GuardConfig is the declarative form of a guard's options. Embed it
	// in your own config struct for JSON or YAML unmarshaling and hand
	// it to [BuildOptions], or load whole files with [LoadConfig].
	GuardConfig struct {
		// Breaker configures the circuit breaker. Optional.
		Breaker *BreakerConfig `json:"breaker,omitempty" yaml:"breaker,omitempty"`
		// Retry configures the retry policy. Optional.
		Retry *RetryConfig `json:"retry,omitempty" yaml:"retry,omitempty"`
		// RateLimit configures the token bucket. Optional.
		RateLimit *RateLimitConfig `json:"rate_limit,omitempty" yaml:"rate_limit,omitempty"`
		// Timeout bounds a single call. Optional, via
		// time.ParseDuration, e.g. "2s".
		Timeout *string `json:"timeout,omitempty" yaml:"timeout,omitempty"`
		// Hedge is the delay before a hedged attempt. Optional,
		// e.g. "200ms".
		Hedge *string `json:"hedge,omitempty" yaml:"hedge,omitempty"`
		// StaleCache is the last-known-good TTL. Optional, e.g. "1m".
		StaleCache *string `json:"stale_cache,omitempty" yaml:"stale_cache,omitempty"`
		// Bulkhead is the concurrent-call cap. Optional.
		Bulkhead *int `json:"bulkhead,omitempty" yaml:"bulkhead,omitempty"`
	}

	// BreakerConfig holds circuit breaker settings.
	BreakerConfig struct {
		// Cooldown is how long the breaker stays open, e.g. "30s".
		Cooldown *string `json:"cooldown,omitempty" yaml:"cooldown,omitempty"`
		// Threshold is the consecutive failures before opening.
		Threshold *int `json:"threshold,omitempty" yaml:"threshold,omitempty"`
	}

	// RetryConfig holds retry policy settings.
	RetryConfig struct {
		// InitialDelay is the delay before the first retry, e.g.
		// "100ms".
		InitialDelay *string `json:"initial_delay,omitempty" yaml:"initial_delay,omitempty"`
		// MaxDelay caps every backoff delay, e.g. "30s".
		MaxDelay *string `json:"max_delay,omitempty" yaml:"max_delay,omitempty"`
		// Multiplier is the geometric growth factor, e.g. 2.
		Multiplier *float64 `json:"multiplier,omitempty" yaml:"multiplier,omitempty"`
		// MaxRetries is the retries after the initial attempt.
		MaxRetries *int `json:"max_retries,omitempty" yaml:"max_retries,omitempty"`
		// Jitter perturbs delays within [d/2, d] when true.
		Jitter *bool `json:"jitter,omitempty" yaml:"jitter,omitempty"`
	}

	// RateLimitConfig holds token bucket settings.
	RateLimitConfig struct {
		// Rate is tokens per second.
		Rate *float64 `json:"rate,omitempty" yaml:"rate,omitempty"`
		// Capacity is the bucket size; defaults to ceil(rate).
		Capacity *int `json:"capacity,omitempty" yaml:"capacity,omitempty"`
		// Blocking makes callers wait for a token instead of being
		// rejected.
		Blocking *bool `json:"blocking,omitempty" yaml:"blocking,omitempty"`
	}
)

// LoadConfig reads guard configurations from a JSON or YAML file (chosen by
// extension: .yaml/.yml parse as YAML, anything else as JSON) and stores
// them in a fresh [Registry]. Guards are not built until [FromConfig] is
// called with a result type. Every entry is validated eagerly so malformed
// durations surface at load time, not first use.
func LoadConfig(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("guard: read config: %w", err)
	}

	var cfg configFile

	switch filepath.Ext(path) {
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &cfg)
	default:
		err = json.Unmarshal(data, &cfg)
	}

	if err != nil {
		return nil, fmt.Errorf("guard: parse config: %w", err)
	}

	for name, gc := range cfg.Guards {
		if _, buildErr := BuildOptions(&gc); buildErr != nil {
			return nil, fmt.Errorf("guard: %q: %w", name, buildErr)
		}
	}

	reg := NewRegistry()
	reg.mu.Lock()
	reg.configs = cfg.Guards
	reg.mu.Unlock()

	return reg, nil
}

// BuildOptions converts a [GuardConfig] into option values for [New].
func BuildOptions(gc *GuardConfig) ([]any, error) {
	var opts []any

	if gc.Timeout != nil {
		d, err := time.ParseDuration(*gc.Timeout)
		if err != nil {
			return nil, fmt.Errorf("timeout: %w", err)
		}

		opts = append(opts, WithTimeout(d))
	}

	if gc.Breaker != nil {
		var brOpts []BreakerOption

		if gc.Breaker.Threshold != nil {
			brOpts = append(brOpts, Threshold(*gc.Breaker.Threshold))
		}

		if gc.Breaker.Cooldown != nil {
			d, err := time.ParseDuration(*gc.Breaker.Cooldown)
			if err != nil {
				return nil, fmt.Errorf("breaker.cooldown: %w", err)
			}

			brOpts = append(brOpts, Cooldown(d))
		}

		opts = append(opts, WithBreaker(brOpts...))
	}

	if gc.Retry != nil {
		retryOpts, err := buildRetryOptions(gc.Retry)
		if err != nil {
			return nil, err
		}

		opts = append(opts, WithRetry(retryOpts...))
	}

	if gc.RateLimit != nil {
		if gc.RateLimit.Rate == nil {
			return nil, fmt.Errorf("rate_limit: rate is required")
		}

		rate := *gc.RateLimit.Rate

		capacity := int(rate)
		if float64(capacity) < rate {
			capacity++
		}

		if gc.RateLimit.Capacity != nil {
			capacity = *gc.RateLimit.Capacity
		}

		if gc.RateLimit.Blocking != nil && *gc.RateLimit.Blocking {
			opts = append(opts, WithBlockingRateLimit(capacity, rate))
		} else {
			opts = append(opts, WithRateLimit(capacity, rate))
		}
	}

	if gc.Bulkhead != nil {
		opts = append(opts, WithBulkhead(*gc.Bulkhead))
	}

	if gc.Hedge != nil {
		d, err := time.ParseDuration(*gc.Hedge)
		if err != nil {
			return nil, fmt.Errorf("hedge: %w", err)
		}

		opts = append(opts, WithHedge(d))
	}

	if gc.StaleCache != nil {
		d, err := time.ParseDuration(*gc.StaleCache)
		if err != nil {
			return nil, fmt.Errorf("stale_cache: %w", err)
		}

		opts = append(opts, WithStaleCache(d))
	}

	return opts, nil
}

func buildRetryOptions(rc *RetryConfig) ([]RetryOption, error) {
	var opts []RetryOption

	if rc.MaxRetries != nil {
		opts = append(opts, MaxRetries(*rc.MaxRetries))
	}

	if rc.InitialDelay != nil {
		d, err := time.ParseDuration(*rc.InitialDelay)
		if err != nil {
			return nil, fmt.Errorf("retry.initial_delay: %w", err)
		}

		opts = append(opts, InitialDelay(d))
	}

	if rc.MaxDelay != nil {
		d, err := time.ParseDuration(*rc.MaxDelay)
		if err != nil {
			return nil, fmt.Errorf("retry.max_delay: %w", err)
		}

		opts = append(opts, MaxDelay(d))
	}

	if rc.Multiplier != nil {
		opts = append(opts, Multiplier(*rc.Multiplier))
	}

	if rc.Jitter != nil && *rc.Jitter {
		opts = append(opts, WithJitter())
	}

	return opts, nil
}

// FromConfig materializes the named guard from a config-loaded [Registry],
// applying extra opts after the configured ones so code-level settings
// (hooks, clock, fallbacks) win. Unknown names build a bare guard from opts
// alone.
func FromConfig[T any](reg *Registry, name string, opts ...any) *Guard[T] {
	reg.mu.Lock()
	gc, ok := reg.configs[name]
	reg.mu.Unlock()

	allOpts := []any{WithRegistry(reg)}

	if ok {
		if configOpts, err := BuildOptions(&gc); err == nil {
			allOpts = append(allOpts, configOpts...)
		}
	}

	allOpts = append(allOpts, opts...)

	return New[T](name, allOpts...)
}
