package guard

import (
	"sync"
	"sync/atomic"
)

type (
	// ReadinessStatus aggregates the health of every registered guard.
	ReadinessStatus struct {
		Guards []GuardStatus `json:"guards"`
		Ready  bool          `json:"ready"`
	}

	// Registry tracks named guards for readiness reporting and holds
	// declarative configs loaded by [LoadConfig] until [FromConfig]
	// materializes them. The reporter list is copy-on-write so readiness
	// checks never race registration.
	Registry struct {
		reporters atomic.Pointer[[]HealthReporter]
		configs   map[string]GuardConfig
		mu        sync.Mutex
	}
)

var defaultRegistry = sync.OnceValue(NewRegistry)

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	r := &Registry{}

	var empty []HealthReporter

	r.reporters.Store(&empty)

	return r
}

// DefaultRegistry returns the lazily created package-level registry that
// named guards register with unless told otherwise.
func DefaultRegistry() *Registry {
	return defaultRegistry()
}

// Register adds a reporter. Called by [New] for named guards; safe for
// concurrent use but meant for startup.
func (r *Registry) Register(hr HealthReporter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	old := *r.reporters.Load()

	updated := make([]HealthReporter, len(old), len(old)+1)
	copy(updated, old)
	updated = append(updated, hr)

	r.reporters.Store(&updated)
}

// CheckReadiness snapshots every registered guard. Ready is false when any
// guard is both critical and unhealthy.
func (r *Registry) CheckReadiness() ReadinessStatus {
	reporters := *r.reporters.Load()

	status := ReadinessStatus{
		Ready:  true,
		Guards: make([]GuardStatus, 0, len(reporters)),
	}

	for _, hr := range reporters {
		gs := hr.HealthStatus()
		status.Guards = append(status.Guards, gs)

		if gs.Criticality == CriticalityCritical && !gs.Healthy {
			status.Ready = false
		}
	}

	return status
}
