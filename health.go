package guard

type (
	// HealthReporter is implemented by every Guard[T]. Keeping the
	// interface non-generic lets guards of different result types depend
	// on one another.
	HealthReporter interface {
		// Name returns the guard's name.
		Name() string
		// HealthStatus returns the guard's current health.
		HealthStatus() GuardStatus
	}

	// Criticality grades how a condition affects readiness.
	Criticality int

	// GuardStatus is a point-in-time health snapshot of one guard.
	GuardStatus struct {
		Name         string        `json:"name"`
		State        string        `json:"state"`
		Dependencies []GuardStatus `json:"dependencies,omitempty"`
		Criticality  Criticality   `json:"criticality"`
		Healthy      bool          `json:"healthy"`
	}
)

const (
	// CriticalityNone: nothing to report.
	CriticalityNone Criticality = iota
	// CriticalityDegraded: still serving, but impaired.
	CriticalityDegraded
	// CriticalityCritical: cannot reliably serve.
	CriticalityCritical
)

// String returns the criticality as a readable label.
func (c Criticality) String() string {
	switch c {
	case CriticalityDegraded:
		return "degraded"
	case CriticalityCritical:
		return "critical"
	default:
		return "none"
	}
}

// HealthStatus derives health from the guard's stateful patterns: an open
// breaker is critical, an empty bucket or full bulkhead is degraded, and
// unhealthy critical dependencies degrade this guard in turn.
func (g *Guard[T]) HealthStatus() GuardStatus {
	status := GuardStatus{
		Name:    g.name,
		Healthy: true,
		State:   "healthy",
	}

	if g.breaker != nil {
		switch g.breaker.State() {
		case BreakerOpen:
			status.Healthy = false
			status.Criticality = CriticalityCritical
			status.State = "circuit_open"
		case BreakerHalfOpen:
			// Recovering, not unhealthy.
			status.State = "circuit_half_open"
		default:
		}
	}

	if g.bucket != nil && g.bucket.Empty() {
		if status.Criticality < CriticalityDegraded {
			status.Criticality = CriticalityDegraded
		}

		if status.Healthy && status.State == "healthy" {
			status.State = "rate_limited"
		}
	}

	if g.bulkhead != nil && g.bulkhead.Full() {
		if status.Criticality < CriticalityDegraded {
			status.Criticality = CriticalityDegraded
		}

		if status.Healthy && status.State == "healthy" {
			status.State = "bulkhead_full"
		}
	}

	for _, dep := range g.deps {
		ds := dep.HealthStatus()
		status.Dependencies = append(status.Dependencies, ds)

		if ds.Criticality == CriticalityCritical && !ds.Healthy {
			if status.Criticality < CriticalityDegraded {
				status.Criticality = CriticalityDegraded
			}
		}
	}

	return status
}
