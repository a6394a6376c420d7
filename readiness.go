package guard

import (
	"net/http"

	json "github.com/goccy/go-json"
)

// ReadinessHandler exposes reg's readiness as an http.Handler suitable for
// a Kubernetes readiness probe: 200 with a JSON [ReadinessStatus] body when
// every critical guard is healthy, 503 otherwise.
func ReadinessHandler(reg *Registry) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		status := reg.CheckReadiness()

		w.Header().Set("Content-Type", "application/json")

		if status.Ready {
			w.WriteHeader(http.StatusOK)
		} else {
			w.WriteHeader(http.StatusServiceUnavailable)
		}

		_ = json.NewEncoder(w).Encode(status)
	})
}
