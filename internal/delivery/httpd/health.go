package httpd

import (
	"context"
	"encoding/json"
	"net/http"
	"time"
)

const readyTimeout = 3 * time.Second

func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "healthy",
		"service":   "lms-web",
		"timestamp": time.Now().UTC(),
	})
}

// ReadyCheck опрашивает хранилище сессий и прочие зависимости.
func (h *Handler) ReadyCheck(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), readyTimeout)
	defer cancel()

	checks := make(map[string]string, len(h.readiness))
	status := http.StatusOK
	for name, p := range h.readiness {
		if err := p.Ping(ctx); err != nil {
			h.logger.Warn().Err(err).Str("dependency", name).Msg("Readiness check failed")
			checks[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		checks[name] = "ok"
	}

	state := "ready"
	if status != http.StatusOK {
		state = "not ready"
	}
	writeJSON(w, status, map[string]interface{}{
		"status": state,
		"checks": checks,
	})
}

func (h *Handler) LiveCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status": "alive",
	})
}

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}
