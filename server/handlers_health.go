package server

import (
	"errors"
	"net/http"
)

// HandleHealthz answers liveness checks. With a database configured it must answer a ping.
func (h *Handlers) HandleHealthz(w http.ResponseWriter, r *http.Request) {
	if h.db != nil {
		if err := h.db.PingContext(r.Context()); err != nil {
			http.Error(w, "unhealthy", http.StatusServiceUnavailable)
			return
		}
	}
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

// HandleReadyz answers readiness checks: the database answers and the gateway session
// is connected.
func (h *Handlers) HandleReadyz(w http.ResponseWriter, r *http.Request) {
	type check struct {
		name string
		fn   func() error
	}
	var checks []check
	if h.db != nil {
		checks = append(checks, check{"database", func() error { return h.db.PingContext(r.Context()) }})
	}
	if h.gatewayUp != nil {
		checks = append(checks, check{"gateway", func() error {
			if !h.gatewayUp() {
				return errors.New("discord gateway not connected")
			}
			return nil
		}})
	}

	for _, c := range checks {
		if err := c.fn(); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status":       "not_ready",
				"failed_check": c.name,
				"error":        err.Error(),
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}
