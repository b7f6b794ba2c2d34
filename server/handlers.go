package server

import (
	"database/sql"
	"encoding/json"
	"net/http"

	"github.com/onnwee/invite-rooms/invites"
)

// Handlers holds dependencies for all HTTP handlers.
type Handlers struct {
	db        *sql.DB
	ledger    *invites.Ledger
	gatewayUp func() bool
}

// NewHandlers creates a new Handlers instance with the given dependencies.
func NewHandlers(deps Deps) *Handlers {
	return &Handlers{
		db:        deps.DB,
		ledger:    deps.Ledger,
		gatewayUp: deps.GatewayUp,
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
