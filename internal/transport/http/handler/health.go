package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
)

// Reachability reports whether the device is online.
type Reachability interface {
	Online() bool
}

// HealthHandler handles health-check endpoints.
type HealthHandler struct {
	reach Reachability
}

func NewHealthHandler(reach Reachability) *HealthHandler { return &HealthHandler{reach: reach} }

func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "ping":
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: "pong"})
	case "online":
		msg := "offline"
		if h.reach.Online() {
			msg = "online"
		}
		writeJSON(w, http.StatusOK, MessageEnvelope{Message: msg})
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
