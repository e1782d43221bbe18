package http

import (
	"github.com/go-rider-session/internal/application/avatar"
	"github.com/go-rider-session/internal/transport/http/handler"
	"github.com/prometheus/client_golang/prometheus"
)

// Session is what the router requires from the session container.
type Session interface {
	handler.SessionService
	Authenticated() bool
}

// Deps holds the application services behind the local API.
type Deps struct {
	Session       Session
	Notifications handler.NotificationQueue
	Avatar        avatar.Service
	Reachability  handler.Reachability
	// Gatherer serves /metrics; nil disables the endpoint.
	Gatherer prometheus.Gatherer
}
