package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-rider-session/internal/config"
	"github.com/go-rider-session/internal/metrics"
	"github.com/go-rider-session/internal/transport/http/handler"
	appmiddleware "github.com/go-rider-session/internal/transport/http/middleware"
	"golang.org/x/time/rate"
)

// NewRouter builds and returns the local API router.
func NewRouter(cfg *config.Config, deps *Deps) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)
	r.Use(chimiddleware.RequestID)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// 5 requests/second, burst of 10, on the credential endpoints.
	sensitiveRL := appmiddleware.NewRateLimiter(rate.Limit(5), 10)
	requireSession := appmiddleware.RequireSession(deps.Session)

	healthH := handler.NewHealthHandler(deps.Reachability)
	sessionH := handler.NewSessionHandler(deps.Session, deps.Avatar)
	notifH := handler.NewNotificationHandler(deps.Notifications)

	if deps.Gatherer != nil {
		r.Handle("/metrics", metrics.Handler(deps.Gatherer))
	}

	r.Route("/v1", func(r chi.Router) {
		r.Get("/health-check/{action}", healthH.Ping)
		r.Get("/session", sessionH.GetCurrent)
		r.With(sensitiveRL.Limit).Post("/sessions/login", sessionH.Login)
		r.Post("/sessions/logout", sessionH.Logout)
		r.With(sensitiveRL.Limit).Post("/users", sessionH.Register)

		r.Group(func(r chi.Router) {
			r.Use(requireSession)

			r.Put("/profile", sessionH.UpdateProfile)
			r.Post("/profile/refresh", sessionH.RefreshProfile)
			r.Post("/profile/avatar", sessionH.UploadAvatar)
			r.With(sensitiveRL.Limit).Post("/confirm-email/{action}", sessionH.ConfirmEmail)
		})

		r.Get("/notifications", notifH.List)
		r.Put("/notifications/read-all", notifH.MarkAllRead)
		r.Put("/notifications/{id}", notifH.MarkAsRead)
		r.Delete("/notifications/{id}", notifH.Delete)
		r.Delete("/notifications", notifH.Clear)
	})

	return r
}
