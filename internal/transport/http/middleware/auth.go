package middleware

import (
	"net/http"
)

// SessionView reports whether a rider is signed in on this device.
type SessionView interface {
	Authenticated() bool
}

// RequireSession rejects requests with 401 while nobody is signed in.
func RequireSession(view SessionView) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !view.Authenticated() {
				writeJSONError(w, http.StatusUnauthorized, "not signed in")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
