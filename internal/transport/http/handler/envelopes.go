package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-rider-session/internal/application/session"
	"github.com/go-rider-session/internal/domain"
)

// MessageEnvelope is the generic response wrapper.
type MessageEnvelope struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ResultEnvelope wraps operation results. A failed operation is still a 200.
type ResultEnvelope struct {
	Success bool        `json:"success"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
}

// IdentityView is the signed-in identity without its ID token.
type IdentityView struct {
	UID           string `json:"uid"`
	Email         string `json:"email"`
	EmailVerified bool   `json:"emailVerified"`
	DisplayName   string `json:"displayName,omitempty"`
	PhotoURL      string `json:"photoURL,omitempty"`
	Provider      string `json:"provider,omitempty"`
}

// SessionEnvelope is the session state served to clients.
type SessionEnvelope struct {
	Identity        *IdentityView   `json:"identity"`
	Profile         *domain.Profile `json:"profile"`
	IsAuthenticated bool            `json:"isAuthenticated"`
	IsLoading       bool            `json:"isLoading"`
	IsOnline        bool            `json:"isOnline"`
}

func newSessionEnvelope(st session.State) SessionEnvelope {
	env := SessionEnvelope{
		Profile:         st.Profile,
		IsAuthenticated: st.IsAuthenticated,
		IsLoading:       st.IsLoading,
		IsOnline:        st.IsOnline,
	}
	if id := st.Identity; id != nil {
		env.Identity = &IdentityView{
			UID:           id.UID,
			Email:         id.Email,
			EmailVerified: id.EmailVerified,
			DisplayName:   id.DisplayName,
			PhotoURL:      id.PhotoURL,
			Provider:      id.Provider,
		}
	}
	return env
}

// NotificationsEnvelope wraps the notice list.
type NotificationsEnvelope struct {
	Notifications []domain.Notice `json:"notifications"`
	UnreadCount   int             `json:"unreadCount"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, MessageEnvelope{Error: msg})
}

func writeResult(w http.ResponseWriter, res domain.OpResult, data interface{}) {
	writeJSON(w, http.StatusOK, ResultEnvelope{Success: res.Success, Message: res.Message, Data: data})
}
