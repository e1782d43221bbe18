package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-rider-session/internal/application/avatar"
	"github.com/go-rider-session/internal/application/session"
	"github.com/go-rider-session/internal/domain"
	"github.com/go-rider-session/internal/pkg/validate"
)

// SessionService is the session container as seen by the transport.
type SessionService interface {
	State() session.State
	Login(ctx context.Context, cred domain.Credential, method session.Method) domain.OpResult
	Register(ctx context.Context, acct domain.NewAccount) domain.OpResult
	Logout(ctx context.Context) domain.OpResult
	SaveProfile(ctx context.Context, u domain.ProfileUpdate) domain.OpResult
	RefreshUserProfile(ctx context.Context) domain.OpResult
	SendEmailVerification(ctx context.Context) domain.OpResult
	ConfirmEmail(ctx context.Context, code string) domain.OpResult
}

// SessionHandler handles session, account and profile endpoints.
type SessionHandler struct {
	svc    SessionService
	avatar avatar.Service
}

func NewSessionHandler(svc SessionService, av avatar.Service) *SessionHandler {
	return &SessionHandler{svc: svc, avatar: av}
}

type loginRequest struct {
	domain.Credential
	Method session.Method `json:"method"`
}

func (h *SessionHandler) GetCurrent(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newSessionEnvelope(h.svc.State()))
}

func (h *SessionHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Method == "" {
		req.Method = session.MethodPassword
	}
	writeResult(w, h.svc.Login(r.Context(), req.Credential, req.Method), nil)
}

func (h *SessionHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req domain.NewAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	writeResult(w, h.svc.Register(r.Context(), req), nil)
}

func (h *SessionHandler) Logout(w http.ResponseWriter, r *http.Request) {
	writeResult(w, h.svc.Logout(r.Context()), nil)
}

func (h *SessionHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req domain.ProfileUpdate
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validate.Struct(req); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}
	res := h.svc.SaveProfile(r.Context(), req)
	writeResult(w, res, h.svc.State().Profile)
}

func (h *SessionHandler) RefreshProfile(w http.ResponseWriter, r *http.Request) {
	res := h.svc.RefreshUserProfile(r.Context())
	writeResult(w, res, h.svc.State().Profile)
}

func (h *SessionHandler) UploadAvatar(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, avatar.MaxSize+1<<20)
	if err := r.ParseMultipartForm(avatar.MaxSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart form")
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file field required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read file")
		return
	}

	url, res := h.avatar.Upload(r.Context(), header.Filename, data)
	var body interface{}
	if url != "" {
		body = map[string]string{"url": url}
	}
	writeResult(w, res, body)
}

func (h *SessionHandler) ConfirmEmail(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "action") {
	case "request":
		writeResult(w, h.svc.SendEmailVerification(r.Context()), nil)
	case "validate":
		var body struct {
			Code string `json:"code"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Code == "" {
			writeError(w, http.StatusBadRequest, "code required")
			return
		}
		writeResult(w, h.svc.ConfirmEmail(r.Context(), body.Code), nil)
	default:
		writeError(w, http.StatusBadRequest, "unknown action")
	}
}
