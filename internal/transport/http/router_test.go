package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-rider-session/internal/application/notification"
	"github.com/go-rider-session/internal/application/session"
	"github.com/go-rider-session/internal/config"
	"github.com/go-rider-session/internal/domain"
	"github.com/go-rider-session/internal/infrastructure/kvstore"
	"github.com/go-rider-session/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

type fakeSession struct {
	authenticated bool
	saved         []domain.ProfileUpdate
}

func (f *fakeSession) State() session.State {
	return session.State{IsAuthenticated: f.authenticated}
}

func (f *fakeSession) Login(context.Context, domain.Credential, session.Method) domain.OpResult {
	return domain.Fail("offline")
}

func (f *fakeSession) Register(context.Context, domain.NewAccount) domain.OpResult {
	return domain.Fail("offline")
}

func (f *fakeSession) Logout(context.Context) domain.OpResult { return domain.Ok("") }

func (f *fakeSession) SaveProfile(_ context.Context, u domain.ProfileUpdate) domain.OpResult {
	f.saved = append(f.saved, u)
	return domain.Ok("")
}

func (f *fakeSession) RefreshUserProfile(context.Context) domain.OpResult { return domain.Ok("") }

func (f *fakeSession) SendEmailVerification(context.Context) domain.OpResult { return domain.Ok("") }

func (f *fakeSession) ConfirmEmail(context.Context, string) domain.OpResult { return domain.Ok("") }

func (f *fakeSession) Authenticated() bool { return f.authenticated }

type online bool

func (o online) Online() bool { return bool(o) }

func newTestRouter(sess *fakeSession) http.Handler {
	reg := prometheus.NewRegistry()
	rec := metrics.NewCollector(reg)
	return NewRouter(&config.Config{AllowedOrigins: []string{"*"}}, &Deps{
		Session:       sess,
		Notifications: notification.NewQueue(kvstore.NewMemory(), nil, rec),
		Reachability:  online(true),
		Gatherer:      reg,
	})
}

func serve(h http.Handler, method, target, body string) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "127.0.0.1:5000"
	h.ServeHTTP(rr, req)
	return rr
}

func TestRouter_ProfileRequiresSession(t *testing.T) {
	sess := &fakeSession{}
	h := newTestRouter(sess)

	rr := serve(h, http.MethodPut, "/v1/profile", `{"bio":"x"}`)
	assert.Equal(t, http.StatusUnauthorized, rr.Code)

	sess.authenticated = true
	rr = serve(h, http.MethodPut, "/v1/profile", `{"bio":"x"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Len(t, sess.saved, 1)
}

func TestRouter_PublicRoutes(t *testing.T) {
	h := newTestRouter(&fakeSession{})

	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/v1/health-check/ping", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/v1/session", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodGet, "/v1/notifications", "").Code)
	assert.Equal(t, http.StatusOK, serve(h, http.MethodPut, "/v1/notifications/read-all", "").Code)
	assert.Equal(t, http.StatusNotFound, serve(h, http.MethodGet, "/v1/nope", "").Code)

	rr := serve(h, http.MethodPost, "/v1/sessions/login", `{"email":"a@b.com","password":"pw"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), `"success":false`)
}

func TestRouter_LoginRateLimited(t *testing.T) {
	h := newTestRouter(&fakeSession{})

	var last int
	for i := 0; i < 11; i++ {
		last = serve(h, http.MethodPost, "/v1/sessions/login", `{}`).Code
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestRouter_Metrics(t *testing.T) {
	h := newTestRouter(&fakeSession{})

	rr := serve(h, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "rider_notifications_unread")
}
