package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-rider-session/internal/application/notification"
	"github.com/go-rider-session/internal/domain"
	"github.com/go-rider-session/internal/infrastructure/kvstore"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeNotices(t *testing.T, rr *httptest.ResponseRecorder) NotificationsEnvelope {
	t.Helper()
	var env NotificationsEnvelope
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&env))
	return env
}

func TestNotifications_Flow(t *testing.T) {
	q := notification.NewQueue(kvstore.NewMemory(), nil, nil)
	first := q.Notify(domain.NoticeInfo, "Ride", "Group ride tomorrow")
	q.Notify(domain.NoticeSuccess, "Signed in", "Welcome back")
	h := NewNotificationHandler(q)

	rr := httptest.NewRecorder()
	h.List(rr, httptest.NewRequest(http.MethodGet, "/v1/notifications", nil))
	env := decodeNotices(t, rr)
	assert.Len(t, env.Notifications, 2)
	assert.Equal(t, 2, env.UnreadCount)
	assert.Equal(t, "Signed in", env.Notifications[0].Title)

	rr = httptest.NewRecorder()
	h.MarkAsRead(rr, withChiParam(httptest.NewRequest(http.MethodPut, "/v1/notifications/"+first, nil), "id", first))
	assert.Equal(t, 1, decodeNotices(t, rr).UnreadCount)

	rr = httptest.NewRecorder()
	h.MarkAllRead(rr, httptest.NewRequest(http.MethodPut, "/v1/notifications/read-all", nil))
	assert.Equal(t, 0, decodeNotices(t, rr).UnreadCount)

	rr = httptest.NewRecorder()
	h.Delete(rr, withChiParam(httptest.NewRequest(http.MethodDelete, "/v1/notifications/"+first, nil), "id", first))
	assert.Len(t, decodeNotices(t, rr).Notifications, 1)

	rr = httptest.NewRecorder()
	h.Clear(rr, httptest.NewRequest(http.MethodDelete, "/v1/notifications", nil))
	env = decodeNotices(t, rr)
	assert.Empty(t, env.Notifications)
	assert.Equal(t, 0, env.UnreadCount)
}

func TestHealth(t *testing.T) {
	h := NewHealthHandler(staticReach(false))

	rr := httptest.NewRecorder()
	h.Ping(rr, withChiParam(httptest.NewRequest(http.MethodGet, "/v1/health-check/ping", nil), "action", "ping"))
	assert.Contains(t, rr.Body.String(), "pong")

	rr = httptest.NewRecorder()
	h.Ping(rr, withChiParam(httptest.NewRequest(http.MethodGet, "/v1/health-check/online", nil), "action", "online"))
	assert.Contains(t, rr.Body.String(), `"offline"`)

	rr = httptest.NewRecorder()
	h.Ping(rr, withChiParam(httptest.NewRequest(http.MethodGet, "/v1/health-check/nope", nil), "action", "nope"))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

type staticReach bool

func (s staticReach) Online() bool { return bool(s) }
