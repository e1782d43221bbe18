package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCollector_RecordCall(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordCall("profile.get", OutcomeSuccess)
	c.RecordCall("profile.get", OutcomeSuccess)
	c.RecordCall("profile.get", OutcomeOffline)

	assert.Equal(t, 2.0, testutil.ToFloat64(c.calls.WithLabelValues("profile.get", OutcomeSuccess)))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.calls.WithLabelValues("profile.get", OutcomeOffline)))
}

func TestCollector_IdentityAndUnread(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordIdentityChange(true)
	c.RecordIdentityChange(false)
	c.SetUnread(3)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.identityChange.WithLabelValues("authenticated")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.identityChange.WithLabelValues("unauthenticated")))
	assert.Equal(t, 3.0, testutil.ToFloat64(c.unread))
}

func TestHandler_ServesMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)
	c.RecordCall("identity.signOut", OutcomeFailure)

	rr := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "rider_remote_calls_total")
}
