package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yakoovad/hackathon-teams/internal/model"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func newTestMetrics(t *testing.T) (*Metrics, *prometheus.Registry) {
	t.Helper()
	reg := prometheus.NewRegistry()
	m, err := New(reg, reg)
	require.NoError(t, err)
	return m, reg
}

func TestMetrics_LifecycleCounters(t *testing.T) {
	m, _ := newTestMetrics(t)

	m.TeamCreated()
	m.TeamRequestCreated(model.DirectionUserApplies)
	m.TeamRequestCreated(model.DirectionUserApplies)
	m.TeamRequestCreated(model.DirectionLeaderInvites)
	m.TeamRequestAccepted(model.DirectionUserApplies)
	m.TeamRequestRejected()
	m.TeamRequestsPurged(4)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.teamsCreated))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requestsCreated.WithLabelValues("USER_APPLIES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsCreated.WithLabelValues("LEADER_INVITES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsAccepted.WithLabelValues("USER_APPLIES")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestsRejected))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.requestsPurged))
}

func TestMetrics_ObserveRequest(t *testing.T) {
	m, reg := newTestMetrics(t)

	m.ObserveRequest(http.MethodPost, "/teams", http.StatusCreated, 20*time.Millisecond)
	m.RateLimitHit("/teams")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestTotal.WithLabelValues("POST", "/teams", "201")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.rateLimitHits.WithLabelValues("/teams")))
	assert.Equal(t, 1, testutil.CollectAndCount(m.requestLatency))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "hackathon_teams_http_requests_total"))

	n, err := testutil.GatherAndCount(reg, "hackathon_teams_rate_limit_hits_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_ReusesRegisteredCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()

	first, err := New(reg, reg)
	require.NoError(t, err)
	second, err := New(reg, reg)
	require.NoError(t, err)

	first.TeamCreated()
	second.TeamCreated()

	assert.Equal(t, 2.0, testutil.ToFloat64(second.teamsCreated))
}
