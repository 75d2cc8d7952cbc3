package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsRecordAndExpose(t *testing.T) {
	t.Parallel()

	m := New(prometheus.NewRegistry())

	m.ObserveRequest(http.MethodPost, "/oauth/token", http.StatusOK, 20*time.Millisecond)
	m.TokenRequest(TokenIssued)
	m.TokenRequest(TokenInvalidGrant)
	m.TokenRequest(TokenInvalidGrant)
	m.AccessDecision(DecisionForbidden)
	m.RateLimited("auth")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues(http.MethodPost, "/oauth/token", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.TokenRequestsTotal.WithLabelValues(TokenInvalidGrant)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.AccessDecisions.WithLabelValues(DecisionForbidden)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RateLimitedTotal.WithLabelValues("auth")))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `dscatalog_token_requests_total{result="issued"} 1`)
	assert.Contains(t, rec.Body.String(), "dscatalog_http_request_duration_seconds_bucket")
}

func TestNilMetricsRecordNothing(t *testing.T) {
	t.Parallel()

	var m *Metrics
	assert.NotPanics(t, func() {
		m.ObserveRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
		m.TokenRequest(TokenIssued)
		m.AccessDecision(DecisionAllowed)
		m.RateLimited("general")
	})
	assert.Nil(t, m.Registry())
}
