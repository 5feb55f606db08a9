package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHandler(t *testing.T) {
	reg := NewRegistry()
	AuthAttempts.WithLabelValues("signin", OutcomeSuccess).Inc()

	rec := httptest.NewRecorder()
	Handler(reg).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `murmur_auth_attempts_total{action="signin",outcome="success"}`)
	assert.GreaterOrEqual(t, testutil.ToFloat64(AuthAttempts.WithLabelValues("signin", OutcomeSuccess)), 1.0)
}

func TestNewRegistry_Repeatable(t *testing.T) {
	assert.NotPanics(t, func() {
		NewRegistry()
		NewRegistry()
	})
}
