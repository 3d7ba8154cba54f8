package metrics_test

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jrsteele09/go-token-auth/internal/metrics"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"
)

func TestRecorder(t *testing.T) {
	rec := metrics.NewRecorder()
	logins, refreshes, verifications, requests := rec.Counters()

	rec.Login(metrics.OutcomeSuccess)
	rec.Login(metrics.OutcomeFailure)
	rec.Login(metrics.OutcomeFailure)
	rec.Refresh(metrics.OutcomeSuccess)
	rec.Verification("access", "expired")
	rec.Request("/login", http.StatusUnauthorized)

	require.Equal(t, 1.0, testutil.ToFloat64(logins.WithLabelValues(metrics.OutcomeSuccess)))
	require.Equal(t, 2.0, testutil.ToFloat64(logins.WithLabelValues(metrics.OutcomeFailure)))
	require.Equal(t, 1.0, testutil.ToFloat64(refreshes.WithLabelValues(metrics.OutcomeSuccess)))
	require.Equal(t, 1.0, testutil.ToFloat64(verifications.WithLabelValues("access", "expired")))
	require.Equal(t, 1.0, testutil.ToFloat64(requests.WithLabelValues("/login", "401")))
}

func TestHandler(t *testing.T) {
	rec := metrics.NewRecorder()
	rec.Login(metrics.OutcomeSuccess)

	srv := httptest.NewServer(rec.Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), `auth_logins_total{outcome="success"} 1`)
}
