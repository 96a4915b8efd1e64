package observability

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestMetricsCacheOp(t *testing.T) {
	m := NewMetrics()
	m.CacheOp("get", "hit")
	m.CacheOp("get", "hit")
	m.CacheOp("get", "miss")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.CacheOperations.WithLabelValues("get", "hit")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.CacheOperations.WithLabelValues("get", "miss")))
}

func TestMetricsNilReceiver(t *testing.T) {
	var m *Metrics
	m.CacheOp("get", "hit")
	m.HTTPRequest(http.MethodGet, "/", http.StatusOK, time.Millisecond)
}

func TestMetricsHandler(t *testing.T) {
	m := NewMetrics()
	m.HTTPRequest(http.MethodGet, "/v1/movies", http.StatusOK, 10*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(rec.Body.String(), "catalog_http_requests_total"))
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger("production", "warn")
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))

	_, err = NewLogger("development", "loud")
	assert.Error(t, err)
}
