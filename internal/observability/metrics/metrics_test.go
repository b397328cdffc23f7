package metrics

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
)

func TestFilterAttributesDropsForbiddenLabels(t *testing.T) {
	attrs := FilterAttributes(
		attribute.String("payment_method", "CASH"),
		attribute.String("customer_id", "456"),
		attribute.String("status", "READY"),
	)
	require.Len(t, attrs, 2)
	keys := []attribute.Key{attrs[0].Key, attrs[1].Key}
	assert.Contains(t, keys, attribute.Key("payment_method"))
	assert.Contains(t, keys, attribute.Key("status"))
}

func TestNoopMetricsAcceptRecords(t *testing.T) {
	m := NewNoop()
	require.NotNil(t, m)

	ctx := context.Background()
	m.RecordOrderCreated(ctx, 3)
	m.RecordItemStatusChange(ctx, "PENDING", "PROCESS")
	m.RecordSettlement(ctx, "CASH", OutcomeSuccess, 50000)
	m.RecordTrackingDenied(ctx, "rate_limited")

	var nilMetrics *Metrics
	nilMetrics.RecordSettlement(ctx, "CASH", OutcomeFailure, 0)
}

func TestItemBucket(t *testing.T) {
	assert.Equal(t, "1", itemBucket(0))
	assert.Equal(t, "1", itemBucket(1))
	assert.Equal(t, "2-3", itemBucket(3))
	assert.Equal(t, "4+", itemBucket(9))
}

func TestHTTPMetricsCountsRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	reg := prometheus.NewRegistry()
	m, err := NewHTTPMetricsWith(reg)
	require.NoError(t, err)

	again, err := NewHTTPMetricsWith(reg)
	require.NoError(t, err)
	assert.Same(t, m.requests, again.requests)

	r := gin.New()
	r.Use(m.GinMiddleware())
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })

	for i := 0; i < 2; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requests.WithLabelValues("GET", "/health", "200")))
}
