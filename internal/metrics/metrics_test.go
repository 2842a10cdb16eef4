package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSale(t *testing.T) {
	m := New()
	m.RecordSale("cash", 120.5)
	m.RecordSale("cash", 10)
	m.RecordSale("card", 5)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.salesTotal.WithLabelValues("cash")))
	assert.Equal(t, 130.5, testutil.ToFloat64(m.saleAmountTotal.WithLabelValues("cash")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.salesTotal.WithLabelValues("card")))
}

func TestNilMetricsIsSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordSale("cash", 1)
		m.RecordStockMovement("sale")
		m.RecordStockRejection("sale")
		m.RecordSummaryRecompute()
		m.ObserveHTTPRequest("GET", "/ping", 200, time.Millisecond)
	})
}

func TestHandlerExposesCollectors(t *testing.T) {
	m := New()
	m.RecordStockMovement("purchase_receipt")
	m.ObserveHTTPRequest("GET", "/api/v1/products", 200, 20*time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `door_shop_stock_movements_total{source="purchase_receipt"} 1`))
	assert.True(t, strings.Contains(body, "door_shop_http_request_duration_seconds"))
}
