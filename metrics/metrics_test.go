package metrics

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddlewareCountsRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware())
	r.GET("/menus/:menu_id", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	before := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/menus/:menu_id", "No Content"))
	for _, id := range []string{"a", "b"} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/menus/"+id, nil))
		assert.Equal(t, http.StatusNoContent, w.Code)
	}
	after := testutil.ToFloat64(httpRequests.WithLabelValues(http.MethodGet, "/menus/:menu_id", "No Content"))

	assert.Equal(t, before+2, after)
}

func TestDomainCounters(t *testing.T) {
	before := testutil.ToFloat64(Checkouts.WithLabelValues("InsufficientStock"))
	ObserveCheckout("InsufficientStock")
	assert.Equal(t, before+1, testutil.ToFloat64(Checkouts.WithLabelValues("InsufficientStock")))

	before = testutil.ToFloat64(StockAdjustments.WithLabelValues("set", ResultOK))
	ObserveStockAdjustment("set", ResultOK)
	assert.Equal(t, before+1, testutil.ToFloat64(StockAdjustments.WithLabelValues("set", ResultOK)))
}
