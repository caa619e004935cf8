package controllers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/logging"
	"go-restaurant-ordering/metrics"
	"go-restaurant-ordering/services"
)

// Controller holds the services behind the HTTP handlers.
type Controller struct {
	checkout *services.CheckoutService
	stock    *services.StockService
	orders   *services.OrderService
	catalog  *services.CatalogService
	timeout  time.Duration
}

func New(checkout *services.CheckoutService, stock *services.StockService, orders *services.OrderService,
	catalog *services.CatalogService, timeout time.Duration) *Controller {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Controller{checkout: checkout, stock: stock, orders: orders, catalog: catalog, timeout: timeout}
}

func (h *Controller) requestCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), h.timeout)
}

func statusOf(kind services.Kind) int {
	switch kind {
	case services.KindValidation, services.KindBusinessRule:
		return http.StatusBadRequest
	case services.KindNotFound:
		return http.StatusNotFound
	case services.KindUnauthorized:
		return http.StatusUnauthorized
	case services.KindForbidden:
		return http.StatusForbidden
	case services.KindConflict:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

// respondError writes err as {"error", "code", <detail field>}. Causes of
// internal failures are logged, never sent.
func respondError(c *gin.Context, err error) {
	svcErr := services.AsError(err)
	status := statusOf(svcErr.Kind)
	if status >= http.StatusInternalServerError {
		logging.From(c).Error("request failed", "code", svcErr.Code, "error", err)
	}
	body := gin.H{"error": svcErr.Message, "code": svcErr.Code}
	if svcErr.DetailKey != "" && svcErr.Details != nil {
		body[svcErr.DetailKey] = svcErr.Details
	}
	_ = c.Error(err)
	c.AbortWithStatusJSON(status, body)
}

func bindJSON(c *gin.Context, obj interface{}) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		respondError(c, services.BadRequest("Invalid request body", err))
		return false
	}
	return true
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := c.Query("limit")
	if raw == "" {
		return 0, true
	}
	limit, err := strconv.Atoi(raw)
	if err != nil || limit < 1 {
		respondError(c, services.BadRequest("Invalid limit", errors.New("limit must be a positive integer")))
		return 0, false
	}
	return limit, true
}

func resultOf(err error) string {
	if err == nil {
		return metrics.ResultOK
	}
	return services.AsError(err).Code
}
