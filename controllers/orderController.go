package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/middleware"
	"go-restaurant-ordering/services"
)

func (h *Controller) GetOrders() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		orders, err := h.orders.List(ctx, database.OrderFilter{OrderStatus: c.Query("order_status"), Limit: limit})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Orders fetched successfully",
			"data":    orders,
		})
	}
}

func (h *Controller) GetOrder() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		detail, err := h.orders.Get(ctx, c.Param("order_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"success": true, "order": renderOrder(detail)})
	}
}

func (h *Controller) UpdateOrderStatus() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.StatusUpdateRequest
		if !bindJSON(c, &req) {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		order, err := h.orders.UpdateStatus(ctx, middleware.ActorFrom(c), c.Param("order_id"), req)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"message":      "Order updated successfully",
			"order":        order,
			"order_number": order.OrderNumber(),
		})
	}
}
