package routes

import (
	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/controllers"
)

func OrderRoutes(authed, admin *gin.RouterGroup, h *controllers.Controller) {
	authed.POST("/orders/checkout", h.Checkout())
	admin.GET("/orders", h.GetOrders())
	admin.GET("/orders/:order_id", h.GetOrder())
	admin.PATCH("/orders/:order_id/status", h.UpdateOrderStatus())
}

func LogRoutes(admin *gin.RouterGroup, h *controllers.Controller) {
	admin.GET("/logs", h.GetLogs())
}
