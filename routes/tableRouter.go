package routes

import (
	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/controllers"
)

func TableRoutes(public, admin *gin.RouterGroup, h *controllers.Controller) {
	public.GET("/tables/:table_id", h.GetTable())
	admin.GET("/tables", h.GetTables())
	admin.POST("/tables", h.CreateTable())
	admin.PATCH("/tables/:table_id", h.UpdateTable())
}
