package routes

import (
	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/controllers"
)

func MenuRoutes(public, admin *gin.RouterGroup, h *controllers.Controller) {
	public.GET("/menus", h.GetMenus())
	public.GET("/menus/:menu_id", h.GetMenu())
	admin.POST("/menus", h.CreateMenu())
	admin.PATCH("/menus/:menu_id", h.UpdateMenu())
	admin.PATCH("/menus/:menu_id/stock", h.UpdateStock())
}

func CategoryRoutes(public, admin *gin.RouterGroup, h *controllers.Controller) {
	public.GET("/categories", h.GetCategories())
	admin.POST("/categories", h.CreateCategory())
}
