package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/database"
	"go-restaurant-ordering/metrics"
	"go-restaurant-ordering/middleware"
	"go-restaurant-ordering/services"
)

func (h *Controller) GetMenus() gin.HandlerFunc {
	return func(c *gin.Context) {
		filter := database.MenuFilter{CategoryID: c.Query("category_id")}
		if raw := c.Query("available"); raw != "" {
			available, err := strconv.ParseBool(raw)
			if err != nil {
				respondError(c, services.BadRequest("Invalid available filter", err))
				return
			}
			filter.AvailableOnly = available
		}

		ctx, cancel := h.requestCtx(c)
		defer cancel()
		menus, err := h.catalog.ListMenus(ctx, filter)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Menu items fetched successfully",
			"data":    menus,
		})
	}
}

func (h *Controller) GetMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		menu, err := h.catalog.GetMenu(ctx, c.Param("menu_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, menu)
	}
}

func (h *Controller) CreateMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.MenuInput
		if !bindJSON(c, &in) {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		menu, err := h.catalog.CreateMenu(ctx, middleware.ActorFrom(c), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, menu)
	}
}

func (h *Controller) UpdateMenu() gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch services.MenuPatch
		if !bindJSON(c, &patch) {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		menu, err := h.catalog.UpdateMenu(ctx, middleware.ActorFrom(c), c.Param("menu_id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, menu)
	}
}

// UpdateStock adds to, subtracts from or sets a menu item's stock.
func (h *Controller) UpdateStock() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.StockUpdateRequest
		if !bindJSON(c, &req) {
			return
		}
		action := strings.ToLower(strings.TrimSpace(req.Action))
		switch services.StockAction(action) {
		case services.StockAdd, services.StockSubtract, services.StockSet:
		default:
			action = "invalid"
		}

		ctx, cancel := h.requestCtx(c)
		defer cancel()
		res, err := h.stock.Adjust(ctx, middleware.ActorFrom(c), c.Param("menu_id"), req)
		metrics.ObserveStockAdjustment(action, resultOf(err))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"success":      true,
			"message":      "Stock updated successfully",
			"menu_item":    res.Menu,
			"stock_change": res.Change,
		})
	}
}
