package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/middleware"
	"go-restaurant-ordering/services"
)

func (h *Controller) GetTables() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		tables, err := h.catalog.ListTables(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Tables fetched successfully",
			"data":    tables,
		})
	}
}

func (h *Controller) GetTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		table, err := h.catalog.GetTable(ctx, c.Param("table_id"))
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, table)
	}
}

func (h *Controller) CreateTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.TableInput
		if !bindJSON(c, &in) {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		table, err := h.catalog.CreateTable(ctx, middleware.ActorFrom(c), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, table)
	}
}

func (h *Controller) UpdateTable() gin.HandlerFunc {
	return func(c *gin.Context) {
		var patch services.TablePatch
		if !bindJSON(c, &patch) {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		table, err := h.catalog.UpdateTable(ctx, middleware.ActorFrom(c), c.Param("table_id"), patch)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, table)
	}
}
