package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/middleware"
	"go-restaurant-ordering/services"
)

func (h *Controller) GetCategories() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		categories, err := h.catalog.ListCategories(ctx)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Categories fetched successfully",
			"data":    categories,
		})
	}
}

func (h *Controller) CreateCategory() gin.HandlerFunc {
	return func(c *gin.Context) {
		var in services.CategoryInput
		if !bindJSON(c, &in) {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		category, err := h.catalog.CreateCategory(ctx, middleware.ActorFrom(c), in)
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, category)
	}
}
