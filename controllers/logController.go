package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/database"
)

func (h *Controller) GetLogs() gin.HandlerFunc {
	return func(c *gin.Context) {
		limit, ok := queryLimit(c)
		if !ok {
			return
		}
		ctx, cancel := h.requestCtx(c)
		defer cancel()
		entries, err := h.catalog.ListLogs(ctx, database.LogFilter{Action: c.Query("action"), Limit: limit})
		if err != nil {
			respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"status":  http.StatusOK,
			"message": "Activity log fetched successfully",
			"data":    entries,
		})
	}
}
