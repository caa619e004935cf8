package controllers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"go-restaurant-ordering/metrics"
	"go-restaurant-ordering/middleware"
	"go-restaurant-ordering/services"
)

const IdempotencyKeyHeader = "Idempotency-Key"

type orderTableJSON struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

type orderItemJSON struct {
	ID            string `json:"id"`
	Menu_id       string `json:"menu_id"`
	Menu_name     string `json:"menu_name"`
	Quantity      int    `json:"quantity"`
	Price         int64  `json:"price"`
	Subtotal      int64  `json:"subtotal"`
	Customization string `json:"customization"`
}

type orderJSON struct {
	ID             string          `json:"id"`
	Order_number   string          `json:"order_number"`
	Table          *orderTableJSON `json:"table"`
	Customer_id    *string         `json:"customer_id"`
	Total_amount   int64           `json:"total_amount"`
	Order_status   string          `json:"order_status"`
	Payment_status string          `json:"payment_status"`
	Order_time     time.Time       `json:"order_time"`
	Completed_time *time.Time      `json:"completed_time"`
	Items          []orderItemJSON `json:"items"`
}

func renderOrder(d *services.OrderDetail) orderJSON {
	out := orderJSON{
		ID:             d.Order.ID,
		Order_number:   d.Number(),
		Customer_id:    d.Order.Customer_id,
		Total_amount:   d.Order.Total_amount,
		Order_status:   d.Order.Order_status,
		Payment_status: d.Order.Payment_status,
		Order_time:     d.Order.Order_time,
		Completed_time: d.Order.Completed_time,
		Items:          make([]orderItemJSON, 0, len(d.Items)),
	}
	if d.Table != nil {
		out.Table = &orderTableJSON{ID: d.Table.ID, Name: d.Table.Name, Description: d.Table.Description}
	}
	for _, l := range d.Items {
		out.Items = append(out.Items, orderItemJSON{
			ID:            l.Item.ID,
			Menu_id:       l.Item.Menu_id,
			Menu_name:     l.MenuName,
			Quantity:      l.Item.Quantity,
			Price:         l.Item.Price,
			Subtotal:      l.Item.Subtotal,
			Customization: l.Item.Customization,
		})
	}
	return out
}

// Checkout places an order for the authenticated caller.
func (h *Controller) Checkout() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req services.CheckoutRequest
		if !bindJSON(c, &req) {
			metrics.ObserveCheckout(services.CodeValidationFailed)
			return
		}
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)

		ctx, cancel := h.requestCtx(c)
		defer cancel()
		detail, err := h.checkout.Checkout(ctx, middleware.ActorFrom(c), req)
		metrics.ObserveCheckout(resultOf(err))
		if err != nil {
			respondError(c, err)
			return
		}

		status := http.StatusCreated
		if detail.Replayed {
			status = http.StatusOK
		}
		c.JSON(status, gin.H{
			"success":  true,
			"message":  "Order placed successfully",
			"replayed": detail.Replayed,
			"order":    renderOrder(detail),
		})
	}
}
