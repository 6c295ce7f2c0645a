package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
)

// PlaceOrder creates an order directly from a list of items
func (h *Handler) PlaceOrder(c *gin.Context) {
	var req services.CreateOrderInput
	if !h.bind(c, &req) {
		return
	}
	order, err := h.Orders.CreateFromItems(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// Checkout converts the caller's cart into an order
func (h *Handler) Checkout(c *gin.Context) {
	var req services.DeliveryDetails
	if !h.bind(c, &req) {
		return
	}
	order, err := h.Orders.Checkout(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Order placed successfully", "order": order})
}

// GetMyOrders returns the caller's orders
func (h *Handler) GetMyOrders(c *gin.Context) {
	restaurantID, ok := h.queryID(c, "restaurant")
	if !ok {
		return
	}
	orders, err := h.Orders.List(c.Request.Context(), middleware.GetUserID(c), models.OrderStatus(c.Query("status")), restaurantID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetOrderDetail returns one order with its items and tracking
func (h *Handler) GetOrderDetail(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Get(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order": order})
}

func (h *Handler) GetOrderTracking(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	entries, err := h.Orders.Tracking(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "tracking": entries})
}

// CancelOrder lets the customer cancel before the order is ready
func (h *Handler) CancelOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Cancel(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order cancelled successfully", "order": order})
}
