package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/models"
)

// GetRestaurantOrders returns orders for the vendor's restaurants
func (h *Handler) GetRestaurantOrders(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	orders, summary, err := h.Orders.RestaurantOrders(c.Request.Context(), user, models.OrderStatus(c.Query("status")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "summary": summary, "orders": orders})
}

// UpdateOrderStatus moves an order along: confirmed, preparing, ready or cancelled
func (h *Handler) UpdateOrderStatus(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
		Note   string             `json:"note" binding:"max=200"`
	}
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	order, err := h.Orders.AdvanceStatus(c.Request.Context(), user, id, req.Status, req.Note)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order status updated", "order": order})
}

// AddTrackingEntry appends a note to the order's trail without changing its status
func (h *Handler) AddTrackingEntry(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status  models.OrderStatus `json:"status" binding:"required"`
		Message string             `json:"message" binding:"max=200"`
	}
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	entry, err := h.Orders.AppendRestaurantTracking(c.Request.Context(), user, id, req.Status, req.Message)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"tracking": entry})
}

func (h *Handler) GetRestaurantOrderTracking(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	entries, err := h.Orders.RestaurantTracking(c.Request.Context(), user, id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"order_id": id, "tracking": entries})
}
