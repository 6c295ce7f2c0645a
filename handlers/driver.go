package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/middleware"
)

// GetAvailableOrders returns READY orders not yet claimed by a driver
func (h *Handler) GetAvailableOrders(c *gin.Context) {
	orders, err := h.Orders.AvailableForDelivery(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// GetMyDeliveries returns orders assigned to the driver
func (h *Handler) GetMyDeliveries(c *gin.Context) {
	orders, err := h.Orders.DriverOrders(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(orders), "orders": orders})
}

// ClaimOrder assigns a ready order to the calling driver
func (h *Handler) ClaimOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Claim(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order claimed", "order": order})
}

// DeliverOrder marks the driver's order as delivered
func (h *Handler) DeliverOrder(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	order, err := h.Orders.Deliver(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Order delivered", "order": order})
}
