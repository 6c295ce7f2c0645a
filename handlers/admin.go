package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/models"
	"food-marketplace-api/services"
)

// AdminGetAllOrders returns all orders with a status summary (admin only)
func (h *Handler) AdminGetAllOrders(c *gin.Context) {
	restaurantID, ok := h.queryID(c, "restaurant_id")
	if !ok {
		return
	}
	userID, ok := h.queryID(c, "user_id")
	if !ok {
		return
	}
	orders, summary, err := h.Orders.AdminList(c.Request.Context(), services.AdminOrderFilter{
		Status:       models.OrderStatus(c.Query("status")),
		RestaurantID: restaurantID,
		UserID:       userID,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"order_summary": summary.ByStatus,
		"total_revenue": summary.DeliveredRevenue.StringFixed(2),
		"count":         summary.Total,
		"orders":        orders,
	})
}

// AdminGetAllUsers returns all users (admin only)
func (h *Handler) AdminGetAllUsers(c *gin.Context) {
	users, err := h.Accounts.ListUsers(c.Request.Context(), models.UserRole(c.Query("role")))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(users), "users": users})
}

// AdminSetUserStatus suspends, bans or reactivates an account
func (h *Handler) AdminSetUserStatus(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.AccountStatus `json:"account_status" binding:"required"`
	}
	if !h.bind(c, &req) {
		return
	}
	user, err := h.Accounts.SetAccountStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}

// AdminGetAllRestaurants returns all restaurants, inactive ones included (admin only)
func (h *Handler) AdminGetAllRestaurants(c *gin.Context) {
	restaurants, err := h.Catalog.ListAllRestaurants(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// AdminForceOrderStatus lets admin override any order state (emergency use)
func (h *Handler) AdminForceOrderStatus(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req struct {
		Status models.OrderStatus `json:"status" binding:"required"`
		Reason string             `json:"reason"`
	}
	if !h.bind(c, &req) {
		return
	}
	order, err := h.Orders.ForceStatus(c.Request.Context(), id, req.Status, req.Reason)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":    "Order status force-updated by admin",
		"order_id":   order.ID,
		"new_status": order.Status,
		"order":      order,
	})
}
