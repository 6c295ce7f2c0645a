package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/apperr"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
)

func cartBody(cart *models.Cart) gin.H {
	return gin.H{
		"cart":        cart,
		"total_items": cart.TotalItems(),
		"cart_total":  cart.Total().StringFixed(2),
	}
}

// CurrentCart returns the caller's cart, creating it on first use
func (h *Handler) CurrentCart(c *gin.Context) {
	cart, err := h.Carts.GetOrCreate(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

func (h *Handler) AddCartItem(c *gin.Context) {
	var req services.AddItemInput
	if !h.bind(c, &req) {
		return
	}
	cart, err := h.Carts.AddItem(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

// UpdateCartItem changes a line's quantity; quantity 0 removes it
func (h *Handler) UpdateCartItem(c *gin.Context) {
	var req services.UpdateItemInput
	if !h.bind(c, &req) {
		return
	}
	cart, removed, err := h.Carts.UpdateItem(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	body := cartBody(cart)
	if removed {
		body["message"] = "Item removed from cart"
	}
	c.JSON(http.StatusOK, body)
}

func (h *Handler) RemoveCartItem(c *gin.Context) {
	itemID, ok := h.queryID(c, "item_id")
	if !ok {
		return
	}
	if itemID == 0 {
		h.respondError(c, apperr.Validation("item_id query parameter is required"))
		return
	}
	cart, err := h.Carts.RemoveItem(c.Request.Context(), middleware.GetUserID(c), itemID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}

func (h *Handler) ClearCart(c *gin.Context) {
	cart, err := h.Carts.Clear(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, cartBody(cart))
}
