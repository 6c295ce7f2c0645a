package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/services"
)

// MyRestaurants lists the restaurants the vendor owns, with their menus
func (h *Handler) MyRestaurants(c *gin.Context) {
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	restaurants, err := h.Catalog.OwnedRestaurants(c.Request.Context(), user)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// CreateRestaurant registers a restaurant owned by the caller
func (h *Handler) CreateRestaurant(c *gin.Context) {
	var req services.RestaurantInput
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	restaurant, err := h.Catalog.CreateRestaurant(c.Request.Context(), user, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Restaurant created", "restaurant": restaurant})
}

func (h *Handler) UpdateRestaurant(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req services.RestaurantInput
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	restaurant, err := h.Catalog.UpdateRestaurant(c.Request.Context(), user, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant updated", "restaurant": restaurant})
}

func (h *Handler) DeleteRestaurant(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteRestaurant(c.Request.Context(), user, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Restaurant deleted"})
}

func (h *Handler) ListCategories(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	categories, err := h.Catalog.ListCategories(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(categories), "categories": categories})
}

func (h *Handler) CreateCategory(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryInput
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	category, err := h.Catalog.CreateCategory(c.Request.Context(), user, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"category": category})
}

func (h *Handler) UpdateCategory(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req services.CategoryInput
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	category, err := h.Catalog.UpdateCategory(c.Request.Context(), user, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"category": category})
}

func (h *Handler) DeleteCategory(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteCategory(c.Request.Context(), user, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Category deleted"})
}

// AddMenuItem adds an item to one of the vendor's restaurants
func (h *Handler) AddMenuItem(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req services.MenuItemInput
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	item, err := h.Catalog.CreateMenuItem(c.Request.Context(), user, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Menu item added", "item": item})
}

// UpdateMenuItem edits a menu item
func (h *Handler) UpdateMenuItem(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req services.MenuItemInput
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	item, err := h.Catalog.UpdateMenuItem(c.Request.Context(), user, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item updated", "item": item})
}

// DeleteMenuItem removes a menu item
func (h *Handler) DeleteMenuItem(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	if err := h.Catalog.DeleteMenuItem(c.Request.Context(), user, id); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Menu item deleted"})
}
