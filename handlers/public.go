package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/apperr"
	"food-marketplace-api/models"
	"food-marketplace-api/services"
	"food-marketplace-api/statemachine"
)

// ListRestaurants returns all active restaurants (public)
func (h *Handler) ListRestaurants(c *gin.Context) {
	restaurants, err := h.Catalog.ListRestaurants(c.Request.Context(), services.RestaurantFilter{
		CuisineType: c.Query("cuisine_type"),
		PriceRange:  models.PriceRange(c.Query("price_range")),
		Search:      c.Query("search"),
		Ordering:    c.Query("ordering"),
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

// SearchRestaurants is the advanced search taking filters in the body
func (h *Handler) SearchRestaurants(c *gin.Context) {
	var req services.SearchInput
	if !h.bind(c, &req) {
		return
	}
	restaurants, err := h.Catalog.SearchRestaurants(c.Request.Context(), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(restaurants), "restaurants": restaurants})
}

func (h *Handler) PopularCuisines(c *gin.Context) {
	stats, err := h.Catalog.PopularCuisines(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"cuisines": stats})
}

// GetRestaurant returns a single restaurant
func (h *Handler) GetRestaurant(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	restaurant, err := h.Catalog.GetRestaurant(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

func (h *Handler) GetRestaurantBySlug(c *gin.Context) {
	restaurant, err := h.Catalog.GetRestaurantBySlug(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant": restaurant})
}

// GetMenu returns the menu grouped by category (public)
func (h *Handler) GetMenu(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	categories, err := h.Catalog.MenuByCategory(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant_id": id, "categories": categories})
}

// GetMenuByMealPeriod groups the menu into breakfast, lunch, dinner and so on
func (h *Handler) GetMenuByMealPeriod(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	periods, err := h.Catalog.MenuByMealPeriod(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"restaurant_id": id, "meal_periods": periods})
}

func (h *Handler) ListReviews(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	reviews, err := h.Catalog.ListReviews(c.Request.Context(), id)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(reviews), "reviews": reviews})
}

func (h *Handler) CreateReview(c *gin.Context) {
	id, ok := h.parseID(c, "id")
	if !ok {
		return
	}
	var req services.ReviewInput
	if !h.bind(c, &req) {
		return
	}
	user, ok := h.currentUser(c)
	if !ok {
		return
	}
	review, err := h.Catalog.CreateReview(c.Request.Context(), user, id, req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"review": review})
}

// ListMenuItems filters available items across restaurants
func (h *Handler) ListMenuItems(c *gin.Context) {
	restaurantID, ok := h.queryID(c, "restaurant")
	if !ok {
		return
	}
	categoryID, ok := h.queryID(c, "category")
	if !ok {
		return
	}
	filter := services.MenuItemFilter{
		RestaurantID: restaurantID,
		CategoryID:   categoryID,
		Vegetarian:   c.Query("is_vegetarian") == "true",
		Vegan:        c.Query("is_vegan") == "true",
		GlutenFree:   c.Query("is_gluten_free") == "true",
		Search:       c.Query("search"),
	}
	if raw := c.Query("max_spice_level"); raw != "" {
		level, err := strconv.Atoi(raw)
		if err != nil {
			h.respondError(c, apperr.Validation("max_spice_level must be an integer"))
			return
		}
		filter.MaxSpiceLevel = &level
	}
	items, err := h.Catalog.ListMenuItems(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(items), "menu_items": items})
}

// GetStateMachineInfo returns the full state machine for informational purposes
func (h *Handler) GetStateMachineInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"state_machine":   statemachine.GetAllTransitions(),
		"states":          models.OrderStatuses,
		"terminal_states": []models.OrderStatus{models.StatusDelivered, models.StatusCancelled},
		"description":     "Food Marketplace Order Lifecycle State Machine",
	})
}
