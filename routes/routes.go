package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"food-marketplace-api/handlers"
	"food-marketplace-api/middleware"
	"food-marketplace-api/models"
)

var vendorRoles = []models.UserRole{
	models.RoleVendor, models.RoleRestaurantOwner, models.RoleRestaurantManager, models.RolePlatformAdmin,
}

func SetupRoutes(r *gin.Engine, h *handlers.Handler, authRequired gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "healthy",
			"service": "Food Marketplace API",
			"version": "1.0.0",
		})
	})
	r.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"message": "Welcome to the Food Marketplace API",
			"docs":    "/api/state-machine",
			"health":  "/health",
			"roles":   models.Roles,
		})
	})

	// ── Public routes ──────────────────────────────────────────────
	public := r.Group("/api")
	{
		// Accounts
		public.POST("/accounts/register", h.Register)
		public.POST("/accounts/login", h.Login)
		public.POST("/accounts/check-username", h.CheckUsername)
		public.POST("/accounts/check-email", h.CheckEmail)
		public.POST("/accounts/verify-email", h.VerifyEmail)
		public.POST("/accounts/resend-verification", h.ResendVerification)
		public.GET("/accounts/user-types", h.UserTypes)

		// Restaurants & menus (no auth needed)
		public.GET("/restaurants", h.ListRestaurants)
		public.POST("/restaurants/search", h.SearchRestaurants)
		public.GET("/restaurants/popular-cuisines", h.PopularCuisines)
		public.GET("/restaurants/slug/:slug", h.GetRestaurantBySlug)
		public.GET("/restaurants/:id", h.GetRestaurant)
		public.GET("/restaurants/:id/menu", h.GetMenu)
		public.GET("/restaurants/:id/menu/meal-periods", h.GetMenuByMealPeriod)
		public.GET("/restaurants/:id/reviews", h.ListReviews)
		public.GET("/menu-items", h.ListMenuItems)

		// State machine info
		public.GET("/state-machine", h.GetStateMachineInfo)
	}

	// ── Authenticated routes ───────────────────────────────────────
	authed := r.Group("/api")
	authed.Use(authRequired)
	{
		authed.POST("/accounts/logout", h.Logout)
		authed.GET("/accounts/me", h.Me)
		authed.POST("/accounts/change-password", h.ChangePassword)
		authed.POST("/restaurants/:id/reviews", h.CreateReview)

		// Cart
		authed.GET("/cart/current", h.CurrentCart)
		authed.POST("/cart/add_item", h.AddCartItem)
		authed.PUT("/cart/update_item", h.UpdateCartItem)
		authed.DELETE("/cart/clear", h.ClearCart)
		authed.DELETE("/cart/remove_item", h.RemoveCartItem)

		// Orders
		authed.GET("/orders", h.GetMyOrders)
		authed.POST("/orders", h.PlaceOrder)
		authed.POST("/orders/checkout", h.Checkout)
		authed.GET("/orders/:id", h.GetOrderDetail)
		authed.GET("/orders/:id/tracking", h.GetOrderTracking)
		authed.POST("/orders/:id/cancel", h.CancelOrder)
	}

	// ── Vendor routes ──────────────────────────────────────────────
	vendor := r.Group("/api/vendor")
	vendor.Use(authRequired, middleware.RoleRequired(vendorRoles...))
	{
		vendor.GET("/restaurants", h.MyRestaurants)
		vendor.POST("/restaurants", h.CreateRestaurant)
		vendor.PUT("/restaurants/:id", h.UpdateRestaurant)
		vendor.DELETE("/restaurants/:id", h.DeleteRestaurant)

		vendor.GET("/restaurants/:id/categories", h.ListCategories)
		vendor.POST("/restaurants/:id/categories", h.CreateCategory)
		vendor.PUT("/categories/:id", h.UpdateCategory)
		vendor.DELETE("/categories/:id", h.DeleteCategory)

		vendor.POST("/restaurants/:id/menu-items", h.AddMenuItem)
		vendor.PUT("/menu-items/:id", h.UpdateMenuItem)
		vendor.DELETE("/menu-items/:id", h.DeleteMenuItem)

		vendor.GET("/orders", h.GetRestaurantOrders)
		vendor.PUT("/orders/:id/status", h.UpdateOrderStatus)
		vendor.GET("/orders/:id/tracking", h.GetRestaurantOrderTracking)
		vendor.POST("/orders/:id/tracking", h.AddTrackingEntry)
	}

	// ── Delivery routes ────────────────────────────────────────────
	delivery := r.Group("/api/delivery")
	delivery.Use(authRequired, middleware.RoleRequired(models.RoleDelivery))
	{
		delivery.GET("/orders/available", h.GetAvailableOrders)
		delivery.GET("/orders/mine", h.GetMyDeliveries)
		delivery.PUT("/orders/:id/claim", h.ClaimOrder)
		delivery.PUT("/orders/:id/deliver", h.DeliverOrder)
	}

	// ── Admin routes ───────────────────────────────────────────────
	admin := r.Group("/api/admin")
	admin.Use(authRequired, middleware.RoleRequired(models.RolePlatformAdmin))
	{
		admin.GET("/orders", h.AdminGetAllOrders)
		admin.PUT("/orders/:id/status", h.AdminForceOrderStatus)
		admin.GET("/users", h.AdminGetAllUsers)
		admin.PUT("/users/:id/status", h.AdminSetUserStatus)
		admin.GET("/restaurants", h.AdminGetAllRestaurants)
	}
}
