package handlers

import (
	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"

	"harvestly/internal/middleware"
	"harvestly/internal/models"
	"harvestly/internal/notifications"
	"harvestly/internal/storefront"
)

// RouterDeps are the pieces RegisterRoutes needs to mount the API.
type RouterDeps struct {
	Registry  *storefront.Registry
	JWTSecret string
	Mongo     *mongo.Database

	// Notifications is mounted under /seller/notifications when set. It
	// must be among the registry's publishers to receive order updates.
	Notifications *notifications.Feed
}

// RegisterRoutes mounts every endpoint on r.
func RegisterRoutes(r gin.IRouter, d RouterDeps) {
	reg := d.Registry
	auth := middleware.Auth(reg, d.JWTSecret)
	optional := middleware.OptionalAuth(reg, d.JWTSecret)

	r.GET("/health", Health(reg, d.Mongo))
	r.GET("/navigation", optional, Navigate())

	/* ===== AUTH ===== */
	authGroup := r.Group("/auth")
	authGroup.POST("/login", Login(reg))
	authGroup.POST("/register", Register(reg))
	authGroup.POST("/logout", Logout(reg))
	authGroup.GET("/profile", auth, GetProfile())
	authGroup.PUT("/profile", auth, UpdateProfile())
	authGroup.PUT("/change-password", auth, ChangePassword())
	authGroup.POST("/profile/dismiss-prompt", auth, DismissProfilePrompt())

	/* ===== CATALOG ===== */
	r.GET("/catalog/products", optional, ListProducts(reg))
	r.GET("/catalog/search", optional, SearchProducts(reg))
	r.GET("/catalog/products/:id", optional, GetProduct(reg))

	/* ===== BUYER ===== */
	buyer := r.Group("", auth, middleware.RequireRole(models.RoleBuyer))
	buyer.GET("/cart", GetCart())
	buyer.POST("/cart/items", AddToCart())
	buyer.PUT("/cart/items/:productId", UpdateCartItem())
	buyer.DELETE("/cart/items/:productId", RemoveCartItem())
	buyer.DELETE("/cart", ClearCart())
	buyer.GET("/wishlist", GetWishlist())
	buyer.POST("/wishlist/:productId", AddToWishlist())
	buyer.DELETE("/wishlist/:productId", RemoveFromWishlist())
	buyer.POST("/orders", Checkout())
	buyer.POST("/orders/:id/return", ReturnOrder())

	/* ===== ORDERS (any role) ===== */
	orders := r.Group("/orders", auth)
	orders.GET("", middleware.RequireRole(models.RoleBuyer, models.RoleAdmin), ListMyOrders())
	orders.GET("/stats", OrderStats())
	orders.GET("/:id", GetOrder())
	orders.POST("/:id/cancel", CancelOrder())

	/* ===== SELLER ===== */
	seller := r.Group("/seller", auth, middleware.RequireRole(models.RoleFarmer))
	seller.GET("/products", ListMyProducts())
	seller.POST("/products", CreateProduct())
	seller.PUT("/products/:id", UpdateProduct())
	seller.DELETE("/products/:id", DeleteProduct())
	seller.GET("/orders", ListSellerOrders())
	seller.PUT("/orders/:id/status", UpdateOrderStatus())
	if d.Notifications != nil {
		seller.GET("/notifications", ListNotifications(d.Notifications))
		seller.PUT("/notifications/read-all", MarkAllNotificationsRead(d.Notifications))
		seller.PUT("/notifications/:id/read", MarkNotificationRead(d.Notifications))
	}

	/* ===== ADMIN ===== */
	admin := r.Group("/admin", auth, middleware.RequireRole(models.RoleAdmin))
	admin.GET("/products/:queue", ListReviewQueue())
	admin.PUT("/products/:id/approve", ApproveProduct())
	admin.PUT("/products/:id/reject", RejectProduct())
	admin.DELETE("/products/:id", DeleteProduct())
	admin.GET("/orders", ListAllOrders())
	admin.PUT("/orders/:id/status", UpdateOrderStatus())
	admin.GET("/users", ListUsers())
	admin.PUT("/users/:id/status", UpdateUserStatus())
	admin.GET("/dashboard", OrderStats())
}
