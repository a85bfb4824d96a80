package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/flicky/go-marketplace/internal/middleware"
	"github.com/flicky/go-marketplace/internal/model"
)

type Handlers struct {
	Health       *HealthHandler
	Auth         *AuthHandler
	Product      *ProductHandler
	Cart         *CartHandler
	Order        *OrderHandler
	Notification *NotificationHandler
	Wishlist     *WishlistHandler
	Feedback     *FeedbackHandler
	Admin        *AdminHandler
}

// RegisterRoutes mounts the API on r. Each role gets its own guarded group.
func RegisterRoutes(r *gin.Engine, h Handlers, tokens middleware.TokenParser) {
	r.GET("/healthz", h.Health.Healthz)
	r.GET("/readyz", h.Health.Readyz)

	v1 := r.Group("/api/v1")

	auth := v1.Group("/auth")
	auth.POST("/register", h.Auth.Register)
	auth.POST("/login", h.Auth.Login)
	auth.POST("/seller/register", h.Auth.RegisterSeller)
	auth.POST("/seller/login", h.Auth.SellerLogin)
	auth.POST("/admin/login", h.Auth.AdminLogin)

	v1.GET("/products", h.Product.List)
	v1.GET("/products/:id", h.Product.GetByID)
	v1.GET("/sellers/:id/market", middleware.OptionalAuth(tokens), h.Product.Market)

	client := v1.Group("", middleware.Auth(tokens), middleware.RequireRole(model.RoleClient))
	client.GET("/cart", h.Cart.GetCart)
	client.POST("/cart/items", h.Cart.AddItem)
	client.DELETE("/cart/items/:product_id", h.Cart.RemoveItem)
	client.POST("/checkout", h.Cart.Checkout)
	client.GET("/orders", h.Order.ListOrders)
	client.GET("/orders/:id", h.Order.GetOrder)
	client.GET("/wishlist", h.Wishlist.List)
	client.POST("/wishlist/:product_id", h.Wishlist.Add)
	client.DELETE("/wishlist/:product_id", h.Wishlist.Remove)

	seller := v1.Group("/seller", middleware.Auth(tokens), middleware.RequireRole(model.RoleSeller))
	seller.GET("/products", h.Product.ListOwn)
	seller.POST("/products", h.Product.Create)
	seller.PUT("/products/:id", h.Product.Update)
	seller.DELETE("/products/:id", h.Product.Delete)
	seller.GET("/dashboard", h.Order.SellerDashboard)
	seller.GET("/orders/:id", h.Order.GetOrder)
	seller.GET("/notifications", h.Notification.List)
	seller.POST("/notifications/read-all", h.Notification.MarkAllRead)
	seller.POST("/notifications/:id/read", h.Notification.MarkRead)
	seller.GET("/notifications/live", h.Notification.Live)

	feedback := v1.Group("/feedback", middleware.Auth(tokens), middleware.RequireRole(model.RoleClient, model.RoleSeller))
	feedback.GET("", h.Feedback.List)
	feedback.POST("", h.Feedback.Create)
	feedback.DELETE("/:id", h.Feedback.Delete)

	admin := v1.Group("/admin", middleware.Auth(tokens), middleware.RequireRole(model.RoleSuperAdmin))
	admin.GET("/overview", h.Admin.Overview)
	admin.GET("/transactions", h.Admin.Transactions)
	admin.GET("/transactions/export", h.Admin.ExportTransactions)
	admin.DELETE("/products/:id", h.Product.Purge)
	admin.GET("/feedback", h.Feedback.List)
	admin.DELETE("/feedback/:id", h.Feedback.Moderate)
}
