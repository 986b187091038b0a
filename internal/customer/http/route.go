package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers customer-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/customers")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)                           // List customers
		group.GET("/:id", h.Get)                        // Get customer details
		group.POST("", h.Create)                        // Create customer
		group.PATCH("/:id", h.Update)                   // Update customer
		group.DELETE("/:id", adminMiddleware, h.Delete) // Delete customer (admin)
	}
}
