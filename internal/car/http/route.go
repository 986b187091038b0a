package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers car-related routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	group := g.Group("/cars")

	// === Authenticated Routes ===
	group.Use(authMiddleware)
	{
		group.GET("", h.List)                           // Search cars
		group.GET("/:id", h.Get)                        // Get car details
		group.GET("/:id/availability", h.Availability)  // Check a time window
		group.GET("/:id/photo", h.GetPhoto)             // Download photo or thumbnail
		group.POST("", h.Create)                        // Create car
		group.PATCH("/:id", h.Update)                   // Update car
		group.POST("/:id/photo", h.UploadPhoto)         // Replace photo
		group.DELETE("/:id", adminMiddleware, h.Delete) // Delete car (admin)
	}
}
