package http

import (
	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers reservation and rental routes.
func RegisterRoutes(g *gin.RouterGroup, h *Handler, authMiddleware, adminMiddleware gin.HandlerFunc) {
	reservations := g.Group("/reservations")
	reservations.Use(authMiddleware)
	{
		reservations.GET("", h.ListReservations)
		reservations.GET("/active", h.ActiveReservations)
		reservations.GET("/:id", h.GetReservation)
		reservations.POST("", h.CreateReservation)
		reservations.PATCH("/:id", h.UpdateReservation)
		reservations.POST("/:id/collect", h.CollectReservation)
		reservations.POST("/:id/cancel", h.CancelReservation)
		reservations.DELETE("/:id", adminMiddleware, h.DeleteReservation)
	}

	rentals := g.Group("/rentals")
	rentals.Use(authMiddleware)
	{
		rentals.GET("", h.ListRentals)
		rentals.GET("/active", h.ActiveRentals)
		rentals.GET("/overtime", h.OvertimeRentals)
		rentals.GET("/:id", h.GetRental)
		rentals.POST("", h.CreateRental)
		rentals.PATCH("/:id", h.UpdateRental)
		rentals.POST("/:id/complete", h.CompleteRental)
		rentals.DELETE("/:id", adminMiddleware, h.DeleteRental)
	}
}
