package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-rental-backend/internal/booking"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/request"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/response"
)

type Handler struct {
	reservations booking.ReservationService
	rentals      booking.RentalService
	clock        booking.Clock
}

func NewHandler(reservations booking.ReservationService, rentals booking.RentalService, clock booking.Clock) *Handler {
	return &Handler{
		reservations: reservations,
		rentals:      rentals,
		clock:        clock,
	}
}

// === Reservations ===

func (h *Handler) ListReservations(c *gin.Context) {
	var req ListReservationsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	req.Normalize()

	items, total, err := h.reservations.List(c.Request.Context(), req.filter())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(newReservationResponses(items), req.Page, req.PageSize, total))
}

// ActiveReservations lists every NEW reservation, soonest first.
func (h *Handler) ActiveReservations(c *gin.Context) {
	items, err := h.reservations.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(newReservationResponses(items)))
}

func (h *Handler) GetReservation(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := h.reservations.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(r))
}

func (h *Handler) CreateReservation(c *gin.Context) {
	var body CreateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	r, err := h.reservations.Create(c.Request.Context(), booking.CreateReservationRequest{
		CarID:      body.CarID,
		CustomerID: body.CustomerID,
		StartDate:  body.StartDate,
		EndDate:    body.EndDate,
		Status:     booking.ReservationStatus(body.Status),
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewReservationResponse(r))
}

func (h *Handler) UpdateReservation(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateReservationRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	r, err := h.reservations.Update(c.Request.Context(), uri.ID, body.toServiceRequest())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(r))
}

func (h *Handler) CollectReservation(c *gin.Context) {
	h.transitionReservation(c, h.reservations.MarkCollected)
}

func (h *Handler) CancelReservation(c *gin.Context) {
	h.transitionReservation(c, h.reservations.MarkCancelled)
}

func (h *Handler) transitionReservation(c *gin.Context, mark func(ctx context.Context, id string) (*booking.Reservation, error)) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := mark(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewReservationResponse(r))
}

func (h *Handler) DeleteReservation(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.reservations.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// === Rentals ===

func (h *Handler) ListRentals(c *gin.Context) {
	var req ListRentalsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	if err := req.Validate(); err != nil {
		response.Error(c, err)
		return
	}
	req.Normalize()

	items, total, err := h.rentals.List(c.Request.Context(), req.filter())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, response.NewPageResponse(newRentalResponses(items), req.Page, req.PageSize, total))
}

func (h *Handler) ActiveRentals(c *gin.Context) {
	items, err := h.rentals.Active(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(newRentalResponses(items)))
}

// OvertimeRentals lists rentals whose car should already have been returned.
func (h *Handler) OvertimeRentals(c *gin.Context) {
	items, err := h.rentals.Overtime(c.Request.Context(), h.clock.Now())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, response.NewListResponse(newRentalResponses(items)))
}

func (h *Handler) GetRental(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := h.rentals.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRentalResponse(r))
}

func (h *Handler) CreateRental(c *gin.Context) {
	var body CreateRentalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	r, err := h.rentals.Create(c.Request.Context(), booking.CreateRentalRequest{
		CarID:         body.CarID,
		CustomerID:    body.CustomerID,
		ReservationID: body.ReservationID,
		StartDate:     body.StartDate,
		EndDate:       body.EndDate,
	})
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusCreated, NewRentalResponse(r))
}

func (h *Handler) UpdateRental(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateRentalRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	r, err := h.rentals.Update(c.Request.Context(), uri.ID, body.toServiceRequest())
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRentalResponse(r))
}

// CompleteRental records the car as returned.
func (h *Handler) CompleteRental(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	r, err := h.rentals.MarkCompleted(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}
	c.JSON(http.StatusOK, NewRentalResponse(r))
}

func (h *Handler) DeleteRental(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.rentals.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
