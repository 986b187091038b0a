package http

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/nekogravitycat/car-rental-backend/internal/booking"
	"github.com/nekogravitycat/car-rental-backend/internal/car"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/request"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/response"
)

// maxPhotoSize caps uploads before they reach the image decoder.
const maxPhotoSize = 10 << 20

// AvailabilityChecker is what the car endpoints need from the booking core.
type AvailabilityChecker interface {
	IsAvailable(ctx context.Context, carID string, timeframe booking.Interval, excludeRentalID, excludeReservationID string) (bool, error)
}

type Handler struct {
	service      car.Service
	availability AvailabilityChecker
}

func NewHandler(service car.Service, availability AvailabilityChecker) *Handler {
	return &Handler{
		service:      service,
		availability: availability,
	}
}

func (h *Handler) List(c *gin.Context) {
	var req ListCarsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	req.Normalize()

	filter := req.filter()
	windowed := !req.AvailableFrom.IsZero() || !req.AvailableTo.IsZero()
	if !windowed {
		cars, total, err := h.service.List(c.Request.Context(), filter)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.JSON(http.StatusOK, response.NewPageResponse(toResponses(cars), req.Page, req.PageSize, total))
		return
	}

	if req.AvailableFrom.IsZero() || req.AvailableTo.IsZero() {
		response.BadRequest(c, "available_from and available_to must be given together", nil)
		return
	}
	window := booking.NewInterval(req.AvailableFrom.UTC(), req.AvailableTo.UTC())
	if !window.End.After(window.Start) {
		response.Error(c, booking.ErrInvalidDateRange)
		return
	}

	// Availability is not expressible in SQL here, so page after filtering
	filter.Page, filter.PageSize = 0, 0
	cars, _, err := h.service.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}

	free := make([]*car.Car, 0, len(cars))
	for _, cr := range cars {
		ok, err := h.availability.IsAvailable(c.Request.Context(), cr.ID, window, "", "")
		if err != nil {
			response.Error(c, err)
			return
		}
		if ok {
			free = append(free, cr)
		}
	}

	start := min((req.Page-1)*req.PageSize, len(free))
	end := min(start+req.PageSize, len(free))
	c.JSON(http.StatusOK, response.NewPageResponse(toResponses(free[start:end]), req.Page, req.PageSize, len(free)))
}

func toResponses(cars []*car.Car) []CarResponse {
	items := make([]CarResponse, len(cars))
	for i, cr := range cars {
		items[i] = NewCarResponse(cr)
	}
	return items
}

func (h *Handler) Create(c *gin.Context) {
	var body CreateCarRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	cr, err := h.service.Create(c.Request.Context(), body.toServiceRequest())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, NewCarResponse(cr))
}

func (h *Handler) Get(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	cr, err := h.service.GetByID(c.Request.Context(), uri.ID)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCarResponse(cr))
}

func (h *Handler) Update(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var body UpdateCarRequest
	if err := c.ShouldBindJSON(&body); err != nil {
		response.BadRequest(c, "invalid request body", err)
		return
	}

	cr, err := h.service.Update(c.Request.Context(), uri.ID, body.toServiceRequest())
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCarResponse(cr))
}

func (h *Handler) Delete(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	if err := h.service.Delete(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadPhoto replaces the car photo with the multipart field "photo".
func (h *Handler) UploadPhoto(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	header, err := c.FormFile("photo")
	if err != nil {
		response.BadRequest(c, "photo file is required", err)
		return
	}
	if header.Size > maxPhotoSize {
		response.BadRequest(c, "photo exceeds 10 MiB", nil)
		return
	}

	src, err := header.Open()
	if err != nil {
		response.BadRequest(c, "cannot read uploaded file", err)
		return
	}
	defer src.Close()

	cr, err := h.service.SetPhoto(c.Request.Context(), uri.ID, src)
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, NewCarResponse(cr))
}

// GetPhoto streams the car photo, or its thumbnail with ?thumbnail=true.
func (h *Handler) GetPhoto(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}
	thumbnail, _ := strconv.ParseBool(c.DefaultQuery("thumbnail", "false"))

	stream, err := h.service.Photo(c.Request.Context(), uri.ID, thumbnail)
	if err != nil {
		response.Error(c, err)
		return
	}
	defer stream.Close()

	// Photos are always re-encoded as JPEG
	c.DataFromReader(http.StatusOK, -1, "image/jpeg", stream, nil)
}

// Availability reports whether the car is free for [start, end].
func (h *Handler) Availability(c *gin.Context) {
	var uri request.ByIDRequest
	if err := c.ShouldBindUri(&uri); err != nil {
		response.BadRequest(c, "invalid request", err)
		return
	}

	var q AvailabilityRequest
	if err := c.ShouldBindQuery(&q); err != nil {
		response.BadRequest(c, "invalid query parameters", err)
		return
	}
	window := booking.NewInterval(q.Start.UTC(), q.End.UTC())
	if !window.End.After(window.Start) {
		response.Error(c, booking.ErrInvalidDateRange)
		return
	}

	if _, err := h.service.GetByID(c.Request.Context(), uri.ID); err != nil {
		response.Error(c, err)
		return
	}

	ok, err := h.availability.IsAvailable(c.Request.Context(), uri.ID, window, "", "")
	if err != nil {
		response.Error(c, err)
		return
	}

	c.JSON(http.StatusOK, AvailabilityResponse{
		CarID:     uri.ID,
		Start:     window.Start,
		End:       window.End,
		Available: ok,
	})
}
