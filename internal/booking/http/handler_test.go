package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nekogravitycat/car-rental-backend/internal/booking"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/response"
)

const (
	carID      = "5b0b3f55-0c4e-4c8a-9a43-1b1f0f5e2a11"
	customerID = "9d7f2c3e-8a1b-4f5d-b6e7-2c3d4e5f6a7b"
	resID      = "1f2e3d4c-5b6a-4978-8695-a4b3c2d1e0f9"
	rentalID   = "aa11bb22-cc33-4d44-8e55-ff6677889900"
)

type stubReservations struct {
	booking.ReservationService
	created booking.CreateReservationRequest
	updated booking.UpdateReservationRequest
	err     error
}

func (s *stubReservations) Create(_ context.Context, req booking.CreateReservationRequest) (*booking.Reservation, error) {
	s.created = req
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Reservation{ID: resID, CarID: req.CarID, CustomerID: req.CustomerID, StartDate: req.StartDate, EndDate: req.EndDate, Status: booking.ReservationNew}, nil
}

func (s *stubReservations) Update(_ context.Context, id string, req booking.UpdateReservationRequest) (*booking.Reservation, error) {
	s.updated = req
	if s.err != nil {
		return nil, s.err
	}
	r := &booking.Reservation{ID: id, Status: booking.ReservationNew}
	if req.Status != nil {
		r.Status = *req.Status
	}
	return r, nil
}

func (s *stubReservations) MarkCancelled(ctx context.Context, id string) (*booking.Reservation, error) {
	st := booking.ReservationCancelled
	return s.Update(ctx, id, booking.UpdateReservationRequest{Status: &st})
}

func (s *stubReservations) Active(context.Context) ([]*booking.Reservation, error) {
	return nil, s.err
}

type stubRentals struct {
	booking.RentalService
	overtimeAt time.Time
	err        error
}

func (s *stubRentals) Overtime(_ context.Context, now time.Time) ([]*booking.Rental, error) {
	s.overtimeAt = now
	return []*booking.Rental{{ID: rentalID, CarID: carID, Status: booking.RentalInProgress}}, s.err
}

func (s *stubRentals) MarkCompleted(_ context.Context, id string) (*booking.Rental, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &booking.Rental{ID: id, Status: booking.RentalCompleted}, nil
}

var fixedNow = time.Date(2030, 12, 1, 10, 0, 0, 0, time.UTC)

func setupRouter(res *stubReservations, rent *stubRentals) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	pass := func(c *gin.Context) { c.Next() }
	deny := func(c *gin.Context) { c.AbortWithStatus(http.StatusForbidden) }
	h := NewHandler(res, rent, booking.ClockFunc(func() time.Time { return fixedNow }))
	RegisterRoutes(r.Group("/v1"), h, pass, deny)
	return r
}

func do(r *gin.Engine, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestCreateReservation(t *testing.T) {
	res := &stubReservations{}
	r := setupRouter(res, &stubRentals{})

	w := do(r, http.MethodPost, "/v1/reservations", map[string]any{
		"car_id":      carID,
		"customer_id": customerID,
		"start_date":  "2030-12-05T12:00:00Z",
		"end_date":    "2030-12-09T12:00:00Z",
		"status":      "COLLECTED",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var body ReservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "NEW", body.Status)
	assert.Equal(t, carID, res.created.CarID)

	w = do(r, http.MethodPost, "/v1/reservations", map[string]any{"car_id": "not-a-uuid"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDomainErrorsMapToStatus(t *testing.T) {
	tests := []struct {
		err  error
		code int
	}{
		{booking.ErrReservationCollision, http.StatusConflict},
		{booking.ErrRentalCollision, http.StatusConflict},
		{booking.ErrInvalidDateRange, http.StatusBadRequest},
		{booking.ErrCreatedInThePast, http.StatusBadRequest},
		{booking.ErrCarNotFound, http.StatusNotFound},
		{booking.ErrCustomerNotFound, http.StatusNotFound},
		{booking.ErrUpdatingCancelled, http.StatusConflict},
		{booking.ErrCancelWithActiveRental, http.StatusConflict},
		{booking.ErrInvalidStatusTransition, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.err.Error(), func(t *testing.T) {
			r := setupRouter(&stubReservations{err: tt.err}, &stubRentals{})
			w := do(r, http.MethodPatch, "/v1/reservations/"+resID, map[string]any{"status": "WHATEVER"})
			assert.Equal(t, tt.code, w.Code)

			var body response.ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.NotEmpty(t, body.Error)
		})
	}
}

func TestUpdateReservationPassesStatusThrough(t *testing.T) {
	res := &stubReservations{}
	r := setupRouter(res, &stubRentals{})

	w := do(r, http.MethodPatch, "/v1/reservations/"+resID, map[string]any{"status": "LOST", "end_date": "2030-12-10T12:00:00Z"})
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, res.updated.Status)
	assert.Equal(t, booking.ReservationStatus("LOST"), *res.updated.Status)
	assert.Nil(t, res.updated.StartDate)
	require.NotNil(t, res.updated.EndDate)
}

func TestCancelAndComplete(t *testing.T) {
	r := setupRouter(&stubReservations{}, &stubRentals{})

	w := do(r, http.MethodPost, "/v1/reservations/"+resID+"/cancel", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var res ReservationResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Equal(t, "CANCELLED", res.Status)

	w = do(r, http.MethodPost, "/v1/rentals/"+rentalID+"/complete", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rent RentalResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rent))
	assert.Equal(t, "COMPLETED", rent.Status)
}

func TestOvertimeUsesClock(t *testing.T) {
	rent := &stubRentals{}
	r := setupRouter(&stubReservations{}, rent)

	w := do(r, http.MethodGet, "/v1/rentals/overtime", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, fixedNow, rent.overtimeAt)

	var body response.ListResponse[RentalResponse]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, 1, body.Total)
}

func TestActiveReservationsEmptyList(t *testing.T) {
	r := setupRouter(&stubReservations{}, &stubRentals{})

	w := do(r, http.MethodGet, "/v1/reservations/active", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"items":[],"total":0}`, w.Body.String())
}

func TestDeleteRequiresAdmin(t *testing.T) {
	r := setupRouter(&stubReservations{}, &stubRentals{})

	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, "/v1/reservations/"+resID, nil).Code)
	assert.Equal(t, http.StatusForbidden, do(r, http.MethodDelete, "/v1/rentals/"+rentalID, nil).Code)
}
