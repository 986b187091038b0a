package http

import (
	"time"

	"github.com/nekogravitycat/car-rental-backend/internal/booking"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/request"
)

// === Reservations ===

// ListReservationsRequest defines query parameters for listing reservations.
type ListReservationsRequest struct {
	request.ListParams
	CarID      string     `form:"car_id" binding:"omitempty,uuid"`
	CustomerID string     `form:"customer_id" binding:"omitempty,uuid"`
	Status     string     `form:"status" binding:"omitempty,oneof=NEW COLLECTED CANCELLED"`
	From       *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To         *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy     string     `form:"sort_by" binding:"omitempty,oneof=start_date end_date created_at status"`
}

// Validate performs custom validation for ListReservationsRequest.
func (r *ListReservationsRequest) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return booking.ErrInvalidDateRange
	}
	return nil
}

func (r *ListReservationsRequest) filter() booking.ReservationFilter {
	f := booking.ReservationFilter{
		CarID:      r.CarID,
		CustomerID: r.CustomerID,
		From:       r.From,
		To:         r.To,
		Page:       r.Page,
		PageSize:   r.PageSize,
		SortBy:     r.SortBy,
		SortOrder:  r.SortOrder,
	}
	if r.Status != "" {
		f.Statuses = []booking.ReservationStatus{booking.ReservationStatus(r.Status)}
	}
	return f
}

type ReservationResponse struct {
	ID         string    `json:"id"`
	CarID      string    `json:"car_id"`
	CustomerID string    `json:"customer_id"`
	StartDate  time.Time `json:"start_date"`
	EndDate    time.Time `json:"end_date"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

func NewReservationResponse(r *booking.Reservation) ReservationResponse {
	return ReservationResponse{
		ID:         r.ID,
		CarID:      r.CarID,
		CustomerID: r.CustomerID,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
		Status:     string(r.Status),
		CreatedAt:  r.CreatedAt,
		UpdatedAt:  r.UpdatedAt,
	}
}

func newReservationResponses(items []*booking.Reservation) []ReservationResponse {
	out := make([]ReservationResponse, len(items))
	for i, r := range items {
		out[i] = NewReservationResponse(r)
	}
	return out
}

type CreateReservationRequest struct {
	CarID      string    `json:"car_id" binding:"required,uuid"`
	CustomerID string    `json:"customer_id" binding:"required,uuid"`
	StartDate  time.Time `json:"start_date" binding:"required"`
	EndDate    time.Time `json:"end_date" binding:"required"`
	Status     string    `json:"status"` // ignored, new reservations start NEW
}

// UpdateReservationRequest carries only the fields to change. Status values
// are checked by the service so unknown ones report an invalid transition.
type UpdateReservationRequest struct {
	CarID      *string    `json:"car_id" binding:"omitempty,uuid"`
	CustomerID *string    `json:"customer_id" binding:"omitempty,uuid"`
	StartDate  *time.Time `json:"start_date"`
	EndDate    *time.Time `json:"end_date"`
	Status     *string    `json:"status"`
}

func (r *UpdateReservationRequest) toServiceRequest() booking.UpdateReservationRequest {
	req := booking.UpdateReservationRequest{
		CarID:      r.CarID,
		CustomerID: r.CustomerID,
		StartDate:  r.StartDate,
		EndDate:    r.EndDate,
	}
	if r.Status != nil {
		s := booking.ReservationStatus(*r.Status)
		req.Status = &s
	}
	return req
}

// === Rentals ===

// ListRentalsRequest defines query parameters for listing rentals.
type ListRentalsRequest struct {
	request.ListParams
	CarID         string     `form:"car_id" binding:"omitempty,uuid"`
	CustomerID    string     `form:"customer_id" binding:"omitempty,uuid"`
	ReservationID string     `form:"reservation_id" binding:"omitempty,uuid"`
	Status        string     `form:"status" binding:"omitempty,oneof=IN_PROGRESS COMPLETED"`
	From          *time.Time `form:"from" time_format:"2006-01-02T15:04:05Z07:00"`
	To            *time.Time `form:"to" time_format:"2006-01-02T15:04:05Z07:00"`
	SortBy        string     `form:"sort_by" binding:"omitempty,oneof=start_date end_date created_at status"`
}

// Validate performs custom validation for ListRentalsRequest.
func (r *ListRentalsRequest) Validate() error {
	if r.From != nil && r.To != nil && r.From.After(*r.To) {
		return booking.ErrInvalidDateRange
	}
	return nil
}

func (r *ListRentalsRequest) filter() booking.RentalFilter {
	f := booking.RentalFilter{
		CarID:         r.CarID,
		CustomerID:    r.CustomerID,
		ReservationID: r.ReservationID,
		From:          r.From,
		To:            r.To,
		Page:          r.Page,
		PageSize:      r.PageSize,
		SortBy:        r.SortBy,
		SortOrder:     r.SortOrder,
	}
	if r.Status != "" {
		f.Statuses = []booking.RentalStatus{booking.RentalStatus(r.Status)}
	}
	return f
}

type RentalResponse struct {
	ID            string    `json:"id"`
	CarID         string    `json:"car_id"`
	CustomerID    string    `json:"customer_id"`
	ReservationID *string   `json:"reservation_id"`
	StartDate     time.Time `json:"start_date"`
	EndDate       time.Time `json:"end_date"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func NewRentalResponse(r *booking.Rental) RentalResponse {
	return RentalResponse{
		ID:            r.ID,
		CarID:         r.CarID,
		CustomerID:    r.CustomerID,
		ReservationID: r.ReservationID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
		Status:        string(r.Status),
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
}

func newRentalResponses(items []*booking.Rental) []RentalResponse {
	out := make([]RentalResponse, len(items))
	for i, r := range items {
		out[i] = NewRentalResponse(r)
	}
	return out
}

type CreateRentalRequest struct {
	CarID         string    `json:"car_id" binding:"required,uuid"`
	CustomerID    string    `json:"customer_id" binding:"required,uuid"`
	ReservationID *string   `json:"reservation_id" binding:"omitempty,uuid"`
	StartDate     time.Time `json:"start_date" binding:"required"`
	EndDate       time.Time `json:"end_date" binding:"required"`
}

// UpdateRentalRequest carries only the fields to change. An empty
// reservation_id unlinks the reservation.
type UpdateRentalRequest struct {
	CarID         *string    `json:"car_id" binding:"omitempty,uuid"`
	CustomerID    *string    `json:"customer_id" binding:"omitempty,uuid"`
	ReservationID *string    `json:"reservation_id" binding:"omitempty,uuid|len=0"`
	StartDate     *time.Time `json:"start_date"`
	EndDate       *time.Time `json:"end_date"`
	Status        *string    `json:"status"`
}

func (r *UpdateRentalRequest) toServiceRequest() booking.UpdateRentalRequest {
	req := booking.UpdateRentalRequest{
		CarID:         r.CarID,
		CustomerID:    r.CustomerID,
		ReservationID: r.ReservationID,
		StartDate:     r.StartDate,
		EndDate:       r.EndDate,
	}
	if r.Status != nil {
		s := booking.RentalStatus(*r.Status)
		req.Status = &s
	}
	return req
}
