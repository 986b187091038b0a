package booking

import (
	"net/http"
	"time"

	"github.com/nekogravitycat/car-rental-backend/internal/car"
	"github.com/nekogravitycat/car-rental-backend/internal/customer"
	"github.com/nekogravitycat/car-rental-backend/internal/pkg/apperror"
)

var (
	ErrReservationNotFound = apperror.New(http.StatusNotFound, "reservation not found")
	ErrRentalNotFound      = apperror.New(http.StatusNotFound, "rental not found")
	ErrCarNotFound         = car.ErrNotFound
	ErrCustomerNotFound    = customer.ErrNotFound

	ErrInvalidDateRange          = apperror.New(http.StatusBadRequest, "start date has to be before end date")
	ErrCreatedInThePast          = apperror.New(http.StatusBadRequest, "booking cannot start in the past")
	ErrReservationCollision      = apperror.New(http.StatusConflict, "there is already a reservation for this car in given time range")
	ErrRentalCollision           = apperror.New(http.StatusConflict, "there is already a rental for this car in given time range")
	ErrUpdatingCancelled         = apperror.New(http.StatusConflict, "cannot update a cancelled reservation")
	ErrUpdatingCollected         = apperror.New(http.StatusConflict, "cannot update a collected reservation")
	ErrUpdatingCompleted         = apperror.New(http.StatusConflict, "cannot update a completed rental")
	ErrInvalidStatusTransition   = apperror.New(http.StatusBadRequest, "invalid status transition")
	ErrCancelWithActiveRental    = apperror.New(http.StatusConflict, "cannot cancel a reservation with an active rental")
	ErrRentalReservationMismatch = apperror.New(http.StatusBadRequest, "rental car or customer differs from its reservation")
)

type ReservationStatus string

const (
	ReservationNew       ReservationStatus = "NEW"
	ReservationCollected ReservationStatus = "COLLECTED"
	ReservationCancelled ReservationStatus = "CANCELLED"
)

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationNew, ReservationCollected, ReservationCancelled:
		return true
	}
	return false
}

// activeReservationStatuses block a car. A collected reservation is
// represented by its rental from then on.
var activeReservationStatuses = []ReservationStatus{ReservationNew}

type RentalStatus string

const (
	RentalInProgress RentalStatus = "IN_PROGRESS"
	RentalCompleted  RentalStatus = "COMPLETED"
)

func (s RentalStatus) Valid() bool {
	return s == RentalInProgress || s == RentalCompleted
}

var activeRentalStatuses = []RentalStatus{RentalInProgress}

// Reservation is a future booking of a car by a customer.
type Reservation struct {
	ID         string
	CarID      string
	CustomerID string
	StartDate  time.Time
	EndDate    time.Time
	Status     ReservationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r *Reservation) Timeframe() Interval {
	return NewInterval(r.StartDate, r.EndDate)
}

// Rental is a customer's possession of a car. ReservationID points back to
// the reservation it was created from, if any.
type Rental struct {
	ID            string
	CarID         string
	CustomerID    string
	ReservationID *string
	StartDate     time.Time
	EndDate       time.Time
	Status        RentalStatus
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (r *Rental) Timeframe() Interval {
	return NewInterval(r.StartDate, r.EndDate)
}

// reservationRef returns the linked reservation id or "".
func (r *Rental) reservationRef() string {
	if r.ReservationID == nil {
		return ""
	}
	return *r.ReservationID
}

// ReservationFilter selects reservations. Zero fields do not filter.
// PageSize 0 returns every match.
type ReservationFilter struct {
	CarID       string
	CustomerID  string
	Statuses    []ReservationStatus
	ExcludeID   string
	StartBefore *time.Time // start_date < StartBefore
	From        *time.Time // end_date >= From
	To          *time.Time // start_date <= To
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}

// RentalFilter selects rentals. Zero fields do not filter.
// PageSize 0 returns every match.
type RentalFilter struct {
	CarID         string
	CustomerID    string
	ReservationID string
	Statuses      []RentalStatus
	ExcludeID     string
	EndBefore     *time.Time // end_date < EndBefore
	From          *time.Time // end_date >= From
	To            *time.Time // start_date <= To
	Page          int
	PageSize      int
	SortBy        string
	SortOrder     string
}

// validateDateRange requires end strictly after start.
func validateDateRange(start, end time.Time) error {
	if !end.After(start) {
		return ErrInvalidDateRange
	}
	return nil
}

// validateNotInPast compares at minute granularity, so a start a few
// seconds behind "now" is still accepted.
func validateNotInPast(start, now time.Time) error {
	if start.Truncate(time.Minute).Before(now.Truncate(time.Minute)) {
		return ErrCreatedInThePast
	}
	return nil
}
