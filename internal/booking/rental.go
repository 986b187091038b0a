package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type CreateRentalRequest struct {
	CarID         string
	CustomerID    string
	ReservationID *string // the reservation being collected, if any
	StartDate     time.Time
	EndDate       time.Time
}

// UpdateRentalRequest changes only the non-nil fields. A ReservationID
// pointing at "" unlinks the reservation.
type UpdateRentalRequest struct {
	CarID         *string
	CustomerID    *string
	ReservationID *string
	StartDate     *time.Time
	EndDate       *time.Time
	Status        *RentalStatus
}

type RentalService interface {
	Create(ctx context.Context, req CreateRentalRequest) (*Rental, error)
	GetByID(ctx context.Context, id string) (*Rental, error)
	List(ctx context.Context, filter RentalFilter) ([]*Rental, int, error)
	Update(ctx context.Context, id string, req UpdateRentalRequest) (*Rental, error)
	MarkCompleted(ctx context.Context, id string) (*Rental, error)
	ActiveByCar(ctx context.Context, carID string) ([]*Rental, error)
	Active(ctx context.Context) ([]*Rental, error)
	Overtime(ctx context.Context, now time.Time) ([]*Rental, error)
	Delete(ctx context.Context, id string) error
}

type rentalService struct {
	Deps
	reservations ReservationService
	checker      *AvailabilityChecker
	log          *zap.Logger
}

func NewRentalService(d Deps, reservations ReservationService) RentalService {
	d = d.withDefaults()
	return &rentalService{
		Deps:         d,
		reservations: reservations,
		checker:      NewAvailabilityChecker(d.Reservations, d.Rentals),
		log:          d.Logger.Named("rentals"),
	}
}

func (s *rentalService) Create(ctx context.Context, req CreateRentalRequest) (*Rental, error) {
	rental := &Rental{
		CarID:      req.CarID,
		CustomerID: req.CustomerID,
		StartDate:  req.StartDate.UTC(),
		EndDate:    req.EndDate.UTC(),
		Status:     RentalInProgress,
	}
	if req.ReservationID != nil && *req.ReservationID != "" {
		id := *req.ReservationID
		rental.ReservationID = &id
	}

	err := s.Locker.WithCarLock(ctx, []string{req.CarID}, func(ctx context.Context) error {
		// 1. References
		if err := s.ensureReferences(ctx, rental.CarID, rental.CustomerID); err != nil {
			return err
		}

		// 2. Dates
		if err := validateDateRange(rental.StartDate, rental.EndDate); err != nil {
			return err
		}
		if err := validateNotInPast(rental.StartDate, s.Clock.Now()); err != nil {
			return err
		}

		// 3. The reservation being collected must describe the same booking
		if err := s.ensureMatchesReservation(ctx, rental); err != nil {
			return err
		}

		// 4. Collisions, ignoring the reservation this rental replaces
		if err := s.checker.ensureAvailable(ctx, rental.CarID, rental.Timeframe(), "", rental.reservationRef()); err != nil {
			return err
		}

		// 5. Consume the reservation, then store the rental
		if rental.ReservationID != nil {
			if _, err := s.reservations.MarkCollected(ctx, *rental.ReservationID); err != nil {
				return err
			}
		}
		return s.Rentals.Create(ctx, rental)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("rental created",
		zap.String("rental_id", rental.ID),
		zap.String("car_id", rental.CarID),
		zap.String("reservation_id", rental.reservationRef()),
	)
	return rental, nil
}

// ensureMatchesReservation requires the linked reservation, if any, to exist
// and to be for the same car and customer.
func (s *rentalService) ensureMatchesReservation(ctx context.Context, rental *Rental) error {
	if rental.ReservationID == nil {
		return nil
	}
	res, err := s.Reservations.GetByID(ctx, *rental.ReservationID)
	if err != nil {
		return err
	}
	if res.CarID != rental.CarID || res.CustomerID != rental.CustomerID {
		return ErrRentalReservationMismatch
	}
	return nil
}

func (s *rentalService) GetByID(ctx context.Context, id string) (*Rental, error) {
	return s.Rentals.GetByID(ctx, id)
}

func (s *rentalService) List(ctx context.Context, filter RentalFilter) ([]*Rental, int, error) {
	return s.Rentals.List(ctx, filter)
}

func (s *rentalService) Update(ctx context.Context, id string, req UpdateRentalRequest) (*Rental, error) {
	var updated *Rental
	err := lockBooking(ctx, s.Locker,
		func(ctx context.Context) (*Rental, error) { return s.Rentals.GetByID(ctx, id) },
		func(r *Rental) string { return r.CarID },
		req.CarID,
		func(ctx context.Context, current *Rental) error {
			next, err := s.applyUpdate(ctx, current, req)
			if err != nil {
				return err
			}
			if ref := newlyLinked(current, next); ref != "" {
				if _, err := s.reservations.MarkCollected(ctx, ref); err != nil {
					return err
				}
			}
			if err := s.Rentals.Update(ctx, next); err != nil {
				return err
			}
			updated = next
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	s.log.Info("rental updated",
		zap.String("rental_id", updated.ID),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

func (s *rentalService) applyUpdate(ctx context.Context, current *Rental, req UpdateRentalRequest) (*Rental, error) {
	if current.Status == RentalCompleted {
		return nil, ErrUpdatingCompleted
	}

	next := *current
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatusTransition
		}
		next.Status = *req.Status
	}

	var carID, customerID string
	if req.CarID != nil && *req.CarID != current.CarID {
		carID = *req.CarID
		next.CarID = carID
	}
	if req.CustomerID != nil && *req.CustomerID != current.CustomerID {
		customerID = *req.CustomerID
		next.CustomerID = customerID
	}
	if err := s.ensureReferences(ctx, carID, customerID); err != nil {
		return nil, err
	}

	if req.ReservationID != nil {
		if *req.ReservationID == "" {
			next.ReservationID = nil
		} else {
			ref := *req.ReservationID
			next.ReservationID = &ref
		}
	}

	if req.StartDate != nil {
		next.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		next.EndDate = req.EndDate.UTC()
	}
	if err := validateDateRange(next.StartDate, next.EndDate); err != nil {
		return nil, err
	}

	if err := s.ensureMatchesReservation(ctx, &next); err != nil {
		return nil, err
	}

	// A returned car occupies nothing. Only a reservation this update
	// collects is ignored; a stored link was already collected.
	if next.Status != RentalCompleted {
		if err := s.checker.ensureAvailable(ctx, next.CarID, next.Timeframe(), next.ID, newlyLinked(current, &next)); err != nil {
			return nil, err
		}
	}

	return &next, nil
}

// newlyLinked returns the reservation next links to when current did not
// already link it, or "".
func newlyLinked(current, next *Rental) string {
	if ref := next.reservationRef(); ref != current.reservationRef() {
		return ref
	}
	return ""
}

// MarkCompleted records the car as returned.
func (s *rentalService) MarkCompleted(ctx context.Context, id string) (*Rental, error) {
	status := RentalCompleted
	return s.Update(ctx, id, UpdateRentalRequest{Status: &status})
}

func (s *rentalService) ActiveByCar(ctx context.Context, carID string) ([]*Rental, error) {
	return s.checker.ActiveRentalsForCar(ctx, carID, "")
}

func (s *rentalService) Active(ctx context.Context) ([]*Rental, error) {
	items, _, err := s.Rentals.List(ctx, RentalFilter{
		Statuses:  activeRentalStatuses,
		SortBy:    "end_date",
		SortOrder: "ASC",
	})
	return items, err
}

// Overtime lists rentals still in progress after their end date.
func (s *rentalService) Overtime(ctx context.Context, now time.Time) ([]*Rental, error) {
	cutoff := now.UTC()
	items, _, err := s.Rentals.List(ctx, RentalFilter{
		Statuses:  activeRentalStatuses,
		EndBefore: &cutoff,
		SortBy:    "end_date",
		SortOrder: "ASC",
	})
	if err != nil {
		return nil, fmt.Errorf("list overtime rentals: %w", err)
	}
	return items, nil
}

func (s *rentalService) Delete(ctx context.Context, id string) error {
	return lockBooking(ctx, s.Locker,
		func(ctx context.Context) (*Rental, error) { return s.Rentals.GetByID(ctx, id) },
		func(r *Rental) string { return r.CarID },
		nil,
		func(ctx context.Context, current *Rental) error {
			return s.Rentals.Delete(ctx, current.ID)
		},
	)
}
