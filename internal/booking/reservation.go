package booking

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"
)

type CreateReservationRequest struct {
	CarID      string
	CustomerID string
	StartDate  time.Time
	EndDate    time.Time

	// Status is accepted for compatibility and never used; a new
	// reservation always starts NEW.
	Status ReservationStatus
}

// UpdateReservationRequest changes only the non-nil fields.
type UpdateReservationRequest struct {
	CarID      *string
	CustomerID *string
	StartDate  *time.Time
	EndDate    *time.Time
	Status     *ReservationStatus
}

type ReservationService interface {
	Create(ctx context.Context, req CreateReservationRequest) (*Reservation, error)
	GetByID(ctx context.Context, id string) (*Reservation, error)
	List(ctx context.Context, filter ReservationFilter) ([]*Reservation, int, error)
	Active(ctx context.Context) ([]*Reservation, error)
	Update(ctx context.Context, id string, req UpdateReservationRequest) (*Reservation, error)
	MarkCollected(ctx context.Context, id string) (*Reservation, error)
	MarkCancelled(ctx context.Context, id string) (*Reservation, error)
	Delete(ctx context.Context, id string) error
	ListMissed(ctx context.Context, now time.Time) ([]*Reservation, error)
	SweepMissed(ctx context.Context, now time.Time) (int, error)
}

type reservationService struct {
	Deps
	checker *AvailabilityChecker
	log     *zap.Logger
}

func NewReservationService(d Deps) ReservationService {
	d = d.withDefaults()
	return &reservationService{
		Deps:    d,
		checker: NewAvailabilityChecker(d.Reservations, d.Rentals),
		log:     d.Logger.Named("reservations"),
	}
}

func (s *reservationService) Create(ctx context.Context, req CreateReservationRequest) (*Reservation, error) {
	res := &Reservation{
		CarID:      req.CarID,
		CustomerID: req.CustomerID,
		StartDate:  req.StartDate.UTC(),
		EndDate:    req.EndDate.UTC(),
		Status:     ReservationNew,
	}

	err := s.Locker.WithCarLock(ctx, []string{req.CarID}, func(ctx context.Context) error {
		// 1. References
		if err := s.ensureReferences(ctx, res.CarID, res.CustomerID); err != nil {
			return err
		}

		// 2. Dates
		if err := validateDateRange(res.StartDate, res.EndDate); err != nil {
			return err
		}
		if err := validateNotInPast(res.StartDate, s.Clock.Now()); err != nil {
			return err
		}

		// 3. Collisions
		if err := s.checker.ensureAvailable(ctx, res.CarID, res.Timeframe(), "", ""); err != nil {
			return err
		}

		return s.Reservations.Create(ctx, res)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation created",
		zap.String("reservation_id", res.ID),
		zap.String("car_id", res.CarID),
		zap.Time("start_date", res.StartDate),
		zap.Time("end_date", res.EndDate),
	)
	return res, nil
}

func (s *reservationService) GetByID(ctx context.Context, id string) (*Reservation, error) {
	return s.Reservations.GetByID(ctx, id)
}

func (s *reservationService) List(ctx context.Context, filter ReservationFilter) ([]*Reservation, int, error) {
	return s.Reservations.List(ctx, filter)
}

func (s *reservationService) Active(ctx context.Context) ([]*Reservation, error) {
	items, _, err := s.Reservations.List(ctx, ReservationFilter{
		Statuses:  activeReservationStatuses,
		SortBy:    "start_date",
		SortOrder: "ASC",
	})
	return items, err
}

func (s *reservationService) Update(ctx context.Context, id string, req UpdateReservationRequest) (*Reservation, error) {
	var updated *Reservation
	err := lockBooking(ctx, s.Locker,
		func(ctx context.Context) (*Reservation, error) { return s.Reservations.GetByID(ctx, id) },
		func(r *Reservation) string { return r.CarID },
		req.CarID,
		func(ctx context.Context, current *Reservation) error {
			next, err := s.applyUpdate(ctx, current, req)
			if err != nil {
				return err
			}
			if err := s.Reservations.Update(ctx, next); err != nil {
				return err
			}
			updated = next
			return nil
		},
	)
	if err != nil {
		return nil, err
	}

	s.log.Info("reservation updated",
		zap.String("reservation_id", updated.ID),
		zap.String("status", string(updated.Status)),
	)
	return updated, nil
}

// applyUpdate validates req against the current state and returns the
// reservation as it would be stored. current is not modified.
func (s *reservationService) applyUpdate(ctx context.Context, current *Reservation, req UpdateReservationRequest) (*Reservation, error) {
	// 1. Lifecycle gate
	switch current.Status {
	case ReservationCancelled:
		return nil, ErrUpdatingCancelled
	case ReservationCollected:
		if !isCancellationOnly(current, req) {
			return nil, ErrUpdatingCollected
		}
	}

	next := *current
	if req.Status != nil {
		if !req.Status.Valid() {
			return nil, ErrInvalidStatusTransition
		}
		next.Status = *req.Status
	}

	// 2. References
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

	// 3. Dates
	if req.StartDate != nil {
		next.StartDate = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		next.EndDate = req.EndDate.UTC()
	}
	if err := validateDateRange(next.StartDate, next.EndDate); err != nil {
		return nil, err
	}

	// 4. Collisions. A cancelled reservation occupies nothing.
	if next.Status != ReservationCancelled {
		if err := s.checker.ensureAvailable(ctx, next.CarID, next.Timeframe(), "", next.ID); err != nil {
			return nil, err
		}
	}

	// 5. A reservation being driven by a rental cannot be cancelled under it
	if next.Status == ReservationCancelled && current.Status != ReservationCancelled {
		active, err := s.hasActiveRental(ctx, current.ID)
		if err != nil {
			return nil, err
		}
		if active {
			return nil, ErrCancelWithActiveRental
		}
	}

	return &next, nil
}

// isCancellationOnly reports whether req does nothing but cancel.
func isCancellationOnly(current *Reservation, req UpdateReservationRequest) bool {
	if req.Status == nil || *req.Status != ReservationCancelled {
		return false
	}
	if req.CarID != nil && *req.CarID != current.CarID {
		return false
	}
	if req.CustomerID != nil && *req.CustomerID != current.CustomerID {
		return false
	}
	if req.StartDate != nil && !req.StartDate.Equal(current.StartDate) {
		return false
	}
	if req.EndDate != nil && !req.EndDate.Equal(current.EndDate) {
		return false
	}
	return true
}

func (s *reservationService) hasActiveRental(ctx context.Context, reservationID string) (bool, error) {
	_, total, err := s.Rentals.List(ctx, RentalFilter{
		ReservationID: reservationID,
		Statuses:      activeRentalStatuses,
		PageSize:      1,
	})
	if err != nil {
		return false, fmt.Errorf("look up rentals of reservation: %w", err)
	}
	return total > 0, nil
}

func (s *reservationService) MarkCollected(ctx context.Context, id string) (*Reservation, error) {
	status := ReservationCollected
	return s.Update(ctx, id, UpdateReservationRequest{Status: &status})
}

func (s *reservationService) MarkCancelled(ctx context.Context, id string) (*Reservation, error) {
	status := ReservationCancelled
	return s.Update(ctx, id, UpdateReservationRequest{Status: &status})
}

func (s *reservationService) Delete(ctx context.Context, id string) error {
	return lockBooking(ctx, s.Locker,
		func(ctx context.Context) (*Reservation, error) { return s.Reservations.GetByID(ctx, id) },
		func(r *Reservation) string { return r.CarID },
		nil,
		func(ctx context.Context, current *Reservation) error {
			return s.Reservations.Delete(ctx, current.ID)
		},
	)
}

// ListMissed returns NEW reservations whose start has already passed.
func (s *reservationService) ListMissed(ctx context.Context, now time.Time) ([]*Reservation, error) {
	cutoff := now.UTC()
	items, _, err := s.Reservations.List(ctx, ReservationFilter{
		Statuses:    []ReservationStatus{ReservationNew},
		StartBefore: &cutoff,
		SortBy:      "start_date",
		SortOrder:   "ASC",
	})
	if err != nil {
		return nil, fmt.Errorf("list missed reservations: %w", err)
	}
	return items, nil
}

// SweepMissed cancels every missed reservation and returns how many it
// cancelled. A failure on one reservation is logged and the sweep goes on.
func (s *reservationService) SweepMissed(ctx context.Context, now time.Time) (int, error) {
	missed, err := s.ListMissed(ctx, now)
	if err != nil {
		return 0, err
	}

	cutoff := now.UTC()
	cancelled := 0
	for _, r := range missed {
		if err := ctx.Err(); err != nil {
			return cancelled, err
		}
		ok, err := s.cancelIfMissed(ctx, r.ID, cutoff)
		if err != nil {
			s.log.Warn("cancel missed reservation failed",
				zap.String("reservation_id", r.ID),
				zap.Error(err),
			)
			continue
		}
		if ok {
			cancelled++
		}
	}

	if cancelled > 0 {
		s.log.Info("missed reservations cancelled", zap.Int("count", cancelled))
	}
	return cancelled, nil
}

// cancelIfMissed cancels the reservation only if, once locked, it is still
// NEW and starts before cutoff. It reports whether it cancelled.
func (s *reservationService) cancelIfMissed(ctx context.Context, id string, cutoff time.Time) (bool, error) {
	cancelled := false
	status := ReservationCancelled
	err := lockBooking(ctx, s.Locker,
		func(ctx context.Context) (*Reservation, error) { return s.Reservations.GetByID(ctx, id) },
		func(r *Reservation) string { return r.CarID },
		nil,
		func(ctx context.Context, current *Reservation) error {
			if current.Status != ReservationNew || !current.StartDate.Before(cutoff) {
				return nil
			}
			next, err := s.applyUpdate(ctx, current, UpdateReservationRequest{Status: &status})
			if err != nil {
				return err
			}
			if err := s.Reservations.Update(ctx, next); err != nil {
				return err
			}
			cancelled = true
			return nil
		},
	)
	return cancelled, err
}
