package booking

import (
	"context"
	"errors"
	"fmt"
)

// AvailabilityChecker answers whether a car is free in a timeframe.
// It only reads.
type AvailabilityChecker struct {
	reservations ReservationRepository
	rentals      RentalRepository
}

func NewAvailabilityChecker(reservations ReservationRepository, rentals RentalRepository) *AvailabilityChecker {
	return &AvailabilityChecker{
		reservations: reservations,
		rentals:      rentals,
	}
}

// ActiveReservationsForCar lists the NEW reservations of a car, leaving out excludeID ("" excludes nothing).
func (c *AvailabilityChecker) ActiveReservationsForCar(ctx context.Context, carID, excludeID string) ([]*Reservation, error) {
	items, _, err := c.reservations.List(ctx, ReservationFilter{
		CarID:     carID,
		Statuses:  activeReservationStatuses,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, fmt.Errorf("list active reservations for car: %w", err)
	}
	return items, nil
}

// ActiveRentalsForCar lists the IN_PROGRESS rentals of a car, leaving out excludeID ("" excludes nothing).
func (c *AvailabilityChecker) ActiveRentalsForCar(ctx context.Context, carID, excludeID string) ([]*Rental, error) {
	items, _, err := c.rentals.List(ctx, RentalFilter{
		CarID:     carID,
		Statuses:  activeRentalStatuses,
		ExcludeID: excludeID,
	})
	if err != nil {
		return nil, fmt.Errorf("list active rentals for car: %w", err)
	}
	return items, nil
}

func (c *AvailabilityChecker) CollidesWithReservations(ctx context.Context, carID string, timeframe Interval, excludeID string) (bool, error) {
	items, err := c.ActiveReservationsForCar(ctx, carID, excludeID)
	if err != nil {
		return false, err
	}
	for _, r := range items {
		if timeframe.Overlaps(r.Timeframe()) {
			return true, nil
		}
	}
	return false, nil
}

func (c *AvailabilityChecker) CollidesWithRentals(ctx context.Context, carID string, timeframe Interval, excludeID string) (bool, error) {
	items, err := c.ActiveRentalsForCar(ctx, carID, excludeID)
	if err != nil {
		return false, err
	}
	for _, r := range items {
		if timeframe.Overlaps(r.Timeframe()) {
			return true, nil
		}
	}
	return false, nil
}

// IsAvailable holds when neither collision predicate fires.
func (c *AvailabilityChecker) IsAvailable(ctx context.Context, carID string, timeframe Interval, excludeRentalID, excludeReservationID string) (bool, error) {
	err := c.ensureAvailable(ctx, carID, timeframe, excludeRentalID, excludeReservationID)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrReservationCollision), errors.Is(err, ErrRentalCollision):
		return false, nil
	default:
		return false, err
	}
}

// ensureAvailable is IsAvailable reporting which kind of booking is in the way.
// Reservations are checked first.
func (c *AvailabilityChecker) ensureAvailable(ctx context.Context, carID string, timeframe Interval, excludeRentalID, excludeReservationID string) error {
	hit, err := c.CollidesWithReservations(ctx, carID, timeframe, excludeReservationID)
	if err != nil {
		return err
	}
	if hit {
		return ErrReservationCollision
	}

	hit, err = c.CollidesWithRentals(ctx, carID, timeframe, excludeRentalID)
	if err != nil {
		return err
	}
	if hit {
		return ErrRentalCollision
	}
	return nil
}
