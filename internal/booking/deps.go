package booking

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/nekogravitycat/car-rental-backend/internal/car"
	"github.com/nekogravitycat/car-rental-backend/internal/customer"
)

// CarFinder is the slice of the car service bookings need.
type CarFinder interface {
	GetByID(ctx context.Context, id string) (*car.Car, error)
}

// CustomerFinder is the slice of the customer service bookings need.
type CustomerFinder interface {
	GetByID(ctx context.Context, id string) (*customer.Customer, error)
}

// Deps bundles what the reservation and rental services share.
type Deps struct {
	Reservations ReservationRepository
	Rentals      RentalRepository
	Cars         CarFinder
	Customers    CustomerFinder
	Locker       Locker
	Clock        Clock
	Logger       *zap.Logger
}

func (d Deps) withDefaults() Deps {
	if d.Clock == nil {
		d.Clock = SystemClock{}
	}
	if d.Logger == nil {
		d.Logger = zap.NewNop()
	}
	return d
}

// ensureReferences checks that the car and the customer exist.
// An empty id skips its check.
func (d Deps) ensureReferences(ctx context.Context, carID, customerID string) error {
	if carID != "" {
		if _, err := d.Cars.GetByID(ctx, carID); err != nil {
			if errors.Is(err, car.ErrNotFound) {
				return ErrCarNotFound
			}
			return fmt.Errorf("look up car: %w", err)
		}
	}
	if customerID != "" {
		if _, err := d.Customers.GetByID(ctx, customerID); err != nil {
			if errors.Is(err, customer.ErrNotFound) {
				return ErrCustomerNotFound
			}
			return fmt.Errorf("look up customer: %w", err)
		}
	}
	return nil
}

// maxLockAttempts bounds how often an update is retried when the booking
// moved to another car while it waited for the lock.
const maxLockAttempts = 3

var errCarMoved = errors.New("booking moved to another car during update")

// lockBooking loads a booking, locks its current car plus newCarID, then
// reloads it under the lock and hands it to fn. If the booking changed car
// in between, the locks held are the wrong ones and the whole thing retries.
func lockBooking[T any](
	ctx context.Context,
	locker Locker,
	load func(ctx context.Context) (T, error),
	carOf func(T) string,
	newCarID *string,
	fn func(ctx context.Context, current T) error,
) error {
	for attempt := 0; attempt < maxLockAttempts; attempt++ {
		before, err := load(ctx)
		if err != nil {
			return err
		}
		ids := []string{carOf(before)}
		if newCarID != nil {
			ids = append(ids, *newCarID)
		}

		err = locker.WithCarLock(ctx, ids, func(ctx context.Context) error {
			current, err := load(ctx)
			if err != nil {
				return err
			}
			if carOf(current) != carOf(before) {
				return errCarMoved
			}
			return fn(ctx, current)
		})
		if !errors.Is(err, errCarMoved) {
			return err
		}
	}
	return errCarMoved
}
