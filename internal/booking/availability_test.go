package booking

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAvailabilityChecker(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()

	env.reservationRepo.put(&Reservation{ID: "r-new", CarID: carA, CustomerID: customer1, StartDate: day(5), EndDate: day(9), Status: ReservationNew})
	env.reservationRepo.put(&Reservation{ID: "r-cancelled", CarID: carA, CustomerID: customer1, StartDate: day(20), EndDate: day(22), Status: ReservationCancelled})
	env.reservationRepo.put(&Reservation{ID: "r-collected", CarID: carA, CustomerID: customer1, StartDate: day(24), EndDate: day(26), Status: ReservationCollected})
	env.rentalRepo.put(&Rental{ID: "t-live", CarID: carA, CustomerID: customer2, StartDate: day(12), EndDate: day(15), Status: RentalInProgress})
	env.rentalRepo.put(&Rental{ID: "t-done", CarID: carA, CustomerID: customer2, StartDate: day(27), EndDate: day(28), Status: RentalCompleted})

	active, err := env.checker.ActiveReservationsForCar(ctx, carA, "")
	require.NoError(t, err)
	require.Len(t, active, 1)
	assert.Equal(t, "r-new", active[0].ID)

	active, err = env.checker.ActiveReservationsForCar(ctx, carA, "r-new")
	require.NoError(t, err)
	assert.Empty(t, active)

	rentals, err := env.checker.ActiveRentalsForCar(ctx, carA, "")
	require.NoError(t, err)
	require.Len(t, rentals, 1)
	assert.Equal(t, "t-live", rentals[0].ID)

	tests := []struct {
		name          string
		car           string
		window        Interval
		exclRental    string
		exclRes       string
		wantAvailable bool
		wantErr       error
	}{
		{"hits reservation", carA, NewInterval(day(6), day(7)), "", "", false, ErrReservationCollision},
		{"reservation excluded", carA, NewInterval(day(6), day(7)), "", "r-new", true, nil},
		{"hits rental", carA, NewInterval(day(13), day(14)), "", "", false, ErrRentalCollision},
		{"rental excluded", carA, NewInterval(day(13), day(14)), "t-live", "", true, nil},
		{"cancelled does not block", carA, NewInterval(day(20), day(22)), "", "", true, nil},
		{"collected does not block", carA, NewInterval(day(24), day(26)), "", "", true, nil},
		{"completed does not block", carA, NewInterval(day(27), day(28)), "", "", true, nil},
		{"other car", carB, NewInterval(day(6), day(7)), "", "", true, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ok, err := env.checker.IsAvailable(ctx, tt.car, tt.window, tt.exclRental, tt.exclRes)
			require.NoError(t, err)
			assert.Equal(t, tt.wantAvailable, ok)

			err = env.checker.ensureAvailable(ctx, tt.car, tt.window, tt.exclRental, tt.exclRes)
			if tt.wantErr == nil {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, tt.wantErr)
			}
		})
	}
}

func TestAvailabilityChecker_ReservationsReportedFirst(t *testing.T) {
	env := newTestEnv()
	env.reservationRepo.put(&Reservation{ID: "r", CarID: carA, StartDate: day(5), EndDate: day(9), Status: ReservationNew})
	env.rentalRepo.put(&Rental{ID: "t", CarID: carA, StartDate: day(5), EndDate: day(9), Status: RentalInProgress})

	err := env.checker.ensureAvailable(context.Background(), carA, NewInterval(day(6), day(7)), "", "")
	assert.ErrorIs(t, err, ErrReservationCollision)
}
