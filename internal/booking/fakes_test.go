package booking

import (
	"context"
	"fmt"
	"slices"
	"sort"
	"sync"
	"time"

	"github.com/nekogravitycat/car-rental-backend/internal/car"
	"github.com/nekogravitycat/car-rental-backend/internal/customer"
)

// memReservations is an in-memory ReservationRepository.
type memReservations struct {
	mu    sync.Mutex
	seq   int
	items map[string]*Reservation
}

func newMemReservations() *memReservations {
	return &memReservations{items: map[string]*Reservation{}}
}

func (m *memReservations) Create(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("res-%d", m.seq)
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *memReservations) GetByID(_ context.Context, id string) (*Reservation, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, ErrReservationNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memReservations) List(_ context.Context, f ReservationFilter) ([]*Reservation, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Reservation
	for _, r := range m.items {
		switch {
		case f.CarID != "" && r.CarID != f.CarID,
			f.CustomerID != "" && r.CustomerID != f.CustomerID,
			len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status),
			f.ExcludeID != "" && r.ID == f.ExcludeID,
			f.StartBefore != nil && !r.StartDate.Before(*f.StartBefore),
			f.From != nil && r.EndDate.Before(*f.From),
			f.To != nil && r.StartDate.After(*f.To):
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (m *memReservations) Update(_ context.Context, r *Reservation) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.ID]; !ok {
		return ErrReservationNotFound
	}
	r.UpdatedAt = time.Now()
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *memReservations) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrReservationNotFound
	}
	delete(m.items, id)
	return nil
}

// memRentals is an in-memory RentalRepository.
type memRentals struct {
	mu    sync.Mutex
	seq   int
	items map[string]*Rental
}

func newMemRentals() *memRentals {
	return &memRentals{items: map[string]*Rental{}}
}

func (m *memRentals) Create(_ context.Context, r *Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	r.ID = fmt.Sprintf("rent-%d", m.seq)
	r.CreatedAt = time.Now()
	r.UpdatedAt = r.CreatedAt
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *memRentals) GetByID(_ context.Context, id string) (*Rental, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.items[id]
	if !ok {
		return nil, ErrRentalNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *memRentals) List(_ context.Context, f RentalFilter) ([]*Rental, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*Rental
	for _, r := range m.items {
		switch {
		case f.CarID != "" && r.CarID != f.CarID,
			f.CustomerID != "" && r.CustomerID != f.CustomerID,
			f.ReservationID != "" && r.reservationRef() != f.ReservationID,
			len(f.Statuses) > 0 && !slices.Contains(f.Statuses, r.Status),
			f.ExcludeID != "" && r.ID == f.ExcludeID,
			f.EndBefore != nil && !r.EndDate.Before(*f.EndBefore),
			f.From != nil && r.EndDate.Before(*f.From),
			f.To != nil && r.StartDate.After(*f.To):
			continue
		}
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EndDate.Before(out[j].EndDate) })
	return page(out, f.Page, f.PageSize), len(out), nil
}

func (m *memRentals) Update(_ context.Context, r *Rental) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[r.ID]; !ok {
		return ErrRentalNotFound
	}
	r.UpdatedAt = time.Now()
	cp := *r
	m.items[r.ID] = &cp
	return nil
}

func (m *memRentals) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.items[id]; !ok {
		return ErrRentalNotFound
	}
	delete(m.items, id)
	return nil
}

// put stores r as is, bypassing the service rules.
func (m *memRentals) put(r *Rental) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.items[r.ID] = &cp
}

func (m *memReservations) put(r *Reservation) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := *r
	m.items[r.ID] = &cp
}

func page[T any](items []T, p, size int) []T {
	if size <= 0 {
		return items
	}
	start := min((max(p, 1)-1)*size, len(items))
	end := min(start+size, len(items))
	return items[start:end]
}

type fakeCars map[string]bool

func (f fakeCars) GetByID(_ context.Context, id string) (*car.Car, error) {
	if !f[id] {
		return nil, car.ErrNotFound
	}
	return &car.Car{ID: id}, nil
}

type fakeCustomers map[string]bool

func (f fakeCustomers) GetByID(_ context.Context, id string) (*customer.Customer, error) {
	if !f[id] {
		return nil, customer.ErrNotFound
	}
	return &customer.Customer{ID: id}, nil
}

// memLocker is a per-car mutex locker. The context handed to fn is marked,
// and calls nested under it run without locking again.
type memLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

type lockHeldKey struct{}

func newMemLocker() *memLocker {
	return &memLocker{locks: map[string]*sync.Mutex{}}
}

func (l *memLocker) carMutex(id string) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.locks[id]
	if !ok {
		m = &sync.Mutex{}
		l.locks[id] = m
	}
	return m
}

func (l *memLocker) WithCarLock(ctx context.Context, carIDs []string, fn func(ctx context.Context) error) error {
	if ctx.Value(lockHeldKey{}) != nil {
		return fn(ctx)
	}

	ids := slices.Clone(carIDs)
	slices.Sort(ids)
	ids = slices.Compact(ids)
	for _, id := range ids {
		m := l.carMutex(id)
		m.Lock()
		defer m.Unlock()
	}
	return fn(context.WithValue(ctx, lockHeldKey{}, true))
}

// testEnv wires both services over in-memory state with a pinned clock.
type testEnv struct {
	reservationRepo *memReservations
	rentalRepo      *memRentals
	reservations    ReservationService
	rentals         RentalService
	checker         *AvailabilityChecker
	now             time.Time
}

const (
	carA      = "car-a"
	carB      = "car-b"
	customer1 = "cust-1"
	customer2 = "cust-2"
)

func newTestEnv() *testEnv {
	env := &testEnv{
		reservationRepo: newMemReservations(),
		rentalRepo:      newMemRentals(),
		now:             time.Date(2030, 12, 1, 10, 0, 0, 0, time.UTC),
	}
	d := Deps{
		Reservations: env.reservationRepo,
		Rentals:      env.rentalRepo,
		Cars:         fakeCars{carA: true, carB: true},
		Customers:    fakeCustomers{customer1: true, customer2: true},
		Locker:       newMemLocker(),
		Clock:        ClockFunc(func() time.Time { return env.now }),
	}
	env.reservations = NewReservationService(d)
	env.rentals = NewRentalService(d, env.reservations)
	env.checker = NewAvailabilityChecker(env.reservationRepo, env.rentalRepo)
	return env
}

// day returns 12:00 UTC on the given December 2030 day.
func day(d int) time.Time {
	return time.Date(2030, 12, d, 12, 0, 0, 0, time.UTC)
}

func ptr[T any](v T) *T { return &v }
