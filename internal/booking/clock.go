package booking

import (
	"context"
	"time"
)

// Clock supplies "now". Tests pin it.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock in UTC.
type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now().UTC() }

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

func (f ClockFunc) Now() time.Time { return f() }

// Locker serialises the check-then-write sequence of every booking mutation
// per car. fn receives a context that carries whatever transaction the lock
// lives in, and all repository calls inside fn must use that context.
// Implementations must allow nested calls on the context they handed to fn.
type Locker interface {
	WithCarLock(ctx context.Context, carIDs []string, fn func(ctx context.Context) error) error
}
