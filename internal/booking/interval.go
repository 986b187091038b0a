package booking

import "time"

// Interval is a closed [Start, End] range of instants.
type Interval struct {
	Start time.Time
	End   time.Time
}

func NewInterval(start, end time.Time) Interval {
	return Interval{Start: start, End: end}
}

// Overlaps reports whether two bookings collide.
//
// Besides a genuine overlap, two intervals that merely touch on the same
// calendar day (one ends on the day the other starts) also collide, even when
// the clock times do not meet. This blocks same-day handovers of a car.
// Calendar days are taken in UTC.
// TODO: confirm with product whether the same-day handover block is wanted or
// whether plain overlap should apply.
func (i Interval) Overlaps(other Interval) bool {
	if sameDay(i.End, other.Start) || sameDay(i.Start, other.End) {
		return true
	}
	return i.contains(other.Start) || other.contains(i.Start)
}

func (i Interval) contains(t time.Time) bool {
	return !t.Before(i.Start) && !t.After(i.End)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.UTC().Date()
	by, bm, bd := b.UTC().Date()
	return ay == by && am == bm && ad == bd
}
