package domain

import (
	"fmt"

	"github.com/m04kA/SMC-AvailabilityService/pkg/types"
)

// DateRange inclusive range of calendar dates
type DateRange struct {
	Start types.Date
	End   types.Date
}

// NewDateRange builds a range and rejects End before Start
func NewDateRange(start, end types.Date) (DateRange, error) {
	if start.IsZero() || end.IsZero() {
		return DateRange{}, fmt.Errorf("%w: start and end dates are required", ErrInvalidInput)
	}
	if end.Before(start) {
		return DateRange{}, fmt.Errorf("%w: end date %s is before start date %s", ErrInvalidInput, end, start)
	}
	return DateRange{Start: start, End: end}, nil
}

// Days returns the number of dates in the range
func (r DateRange) Days() int {
	return r.Start.DaysUntil(r.End) + 1
}

// Dates lists every date of the range
func (r DateRange) Dates() []types.Date {
	return types.DatesInRange(r.Start, r.End)
}

// Contains returns true if d falls inside the range
func (r DateRange) Contains(d types.Date) bool {
	return !d.Before(r.Start) && !d.After(r.End)
}

// Overlaps reports whether two inclusive ranges share at least one date.
// Ranges that only touch at an endpoint overlap.
func (r DateRange) Overlaps(other DateRange) bool {
	return Overlaps(r, other)
}

// Overlaps is not (a.End < b.Start or a.Start > b.End)
func Overlaps(a, b DateRange) bool {
	return !(a.End.Before(b.Start) || a.Start.After(b.End))
}

func (r DateRange) String() string {
	return fmt.Sprintf("[%s, %s]", r.Start, r.End)
}
