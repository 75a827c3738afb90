package domain

import "time"

// DateRange is a half-open interval of nights [CheckIn, CheckOut).
type DateRange struct {
	checkIn  time.Time
	checkOut time.Time
}

func NewDateRange(checkIn, checkOut time.Time) (DateRange, error) {
	in, out := Day(checkIn), Day(checkOut)
	if in.IsZero() || out.IsZero() {
		return DateRange{}, invalid("date_range", "check-in and check-out are required")
	}
	if !in.Before(out) {
		return DateRange{}, invalid("date_range", "check-out must be after check-in")
	}
	return DateRange{checkIn: in, checkOut: out}, nil
}

// Day truncates t to midnight UTC of its calendar date.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Date builds a UTC calendar date.
func Date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func (r DateRange) CheckIn() time.Time { return r.checkIn }
func (r DateRange) CheckOut() time.Time { return r.checkOut }

func (r DateRange) Nights() int {
	return daysBetween(r.checkIn, r.checkOut)
}

// Dates lists one bucket per night; the check-out date is not included.
func (r DateRange) Dates() []time.Time {
	nights := r.Nights()
	out := make([]time.Time, 0, nights)
	for i := 0; i < nights; i++ {
		out = append(out, r.checkIn.AddDate(0, 0, i))
	}
	return out
}

func (r DateRange) Contains(day time.Time) bool {
	day = Day(day)
	return !day.Before(r.checkIn) && day.Before(r.checkOut)
}

func (r DateRange) Overlaps(other DateRange) bool {
	return r.checkIn.Before(other.checkOut) && other.checkIn.Before(r.checkOut)
}

func (r DateRange) Equal(other DateRange) bool {
	return r.checkIn.Equal(other.checkIn) && r.checkOut.Equal(other.checkOut)
}

func (r DateRange) String() string {
	return r.checkIn.Format(time.DateOnly) + "/" + r.checkOut.Format(time.DateOnly)
}

func daysBetween(from, to time.Time) int {
	return int(Day(to).Sub(Day(from)).Hours() / 24)
}
