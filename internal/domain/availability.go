package domain

import (
	"math"
	"sort"
	"time"
)

// Availability tracks stock for one room type on one night.
type Availability struct {
	RoomType             string
	Date                 time.Time
	TotalStock           int
	OverbookingThreshold int
	Booked               int
	// Blocked is the part of Booked held back for maintenance.
	Blocked   int
	Version   int
	UpdatedAt time.Time
}

// NewAvailability configures a fresh bucket with nothing booked.
func NewAvailability(roomType string, date time.Time, totalStock, threshold int, now time.Time) (Availability, error) {
	a := Availability{RoomType: roomType, Date: Day(date)}
	if err := a.Configure(totalStock, threshold, now); err != nil {
		return Availability{}, err
	}
	return a, nil
}

// Configure replaces stock and threshold, keeping what is already booked.
func (a *Availability) Configure(totalStock, threshold int, now time.Time) error {
	if a.RoomType == "" || a.Date.IsZero() {
		return ErrInvalidConfiguration
	}
	if totalStock < 0 || threshold < 0 || threshold > math.MaxInt-totalStock {
		return ErrInvalidConfiguration
	}
	if a.Booked > totalStock+threshold {
		return ErrInvalidConfiguration
	}
	a.TotalStock = totalStock
	a.OverbookingThreshold = threshold
	a.touch(now)
	return nil
}

// Ceiling is the most units that may ever be booked.
func (a Availability) Ceiling() int {
	return a.TotalStock + a.OverbookingThreshold
}

// Remaining is the number of units still bookable, overbooking included.
func (a Availability) Remaining() int {
	return a.Ceiling() - a.Booked
}

func (a Availability) CanReserve(qty int) bool {
	return qty > 0 && qty <= a.Ceiling()-a.Booked
}

// Overbooked reports how many units are booked past nominal stock.
func (a Availability) Overbooked() int {
	if a.Booked <= a.TotalStock {
		return 0
	}
	return a.Booked - a.TotalStock
}

func (a *Availability) reserve(qty int, now time.Time) {
	a.Booked += qty
	a.touch(now)
}

func (a *Availability) release(qty int, now time.Time) {
	a.Booked -= qty
	if a.Booked < 0 {
		a.Booked = 0
	}
	if a.Blocked > a.Booked {
		a.Blocked = a.Booked
	}
	a.touch(now)
}

// Block holds qty units out of sale under the same capacity rule as a booking.
func (a *Availability) Block(qty int, now time.Time) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if !a.CanReserve(qty) {
		return ErrCapacityExceeded
	}
	a.Blocked += qty
	a.reserve(qty, now)
	return nil
}

// Unblock returns blocked units to sale, never more than are blocked.
func (a *Availability) Unblock(qty int, now time.Time) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if qty > a.Blocked {
		qty = a.Blocked
	}
	a.Blocked -= qty
	a.Booked -= qty
	a.touch(now)
	return nil
}

func (a *Availability) touch(now time.Time) {
	a.Version++
	a.UpdatedAt = now
}

type bucketKey struct {
	roomType string
	date     time.Time
}

// Stock is the set of nights loaded for one operation. Reserve and Release
// never leave it partially mutated.
type Stock struct {
	buckets map[bucketKey]*Availability
	changed map[bucketKey]bool
}

func NewStock(buckets []Availability) *Stock {
	s := &Stock{
		buckets: make(map[bucketKey]*Availability, len(buckets)),
		changed: make(map[bucketKey]bool),
	}
	for i := range buckets {
		b := buckets[i]
		s.buckets[bucketKey{b.RoomType, Day(b.Date)}] = &b
	}
	return s
}

func (s *Stock) Get(roomType string, date time.Time) (Availability, bool) {
	b, ok := s.buckets[bucketKey{roomType, Day(date)}]
	if !ok {
		return Availability{}, false
	}
	return *b, true
}

// Reserve books qty units on every night of dates, or none of them.
// A night that was never configured has no capacity.
func (s *Stock) Reserve(roomType string, dates DateRange, qty int, now time.Time) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if dates.Nights() < 1 {
		return invalid("date_range", "is required")
	}
	nights := dates.Dates()
	for _, night := range nights {
		b, ok := s.buckets[bucketKey{roomType, night}]
		if !ok || !b.CanReserve(qty) {
			return ErrCapacityExceeded
		}
	}
	for _, night := range nights {
		key := bucketKey{roomType, night}
		s.buckets[key].reserve(qty, now)
		s.changed[key] = true
	}
	return nil
}

// Release gives back qty units on every configured night of dates.
func (s *Stock) Release(roomType string, dates DateRange, qty int, now time.Time) error {
	if qty <= 0 {
		return ErrInvalidQuantity
	}
	if dates.Nights() < 1 {
		return invalid("date_range", "is required")
	}
	for _, night := range dates.Dates() {
		key := bucketKey{roomType, night}
		b, ok := s.buckets[key]
		if !ok {
			continue
		}
		b.release(qty, now)
		s.changed[key] = true
	}
	return nil
}

// Changed returns the mutated buckets ordered by room type and date.
func (s *Stock) Changed() []Availability {
	out := make([]Availability, 0, len(s.changed))
	for key := range s.changed {
		out = append(out, *s.buckets[key])
	}
	SortAvailability(out)
	return out
}

func SortAvailability(list []Availability) {
	sort.Slice(list, func(i, j int) bool {
		if list[i].RoomType != list[j].RoomType {
			return list[i].RoomType < list[j].RoomType
		}
		return list[i].Date.Before(list[j].Date)
	})
}
