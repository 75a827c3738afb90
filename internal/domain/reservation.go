package domain

import (
	"fmt"
	"time"
)

// MaxStayNights is the longest stay one reservation may cover.
const MaxStayNights = 30

type ReservationStatus string

const (
	ReservationStatusPending    ReservationStatus = "pending"
	ReservationStatusConfirmed  ReservationStatus = "confirmed"
	ReservationStatusCheckedIn  ReservationStatus = "checked_in"
	ReservationStatusCheckedOut ReservationStatus = "checked_out"
	ReservationStatusCancelled  ReservationStatus = "cancelled"
)

// Terminal reports whether no further transition is possible.
func (s ReservationStatus) Terminal() bool {
	return s == ReservationStatusCheckedOut || s == ReservationStatusCancelled
}

// Holding reports whether the reservation still owns stock it may give back.
func (s ReservationStatus) Holding() bool {
	return s == ReservationStatusPending || s == ReservationStatusConfirmed
}

func (s ReservationStatus) Valid() bool {
	switch s {
	case ReservationStatusPending, ReservationStatusConfirmed, ReservationStatusCheckedIn,
		ReservationStatusCheckedOut, ReservationStatusCancelled:
		return true
	}
	return false
}

// Reservation is one guest's booking of a room type for a range of nights.
type Reservation struct {
	ID               string
	ConfirmationCode string
	GuestID          string
	RoomType         string
	Dates            DateRange
	Guests           GuestCount
	Amount           Money
	// Refund is set once the reservation is cancelled.
	Refund          *Money
	SpecialRequests []SpecialRequest
	Status          ReservationStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int
}

type NewReservationParams struct {
	ID               string
	ConfirmationCode string
	GuestID          string
	RoomType         string
	Dates            DateRange
	Guests           GuestCount
	Amount           Money
}

// NewReservation builds a Pending reservation. Stock must already be reserved.
func NewReservation(p NewReservationParams, now time.Time) (Reservation, error) {
	if p.ID == "" {
		return Reservation{}, ErrInvalidID
	}
	if p.GuestID == "" {
		return Reservation{}, invalid("guest_id", "is required")
	}
	if p.RoomType == "" {
		return Reservation{}, invalid("room_type", "is required")
	}
	if err := validateStay(p.Dates, now); err != nil {
		return Reservation{}, err
	}
	if err := p.Guests.Validate(); err != nil {
		return Reservation{}, err
	}
	if p.Amount.Currency() == "" {
		return Reservation{}, invalid("amount", "is required")
	}
	return Reservation{
		ID:               p.ID,
		ConfirmationCode: p.ConfirmationCode,
		GuestID:          p.GuestID,
		RoomType:         p.RoomType,
		Dates:            p.Dates,
		Guests:           p.Guests,
		Amount:           p.Amount,
		Status:           ReservationStatusPending,
		CreatedAt:        now,
		UpdatedAt:        now,
		Version:          1,
	}, nil
}

// Confirm records payment acceptance.
func (r *Reservation) Confirm(now time.Time) error {
	if r.Status != ReservationStatusPending {
		return ErrInvalidTransition
	}
	r.transition(ReservationStatusConfirmed, now)
	return nil
}

func (r *Reservation) CheckIn(now time.Time) error {
	if r.Status != ReservationStatusConfirmed {
		return ErrInvalidTransition
	}
	if Day(now).Before(r.Dates.CheckIn()) {
		return ErrTooEarly
	}
	r.transition(ReservationStatusCheckedIn, now)
	return nil
}

func (r *Reservation) CheckOut(now time.Time) error {
	if r.Status != ReservationStatusCheckedIn {
		return ErrInvalidTransition
	}
	r.transition(ReservationStatusCheckedOut, now)
	return nil
}

// Cancel moves the reservation to Cancelled and records the refund owed.
// The caller releases the stock.
func (r *Reservation) Cancel(policy RefundPolicy, now time.Time) (Money, error) {
	if !r.Status.Holding() {
		return Money{}, ErrInvalidTransition
	}
	refund, err := policy.Refund(r.Amount, r.Dates.CheckIn(), now)
	if err != nil {
		return Money{}, err
	}
	r.Refund = &refund
	r.transition(ReservationStatusCancelled, now)
	return refund, nil
}

// Reschedule swaps dates, room type and guest count. An empty room type or a
// zero guest count keeps the current one. The caller moves the stock first.
func (r *Reservation) Reschedule(dates DateRange, roomType string, guests GuestCount, now time.Time) error {
	if !r.Status.Holding() {
		return ErrInvalidTransition
	}
	if err := validateStay(dates, now); err != nil {
		return err
	}
	if roomType == "" {
		roomType = r.RoomType
	}
	if guests.IsZero() {
		guests = r.Guests
	} else if err := guests.Validate(); err != nil {
		return err
	}
	r.Dates = dates
	r.RoomType = roomType
	r.Guests = guests
	r.UpdatedAt = now
	r.Version++
	return nil
}

func (r *Reservation) transition(to ReservationStatus, now time.Time) {
	r.Status = to
	r.UpdatedAt = now
	r.Version++
}

// validateStay accepts 1 to MaxStayNights nights starting today or later.
func validateStay(dates DateRange, now time.Time) error {
	switch {
	case dates.Nights() < 1:
		return invalid("date_range", "is required")
	case dates.Nights() > MaxStayNights:
		return invalid("date_range", fmt.Sprintf("must not exceed %d nights", MaxStayNights))
	case dates.CheckIn().Before(Day(now)):
		return invalid("date_range", "check-in must not be in the past")
	}
	return nil
}
