package domain

import (
	"sort"
	"time"
)

type WaitlistStatus string

const (
	WaitlistStatusWaiting   WaitlistStatus = "waiting"
	WaitlistStatusConverted WaitlistStatus = "converted"
	WaitlistStatusExpired   WaitlistStatus = "expired"
)

const (
	DefaultWaitlistTTL = 14 * 24 * time.Hour
	// NotifyInterval is the quiet period between two reminders to one guest.
	NotifyInterval = 3 * 24 * time.Hour
)

// WaitlistEntry is a request for a room type that could not be booked yet.
type WaitlistEntry struct {
	ID       string
	GuestID  string
	RoomType string
	Dates    DateRange
	Guests   GuestCount
	Priority int
	Status   WaitlistStatus
	// Seq is assigned by the repository in insertion order.
	Seq                    int64
	CreatedAt              time.Time
	ExpiresAt              time.Time
	NotifiedAt             time.Time
	ConvertedReservationID string
	UpdatedAt              time.Time
}

type NewWaitlistEntryParams struct {
	ID       string
	GuestID  string
	RoomType string
	Dates    DateRange
	Guests   GuestCount
	Priority int
	TTL      time.Duration
}

func NewWaitlistEntry(p NewWaitlistEntryParams, now time.Time) (WaitlistEntry, error) {
	if p.ID == "" {
		return WaitlistEntry{}, ErrInvalidID
	}
	if p.GuestID == "" {
		return WaitlistEntry{}, invalid("guest_id", "is required")
	}
	if p.RoomType == "" {
		return WaitlistEntry{}, invalid("room_type", "is required")
	}
	if p.Dates.Nights() < 1 {
		return WaitlistEntry{}, invalid("date_range", "is required")
	}
	if err := p.Guests.Validate(); err != nil {
		return WaitlistEntry{}, err
	}
	if p.Priority < 0 {
		return WaitlistEntry{}, ErrInvalidPriority
	}
	ttl := p.TTL
	if ttl <= 0 {
		ttl = DefaultWaitlistTTL
	}
	return WaitlistEntry{
		ID:        p.ID,
		GuestID:   p.GuestID,
		RoomType:  p.RoomType,
		Dates:     p.Dates,
		Guests:    p.Guests,
		Priority:  p.Priority,
		Status:    WaitlistStatusWaiting,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		UpdatedAt: now,
	}, nil
}

func (e WaitlistEntry) Waiting() bool {
	return e.Status == WaitlistStatusWaiting
}

// UpgradePriority only ever raises the score.
func (e *WaitlistEntry) UpgradePriority(score int, now time.Time) error {
	if !e.Waiting() {
		return ErrWaitlistEntryNotFound
	}
	if score <= e.Priority {
		return ErrInvalidPriority
	}
	e.Priority = score
	e.UpdatedAt = now
	return nil
}

func (e *WaitlistEntry) MarkConverted(reservationID string, now time.Time) error {
	if !e.Waiting() {
		return ErrInvalidTransition
	}
	e.Status = WaitlistStatusConverted
	e.ConvertedReservationID = reservationID
	e.UpdatedAt = now
	return nil
}

// Expire is a no-op on entries that are already terminal. It reports whether
// the entry changed.
func (e *WaitlistEntry) Expire(now time.Time) bool {
	if !e.Waiting() {
		return false
	}
	e.Status = WaitlistStatusExpired
	e.UpdatedAt = now
	return true
}

// ExtendExpiry pushes the expiry of a Waiting entry back by days.
func (e *WaitlistEntry) ExtendExpiry(days int, now time.Time) error {
	if days < 1 {
		return invalid("days", "must be positive")
	}
	if !e.Waiting() {
		return ErrInvalidTransition
	}
	e.ExpiresAt = e.ExpiresAt.AddDate(0, 0, days)
	e.UpdatedAt = now
	return nil
}

// MarkNotified records that the guest was told about the entry.
func (e *WaitlistEntry) MarkNotified(now time.Time) error {
	if !e.Waiting() {
		return ErrInvalidTransition
	}
	e.NotifiedAt = now
	e.UpdatedAt = now
	return nil
}

// NotifyDue reports whether a Waiting entry was never notified or was last
// notified at least NotifyInterval ago.
func (e WaitlistEntry) NotifyDue(now time.Time) bool {
	if !e.Waiting() {
		return false
	}
	return e.NotifiedAt.IsZero() || now.Sub(e.NotifiedAt) >= NotifyInterval
}

func (e WaitlistEntry) Overdue(now time.Time) bool {
	return e.Waiting() && !e.ExpiresAt.IsZero() && Day(e.ExpiresAt).Before(Day(now))
}

// Ranks reports whether a is served before b.
func Ranks(a, b WaitlistEntry) bool {
	if a.Priority != b.Priority {
		return a.Priority > b.Priority
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.Seq < b.Seq
}

// Waitlist is the ranked set of Waiting entries for one room type.
type Waitlist struct {
	roomType string
	entries  []WaitlistEntry
}

// NewWaitlist keeps only Waiting entries of roomType and ranks them.
func NewWaitlist(roomType string, entries []WaitlistEntry) Waitlist {
	kept := make([]WaitlistEntry, 0, len(entries))
	for _, e := range entries {
		if e.RoomType == roomType && e.Waiting() {
			kept = append(kept, e)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool { return Ranks(kept[i], kept[j]) })
	return Waitlist{roomType: roomType, entries: kept}
}

func (w Waitlist) Entries() []WaitlistEntry {
	return append([]WaitlistEntry(nil), w.entries...)
}

func (w Waitlist) Len() int { return len(w.entries) }

// Next returns the best-ranked entry whose dates overlap dates.
func (w Waitlist) Next(dates DateRange) (WaitlistEntry, bool) {
	for _, e := range w.entries {
		if e.Dates.Overlaps(dates) {
			return e, true
		}
	}
	return WaitlistEntry{}, false
}
