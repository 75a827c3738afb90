package domain

// ReservationFilter selects reservations; empty fields match everything.
type ReservationFilter struct {
	GuestID  string
	RoomType string
	Status   ReservationStatus
}

func (f ReservationFilter) Match(r Reservation) bool {
	if f.GuestID != "" && r.GuestID != f.GuestID {
		return false
	}
	if f.RoomType != "" && r.RoomType != f.RoomType {
		return false
	}
	if f.Status != "" && r.Status != f.Status {
		return false
	}
	return true
}

// WaitlistFilter selects waitlist entries; empty fields match everything.
type WaitlistFilter struct {
	GuestID  string
	RoomType string
	Status   WaitlistStatus
}

func (f WaitlistFilter) Match(e WaitlistEntry) bool {
	if f.GuestID != "" && e.GuestID != f.GuestID {
		return false
	}
	if f.RoomType != "" && e.RoomType != f.RoomType {
		return false
	}
	if f.Status != "" && e.Status != f.Status {
		return false
	}
	return true
}
