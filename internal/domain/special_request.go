package domain

import (
	"slices"
	"time"
)

type RequestType string

const (
	RequestEarlyCheckIn     RequestType = "early_check_in"
	RequestLateCheckOut     RequestType = "late_check_out"
	RequestHighFloor        RequestType = "high_floor"
	RequestAccessibleRoom   RequestType = "accessible_room"
	RequestQuietRoom        RequestType = "quiet_room"
	RequestCribs            RequestType = "cribs"
	RequestExtraBed         RequestType = "extra_bed"
	RequestSpecialAmenities RequestType = "special_amenities"
)

func (t RequestType) Valid() bool {
	switch t {
	case RequestEarlyCheckIn, RequestLateCheckOut, RequestHighFloor, RequestAccessibleRoom,
		RequestQuietRoom, RequestCribs, RequestExtraBed, RequestSpecialAmenities:
		return true
	}
	return false
}

// SpecialRequest is something the guest asked for on top of the room.
// It belongs to exactly one reservation.
type SpecialRequest struct {
	ID          string
	Type        RequestType
	Description string
	Fulfilled   bool
	Notes       string
	CreatedAt   time.Time
	FulfilledAt time.Time
}

// AddSpecialRequest attaches a request while the stay is still ahead or in
// progress.
func (r *Reservation) AddSpecialRequest(id string, typ RequestType, description string, now time.Time) (SpecialRequest, error) {
	if id == "" {
		return SpecialRequest{}, ErrInvalidID
	}
	if !typ.Valid() {
		return SpecialRequest{}, invalid("request_type", "is not supported")
	}
	if r.Status.Terminal() {
		return SpecialRequest{}, ErrInvalidTransition
	}
	req := SpecialRequest{
		ID:          id,
		Type:        typ,
		Description: description,
		CreatedAt:   now,
	}
	// Copies of r share the backing array; never append into it.
	r.SpecialRequests = append(slices.Clip(r.SpecialRequests), req)
	r.UpdatedAt = now
	r.Version++
	return req, nil
}

func (r *Reservation) FulfillSpecialRequest(id, notes string, now time.Time) (SpecialRequest, error) {
	if r.Status.Terminal() {
		return SpecialRequest{}, ErrInvalidTransition
	}
	i := r.specialRequestIndex(id)
	if i < 0 {
		return SpecialRequest{}, ErrSpecialRequestNotFound
	}
	if r.SpecialRequests[i].Fulfilled {
		return SpecialRequest{}, ErrInvalidTransition
	}

	reqs := append([]SpecialRequest(nil), r.SpecialRequests...)
	reqs[i].Fulfilled = true
	reqs[i].Notes = notes
	reqs[i].FulfilledAt = now
	r.SpecialRequests = reqs
	r.UpdatedAt = now
	r.Version++
	return reqs[i], nil
}

func (r Reservation) specialRequestIndex(id string) int {
	for i, req := range r.SpecialRequests {
		if req.ID == id {
			return i
		}
	}
	return -1
}
