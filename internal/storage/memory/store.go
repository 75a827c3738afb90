// Package memory is a process-local repository for tests and embedding.
// Transactions are serialized behind one mutex and roll back by restoring a
// snapshot taken when the transaction began.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
)

type bucketKey struct {
	roomType string
	date     time.Time
}

type state struct {
	availability map[bucketKey]domain.Availability
	reservations map[string]domain.Reservation
	waitlist     map[string]domain.WaitlistEntry
	waitlistSeq  int64
}

func newState() state {
	return state{
		availability: make(map[bucketKey]domain.Availability),
		reservations: make(map[string]domain.Reservation),
		waitlist:     make(map[string]domain.WaitlistEntry),
	}
}

func (s state) clone() state {
	out := newState()
	for k, v := range s.availability {
		out.availability[k] = v
	}
	for k, v := range s.reservations {
		out.reservations[k] = v
	}
	for k, v := range s.waitlist {
		out.waitlist[k] = v
	}
	out.waitlistSeq = s.waitlistSeq
	return out
}

type Store struct {
	mu    sync.Mutex
	state state
}

func NewStore() *Store {
	return &Store{state: newState()}
}

type txKey struct{}

func (s *Store) inTx(ctx context.Context) bool {
	owner, _ := ctx.Value(txKey{}).(*Store)
	return owner == s
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	if s.inTx(ctx) {
		return fn(ctx)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(context.WithValue(ctx, txKey{}, s)); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// do runs fn under the store lock unless ctx already holds it.
func (s *Store) do(ctx context.Context, fn func(st *state) error) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.inTx(ctx) {
		return fn(&s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&s.state)
}

func (s *Store) GetAvailabilityForUpdate(ctx context.Context, roomType string, dates []time.Time) ([]domain.Availability, error) {
	var out []domain.Availability
	err := s.do(ctx, func(st *state) error {
		for _, date := range dates {
			if b, ok := st.availability[bucketKey{roomType, domain.Day(date)}]; ok {
				out = append(out, b)
			}
		}
		return nil
	})
	domain.SortAvailability(out)
	return out, err
}

func (s *Store) GetAvailability(ctx context.Context, roomType string, date time.Time) (domain.Availability, error) {
	var out domain.Availability
	err := s.do(ctx, func(st *state) error {
		b, ok := st.availability[bucketKey{roomType, domain.Day(date)}]
		if !ok {
			return domain.ErrAvailabilityNotFound
		}
		out = b
		return nil
	})
	return out, err
}

func (s *Store) ListAvailability(ctx context.Context, roomType string, from, to time.Time) ([]domain.Availability, error) {
	from, to = domain.Day(from), domain.Day(to)
	var out []domain.Availability
	err := s.do(ctx, func(st *state) error {
		for key, b := range st.availability {
			if key.roomType != roomType || key.date.Before(from) || !key.date.Before(to) {
				continue
			}
			out = append(out, b)
		}
		return nil
	})
	domain.SortAvailability(out)
	return out, err
}

func (s *Store) CreateAvailability(ctx context.Context, b domain.Availability) (bool, error) {
	created := false
	err := s.do(ctx, func(st *state) error {
		key := bucketKey{b.RoomType, domain.Day(b.Date)}
		if _, ok := st.availability[key]; ok {
			return nil
		}
		st.availability[key] = b
		created = true
		return nil
	})
	return created, err
}

func (s *Store) SaveAvailability(ctx context.Context, buckets ...domain.Availability) error {
	return s.do(ctx, func(st *state) error {
		for _, b := range buckets {
			if b.Booked < 0 || b.Booked > b.Ceiling() {
				return domain.ErrCapacityExceeded
			}
			st.availability[bucketKey{b.RoomType, domain.Day(b.Date)}] = b
		}
		return nil
	})
}

func (s *Store) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	var out domain.Reservation
	err := s.do(ctx, func(st *state) error {
		r, ok := st.reservations[id]
		if !ok {
			return domain.ErrReservationNotFound
		}
		out = r
		return nil
	})
	return out, err
}

func (s *Store) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	return s.GetReservation(ctx, id)
}

func (s *Store) GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	var out domain.Reservation
	err := s.do(ctx, func(st *state) error {
		for _, r := range st.reservations {
			if r.ConfirmationCode == code {
				out = r
				return nil
			}
		}
		return domain.ErrReservationNotFound
	})
	return out, err
}

func (s *Store) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	var out []domain.Reservation
	err := s.do(ctx, func(st *state) error {
		for _, r := range st.reservations {
			if filter.Match(r) {
				out = append(out, r)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out, err
}

func (s *Store) CreateReservation(ctx context.Context, r domain.Reservation) error {
	return s.do(ctx, func(st *state) error {
		if r.ID == "" {
			return domain.ErrInvalidID
		}
		if _, exists := st.reservations[r.ID]; exists {
			return domain.ErrInvalidID
		}
		for _, other := range st.reservations {
			if r.ConfirmationCode != "" && other.ConfirmationCode == r.ConfirmationCode {
				return domain.ErrInvalidID
			}
		}
		st.reservations[r.ID] = r
		return nil
	})
}

func (s *Store) UpdateReservation(ctx context.Context, r domain.Reservation) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.reservations[r.ID]; !ok {
			return domain.ErrReservationNotFound
		}
		st.reservations[r.ID] = r
		return nil
	})
}

func (s *Store) GetWaitlistEntry(ctx context.Context, id string) (domain.WaitlistEntry, error) {
	var out domain.WaitlistEntry
	err := s.do(ctx, func(st *state) error {
		e, ok := st.waitlist[id]
		if !ok {
			return domain.ErrWaitlistEntryNotFound
		}
		out = e
		return nil
	})
	return out, err
}

func (s *Store) GetWaitlistEntryForUpdate(ctx context.Context, id string) (domain.WaitlistEntry, error) {
	return s.GetWaitlistEntry(ctx, id)
}

func (s *Store) ListWaitlist(ctx context.Context, filter domain.WaitlistFilter) ([]domain.WaitlistEntry, error) {
	var out []domain.WaitlistEntry
	err := s.do(ctx, func(st *state) error {
		for _, e := range st.waitlist {
			if filter.Match(e) {
				out = append(out, e)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out, err
}

func (s *Store) CreateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	err := s.do(ctx, func(st *state) error {
		if e.ID == "" {
			return domain.ErrInvalidID
		}
		if _, exists := st.waitlist[e.ID]; exists {
			return domain.ErrInvalidID
		}
		st.waitlistSeq++
		e.Seq = st.waitlistSeq
		st.waitlist[e.ID] = e
		return nil
	})
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	return e, nil
}

func (s *Store) UpdateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) error {
	return s.do(ctx, func(st *state) error {
		if _, ok := st.waitlist[e.ID]; !ok {
			return domain.ErrWaitlistEntryNotFound
		}
		st.waitlist[e.ID] = e
		return nil
	})
}
