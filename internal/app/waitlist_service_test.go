package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/clock"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"github.com/KenzieRafa/TST-Reservation-API/internal/storage/memory"
)

func TestWaitlistService_WaitlistConversionScenario(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 12))
	f.setupRange(t, "Deluxe", trip, 1, 0)

	first, err := f.reservations.Create(ctx, CreateReservationInput{Guests: couple, GuestID: "guest-1", RoomType: "Deluxe", Dates: trip, Amount: eur(20000)})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := f.reservations.Create(ctx, CreateReservationInput{Guests: couple, GuestID: "guest-2", RoomType: "Deluxe", Dates: trip, Amount: eur(20000)}); !errors.Is(err, domain.ErrCapacityExceeded) {
		t.Fatalf("expected ErrCapacityExceeded, got %v", err)
	}

	entry, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-2", RoomType: "Deluxe", Dates: trip, Priority: 5})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if _, err := f.waitlist.Convert(ctx, ConvertInput{EntryID: entry.ID, Amount: eur(20000)}); !errors.Is(err, domain.ErrStillUnavailable) {
		t.Fatalf("expected ErrStillUnavailable, got %v", err)
	}
	still, err := f.waitlist.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get entry: %v", err)
	}
	if still.Status != domain.WaitlistStatusWaiting {
		t.Fatalf("expected entry to stay waiting, got %s", still.Status)
	}

	if _, err := f.reservations.Cancel(ctx, first.ID); err != nil {
		t.Fatalf("cancel: %v", err)
	}
	next, err := f.waitlist.NextCandidate(ctx, "Deluxe", trip)
	if err != nil {
		t.Fatalf("next candidate: %v", err)
	}
	if next.ID != entry.ID {
		t.Fatalf("expected candidate %s, got %s", entry.ID, next.ID)
	}

	res, err := f.waitlist.Convert(ctx, ConvertInput{EntryID: entry.ID, Amount: eur(20000)})
	if err != nil {
		t.Fatalf("convert: %v", err)
	}
	if res.Entry.Status != domain.WaitlistStatusConverted || res.Entry.ConvertedReservationID != res.Reservation.ID {
		t.Fatalf("unexpected entry after convert: %+v", res.Entry)
	}
	if res.Reservation.Status != domain.ReservationStatusPending || res.Reservation.GuestID != "guest-2" || res.Reservation.Guests != couple {
		t.Fatalf("unexpected reservation: %+v", res.Reservation)
	}
	for _, night := range trip.Dates() {
		if got := f.booked(t, "Deluxe", night); got != 1 {
			t.Fatalf("expected booked 1 on %s, got %d", night.Format(time.DateOnly), got)
		}
	}

	if _, err := f.waitlist.Convert(ctx, ConvertInput{EntryID: entry.ID, Amount: eur(20000)}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition converting twice, got %v", err)
	}
	if _, err := f.waitlist.NextCandidate(ctx, "Deluxe", trip); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound once converted, got %v", err)
	}
}

type failingWaitlistStore struct {
	*memory.Store
	err error
}

func (s failingWaitlistStore) UpdateWaitlistEntry(context.Context, domain.WaitlistEntry) error {
	return s.err
}

func TestWaitlistService_ConvertRollsBack(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	clk := clock.NewManual(testStart)
	availability := NewAvailabilityService(store, clk)
	boom := errors.New("disk full")
	svc := NewWaitlistService(failingWaitlistStore{Store: store, err: boom}, clk)
	ctx := context.Background()

	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))
	if _, err := availability.Setup(ctx, SetupAvailabilityInput{RoomType: "Deluxe", Date: trip.CheckIn(), TotalStock: 1}); err != nil {
		t.Fatalf("setup: %v", err)
	}
	entry, err := svc.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-1", RoomType: "Deluxe", Dates: trip})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	if _, err := svc.Convert(ctx, ConvertInput{EntryID: entry.ID, Amount: eur(100)}); !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}

	b, err := availability.Get(ctx, "Deluxe", trip.CheckIn())
	if err != nil {
		t.Fatalf("get availability: %v", err)
	}
	if b.Booked != 0 {
		t.Fatalf("expected booking rolled back, got booked %d", b.Booked)
	}
	all, err := store.ListReservations(ctx, domain.ReservationFilter{})
	if err != nil {
		t.Fatalf("list reservations: %v", err)
	}
	if len(all) != 0 {
		t.Fatalf("expected no reservation, got %d", len(all))
	}
}

func TestWaitlistService_Ordering(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 12))

	var ids []string
	for _, p := range []int{5, 9, 9, 2} {
		e, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest", RoomType: "Deluxe", Dates: trip, Priority: p})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		ids = append(ids, e.ID)
		f.clock.Advance(time.Minute)
	}
	if _, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest", RoomType: "Suite", Dates: trip, Priority: 100}); err != nil {
		t.Fatalf("enqueue suite: %v", err)
	}

	got, err := f.waitlist.ListForRoomType(ctx, "Deluxe")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	want := []string{ids[1], ids[2], ids[0], ids[3]}
	if len(got) != len(want) {
		t.Fatalf("expected %d entries, got %d", len(want), len(got))
	}
	for i := range want {
		if got[i].ID != want[i] {
			t.Fatalf("position %d: expected %s, got %s", i, want[i], got[i].ID)
		}
	}

	next, err := f.waitlist.NextCandidate(ctx, "Deluxe", stay(t, domain.Date(2024, 1, 11), domain.Date(2024, 1, 13)))
	if err != nil {
		t.Fatalf("next candidate: %v", err)
	}
	if next.ID != ids[1] {
		t.Fatalf("expected %s, got %s", ids[1], next.ID)
	}
	if _, err := f.waitlist.NextCandidate(ctx, "Deluxe", stay(t, domain.Date(2024, 1, 12), domain.Date(2024, 1, 13))); !errors.Is(err, domain.ErrWaitlistEntryNotFound) {
		t.Fatalf("expected ErrWaitlistEntryNotFound for disjoint dates, got %v", err)
	}
}

func TestWaitlistService_SameInstantKeepsInsertionOrder(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))

	var ids []string
	for i := 0; i < 3; i++ {
		e, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest", RoomType: "Deluxe", Dates: trip, Priority: 1})
		if err != nil {
			t.Fatalf("enqueue: %v", err)
		}
		ids = append(ids, e.ID)
	}
	got, err := f.waitlist.ListForRoomType(ctx, "Deluxe")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	for i := range ids {
		if got[i].ID != ids[i] {
			t.Fatalf("position %d: expected %s, got %s", i, ids[i], got[i].ID)
		}
	}
}

func TestWaitlistService_UpgradePriority(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))

	entry, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest", RoomType: "Deluxe", Dates: trip, Priority: 3})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	tests := []struct {
		name  string
		id    string
		score int
		want  error
	}{
		{name: "same score", id: entry.ID, score: 3, want: domain.ErrInvalidPriority},
		{name: "lower score", id: entry.ID, score: 1, want: domain.ErrInvalidPriority},
		{name: "unknown entry", id: "missing", score: 10, want: domain.ErrNotFound},
		{name: "higher score", id: entry.ID, score: 7},
	}
	for _, tt := range tests {
		_, err := f.waitlist.UpgradePriority(ctx, tt.id, tt.score)
		if tt.want == nil && err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.name, err)
		}
		if tt.want != nil && !errors.Is(err, tt.want) {
			t.Fatalf("%s: expected %v, got %v", tt.name, tt.want, err)
		}
	}

	got, err := f.waitlist.Get(ctx, entry.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Priority != 7 {
		t.Fatalf("expected priority 7, got %d", got.Priority)
	}

	if _, err := f.waitlist.Expire(ctx, entry.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if _, err := f.waitlist.UpgradePriority(ctx, entry.ID, 20); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for expired entry, got %v", err)
	}
}

func TestWaitlistService_EnqueueRejectsNegativePriority(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))
	_, err := f.waitlist.Enqueue(context.Background(), EnqueueInput{Guests: couple, GuestID: "guest", RoomType: "Deluxe", Dates: trip, Priority: -1})
	if !errors.Is(err, domain.ErrInvalidPriority) {
		t.Fatalf("expected ErrInvalidPriority, got %v", err)
	}
}

func TestWaitlistService_ExpireIsIdempotent(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))
	entry, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest", RoomType: "Deluxe", Dates: trip})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	first, err := f.waitlist.Expire(ctx, entry.ID)
	if err != nil {
		t.Fatalf("expire: %v", err)
	}
	f.clock.Advance(time.Hour)
	second, err := f.waitlist.Expire(ctx, entry.ID)
	if err != nil {
		t.Fatalf("expire again: %v", err)
	}
	if first.Status != domain.WaitlistStatusExpired || second.Status != domain.WaitlistStatusExpired {
		t.Fatalf("expected expired twice, got %s and %s", first.Status, second.Status)
	}
	if !second.UpdatedAt.Equal(first.UpdatedAt) {
		t.Fatalf("expected second expire to change nothing, updated at %s vs %s", first.UpdatedAt, second.UpdatedAt)
	}
	if _, err := f.waitlist.Convert(ctx, ConvertInput{EntryID: entry.ID, Amount: eur(100)}); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition converting expired entry, got %v", err)
	}
}

func TestWaitlistService_ExpireOverdue(t *testing.T) {
	t.Parallel()

	f := newFixture(t, WithWaitlistTTL(48*time.Hour))
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))

	old, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-1", RoomType: "Deluxe", Dates: trip})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	converted, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-2", RoomType: "Deluxe", Dates: trip})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	f.setupRange(t, "Deluxe", trip, 1, 0)
	if _, err := f.waitlist.Convert(ctx, ConvertInput{EntryID: converted.ID, Amount: eur(100)}); err != nil {
		t.Fatalf("convert: %v", err)
	}

	f.clock.Advance(48 * time.Hour)
	fresh, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-3", RoomType: "Deluxe", Dates: trip})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	f.clock.Advance(24 * time.Hour)
	n, err := f.waitlist.ExpireOverdue(ctx)
	if err != nil {
		t.Fatalf("expire overdue: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected 1 expired, got %d", n)
	}

	want := map[string]domain.WaitlistStatus{
		old.ID:       domain.WaitlistStatusExpired,
		converted.ID: domain.WaitlistStatusConverted,
		fresh.ID:     domain.WaitlistStatusWaiting,
	}
	for id, status := range want {
		got, err := f.waitlist.Get(ctx, id)
		if err != nil {
			t.Fatalf("get %s: %v", id, err)
		}
		if got.Status != status {
			t.Fatalf("entry %s: expected %s, got %s", id, status, got.Status)
		}
	}

	byGuest, err := f.waitlist.ListByGuest(ctx, "guest-1")
	if err != nil {
		t.Fatalf("list by guest: %v", err)
	}
	if len(byGuest) != 1 || byGuest[0].ID != old.ID {
		t.Fatalf("unexpected entries for guest-1: %+v", byGuest)
	}
}

func TestWaitlistService_ExtendExpiry(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))

	entry, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest", RoomType: "Deluxe", Dates: trip})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	got, err := f.waitlist.ExtendExpiry(ctx, entry.ID, 5)
	if err != nil {
		t.Fatalf("extend: %v", err)
	}
	if want := entry.ExpiresAt.AddDate(0, 0, 5); !got.ExpiresAt.Equal(want) {
		t.Fatalf("expected expiry %v, got %v", want, got.ExpiresAt)
	}

	// Past the original expiry but inside the extension.
	f.clock.Set(entry.ExpiresAt.AddDate(0, 0, 2))
	if n, err := f.waitlist.ExpireOverdue(ctx); err != nil || n != 0 {
		t.Fatalf("expected nothing expired, got %d (%v)", n, err)
	}

	if _, err := f.waitlist.ExtendExpiry(ctx, entry.ID, 0); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := f.waitlist.Expire(ctx, entry.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}
	if _, err := f.waitlist.ExtendExpiry(ctx, entry.ID, 3); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.waitlist.ExtendExpiry(ctx, "missing", 3); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestWaitlistService_NotificationsDue(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	ctx := context.Background()
	trip := stay(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 11))

	low, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-1", RoomType: "Suite", Dates: trip, Priority: 1})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	high, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-2", RoomType: "Suite", Dates: trip, Priority: 9})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	deluxe, err := f.waitlist.Enqueue(ctx, EnqueueInput{Guests: couple, GuestID: "guest-3", RoomType: "Deluxe", Dates: trip})
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	due, err := f.waitlist.NotificationsDue(ctx)
	if err != nil {
		t.Fatalf("notifications due: %v", err)
	}
	want := []string{deluxe.ID, high.ID, low.ID}
	if len(due) != len(want) {
		t.Fatalf("expected %d entries due, got %d", len(want), len(due))
	}
	for i, id := range want {
		if due[i].ID != id {
			t.Fatalf("position %d: expected %s, got %s", i, id, due[i].ID)
		}
	}

	notified, err := f.waitlist.MarkNotified(ctx, high.ID)
	if err != nil {
		t.Fatalf("mark notified: %v", err)
	}
	if !notified.NotifiedAt.Equal(testStart) {
		t.Fatalf("expected notified at %v, got %v", testStart, notified.NotifiedAt)
	}
	if _, err := f.waitlist.Expire(ctx, low.ID); err != nil {
		t.Fatalf("expire: %v", err)
	}

	f.clock.Advance(domain.NotifyInterval - time.Hour)
	due, err = f.waitlist.NotificationsDue(ctx)
	if err != nil {
		t.Fatalf("notifications due: %v", err)
	}
	if len(due) != 1 || due[0].ID != deluxe.ID {
		t.Fatalf("expected only %s due, got %+v", deluxe.ID, due)
	}

	f.clock.Advance(time.Hour)
	due, err = f.waitlist.NotificationsDue(ctx)
	if err != nil {
		t.Fatalf("notifications due: %v", err)
	}
	if len(due) != 2 || due[1].ID != high.ID {
		t.Fatalf("expected reminder for %s once the interval passed, got %+v", high.ID, due)
	}
	if _, err := f.waitlist.MarkNotified(ctx, low.ID); !errors.Is(err, domain.ErrInvalidTransition) {
		t.Fatalf("expected ErrInvalidTransition notifying an expired entry, got %v", err)
	}
}
