package app

import (
	"context"
	"testing"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/clock"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"github.com/KenzieRafa/TST-Reservation-API/internal/storage/memory"
)

var (
	testStart = time.Date(2024, 1, 1, 10, 0, 0, 0, time.UTC)
	couple    = domain.GuestCount{Adults: 2}
)

type fixture struct {
	store        *memory.Store
	clock        *clock.Manual
	availability *AvailabilityService
	reservations *ReservationService
	waitlist     *WaitlistService
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()
	store := memory.NewStore()
	clk := clock.NewManual(testStart)
	return &fixture{
		store:        store,
		clock:        clk,
		availability: NewAvailabilityService(store, clk, opts...),
		reservations: NewReservationService(store, clk, opts...),
		waitlist:     NewWaitlistService(store, clk, opts...),
	}
}

func (f *fixture) setup(t *testing.T, roomType string, date time.Time, stock, threshold int) {
	t.Helper()
	if _, err := f.availability.Setup(context.Background(), SetupAvailabilityInput{
		RoomType:             roomType,
		Date:                 date,
		TotalStock:           stock,
		OverbookingThreshold: threshold,
	}); err != nil {
		t.Fatalf("setup %s %s: %v", roomType, date.Format(time.DateOnly), err)
	}
}

func (f *fixture) setupRange(t *testing.T, roomType string, dates domain.DateRange, stock, threshold int) {
	t.Helper()
	for _, night := range dates.Dates() {
		f.setup(t, roomType, night, stock, threshold)
	}
}

func (f *fixture) booked(t *testing.T, roomType string, date time.Time) int {
	t.Helper()
	b, err := f.availability.Get(context.Background(), roomType, date)
	if err != nil {
		t.Fatalf("get availability: %v", err)
	}
	return b.Booked
}

func stay(t *testing.T, in, out time.Time) domain.DateRange {
	t.Helper()
	r, err := domain.NewDateRange(in, out)
	if err != nil {
		t.Fatalf("date range: %v", err)
	}
	return r
}

func eur(amount int64) domain.Money {
	return domain.MustMoney(amount, "EUR")
}
