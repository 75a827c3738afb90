package postgres

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/app"
	"github.com/KenzieRafa/TST-Reservation-API/internal/clock"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"github.com/KenzieRafa/TST-Reservation-API/internal/testutil"
)

var _ app.WaitlistStore = (*Store)(nil)

func mustRange(t *testing.T, in, out time.Time) domain.DateRange {
	t.Helper()
	r, err := domain.NewDateRange(in, out)
	if err != nil {
		t.Fatalf("date range: %v", err)
	}
	return r
}

func TestAvailabilityRepository(t *testing.T) {
	pool := testutil.NewTestPool(t)
	repo := NewAvailabilityRepository(pool)
	testutil.ApplyMigrations(t, context.Background(), pool)

	t.Run("GetAvailabilityForUpdate skips unconfigured nights", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAvailability(t, ctx, pool, "Deluxe", mustRange(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 12)), 2, 1)

		err := repo.WithTx(ctx, func(txCtx context.Context) error {
			got, err := repo.GetAvailabilityForUpdate(txCtx, "Deluxe", []time.Time{
				domain.Date(2024, 1, 10),
				domain.Date(2024, 1, 11),
				domain.Date(2024, 1, 12),
			})
			if err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if len(got) != 2 {
				t.Fatalf("expected 2 buckets, got %d", len(got))
			}
			if !got[0].Date.Equal(domain.Date(2024, 1, 10)) || got[0].Ceiling() != 3 {
				t.Fatalf("unexpected bucket: %+v", got[0])
			}
			return nil
		})
		if err != nil {
			t.Fatalf("tx failed: %v", err)
		}
	})

	t.Run("SaveAvailability upserts and enforces the ceiling", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)

		b, err := domain.NewAvailability("Suite", domain.Date(2024, 2, 1), 1, 0, time.Now().UTC())
		if err != nil {
			t.Fatalf("new availability: %v", err)
		}
		if err := repo.SaveAvailability(ctx, b); err != nil {
			t.Fatalf("save: %v", err)
		}
		b.Booked = 1
		if err := repo.SaveAvailability(ctx, b); err != nil {
			t.Fatalf("save booked: %v", err)
		}
		got, err := repo.GetAvailability(ctx, "Suite", domain.Date(2024, 2, 1))
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Booked != 1 {
			t.Fatalf("expected booked 1, got %d", got.Booked)
		}

		b.Booked = 2
		if err := repo.SaveAvailability(ctx, b); !errors.Is(err, domain.ErrCapacityExceeded) {
			t.Fatalf("expected ErrCapacityExceeded, got %v", err)
		}
		if _, err := repo.GetAvailability(ctx, "Suite", domain.Date(2024, 2, 2)); !errors.Is(err, domain.ErrNotFound) {
			t.Fatalf("expected ErrNotFound, got %v", err)
		}
	})

	t.Run("CreateAvailability leaves an existing bucket alone", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		night := mustRange(t, domain.Date(2024, 2, 10), domain.Date(2024, 2, 11))
		testutil.InsertAvailability(t, ctx, pool, "Deluxe", night, 2, 0)

		stored, err := repo.GetAvailability(ctx, "Deluxe", night.CheckIn())
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		stored.Booked = 1
		if err := repo.SaveAvailability(ctx, stored); err != nil {
			t.Fatalf("save: %v", err)
		}

		fresh, err := domain.NewAvailability("Deluxe", night.CheckIn(), 5, 0, time.Now().UTC())
		if err != nil {
			t.Fatalf("new availability: %v", err)
		}
		created, err := repo.CreateAvailability(ctx, fresh)
		if err != nil {
			t.Fatalf("create: %v", err)
		}
		if created {
			t.Fatalf("expected existing bucket to be kept")
		}
		got, err := repo.GetAvailability(ctx, "Deluxe", night.CheckIn())
		if err != nil {
			t.Fatalf("get: %v", err)
		}
		if got.Booked != 1 || got.TotalStock != 2 {
			t.Fatalf("expected stored bucket unchanged, got %+v", got)
		}

		other, _ := domain.NewAvailability("Deluxe", domain.Date(2024, 2, 11), 5, 0, time.Now().UTC())
		if created, err := repo.CreateAvailability(ctx, other); err != nil || !created {
			t.Fatalf("expected new night created, got %v (%v)", created, err)
		}
	})

	t.Run("ListAvailability is half-open", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		testutil.InsertAvailability(t, ctx, pool, "Deluxe", mustRange(t, domain.Date(2024, 1, 10), domain.Date(2024, 1, 15)), 1, 0)

		got, err := repo.ListAvailability(ctx, "Deluxe", domain.Date(2024, 1, 11), domain.Date(2024, 1, 13))
		if err != nil {
			t.Fatalf("list: %v", err)
		}
		if len(got) != 2 || !got[1].Date.Equal(domain.Date(2024, 1, 12)) {
			t.Fatalf("unexpected buckets: %+v", got)
		}
	})

	t.Run("concurrent reservations of the last unit", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		night := mustRange(t, domain.Date(2024, 3, 1), domain.Date(2024, 3, 2))
		testutil.InsertAvailability(t, ctx, pool, "Deluxe", night, 1, 0)

		svc := app.NewAvailabilityService(repo, clock.NewSystem())
		const workers = 6
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				err := svc.Reserve(ctx, app.StockInput{RoomType: "Deluxe", Dates: night})
				if err != nil && !errors.Is(err, domain.ErrCapacityExceeded) {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if accepted != 1 {
			t.Fatalf("expected exactly 1 accepted reservation, got %d", accepted)
		}
		if got := testutil.Booked(t, ctx, pool, "Deluxe", night.CheckIn()); got != 1 {
			t.Fatalf("expected booked 1, got %d", got)
		}
	})

	t.Run("concurrent setup of a new night keeps bookings", func(t *testing.T) {
		ctx := context.Background()
		testutil.TruncateAll(t, ctx, pool)
		night := mustRange(t, domain.Date(2024, 4, 1), domain.Date(2024, 4, 2))

		svc := app.NewAvailabilityService(repo, clock.NewSystem())
		const workers = 8
		var (
			wg       sync.WaitGroup
			mu       sync.Mutex
			accepted int
		)
		for i := 0; i < workers; i++ {
			wg.Add(2)
			go func() {
				defer wg.Done()
				_, err := svc.Setup(ctx, app.SetupAvailabilityInput{RoomType: "Deluxe", Date: night.CheckIn(), TotalStock: workers})
				if err != nil {
					t.Errorf("setup: %v", err)
				}
			}()
			go func() {
				defer wg.Done()
				err := svc.Reserve(ctx, app.StockInput{RoomType: "Deluxe", Dates: night})
				if err != nil && !errors.Is(err, domain.ErrCapacityExceeded) {
					t.Errorf("unexpected error: %v", err)
					return
				}
				if err == nil {
					mu.Lock()
					accepted++
					mu.Unlock()
				}
			}()
		}
		wg.Wait()

		if got := testutil.Booked(t, ctx, pool, "Deluxe", night.CheckIn()); got != accepted {
			t.Fatalf("expected booked %d to match accepted reservations, got %d", accepted, got)
		}
	})
}
