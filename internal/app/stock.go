package app

import (
	"context"
	"sort"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
)

type stayRequest struct {
	roomType string
	dates    domain.DateRange
}

// lockStock loads every night the stays touch, locking room types in name
// order and nights in date order so concurrent transactions agree on order.
func lockStock(ctx context.Context, repo AvailabilityRepository, stays ...stayRequest) (*domain.Stock, error) {
	nightsByRoom := make(map[string]map[time.Time]struct{})
	for _, stay := range stays {
		nights, ok := nightsByRoom[stay.roomType]
		if !ok {
			nights = make(map[time.Time]struct{})
			nightsByRoom[stay.roomType] = nights
		}
		for _, night := range stay.dates.Dates() {
			nights[night] = struct{}{}
		}
	}

	roomTypes := make([]string, 0, len(nightsByRoom))
	for roomType := range nightsByRoom {
		roomTypes = append(roomTypes, roomType)
	}
	sort.Strings(roomTypes)

	var buckets []domain.Availability
	for _, roomType := range roomTypes {
		nights := make([]time.Time, 0, len(nightsByRoom[roomType]))
		for night := range nightsByRoom[roomType] {
			nights = append(nights, night)
		}
		sort.Slice(nights, func(i, j int) bool { return nights[i].Before(nights[j]) })

		found, err := repo.GetAvailabilityForUpdate(ctx, roomType, nights)
		if err != nil {
			return nil, err
		}
		buckets = append(buckets, found...)
	}
	return domain.NewStock(buckets), nil
}

func saveStock(ctx context.Context, repo AvailabilityRepository, stock *domain.Stock) error {
	changed := stock.Changed()
	if len(changed) == 0 {
		return nil
	}
	return repo.SaveAvailability(ctx, changed...)
}
