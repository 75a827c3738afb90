package app

import (
	"context"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/clock"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type AvailabilityService struct {
	repo  AvailabilityRepository
	clock clock.Clock
	settings
}

func NewAvailabilityService(repo AvailabilityRepository, clk clock.Clock, opts ...Option) *AvailabilityService {
	return &AvailabilityService{
		repo:     repo,
		clock:    clk,
		settings: newSettings(opts),
	}
}

type SetupAvailabilityInput struct {
	RoomType             string
	Date                 time.Time
	TotalStock           int
	OverbookingThreshold int
}

// Setup creates the bucket for one night or replaces its configuration.
func (s *AvailabilityService) Setup(ctx context.Context, in SetupAvailabilityInput) (result domain.Availability, err error) {
	ctx, span := s.startSpan(ctx, "availability.setup",
		attribute.String("room_type", in.RoomType),
		attribute.String("date", in.Date.Format(time.DateOnly)),
		attribute.Int("total_stock", in.TotalStock),
		attribute.Int("overbooking_threshold", in.OverbookingThreshold),
	)
	defer func() { endSpan(span, err) }()

	if in.RoomType == "" || in.Date.IsZero() {
		return domain.Availability{}, domain.ErrInvalidConfiguration
	}
	now := s.clock.Now()
	night := domain.Day(in.Date)

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.GetAvailabilityForUpdate(txCtx, in.RoomType, []time.Time{night})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			fresh, err := domain.NewAvailability(in.RoomType, night, in.TotalStock, in.OverbookingThreshold, now)
			if err != nil {
				return err
			}
			created, err := s.repo.CreateAvailability(txCtx, fresh)
			if err != nil {
				return err
			}
			if created {
				result = fresh
				return nil
			}
			// Another transaction created the night after the lookup; lock
			// its row and reconfigure it instead of overwriting its bookings.
			found, err = s.repo.GetAvailabilityForUpdate(txCtx, in.RoomType, []time.Time{night})
			if err != nil {
				return err
			}
			if len(found) == 0 {
				return domain.ErrAvailabilityNotFound
			}
		}

		bucket := found[0]
		if err := bucket.Configure(in.TotalStock, in.OverbookingThreshold, now); err != nil {
			return err
		}
		if err := s.repo.SaveAvailability(txCtx, bucket); err != nil {
			return err
		}
		result = bucket
		return nil
	})
	if err != nil {
		return domain.Availability{}, err
	}

	s.logger.Info("availability configured",
		zap.String("room_type", result.RoomType),
		zap.Time("date", result.Date),
		zap.Int("total_stock", result.TotalStock),
		zap.Int("overbooking_threshold", result.OverbookingThreshold),
		zap.Int("booked", result.Booked),
	)
	return result, nil
}

type StockInput struct {
	RoomType string
	Dates    domain.DateRange
	// Quantity defaults to one unit.
	Quantity int
}

func (in StockInput) quantity() int {
	if in.Quantity == 0 {
		return 1
	}
	return in.Quantity
}

// Reserve books units on every night of the range, or on none of them.
func (s *AvailabilityService) Reserve(ctx context.Context, in StockInput) (err error) {
	ctx, span := s.startSpan(ctx, "availability.reserve",
		attribute.String("room_type", in.RoomType),
		attribute.String("dates", in.Dates.String()),
		attribute.Int("quantity", in.quantity()),
	)
	defer func() { endSpan(span, err) }()

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		stock, err := lockStock(txCtx, s.repo, stayRequest{in.RoomType, in.Dates})
		if err != nil {
			return err
		}
		if err := stock.Reserve(in.RoomType, in.Dates, in.quantity(), now); err != nil {
			return err
		}
		return saveStock(txCtx, s.repo, stock)
	})
	if err != nil {
		s.logger.Debug("availability reserve rejected", zap.String("room_type", in.RoomType), zap.Stringer("dates", in.Dates), zap.Error(err))
		return err
	}
	s.logger.Info("availability reserved", zap.String("room_type", in.RoomType), zap.Stringer("dates", in.Dates), zap.Int("quantity", in.quantity()))
	return nil
}

// Release gives units back on every configured night of the range.
func (s *AvailabilityService) Release(ctx context.Context, in StockInput) (err error) {
	ctx, span := s.startSpan(ctx, "availability.release",
		attribute.String("room_type", in.RoomType),
		attribute.String("dates", in.Dates.String()),
		attribute.Int("quantity", in.quantity()),
	)
	defer func() { endSpan(span, err) }()

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		stock, err := lockStock(txCtx, s.repo, stayRequest{in.RoomType, in.Dates})
		if err != nil {
			return err
		}
		if err := stock.Release(in.RoomType, in.Dates, in.quantity(), now); err != nil {
			return err
		}
		return saveStock(txCtx, s.repo, stock)
	})
	if err != nil {
		return err
	}
	s.logger.Info("availability released", zap.String("room_type", in.RoomType), zap.Stringer("dates", in.Dates), zap.Int("quantity", in.quantity()))
	return nil
}

type BlockInput struct {
	RoomType string
	Date     time.Time
	Quantity int
	Reason   string
}

// Block holds units out of sale for one night, e.g. for maintenance.
func (s *AvailabilityService) Block(ctx context.Context, in BlockInput) (result domain.Availability, err error) {
	ctx, span := s.startSpan(ctx, "availability.block",
		attribute.String("room_type", in.RoomType),
		attribute.String("date", in.Date.Format(time.DateOnly)),
		attribute.Int("quantity", in.Quantity),
		attribute.String("reason", in.Reason),
	)
	defer func() { endSpan(span, err) }()

	result, err = s.adjustBlock(ctx, in.RoomType, in.Date, func(b *domain.Availability, now time.Time) error {
		return b.Block(in.Quantity, now)
	})
	if err != nil {
		return domain.Availability{}, err
	}
	s.logger.Info("availability blocked",
		zap.String("room_type", in.RoomType),
		zap.Time("date", result.Date),
		zap.Int("quantity", in.Quantity),
		zap.String("reason", in.Reason),
	)
	return result, nil
}

// Unblock returns blocked units of one night to sale.
func (s *AvailabilityService) Unblock(ctx context.Context, roomType string, date time.Time, qty int) (result domain.Availability, err error) {
	ctx, span := s.startSpan(ctx, "availability.unblock",
		attribute.String("room_type", roomType),
		attribute.String("date", date.Format(time.DateOnly)),
		attribute.Int("quantity", qty),
	)
	defer func() { endSpan(span, err) }()

	result, err = s.adjustBlock(ctx, roomType, date, func(b *domain.Availability, now time.Time) error {
		return b.Unblock(qty, now)
	})
	if err != nil {
		return domain.Availability{}, err
	}
	s.logger.Info("availability unblocked", zap.String("room_type", roomType), zap.Time("date", result.Date), zap.Int("quantity", qty))
	return result, nil
}

func (s *AvailabilityService) adjustBlock(ctx context.Context, roomType string, date time.Time, fn func(*domain.Availability, time.Time) error) (domain.Availability, error) {
	now := s.clock.Now()
	night := domain.Day(date)
	var result domain.Availability

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		found, err := s.repo.GetAvailabilityForUpdate(txCtx, roomType, []time.Time{night})
		if err != nil {
			return err
		}
		if len(found) == 0 {
			return domain.ErrAvailabilityNotFound
		}
		bucket := found[0]
		if err := fn(&bucket, now); err != nil {
			return err
		}
		if err := s.repo.SaveAvailability(txCtx, bucket); err != nil {
			return err
		}
		result = bucket
		return nil
	})
	return result, err
}

// Remaining reports how many more units can be booked for the night.
func (s *AvailabilityService) Remaining(ctx context.Context, roomType string, date time.Time) (int, error) {
	bucket, err := s.Get(ctx, roomType, date)
	if err != nil {
		return 0, err
	}
	return bucket.Remaining(), nil
}

func (s *AvailabilityService) Get(ctx context.Context, roomType string, date time.Time) (domain.Availability, error) {
	return s.repo.GetAvailability(ctx, roomType, domain.Day(date))
}

// Check reports whether every night of the range can take qty more units.
func (s *AvailabilityService) Check(ctx context.Context, roomType string, dates domain.DateRange, qty int) (bool, error) {
	if qty <= 0 {
		return false, domain.ErrInvalidQuantity
	}
	if dates.Nights() < 1 {
		return false, &domain.ValidationError{Field: "date_range", Reason: "is required"}
	}
	buckets, err := s.repo.ListAvailability(ctx, roomType, dates.CheckIn(), dates.CheckOut())
	if err != nil {
		return false, err
	}
	stock := domain.NewStock(buckets)
	for _, night := range dates.Dates() {
		b, ok := stock.Get(roomType, night)
		if !ok || !b.CanReserve(qty) {
			return false, nil
		}
	}
	return true, nil
}

func (s *AvailabilityService) List(ctx context.Context, roomType string, from, to time.Time) ([]domain.Availability, error) {
	if !domain.Day(from).Before(domain.Day(to)) {
		return nil, &domain.ValidationError{Field: "range", Reason: "from must be before to"}
	}
	return s.repo.ListAvailability(ctx, roomType, domain.Day(from), domain.Day(to))
}
