package app

import (
	"context"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/clock"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type ReservationService struct {
	repo  ReservationStore
	clock clock.Clock
	settings
}

func NewReservationService(repo ReservationStore, clk clock.Clock, opts ...Option) *ReservationService {
	return &ReservationService{
		repo:     repo,
		clock:    clk,
		settings: newSettings(opts),
	}
}

type CreateReservationInput struct {
	GuestID  string
	RoomType string
	Dates    domain.DateRange
	Guests   domain.GuestCount
	Amount   domain.Money
}

// Create reserves one unit on every night of the stay and stores a Pending
// reservation. ErrCapacityExceeded is returned untouched so the caller can
// fall back to the waitlist.
func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (result domain.Reservation, err error) {
	ctx, span := s.startSpan(ctx, "reservation.create",
		attribute.String("room_type", in.RoomType),
		attribute.String("dates", in.Dates.String()),
	)
	defer func() { endSpan(span, err) }()

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := book(txCtx, s.repo, s.ids, in, now)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		s.logger.Debug("reservation rejected", zap.String("room_type", in.RoomType), zap.Stringer("dates", in.Dates), zap.Error(err))
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation created",
		zap.String("reservation_id", result.ID),
		zap.String("confirmation_code", result.ConfirmationCode),
		zap.String("room_type", result.RoomType),
		zap.Stringer("dates", result.Dates),
		zap.Stringer("amount", result.Amount),
	)
	return result, nil
}

// book must run inside a transaction.
func book(ctx context.Context, repo ReservationStore, ids IDGenerator, in CreateReservationInput, now time.Time) (domain.Reservation, error) {
	id := ids.NewID()
	code, err := unusedConfirmationCode(ctx, repo, ids)
	if err != nil {
		return domain.Reservation{}, err
	}
	r, err := domain.NewReservation(domain.NewReservationParams{
		ID:               id,
		ConfirmationCode: code,
		GuestID:          in.GuestID,
		RoomType:         in.RoomType,
		Dates:            in.Dates,
		Guests:           in.Guests,
		Amount:           in.Amount,
	}, now)
	if err != nil {
		return domain.Reservation{}, err
	}

	stock, err := lockStock(ctx, repo, stayRequest{in.RoomType, in.Dates})
	if err != nil {
		return domain.Reservation{}, err
	}
	if err := stock.Reserve(in.RoomType, in.Dates, 1, now); err != nil {
		return domain.Reservation{}, err
	}
	if err := saveStock(ctx, repo, stock); err != nil {
		return domain.Reservation{}, err
	}
	if err := repo.CreateReservation(ctx, r); err != nil {
		return domain.Reservation{}, err
	}
	return r, nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	return s.repo.GetReservation(ctx, id)
}

func (s *ReservationService) GetByConfirmationCode(ctx context.Context, code string) (domain.Reservation, error) {
	return s.repo.GetReservationByCode(ctx, code)
}

func (s *ReservationService) List(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
	return s.repo.ListReservations(ctx, filter)
}

func (s *ReservationService) ListByGuest(ctx context.Context, guestID string) ([]domain.Reservation, error) {
	return s.repo.ListReservations(ctx, domain.ReservationFilter{GuestID: guestID})
}

func (s *ReservationService) Confirm(ctx context.Context, id string) (domain.Reservation, error) {
	return s.transition(ctx, "reservation.confirm", id, func(r *domain.Reservation, now time.Time) error {
		return r.Confirm(now)
	})
}

// CheckIn requires a Confirmed reservation and today on or after the check-in date.
func (s *ReservationService) CheckIn(ctx context.Context, id string) (domain.Reservation, error) {
	return s.transition(ctx, "reservation.check_in", id, func(r *domain.Reservation, now time.Time) error {
		return r.CheckIn(now)
	})
}

func (s *ReservationService) CheckOut(ctx context.Context, id string) (domain.Reservation, error) {
	return s.transition(ctx, "reservation.check_out", id, func(r *domain.Reservation, now time.Time) error {
		return r.CheckOut(now)
	})
}

func (s *ReservationService) transition(ctx context.Context, op, id string, fn func(*domain.Reservation, time.Time) error) (result domain.Reservation, err error) {
	ctx, span := s.startSpan(ctx, op, attribute.String("reservation_id", id))
	defer func() { endSpan(span, err) }()

	result, err = s.update(ctx, id, fn)
	if err != nil {
		s.logger.Debug("reservation transition rejected", zap.String("op", op), zap.String("reservation_id", id), zap.Error(err))
		return domain.Reservation{}, err
	}
	s.logger.Info("reservation status changed",
		zap.String("op", op),
		zap.String("reservation_id", id),
		zap.String("status", string(result.Status)),
	)
	return result, nil
}

// update applies fn to the locked reservation and stores the result.
func (s *ReservationService) update(ctx context.Context, id string, fn func(*domain.Reservation, time.Time) error) (domain.Reservation, error) {
	now := s.clock.Now()
	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := fn(&r, now); err != nil {
			return err
		}
		if err := s.repo.UpdateReservation(txCtx, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	return result, err
}

// Cancel releases the stay's stock and records the refund on the reservation.
func (s *ReservationService) Cancel(ctx context.Context, id string) (result domain.Reservation, err error) {
	ctx, span := s.startSpan(ctx, "reservation.cancel", attribute.String("reservation_id", id))
	defer func() { endSpan(span, err) }()

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if !r.Status.Holding() {
			return domain.ErrInvalidTransition
		}

		stock, err := lockStock(txCtx, s.repo, stayRequest{r.RoomType, r.Dates})
		if err != nil {
			return err
		}
		if err := stock.Release(r.RoomType, r.Dates, 1, now); err != nil {
			return err
		}
		if _, err := r.Cancel(s.policy, now); err != nil {
			return err
		}
		if err := saveStock(txCtx, s.repo, stock); err != nil {
			return err
		}
		if err := s.repo.UpdateReservation(txCtx, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		s.logger.Debug("reservation cancel rejected", zap.String("reservation_id", id), zap.Error(err))
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation cancelled",
		zap.String("reservation_id", id),
		zap.Stringer("amount", result.Amount),
		zap.Stringer("refund", result.Refund),
	)
	return result, nil
}

type ModifyReservationInput struct {
	ID    string
	Dates domain.DateRange
	// RoomType keeps the current room type when empty.
	RoomType string
	// Guests keeps the current guest count when zero.
	Guests domain.GuestCount
}

// Modify moves the reservation to new dates or another room type. If the new
// stay does not fit, nothing changes and ErrCapacityExceeded is returned.
func (s *ReservationService) Modify(ctx context.Context, in ModifyReservationInput) (result domain.Reservation, err error) {
	ctx, span := s.startSpan(ctx, "reservation.modify",
		attribute.String("reservation_id", in.ID),
		attribute.String("dates", in.Dates.String()),
		attribute.String("room_type", in.RoomType),
	)
	defer func() { endSpan(span, err) }()

	if in.Dates.Nights() < 1 {
		return domain.Reservation{}, &domain.ValidationError{Field: "date_range", Reason: "is required"}
	}

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		r, err := s.repo.GetReservationForUpdate(txCtx, in.ID)
		if err != nil {
			return err
		}
		if !r.Status.Holding() {
			return domain.ErrInvalidTransition
		}
		roomType := in.RoomType
		if roomType == "" {
			roomType = r.RoomType
		}

		// Release and reserve act on one in-memory set of nights; nothing
		// reaches the repository unless the new stay fits.
		stock, err := lockStock(txCtx, s.repo,
			stayRequest{r.RoomType, r.Dates},
			stayRequest{roomType, in.Dates},
		)
		if err != nil {
			return err
		}
		if err := stock.Release(r.RoomType, r.Dates, 1, now); err != nil {
			return err
		}
		if err := stock.Reserve(roomType, in.Dates, 1, now); err != nil {
			return err
		}
		if err := r.Reschedule(in.Dates, roomType, in.Guests, now); err != nil {
			return err
		}
		if err := saveStock(txCtx, s.repo, stock); err != nil {
			return err
		}
		if err := s.repo.UpdateReservation(txCtx, r); err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		s.logger.Debug("reservation modify rejected", zap.String("reservation_id", in.ID), zap.Error(err))
		return domain.Reservation{}, err
	}

	s.logger.Info("reservation modified",
		zap.String("reservation_id", result.ID),
		zap.String("room_type", result.RoomType),
		zap.Stringer("dates", result.Dates),
		zap.Stringer("guests", result.Guests),
	)
	return result, nil
}

type AddSpecialRequestInput struct {
	ReservationID string
	Type          domain.RequestType
	Description   string
}

func (s *ReservationService) AddSpecialRequest(ctx context.Context, in AddSpecialRequestInput) (result domain.SpecialRequest, err error) {
	ctx, span := s.startSpan(ctx, "reservation.add_special_request",
		attribute.String("reservation_id", in.ReservationID),
		attribute.String("request_type", string(in.Type)),
	)
	defer func() { endSpan(span, err) }()

	_, err = s.update(ctx, in.ReservationID, func(r *domain.Reservation, now time.Time) error {
		req, err := r.AddSpecialRequest(s.ids.NewID(), in.Type, in.Description, now)
		if err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		s.logger.Debug("special request rejected", zap.String("reservation_id", in.ReservationID), zap.Error(err))
		return domain.SpecialRequest{}, err
	}
	s.logger.Info("special request added",
		zap.String("reservation_id", in.ReservationID),
		zap.String("request_id", result.ID),
		zap.String("request_type", string(result.Type)),
	)
	return result, nil
}

// FulfillSpecialRequest marks one request of the reservation as handled.
func (s *ReservationService) FulfillSpecialRequest(ctx context.Context, reservationID, requestID, notes string) (result domain.SpecialRequest, err error) {
	ctx, span := s.startSpan(ctx, "reservation.fulfill_special_request",
		attribute.String("reservation_id", reservationID),
		attribute.String("request_id", requestID),
	)
	defer func() { endSpan(span, err) }()

	_, err = s.update(ctx, reservationID, func(r *domain.Reservation, now time.Time) error {
		req, err := r.FulfillSpecialRequest(requestID, notes, now)
		if err != nil {
			return err
		}
		result = req
		return nil
	})
	if err != nil {
		s.logger.Debug("special request fulfilment rejected", zap.String("reservation_id", reservationID), zap.String("request_id", requestID), zap.Error(err))
		return domain.SpecialRequest{}, err
	}
	s.logger.Info("special request fulfilled", zap.String("reservation_id", reservationID), zap.String("request_id", requestID))
	return result, nil
}
