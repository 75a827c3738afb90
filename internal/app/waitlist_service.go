package app

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/clock"
	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
)

type WaitlistService struct {
	repo  WaitlistStore
	clock clock.Clock
	settings
}

func NewWaitlistService(repo WaitlistStore, clk clock.Clock, opts ...Option) *WaitlistService {
	return &WaitlistService{
		repo:     repo,
		clock:    clk,
		settings: newSettings(opts),
	}
}

type EnqueueInput struct {
	GuestID  string
	RoomType string
	Dates    domain.DateRange
	Guests   domain.GuestCount
	// Priority is a non-negative score; higher is served first.
	Priority int
}

func (s *WaitlistService) Enqueue(ctx context.Context, in EnqueueInput) (result domain.WaitlistEntry, err error) {
	ctx, span := s.startSpan(ctx, "waitlist.enqueue",
		attribute.String("room_type", in.RoomType),
		attribute.String("dates", in.Dates.String()),
		attribute.Int("priority", in.Priority),
	)
	defer func() { endSpan(span, err) }()

	entry, err := domain.NewWaitlistEntry(domain.NewWaitlistEntryParams{
		ID:       s.ids.NewID(),
		GuestID:  in.GuestID,
		RoomType: in.RoomType,
		Dates:    in.Dates,
		Guests:   in.Guests,
		Priority: in.Priority,
		TTL:      s.waitlistTTL,
	}, s.clock.Now())
	if err != nil {
		return domain.WaitlistEntry{}, err
	}

	result, err = s.repo.CreateWaitlistEntry(ctx, entry)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	s.logger.Info("waitlist entry added",
		zap.String("entry_id", result.ID),
		zap.String("room_type", result.RoomType),
		zap.Stringer("dates", result.Dates),
		zap.Int("priority", result.Priority),
		zap.Int64("seq", result.Seq),
	)
	return result, nil
}

func (s *WaitlistService) Get(ctx context.Context, id string) (domain.WaitlistEntry, error) {
	return s.repo.GetWaitlistEntry(ctx, id)
}

// ListForRoomType returns the Waiting entries of a room type in serving order.
func (s *WaitlistService) ListForRoomType(ctx context.Context, roomType string) ([]domain.WaitlistEntry, error) {
	entries, err := s.repo.ListWaitlist(ctx, domain.WaitlistFilter{RoomType: roomType, Status: domain.WaitlistStatusWaiting})
	if err != nil {
		return nil, err
	}
	return domain.NewWaitlist(roomType, entries).Entries(), nil
}

func (s *WaitlistService) ListByGuest(ctx context.Context, guestID string) ([]domain.WaitlistEntry, error) {
	return s.repo.ListWaitlist(ctx, domain.WaitlistFilter{GuestID: guestID})
}

// NextCandidate returns the best-ranked Waiting entry of the room type whose
// dates overlap dates.
func (s *WaitlistService) NextCandidate(ctx context.Context, roomType string, dates domain.DateRange) (domain.WaitlistEntry, error) {
	entries, err := s.repo.ListWaitlist(ctx, domain.WaitlistFilter{RoomType: roomType, Status: domain.WaitlistStatusWaiting})
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	next, ok := domain.NewWaitlist(roomType, entries).Next(dates)
	if !ok {
		return domain.WaitlistEntry{}, domain.ErrWaitlistEntryNotFound
	}
	return next, nil
}

func (s *WaitlistService) UpgradePriority(ctx context.Context, id string, score int) (result domain.WaitlistEntry, err error) {
	ctx, span := s.startSpan(ctx, "waitlist.upgrade_priority",
		attribute.String("entry_id", id),
		attribute.Int("priority", score),
	)
	defer func() { endSpan(span, err) }()

	result, err = s.updateEntry(ctx, id, func(e *domain.WaitlistEntry, now time.Time) error {
		return e.UpgradePriority(score, now)
	})
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	s.logger.Info("waitlist priority upgraded", zap.String("entry_id", id), zap.Int("priority", score))
	return result, nil
}

// ExtendExpiry keeps a Waiting entry on the list for days more.
func (s *WaitlistService) ExtendExpiry(ctx context.Context, id string, days int) (result domain.WaitlistEntry, err error) {
	ctx, span := s.startSpan(ctx, "waitlist.extend_expiry",
		attribute.String("entry_id", id),
		attribute.Int("days", days),
	)
	defer func() { endSpan(span, err) }()

	result, err = s.updateEntry(ctx, id, func(e *domain.WaitlistEntry, now time.Time) error {
		return e.ExtendExpiry(days, now)
	})
	if err != nil {
		s.logger.Debug("waitlist extension rejected", zap.String("entry_id", id), zap.Error(err))
		return domain.WaitlistEntry{}, err
	}
	s.logger.Info("waitlist expiry extended", zap.String("entry_id", id), zap.Time("expires_at", result.ExpiresAt))
	return result, nil
}

// NotificationsDue returns the Waiting entries whose guest should hear from
// the hotel now, grouped by room type in serving order.
func (s *WaitlistService) NotificationsDue(ctx context.Context) ([]domain.WaitlistEntry, error) {
	entries, err := s.repo.ListWaitlist(ctx, domain.WaitlistFilter{Status: domain.WaitlistStatusWaiting})
	if err != nil {
		return nil, err
	}
	now := s.clock.Now()
	due := entries[:0]
	for _, e := range entries {
		if e.NotifyDue(now) {
			due = append(due, e)
		}
	}
	sort.SliceStable(due, func(i, j int) bool {
		if due[i].RoomType != due[j].RoomType {
			return due[i].RoomType < due[j].RoomType
		}
		return domain.Ranks(due[i], due[j])
	})
	return due, nil
}

func (s *WaitlistService) MarkNotified(ctx context.Context, id string) (result domain.WaitlistEntry, err error) {
	ctx, span := s.startSpan(ctx, "waitlist.mark_notified", attribute.String("entry_id", id))
	defer func() { endSpan(span, err) }()

	result, err = s.updateEntry(ctx, id, func(e *domain.WaitlistEntry, now time.Time) error {
		return e.MarkNotified(now)
	})
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	s.logger.Info("waitlist guest notified", zap.String("entry_id", id), zap.String("guest_id", result.GuestID))
	return result, nil
}

func (s *WaitlistService) updateEntry(ctx context.Context, id string, fn func(*domain.WaitlistEntry, time.Time) error) (domain.WaitlistEntry, error) {
	now := s.clock.Now()
	var result domain.WaitlistEntry
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		entry, err := s.repo.GetWaitlistEntryForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if err := fn(&entry, now); err != nil {
			return err
		}
		if err := s.repo.UpdateWaitlistEntry(txCtx, entry); err != nil {
			return err
		}
		result = entry
		return nil
	})
	return result, err
}

type ConvertInput struct {
	EntryID string
	Amount  domain.Money
}

type ConvertResult struct {
	Entry       domain.WaitlistEntry
	Reservation domain.Reservation
}

// Convert books the entry's stay and marks the entry Converted in one
// transaction. If the stay still does not fit, the entry stays Waiting and
// ErrStillUnavailable is returned.
func (s *WaitlistService) Convert(ctx context.Context, in ConvertInput) (result ConvertResult, err error) {
	ctx, span := s.startSpan(ctx, "waitlist.convert", attribute.String("entry_id", in.EntryID))
	defer func() { endSpan(span, err) }()

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		entry, err := s.repo.GetWaitlistEntryForUpdate(txCtx, in.EntryID)
		if err != nil {
			return err
		}
		if !entry.Waiting() {
			return domain.ErrInvalidTransition
		}

		r, err := book(txCtx, s.repo, s.ids, CreateReservationInput{
			GuestID:  entry.GuestID,
			RoomType: entry.RoomType,
			Dates:    entry.Dates,
			Guests:   entry.Guests,
			Amount:   in.Amount,
		}, now)
		if errors.Is(err, domain.ErrCapacityExceeded) {
			return domain.ErrStillUnavailable
		}
		if err != nil {
			return err
		}

		if err := entry.MarkConverted(r.ID, now); err != nil {
			return err
		}
		if err := s.repo.UpdateWaitlistEntry(txCtx, entry); err != nil {
			return err
		}
		result = ConvertResult{Entry: entry, Reservation: r}
		return nil
	})
	if err != nil {
		s.logger.Debug("waitlist conversion failed", zap.String("entry_id", in.EntryID), zap.Error(err))
		return ConvertResult{}, err
	}

	s.logger.Info("waitlist entry converted",
		zap.String("entry_id", result.Entry.ID),
		zap.String("reservation_id", result.Reservation.ID),
	)
	return result, nil
}

// Expire is a no-op for entries that are already Converted or Expired.
func (s *WaitlistService) Expire(ctx context.Context, id string) (result domain.WaitlistEntry, err error) {
	ctx, span := s.startSpan(ctx, "waitlist.expire", attribute.String("entry_id", id))
	defer func() { endSpan(span, err) }()

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		entry, err := s.repo.GetWaitlistEntryForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		if entry.Expire(now) {
			if err := s.repo.UpdateWaitlistEntry(txCtx, entry); err != nil {
				return err
			}
		}
		result = entry
		return nil
	})
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	s.logger.Info("waitlist entry expired", zap.String("entry_id", id), zap.String("status", string(result.Status)))
	return result, nil
}

// ExpireOverdue expires every Waiting entry whose expiry date has passed and
// returns how many were expired.
func (s *WaitlistService) ExpireOverdue(ctx context.Context) (count int, err error) {
	ctx, span := s.startSpan(ctx, "waitlist.expire_overdue")
	defer func() {
		span.SetAttributes(attribute.Int("expired", count))
		endSpan(span, err)
	}()

	now := s.clock.Now()
	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		entries, err := s.repo.ListWaitlist(txCtx, domain.WaitlistFilter{Status: domain.WaitlistStatusWaiting})
		if err != nil {
			return err
		}
		for _, candidate := range entries {
			if !candidate.Overdue(now) {
				continue
			}
			entry, err := s.repo.GetWaitlistEntryForUpdate(txCtx, candidate.ID)
			if err != nil {
				return err
			}
			if !entry.Overdue(now) || !entry.Expire(now) {
				continue
			}
			if err := s.repo.UpdateWaitlistEntry(txCtx, entry); err != nil {
				return err
			}
			count++
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	s.logger.Info("overdue waitlist entries expired", zap.Int("count", count))
	return count, nil
}
