package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type WaitlistRepository struct {
	db
}

func NewWaitlistRepository(pool *pgxpool.Pool) *WaitlistRepository {
	return &WaitlistRepository{db{pool: pool}}
}

const waitlistColumns = `id, seq, guest_id, room_type, check_in, check_out, adults, children, priority, status,
	converted_reservation_id, created_at, expires_at, notified_at, updated_at`

func scanWaitlistEntry(row pgx.Row) (domain.WaitlistEntry, error) {
	var (
		e                 domain.WaitlistEntry
		checkIn, checkOut time.Time
		convertedID       *string
		notifiedAt        *time.Time
	)
	err := row.Scan(&e.ID, &e.Seq, &e.GuestID, &e.RoomType, &checkIn, &checkOut, &e.Guests.Adults, &e.Guests.Children,
		&e.Priority, &e.Status, &convertedID, &e.CreatedAt, &e.ExpiresAt, &notifiedAt, &e.UpdatedAt)
	if err != nil {
		return domain.WaitlistEntry{}, err
	}
	if e.Dates, err = domain.NewDateRange(checkIn, checkOut); err != nil {
		return domain.WaitlistEntry{}, fmt.Errorf("decode waitlist entry %s: %w", e.ID, err)
	}
	if convertedID != nil {
		e.ConvertedReservationID = *convertedID
	}
	if notifiedAt != nil {
		e.NotifiedAt = *notifiedAt
	}
	return e, nil
}

func (r *WaitlistRepository) GetWaitlistEntry(ctx context.Context, id string) (domain.WaitlistEntry, error) {
	return r.getByID(ctx, id, false)
}

func (r *WaitlistRepository) GetWaitlistEntryForUpdate(ctx context.Context, id string) (domain.WaitlistEntry, error) {
	return r.getByID(ctx, id, true)
}

func (r *WaitlistRepository) getByID(ctx context.Context, id string, lock bool) (domain.WaitlistEntry, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.WaitlistEntry{}, domain.ErrInvalidID
	}
	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	e, err := scanWaitlistEntry(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.WaitlistEntry{}, domain.ErrWaitlistEntryNotFound
		}
		return domain.WaitlistEntry{}, fmt.Errorf("get waitlist entry: %w", err)
	}
	return e, nil
}

func (r *WaitlistRepository) ListWaitlist(ctx context.Context, filter domain.WaitlistFilter) ([]domain.WaitlistEntry, error) {
	var (
		where []string
		args  []any
	)
	add := func(column string, value any) {
		args = append(args, value)
		where = append(where, fmt.Sprintf("%s = $%d", column, len(args)))
	}
	if filter.GuestID != "" {
		add("guest_id", filter.GuestID)
	}
	if filter.RoomType != "" {
		add("room_type", filter.RoomType)
	}
	if filter.Status != "" {
		add("status", filter.Status)
	}

	query := `SELECT ` + waitlistColumns + ` FROM waitlist_entries`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY seq`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list waitlist: %w", err)
	}
	defer rows.Close()

	var out []domain.WaitlistEntry
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan waitlist entry: %w", err)
		}
		out = append(out, e)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate waitlist: %w", rows.Err())
	}
	return out, nil
}

func (r *WaitlistRepository) CreateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) (domain.WaitlistEntry, error) {
	const stmt = `
INSERT INTO waitlist_entries (id, guest_id, room_type, check_in, check_out, adults, children, priority, status,
	converted_reservation_id, created_at, expires_at, notified_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
RETURNING seq`

	err := r.queryRow(ctx, stmt,
		e.ID,
		e.GuestID,
		e.RoomType,
		e.Dates.CheckIn(),
		e.Dates.CheckOut(),
		e.Guests.Adults,
		e.Guests.Children,
		e.Priority,
		e.Status,
		nullableID(e.ConvertedReservationID),
		e.CreatedAt,
		e.ExpiresAt,
		nullableTime(e.NotifiedAt),
		e.UpdatedAt,
	).Scan(&e.Seq)
	if err != nil {
		if isUniqueViolation(err) || isInvalidUUID(err) {
			return domain.WaitlistEntry{}, domain.ErrInvalidID
		}
		return domain.WaitlistEntry{}, fmt.Errorf("create waitlist entry: %w", err)
	}
	return e, nil
}

func (r *WaitlistRepository) UpdateWaitlistEntry(ctx context.Context, e domain.WaitlistEntry) error {
	const stmt = `
UPDATE waitlist_entries SET
	priority = $2,
	status = $3,
	converted_reservation_id = $4,
	expires_at = $5,
	notified_at = $6,
	updated_at = $7
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		e.ID,
		e.Priority,
		e.Status,
		nullableID(e.ConvertedReservationID),
		e.ExpiresAt,
		nullableTime(e.NotifiedAt),
		e.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update waitlist entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrWaitlistEntryNotFound
	}
	return nil
}

func nullableID(id string) *string {
	if id == "" {
		return nil
	}
	return &id
}
