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

type ReservationRepository struct {
	db
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{db{pool: pool}}
}

const reservationColumns = `id, confirmation_code, guest_id, room_type, check_in, check_out,
	adults, children, amount_minor, currency, refund_minor, status, version, created_at, updated_at`

func scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		r                 domain.Reservation
		checkIn, checkOut time.Time
		amount            int64
		currency          string
		refund            *int64
	)
	err := row.Scan(&r.ID, &r.ConfirmationCode, &r.GuestID, &r.RoomType, &checkIn, &checkOut,
		&r.Guests.Adults, &r.Guests.Children, &amount, &currency, &refund, &r.Status, &r.Version, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return domain.Reservation{}, err
	}
	if r.Dates, err = domain.NewDateRange(checkIn, checkOut); err != nil {
		return domain.Reservation{}, fmt.Errorf("decode reservation %s: %w", r.ID, err)
	}
	if r.Amount, err = domain.NewMoney(amount, currency); err != nil {
		return domain.Reservation{}, fmt.Errorf("decode reservation %s: %w", r.ID, err)
	}
	if refund != nil {
		m, err := domain.NewMoney(*refund, currency)
		if err != nil {
			return domain.Reservation{}, fmt.Errorf("decode reservation %s: %w", r.ID, err)
		}
		r.Refund = &m
	}
	return r, nil
}

func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	return r.getByID(ctx, id, false)
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	return r.getByID(ctx, id, true)
}

func (r *ReservationRepository) getByID(ctx context.Context, id string, lock bool) (domain.Reservation, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	if lock {
		query += ` FOR UPDATE`
	}
	res, err := scanReservation(r.queryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	if err := r.loadSpecialRequests(ctx, []*domain.Reservation{&res}); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepository) GetReservationByCode(ctx context.Context, code string) (domain.Reservation, error) {
	const query = `SELECT ` + reservationColumns + ` FROM reservations WHERE confirmation_code = $1`
	res, err := scanReservation(r.queryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation by code: %w", err)
	}
	if err := r.loadSpecialRequests(ctx, []*domain.Reservation{&res}); err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

func (r *ReservationRepository) ListReservations(ctx context.Context, filter domain.ReservationFilter) ([]domain.Reservation, error) {
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

	query := `SELECT ` + reservationColumns + ` FROM reservations`
	if len(where) > 0 {
		query += ` WHERE ` + strings.Join(where, " AND ")
	}
	query += ` ORDER BY created_at, id`

	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		out = append(out, res)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservations: %w", rows.Err())
	}
	rows.Close()

	ptrs := make([]*domain.Reservation, len(out))
	for i := range out {
		ptrs[i] = &out[i]
	}
	if err := r.loadSpecialRequests(ctx, ptrs); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, confirmation_code, guest_id, room_type, check_in, check_out,
	adults, children, amount_minor, currency, refund_minor, status, version, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.ConfirmationCode,
		res.GuestID,
		res.RoomType,
		res.Dates.CheckIn(),
		res.Dates.CheckOut(),
		res.Guests.Adults,
		res.Guests.Children,
		res.Amount.Amount(),
		res.Amount.Currency(),
		refundMinor(res.Refund),
		res.Status,
		res.Version,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) || isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return r.saveSpecialRequests(ctx, res)
}

func (r *ReservationRepository) UpdateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
UPDATE reservations SET
	room_type = $2,
	check_in = $3,
	check_out = $4,
	adults = $5,
	children = $6,
	refund_minor = $7,
	status = $8,
	version = $9,
	updated_at = $10
WHERE id = $1`

	tag, err := r.exec(ctx, stmt,
		res.ID,
		res.RoomType,
		res.Dates.CheckIn(),
		res.Dates.CheckOut(),
		res.Guests.Adults,
		res.Guests.Children,
		refundMinor(res.Refund),
		res.Status,
		res.Version,
		res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return r.saveSpecialRequests(ctx, res)
}

const specialRequestColumns = `id, reservation_id, request_type, description, fulfilled, notes, created_at, fulfilled_at`

// loadSpecialRequests fills SpecialRequests of every reservation in list
// with one query, oldest request first.
func (r *ReservationRepository) loadSpecialRequests(ctx context.Context, list []*domain.Reservation) error {
	if len(list) == 0 {
		return nil
	}
	byID := make(map[string]*domain.Reservation, len(list))
	ids := make([]string, 0, len(list))
	for _, res := range list {
		byID[res.ID] = res
		ids = append(ids, res.ID)
	}

	const query = `
SELECT ` + specialRequestColumns + `
FROM special_requests
WHERE reservation_id = ANY($1)
ORDER BY created_at, id`
	rows, err := r.query(ctx, query, ids)
	if err != nil {
		return fmt.Errorf("load special requests: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			req           domain.SpecialRequest
			reservationID string
			fulfilledAt   *time.Time
		)
		err := rows.Scan(&req.ID, &reservationID, &req.Type, &req.Description, &req.Fulfilled, &req.Notes, &req.CreatedAt, &fulfilledAt)
		if err != nil {
			return fmt.Errorf("scan special request: %w", err)
		}
		if fulfilledAt != nil {
			req.FulfilledAt = *fulfilledAt
		}
		if res, ok := byID[reservationID]; ok {
			res.SpecialRequests = append(res.SpecialRequests, req)
		}
	}
	if rows.Err() != nil {
		return fmt.Errorf("iterate special requests: %w", rows.Err())
	}
	return nil
}

// saveSpecialRequests upserts the reservation's requests. Requests are never
// removed from a reservation.
func (r *ReservationRepository) saveSpecialRequests(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO special_requests (` + specialRequestColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id) DO UPDATE SET
	fulfilled = EXCLUDED.fulfilled,
	notes = EXCLUDED.notes,
	fulfilled_at = EXCLUDED.fulfilled_at
WHERE special_requests.reservation_id = EXCLUDED.reservation_id`

	for _, req := range res.SpecialRequests {
		_, err := r.exec(ctx, stmt,
			req.ID,
			res.ID,
			req.Type,
			req.Description,
			req.Fulfilled,
			req.Notes,
			req.CreatedAt,
			nullableTime(req.FulfilledAt),
		)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			if isCheckViolation(err) {
				return &domain.ValidationError{Field: "request_type", Reason: "is not supported"}
			}
			return fmt.Errorf("save special request: %w", err)
		}
	}
	return nil
}

func refundMinor(m *domain.Money) *int64 {
	if m == nil {
		return nil
	}
	v := m.Amount()
	return &v
}

func nullableTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
