package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/KenzieRafa/TST-Reservation-API/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type AvailabilityRepository struct {
	db
}

func NewAvailabilityRepository(pool *pgxpool.Pool) *AvailabilityRepository {
	return &AvailabilityRepository{db{pool: pool}}
}

const availabilityColumns = `room_type, night, total_stock, overbooking_threshold, booked, blocked, version, updated_at`

func scanAvailability(row pgx.Row) (domain.Availability, error) {
	var a domain.Availability
	err := row.Scan(&a.RoomType, &a.Date, &a.TotalStock, &a.OverbookingThreshold, &a.Booked, &a.Blocked, &a.Version, &a.UpdatedAt)
	a.Date = domain.Day(a.Date)
	return a, err
}

// GetAvailabilityForUpdate locks the rows in night order.
func (r *AvailabilityRepository) GetAvailabilityForUpdate(ctx context.Context, roomType string, dates []time.Time) ([]domain.Availability, error) {
	const query = `
SELECT ` + availabilityColumns + `
FROM availability
WHERE room_type = $1 AND night = ANY($2)
ORDER BY night
FOR UPDATE`
	return r.list(ctx, "lock availability", query, roomType, dates)
}

func (r *AvailabilityRepository) GetAvailability(ctx context.Context, roomType string, date time.Time) (domain.Availability, error) {
	const query = `SELECT ` + availabilityColumns + ` FROM availability WHERE room_type = $1 AND night = $2`
	a, err := scanAvailability(r.queryRow(ctx, query, roomType, domain.Day(date)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Availability{}, domain.ErrAvailabilityNotFound
		}
		return domain.Availability{}, fmt.Errorf("get availability: %w", err)
	}
	return a, nil
}

func (r *AvailabilityRepository) ListAvailability(ctx context.Context, roomType string, from, to time.Time) ([]domain.Availability, error) {
	const query = `
SELECT ` + availabilityColumns + `
FROM availability
WHERE room_type = $1 AND night >= $2 AND night < $3
ORDER BY night`
	return r.list(ctx, "list availability", query, roomType, domain.Day(from), domain.Day(to))
}

// CreateAvailability inserts b unless a bucket for its night already exists,
// in which case the stored row is left untouched and false is returned.
func (r *AvailabilityRepository) CreateAvailability(ctx context.Context, b domain.Availability) (bool, error) {
	const stmt = `
INSERT INTO availability (room_type, night, total_stock, overbooking_threshold, booked, blocked, version, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (room_type, night) DO NOTHING`

	tag, err := r.exec(ctx, stmt,
		b.RoomType,
		domain.Day(b.Date),
		b.TotalStock,
		b.OverbookingThreshold,
		b.Booked,
		b.Blocked,
		b.Version,
		b.UpdatedAt,
	)
	if err != nil {
		if isCheckViolation(err) {
			return false, domain.ErrInvalidConfiguration
		}
		return false, fmt.Errorf("create availability: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// SaveAvailability upserts each bucket. The table's check constraints mirror
// the booking ceiling, so a violation surfaces as ErrCapacityExceeded.
func (r *AvailabilityRepository) SaveAvailability(ctx context.Context, buckets ...domain.Availability) error {
	const stmt = `
INSERT INTO availability (room_type, night, total_stock, overbooking_threshold, booked, blocked, version, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (room_type, night) DO UPDATE SET
	total_stock = EXCLUDED.total_stock,
	overbooking_threshold = EXCLUDED.overbooking_threshold,
	booked = EXCLUDED.booked,
	blocked = EXCLUDED.blocked,
	version = EXCLUDED.version,
	updated_at = EXCLUDED.updated_at`

	for _, b := range buckets {
		_, err := r.exec(ctx, stmt,
			b.RoomType,
			domain.Day(b.Date),
			b.TotalStock,
			b.OverbookingThreshold,
			b.Booked,
			b.Blocked,
			b.Version,
			b.UpdatedAt,
		)
		if err != nil {
			if isCheckViolation(err) {
				return domain.ErrCapacityExceeded
			}
			return fmt.Errorf("save availability: %w", err)
		}
	}
	return nil
}

func (r *AvailabilityRepository) list(ctx context.Context, op, query string, args ...any) ([]domain.Availability, error) {
	rows, err := r.query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var out []domain.Availability
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, fmt.Errorf("scan availability: %w", err)
		}
		out = append(out, a)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate availability: %w", rows.Err())
	}
	return out, nil
}
