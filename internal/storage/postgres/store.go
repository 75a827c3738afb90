// Package postgres implements the application repositories on PostgreSQL
// with pgx. Rows an operation will change are read with SELECT ... FOR UPDATE.
package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Store serves every repository the application services need from one pool.
type Store struct {
	*AvailabilityRepository
	*ReservationRepository
	*WaitlistRepository
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{
		AvailabilityRepository: NewAvailabilityRepository(pool),
		ReservationRepository:  NewReservationRepository(pool),
		WaitlistRepository:     NewWaitlistRepository(pool),
		pool:                   pool,
	}
}

func (s *Store) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, s.pool, fn)
}
