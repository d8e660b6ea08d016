package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/communityconf/ticketing/internal/domain"
)

type Store interface {
	ExecTx(ctx context.Context, fn func(Querier) error) error
	GetCatalog(ctx context.Context, id string) (domain.TierCatalog, error)
	InsertCoupon(ctx context.Context, coupon domain.Coupon) error
	GetCoupon(ctx context.Context, code string) (domain.Coupon, error)
	SetCouponValid(ctx context.Context, code string, valid bool) (int64, error)
}

// Querier is the subset of queries that participate in transactions,
// currently catalog creation which writes the catalog row plus its tiers
// atomically.
type Querier interface {
	InsertCatalog(ctx context.Context, id, eventName, currency string) error
	InsertTier(ctx context.Context, catalogID string, position int, tier domain.TicketTier) error
}

type store struct {
	pool    *pgxpool.Pool
	queries *Queries
}

func New(pool *pgxpool.Pool) Store {
	return &store{
		pool:    pool,
		queries: NewQueries(pool),
	}
}

func (s *store) ExecTx(ctx context.Context, fn func(Querier) error) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	q := s.queries.WithTx(tx)
	if err := fn(q); err != nil {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			return fmt.Errorf("tx err: %v, rollback err: %v", err, rbErr)
		}
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

func (s *store) GetCatalog(ctx context.Context, id string) (domain.TierCatalog, error) {
	return s.queries.GetCatalog(ctx, id)
}

func (s *store) InsertCoupon(ctx context.Context, coupon domain.Coupon) error {
	return s.queries.InsertCoupon(ctx, coupon)
}

func (s *store) GetCoupon(ctx context.Context, code string) (domain.Coupon, error) {
	return s.queries.GetCoupon(ctx, code)
}

func (s *store) SetCouponValid(ctx context.Context, code string, valid bool) (int64, error) {
	return s.queries.SetCouponValid(ctx, code, valid)
}
