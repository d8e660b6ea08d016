package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"

	"github.com/communityconf/ticketing/internal/domain"
)

type dbtx interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

type Queries struct {
	db dbtx
}

func NewQueries(db dbtx) *Queries {
	return &Queries{db: db}
}

func (q *Queries) WithTx(tx pgx.Tx) *Queries {
	return &Queries{db: tx}
}

const insertCatalog = `
INSERT INTO catalogs (id, event_name, currency)
VALUES ($1, $2, $3)
`

func (q *Queries) InsertCatalog(ctx context.Context, id, eventName, currency string) error {
	_, err := q.db.Exec(ctx, insertCatalog, id, eventName, currency)
	return err
}

const insertTier = `
INSERT INTO tiers (id, catalog_id, position, title, description, base_price, available_from, available_until, auto_select, features)
VALUES ($1, $2, $3, $4, $5, $6::numeric, $7, $8, $9, $10)
`

func (q *Queries) InsertTier(ctx context.Context, catalogID string, position int, tier domain.TicketTier) error {
	_, err := q.db.Exec(ctx, insertTier,
		tier.ID,
		catalogID,
		position,
		tier.Title,
		tier.Description,
		tier.BasePrice.String(),
		tier.AvailableFrom,
		tier.AvailableUntil,
		tier.AutoSelect,
		tier.Features,
	)
	return err
}

const getCatalog = `
SELECT id, event_name, currency FROM catalogs WHERE id = $1
`

const listTiersByCatalog = `
SELECT id, title, description, base_price::text, available_from, available_until, auto_select, features
FROM tiers
WHERE catalog_id = $1
ORDER BY position
`

func (q *Queries) GetCatalog(ctx context.Context, id string) (domain.TierCatalog, error) {
	var catalog domain.TierCatalog
	err := q.db.QueryRow(ctx, getCatalog, id).Scan(&catalog.ID, &catalog.EventName, &catalog.Currency)
	if err != nil {
		return domain.TierCatalog{}, err
	}

	rows, err := q.db.Query(ctx, listTiersByCatalog, id)
	if err != nil {
		return domain.TierCatalog{}, err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			tier  domain.TicketTier
			price string
			from  *time.Time
			until *time.Time
		)
		if err := rows.Scan(&tier.ID, &tier.Title, &tier.Description, &price, &from, &until, &tier.AutoSelect, &tier.Features); err != nil {
			return domain.TierCatalog{}, err
		}
		tier.BasePrice, err = decimal.NewFromString(price)
		if err != nil {
			return domain.TierCatalog{}, err
		}
		tier.AvailableFrom = from
		tier.AvailableUntil = until
		catalog.Tiers = append(catalog.Tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return domain.TierCatalog{}, err
	}

	return catalog, nil
}

const insertCoupon = `
INSERT INTO coupons (code, percent_off, amount_off, valid)
VALUES ($1, $2::numeric, $3::numeric, $4)
`

func (q *Queries) InsertCoupon(ctx context.Context, coupon domain.Coupon) error {
	_, err := q.db.Exec(ctx, insertCoupon,
		coupon.Code,
		decimalText(coupon.PercentOff),
		decimalText(coupon.AmountOff),
		coupon.Valid,
	)
	return err
}

const getCoupon = `
SELECT code, percent_off::text, amount_off::text, valid, created_at FROM coupons WHERE code = $1
`

func (q *Queries) GetCoupon(ctx context.Context, code string) (domain.Coupon, error) {
	var (
		coupon  domain.Coupon
		percent *string
		amount  *string
	)
	err := q.db.QueryRow(ctx, getCoupon, code).Scan(&coupon.Code, &percent, &amount, &coupon.Valid, &coupon.CreatedAt)
	if err != nil {
		return domain.Coupon{}, err
	}
	if coupon.PercentOff, err = decimalFromText(percent); err != nil {
		return domain.Coupon{}, err
	}
	if coupon.AmountOff, err = decimalFromText(amount); err != nil {
		return domain.Coupon{}, err
	}
	return coupon, nil
}

const setCouponValid = `
UPDATE coupons SET valid = $2 WHERE code = $1
`

func (q *Queries) SetCouponValid(ctx context.Context, code string, valid bool) (int64, error) {
	tag, err := q.db.Exec(ctx, setCouponValid, code, valid)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func decimalText(d *decimal.Decimal) *string {
	if d == nil {
		return nil
	}
	s := d.String()
	return &s
}

func decimalFromText(s *string) (*decimal.Decimal, error) {
	if s == nil {
		return nil, nil
	}
	d, err := decimal.NewFromString(*s)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
