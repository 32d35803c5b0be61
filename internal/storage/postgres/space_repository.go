package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SpaceRepository struct {
	pool *pgxpool.Pool
}

func NewSpaceRepository(pool *pgxpool.Pool) *SpaceRepository {
	return &SpaceRepository{pool: pool}
}

func (r *SpaceRepository) CreateSpace(ctx context.Context, space domain.Space) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		tx := txFromContext(txCtx)

		const spaceStmt = `
INSERT INTO spaces (id, name, capacity, currency, active, cancel_notice_seconds, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
		if _, err := tx.Exec(txCtx, spaceStmt,
			space.ID,
			space.Name,
			space.Capacity,
			space.Currency,
			space.Active,
			int64(space.CancelNotice/time.Second),
			space.CreatedAt,
		); err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("create space: %w", err)
		}

		const tierStmt = `
INSERT INTO pricing_tiers (space_id, kind, label, price)
VALUES ($1, $2, $3, $4)`
		for _, tier := range space.Tiers {
			if _, err := tx.Exec(txCtx, tierStmt, space.ID, tier.Kind, tier.Label, tier.Price); err != nil {
				return fmt.Errorf("create pricing tier: %w", err)
			}
		}
		return nil
	})
}

func (r *SpaceRepository) UpdateSpace(ctx context.Context, space domain.Space) error {
	const stmt = `
UPDATE spaces
SET name = $2, capacity = $3, active = $4, cancel_notice_seconds = $5
WHERE id = $1`

	tag, err := r.pool.Exec(ctx, stmt,
		space.ID,
		space.Name,
		space.Capacity,
		space.Active,
		int64(space.CancelNotice/time.Second),
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update space: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSpaceNotFound
	}
	return nil
}

func (r *SpaceRepository) GetSpace(ctx context.Context, id string) (domain.Space, error) {
	const query = `
SELECT id, name, capacity, currency, active, cancel_notice_seconds, created_at
FROM spaces
WHERE id = $1`

	var (
		space         domain.Space
		noticeSeconds int64
	)
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&space.ID,
		&space.Name,
		&space.Capacity,
		&space.Currency,
		&space.Active,
		&noticeSeconds,
		&space.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Space{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Space{}, domain.ErrSpaceNotFound
		}
		return domain.Space{}, fmt.Errorf("get space: %w", err)
	}
	space.CancelNotice = time.Duration(noticeSeconds) * time.Second

	tiers, err := r.listTiers(ctx, space.ID)
	if err != nil {
		return domain.Space{}, err
	}
	space.Tiers = tiers
	return space, nil
}

func (r *SpaceRepository) ListSpaces(ctx context.Context) ([]domain.Space, error) {
	const query = `
SELECT id, name, capacity, currency, active, cancel_notice_seconds, created_at
FROM spaces
ORDER BY created_at ASC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list spaces: %w", err)
	}
	defer rows.Close()

	var spaces []domain.Space
	for rows.Next() {
		var (
			space         domain.Space
			noticeSeconds int64
		)
		if err := rows.Scan(
			&space.ID,
			&space.Name,
			&space.Capacity,
			&space.Currency,
			&space.Active,
			&noticeSeconds,
			&space.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan space: %w", err)
		}
		space.CancelNotice = time.Duration(noticeSeconds) * time.Second
		spaces = append(spaces, space)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate spaces: %w", rows.Err())
	}

	for i := range spaces {
		tiers, err := r.listTiers(ctx, spaces[i].ID)
		if err != nil {
			return nil, err
		}
		spaces[i].Tiers = tiers
	}
	return spaces, nil
}

func (r *SpaceRepository) listTiers(ctx context.Context, spaceID string) ([]domain.PricingTier, error) {
	const query = `
SELECT kind, label, price
FROM pricing_tiers
WHERE space_id = $1
ORDER BY kind ASC`

	rows, err := r.pool.Query(ctx, query, spaceID)
	if err != nil {
		return nil, fmt.Errorf("list tiers: %w", err)
	}
	defer rows.Close()

	var tiers []domain.PricingTier
	for rows.Next() {
		var (
			tier domain.PricingTier
			kind string
		)
		if err := rows.Scan(&kind, &tier.Label, &tier.Price); err != nil {
			return nil, fmt.Errorf("scan tier: %w", err)
		}
		tier.Kind = domain.TierKind(kind)
		tiers = append(tiers, tier)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate tiers: %w", rows.Err())
	}
	return tiers, nil
}
