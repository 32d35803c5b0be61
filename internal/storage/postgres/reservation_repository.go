package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

func (r *ReservationRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockSpace takes the per-space row lock serializing check-then-reserve.
func (r *ReservationRepository) LockSpace(ctx context.Context, spaceID string) error {
	const query = `SELECT active FROM spaces WHERE id = $1 FOR UPDATE`

	var active bool
	if err := r.queryRow(ctx, query, spaceID).Scan(&active); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.ErrSpaceNotFound
		}
		return fmt.Errorf("lock space: %w", err)
	}
	if !active {
		return domain.ErrSpaceInactive
	}
	return nil
}

func (r *ReservationRepository) HasOverlap(ctx context.Context, spaceID string, iv domain.Interval) (bool, error) {
	const query = `
SELECT EXISTS (
	SELECT 1 FROM reservations
	WHERE space_id = $1
	  AND status IN ('held', 'confirmed')
	  AND start_at < $3 AND end_at > $2
)`

	var exists bool
	if err := r.queryRow(ctx, query, spaceID, iv.Start, iv.End).Scan(&exists); err != nil {
		if isInvalidUUID(err) {
			return false, domain.ErrInvalidID
		}
		return false, fmt.Errorf("check overlap: %w", err)
	}
	return exists, nil
}

func (r *ReservationRepository) CreateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, space_id, owner_id, start_at, end_at, price, currency, tier_label, status, hold_expires_at, cancel_reason, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.exec(ctx, stmt,
		res.ID,
		res.SpaceID,
		res.OwnerID,
		res.Interval.Start,
		res.Interval.End,
		res.Price,
		res.Currency,
		res.TierLabel,
		res.Status,
		res.HoldExpiresAt,
		res.CancelReason,
		res.CreatedAt,
		res.UpdatedAt,
	)
	if err != nil {
		if isExclusionViolation(err) {
			return domain.ErrIntervalConflict
		}
		if isForeignKeyViolation(err) {
			return domain.ErrSpaceNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

const reservationColumns = `id, space_id, owner_id, start_at, end_at, price, currency, tier_label, status, hold_expires_at, COALESCE(payment_session_ref, ''), cancel_reason, created_at, updated_at`

func (r *ReservationRepository) GetReservation(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1`
	return r.scanReservation(r.queryRow(ctx, query, id))
}

func (r *ReservationRepository) GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE id = $1 FOR UPDATE`
	return r.scanReservation(r.queryRow(ctx, query, id))
}

func (r *ReservationRepository) scanReservation(row pgx.Row) (domain.Reservation, error) {
	var (
		res           domain.Reservation
		status        string
		holdExpiresAt *time.Time
	)
	err := row.Scan(
		&res.ID,
		&res.SpaceID,
		&res.OwnerID,
		&res.Interval.Start,
		&res.Interval.End,
		&res.Price,
		&res.Currency,
		&res.TierLabel,
		&status,
		&holdExpiresAt,
		&res.PaymentSessionRef,
		&res.CancelReason,
		&res.CreatedAt,
		&res.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	res.Status = domain.ReservationStatus(status)
	if holdExpiresAt != nil {
		res.HoldExpiresAt = *holdExpiresAt
	}
	return res, nil
}

func (r *ReservationRepository) UpdateReservation(ctx context.Context, res domain.Reservation) error {
	const stmt = `
UPDATE reservations
SET status = $2, payment_session_ref = NULLIF($3, ''), cancel_reason = $4, updated_at = $5
WHERE id = $1`

	tag, err := r.exec(ctx, stmt, res.ID, res.Status, res.PaymentSessionRef, res.CancelReason, res.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update reservation: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrReservationNotFound
	}
	return nil
}

func (r *ReservationRepository) ListOccupied(ctx context.Context, spaceID string, window domain.Interval) ([]domain.Interval, error) {
	const query = `
SELECT start_at, end_at
FROM reservations
WHERE space_id = $1
  AND status IN ('held', 'confirmed')
  AND start_at < $3 AND end_at > $2
ORDER BY start_at ASC`

	rows, err := r.query(ctx, query, spaceID, window.Start, window.End)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("list occupied: %w", err)
	}
	defer rows.Close()

	var out []domain.Interval
	for rows.Next() {
		var iv domain.Interval
		if err := rows.Scan(&iv.Start, &iv.End); err != nil {
			return nil, fmt.Errorf("scan occupied interval: %w", err)
		}
		out = append(out, iv)
	}
	if rows.Err() != nil {
		if isInvalidUUID(rows.Err()) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("iterate occupied intervals: %w", rows.Err())
	}
	return out, nil
}

func (r *ReservationRepository) ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT id FROM reservations
WHERE status = 'held' AND hold_expires_at <= $1
ORDER BY hold_expires_at ASC
LIMIT $2`

	return r.listIDs(ctx, query, now, limit)
}

func (r *ReservationRepository) ListElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]string, error) {
	const query = `
SELECT id FROM reservations
WHERE status = 'confirmed' AND end_at <= $1
ORDER BY end_at ASC
LIMIT $2`

	return r.listIDs(ctx, query, now, limit)
}

func (r *ReservationRepository) listIDs(ctx context.Context, query string, now time.Time, limit int) ([]string, error) {
	rows, err := r.query(ctx, query, now, limit)
	if err != nil {
		return nil, fmt.Errorf("list reservation ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan reservation id: %w", err)
		}
		ids = append(ids, id)
	}
	if rows.Err() != nil {
		return nil, fmt.Errorf("iterate reservation ids: %w", rows.Err())
	}
	return ids, nil
}

func (r *ReservationRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ReservationRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ReservationRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
