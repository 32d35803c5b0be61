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

type PaymentRepository struct {
	pool *pgxpool.Pool
}

func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

const sessionColumns = `ref, reservation_id, status, amount, currency, redirect_url, last_event_id, last_event_at, created_at, updated_at`

func (r *PaymentRepository) GetOpenSessionByReservation(ctx context.Context, reservationID string) (*domain.PaymentSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM payment_sessions WHERE reservation_id = $1 AND status = 'pending'`

	session, err := r.scanSession(r.queryRow(ctx, query, reservationID))
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return nil, nil
		}
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("get open session: %w", err)
	}
	return &session, nil
}

func (r *PaymentRepository) GetSessionByRef(ctx context.Context, ref string) (domain.PaymentSession, error) {
	query := `SELECT ` + sessionColumns + ` FROM payment_sessions WHERE ref = $1`

	session, err := r.scanSession(r.queryRow(ctx, query, ref))
	if err != nil {
		if err == domain.ErrSessionNotFound {
			return domain.PaymentSession{}, domain.ErrSessionNotFound
		}
		return domain.PaymentSession{}, fmt.Errorf("get session by ref: %w", err)
	}
	return session, nil
}

func (r *PaymentRepository) scanSession(row pgx.Row) (domain.PaymentSession, error) {
	var (
		s           domain.PaymentSession
		status      string
		lastEventAt *time.Time
	)
	err := row.Scan(
		&s.Ref,
		&s.ReservationID,
		&status,
		&s.Amount,
		&s.Currency,
		&s.RedirectURL,
		&s.LastEventID,
		&lastEventAt,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.PaymentSession{}, domain.ErrSessionNotFound
		}
		return domain.PaymentSession{}, err
	}
	s.Status = domain.SessionStatus(status)
	if lastEventAt != nil {
		s.LastEventAt = *lastEventAt
	}
	return s, nil
}

func (r *PaymentRepository) CreateSession(ctx context.Context, session domain.PaymentSession) error {
	const stmt = `
INSERT INTO payment_sessions (ref, reservation_id, status, amount, currency, redirect_url, last_event_id, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		session.Ref,
		session.ReservationID,
		session.Status,
		session.Amount,
		session.Currency,
		session.RedirectURL,
		session.LastEventID,
		session.CreatedAt,
		session.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrSessionExists
		}
		if isForeignKeyViolation(err) {
			return domain.ErrReservationNotFound
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

func (r *PaymentRepository) UpdateSession(ctx context.Context, session domain.PaymentSession) error {
	const stmt = `
UPDATE payment_sessions
SET status = $2, last_event_id = $3, last_event_at = $4, updated_at = $5
WHERE ref = $1`

	tag, err := r.exec(ctx, stmt, session.Ref, session.Status, session.LastEventID, session.LastEventAt, session.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update session: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}

// InsertEvent records a gateway event before it is acknowledged. Redelivery
// of an already stored event id is a no-op.
func (r *PaymentRepository) InsertEvent(ctx context.Context, ev domain.PaymentEvent, receivedAt time.Time) error {
	const stmt = `
INSERT INTO webhook_events (id, session_ref, status, occurred_at, received_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO NOTHING`

	_, err := r.exec(ctx, stmt, ev.ID, ev.SessionRef, ev.Status, ev.OccurredAt, receivedAt)
	if err != nil {
		return fmt.Errorf("insert event: %w", err)
	}
	return nil
}

func (r *PaymentRepository) ListPendingEvents(ctx context.Context, limit int) ([]domain.PaymentEvent, error) {
	const query = `
SELECT id, session_ref, status, occurred_at
FROM webhook_events
WHERE processed_at IS NULL
ORDER BY received_at, id
LIMIT $1`

	rows, err := r.query(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	defer rows.Close()

	var events []domain.PaymentEvent
	for rows.Next() {
		var ev domain.PaymentEvent
		if err := rows.Scan(&ev.ID, &ev.SessionRef, &ev.Status, &ev.OccurredAt); err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pending events: %w", err)
	}
	return events, nil
}

func (r *PaymentRepository) MarkEventProcessed(ctx context.Context, id string, at time.Time) error {
	const stmt = `UPDATE webhook_events SET processed_at = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, at)
	if err != nil {
		return fmt.Errorf("mark event processed: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrEventNotFound
	}
	return nil
}

func (r *PaymentRepository) CreateDiscrepancy(ctx context.Context, d domain.Discrepancy) error {
	const stmt = `
INSERT INTO reconciliation_discrepancies (id, session_ref, event_id, reason, detail, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`

	_, err := r.exec(ctx, stmt, d.ID, d.SessionRef, d.EventID, d.Reason, d.Detail, d.CreatedAt)
	if err != nil {
		return fmt.Errorf("create discrepancy: %w", err)
	}
	return nil
}

func (r *PaymentRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PaymentRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *PaymentRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
