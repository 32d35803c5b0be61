package app

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/hlafethi/coworkmy-booking/internal/clock"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
	"github.com/hlafethi/coworkmy-booking/internal/pricing"
)

// ReservationRepository persists reservations. LockSpace and
// GetReservationForUpdate take row locks; every mutation runs inside WithTx
// so check-then-write sequences are serialized by the database, which keeps
// the engine correct across multiple instances.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockSpace(ctx context.Context, spaceID string) error
	HasOverlap(ctx context.Context, spaceID string, iv domain.Interval) (bool, error)
	CreateReservation(ctx context.Context, res domain.Reservation) error
	GetReservation(ctx context.Context, id string) (domain.Reservation, error)
	GetReservationForUpdate(ctx context.Context, id string) (domain.Reservation, error)
	UpdateReservation(ctx context.Context, res domain.Reservation) error
	ListOccupied(ctx context.Context, spaceID string, window domain.Interval) ([]domain.Interval, error)
	ListExpiredHolds(ctx context.Context, now time.Time, limit int) ([]string, error)
	ListElapsedConfirmed(ctx context.Context, now time.Time, limit int) ([]string, error)
}

// SpaceSource resolves space reference data; backed by the catalog cache.
type SpaceSource interface {
	Space(ctx context.Context, id string) (domain.Space, error)
}

type ReservationService struct {
	repo    ReservationRepository
	spaces  SpaceSource
	pricer  *pricing.Engine
	clock   clock.Clock
	logger  *log.Logger
	holdTTL time.Duration
	horizon time.Duration
}

const (
	defaultHoldTTL = 15 * time.Minute
	defaultHorizon = 365 * 24 * time.Hour
)

func NewReservationService(repo ReservationRepository, spaces SpaceSource, pricer *pricing.Engine, clk clock.Clock, logger *log.Logger, opts ...ReservationOption) *ReservationService {
	if logger == nil {
		logger = log.Default()
	}
	svc := &ReservationService{
		repo:    repo,
		spaces:  spaces,
		pricer:  pricer,
		clock:   clk,
		logger:  logger,
		holdTTL: defaultHoldTTL,
		horizon: defaultHorizon,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type ReservationOption func(*ReservationService)

// WithHoldTTL overrides the default TTL for new holds.
func WithHoldTTL(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.holdTTL = d
		}
	}
}

// WithHorizon overrides how far ahead reservations may end.
func WithHorizon(d time.Duration) ReservationOption {
	return func(s *ReservationService) {
		if d > 0 {
			s.horizon = d
		}
	}
}

type CreateHoldInput struct {
	SpaceID  string
	OwnerID  string
	Interval domain.Interval
}

// CreateHold validates the requested interval, prices it, and claims the
// slot. The overlap check and the insert run in one transaction under the
// space's row lock, so two concurrent holds for overlapping intervals
// cannot both succeed.
func (s *ReservationService) CreateHold(ctx context.Context, in CreateHoldInput) (domain.Reservation, error) {
	if in.OwnerID == "" {
		return domain.Reservation{}, domain.ErrOwnerRequired
	}
	if in.SpaceID == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	iv, err := domain.NewInterval(in.Interval.Start, in.Interval.End)
	if err != nil {
		return domain.Reservation{}, err
	}

	space, err := s.spaces.Space(ctx, in.SpaceID)
	if err != nil {
		return domain.Reservation{}, err
	}
	if !space.Active {
		return domain.Reservation{}, domain.ErrSpaceInactive
	}

	now := s.clock.Now()
	if !iv.Start.After(now) {
		return domain.Reservation{}, domain.ErrInvalidInterval
	}
	if iv.End.After(now.Add(s.horizon)) {
		return domain.Reservation{}, domain.ErrHorizonExceeded
	}
	minDuration := pricing.Granularity(space)
	if minDuration < pricing.MinDuration {
		minDuration = pricing.MinDuration
	}
	if iv.Duration() < minDuration {
		return domain.Reservation{}, domain.ErrIntervalTooShort
	}

	quote, err := s.pricer.Quote(space, iv)
	if err != nil {
		return domain.Reservation{}, err
	}

	res := domain.Reservation{
		ID:            uuid.NewString(),
		SpaceID:       space.ID,
		OwnerID:       in.OwnerID,
		Interval:      iv,
		Price:         quote.Amount,
		Currency:      quote.Currency,
		TierLabel:     quote.TierLabel,
		Status:        domain.ReservationHeld,
		HoldExpiresAt: now.Add(s.holdTTL),
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockSpace(txCtx, space.ID); err != nil {
			return err
		}
		taken, err := s.repo.HasOverlap(txCtx, space.ID, iv)
		if err != nil {
			return err
		}
		if taken {
			return domain.ErrIntervalConflict
		}
		return s.repo.CreateReservation(txCtx, res)
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return res, nil
}

// Confirm moves a held reservation to confirmed and records the payment
// session that paid for it. Confirming an already confirmed reservation
// with the same session ref is a no-op success; a different ref means two
// payments claim the same slot and is flagged for manual reconciliation.
func (s *ReservationService) Confirm(ctx context.Context, id, sessionRef string) (domain.Reservation, error) {
	if id == "" || sessionRef == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}

	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		switch res.Status {
		case domain.ReservationHeld:
			if !res.HoldExpiresAt.After(now) {
				// The reaper owns the expiry transition; here the hold is
				// merely unconfirmable.
				s.logger.Printf("confirm rejected reservation=%s reason=hold_expired expired_at=%s", res.ID, res.HoldExpiresAt.Format(time.RFC3339))
				return domain.ErrHoldExpired
			}
			res.Status = domain.ReservationConfirmed
			res.PaymentSessionRef = sessionRef
			res.UpdatedAt = now
			if err := s.repo.UpdateReservation(txCtx, res); err != nil {
				return err
			}
			result = res
			return nil
		case domain.ReservationConfirmed:
			if res.PaymentSessionRef == sessionRef {
				result = res
				return nil
			}
			s.logger.Printf("confirm rejected reservation=%s reason=payment_mismatch have=%s got=%s", res.ID, res.PaymentSessionRef, sessionRef)
			return domain.ErrPaymentMismatch
		case domain.ReservationExpired:
			// Distinct from the generic transition error: the caller should
			// restart the booking rather than treat this as a bad request.
			s.logger.Printf("confirm rejected reservation=%s reason=hold_expired status=%s", res.ID, res.Status)
			return domain.ErrHoldExpired
		default:
			s.logger.Printf("confirm rejected reservation=%s reason=invalid_transition status=%s", res.ID, res.Status)
			return domain.ErrInvalidTransition
		}
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Cancel releases a held or confirmed reservation. Confirmed reservations
// honor the space's cancellation notice; held ones are always cancellable
// by their owner.
func (s *ReservationService) Cancel(ctx context.Context, id, reason string) (domain.Reservation, error) {
	if id == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}

	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		switch res.Status {
		case domain.ReservationHeld:
			// always cancellable
		case domain.ReservationConfirmed:
			space, err := s.spaces.Space(txCtx, res.SpaceID)
			if err != nil {
				return err
			}
			deadline := res.Interval.Start.Add(-space.CancelNotice)
			if now.After(deadline) {
				s.logger.Printf("cancel rejected reservation=%s reason=window_closed deadline=%s", res.ID, deadline.Format(time.RFC3339))
				return domain.ErrCancelWindowClosed
			}
		default:
			s.logger.Printf("cancel rejected reservation=%s reason=invalid_transition status=%s", res.ID, res.Status)
			return domain.ErrInvalidTransition
		}

		res.Status = domain.ReservationCancelled
		res.CancelReason = reason
		res.UpdatedAt = now
		if err := s.repo.UpdateReservation(txCtx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Expire releases a hold whose TTL has passed. Only the reaper calls this;
// losing the race against a concurrent confirm surfaces as
// ErrInvalidTransition, which the reaper discards.
func (s *ReservationService) Expire(ctx context.Context, id string) (domain.Reservation, error) {
	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if res.Status != domain.ReservationHeld {
			s.logger.Printf("expire rejected reservation=%s reason=invalid_transition status=%s", res.ID, res.Status)
			return domain.ErrInvalidTransition
		}
		if res.HoldExpiresAt.After(now) {
			s.logger.Printf("expire rejected reservation=%s reason=not_due expires_at=%s", res.ID, res.HoldExpiresAt.Format(time.RFC3339))
			return domain.ErrInvalidTransition
		}

		res.Status = domain.ReservationExpired
		res.UpdatedAt = now
		if err := s.repo.UpdateReservation(txCtx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Complete marks a confirmed reservation whose interval has fully elapsed.
// Bookkeeping only: the interval never frees up early.
func (s *ReservationService) Complete(ctx context.Context, id string) (domain.Reservation, error) {
	var result domain.Reservation
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		res, err := s.repo.GetReservationForUpdate(txCtx, id)
		if err != nil {
			return err
		}
		now := s.clock.Now()

		if res.Status != domain.ReservationConfirmed || !res.Interval.ElapsedBy(now) {
			s.logger.Printf("complete rejected reservation=%s reason=invalid_transition status=%s", res.ID, res.Status)
			return domain.ErrInvalidTransition
		}

		res.Status = domain.ReservationCompleted
		res.UpdatedAt = now
		if err := s.repo.UpdateReservation(txCtx, res); err != nil {
			return err
		}
		result = res
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

func (s *ReservationService) Get(ctx context.Context, id string) (domain.Reservation, error) {
	if id == "" {
		return domain.Reservation{}, domain.ErrInvalidID
	}
	return s.repo.GetReservation(ctx, id)
}

// Availability lists the occupied intervals of a space inside a window,
// for calendar rendering.
func (s *ReservationService) Availability(ctx context.Context, spaceID string, window domain.Interval) ([]domain.Interval, error) {
	if spaceID == "" {
		return nil, domain.ErrInvalidID
	}
	w, err := domain.NewInterval(window.Start, window.End)
	if err != nil {
		return nil, err
	}
	if _, err := s.spaces.Space(ctx, spaceID); err != nil {
		return nil, err
	}
	return s.repo.ListOccupied(ctx, spaceID, w)
}

// ExpireDue expires all due holds, up to limit. Holds confirmed while the
// sweep runs lose their lock race and are skipped; that is the expected
// outcome, not a failure.
func (s *ReservationService) ExpireDue(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListExpiredHolds(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, err
	}
	expired := 0
	for _, id := range ids {
		if _, err := s.Expire(ctx, id); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			return expired, err
		}
		expired++
	}
	return expired, nil
}

// CompleteElapsed moves confirmed reservations whose interval has passed to
// completed, up to limit.
func (s *ReservationService) CompleteElapsed(ctx context.Context, limit int) (int, error) {
	ids, err := s.repo.ListElapsedConfirmed(ctx, s.clock.Now(), limit)
	if err != nil {
		return 0, err
	}
	completed := 0
	for _, id := range ids {
		if _, err := s.Complete(ctx, id); err != nil {
			if errors.Is(err, domain.ErrInvalidTransition) {
				continue
			}
			return completed, err
		}
		completed++
	}
	return completed, nil
}
