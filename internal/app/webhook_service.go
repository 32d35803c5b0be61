package app

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/hlafethi/coworkmy-booking/internal/clock"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

type WebhookRepository interface {
	GetSessionByRef(ctx context.Context, ref string) (domain.PaymentSession, error)
	UpdateSession(ctx context.Context, session domain.PaymentSession) error
	CreateDiscrepancy(ctx context.Context, d domain.Discrepancy) error
}

// ReservationTransitioner is the slice of the reservation coordinator the
// reconciler drives.
type ReservationTransitioner interface {
	Confirm(ctx context.Context, id, sessionRef string) (domain.Reservation, error)
	Cancel(ctx context.Context, id, reason string) (domain.Reservation, error)
}

// WebhookService applies gateway payment events to reservations. Each
// distinct event id takes effect at most once; stale and duplicate
// deliveries are acknowledged without effect, and events that cannot be
// legally applied become discrepancy records for manual review.
type WebhookService struct {
	repo         WebhookRepository
	reservations ReservationTransitioner
	clock        clock.Clock
	logger       *log.Logger
}

func NewWebhookService(repo WebhookRepository, reservations ReservationTransitioner, clk clock.Clock, logger *log.Logger) *WebhookService {
	if logger == nil {
		logger = log.Default()
	}
	return &WebhookService{
		repo:         repo,
		reservations: reservations,
		clock:        clk,
		logger:       logger,
	}
}

// Handle processes one payment event. A nil return means the event is
// settled (applied, discarded, or recorded as a discrepancy); a non-nil
// error means a transient failure the queue should redeliver.
func (s *WebhookService) Handle(ctx context.Context, ev domain.PaymentEvent) error {
	if ev.ID == "" || ev.SessionRef == "" {
		s.logger.Printf("webhook dropped reason=malformed event=%q session=%q", ev.ID, ev.SessionRef)
		return nil
	}

	session, err := s.repo.GetSessionByRef(ctx, ev.SessionRef)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			// Unknown or foreign session: ack and drop, never error back
			// to the gateway.
			s.logger.Printf("webhook dropped reason=unknown_session event=%s session=%s", ev.ID, ev.SessionRef)
			return nil
		}
		return err
	}

	if ev.ID == session.LastEventID {
		s.logger.Printf("webhook dropped reason=duplicate event=%s session=%s", ev.ID, session.Ref)
		return nil
	}
	if !session.LastEventAt.IsZero() && !ev.OccurredAt.After(session.LastEventAt) {
		// Ordered by event timestamp, not arrival: a later delivery of an
		// earlier event must not rewind the session.
		s.logger.Printf("webhook dropped reason=stale event=%s session=%s event_at=%s last_at=%s",
			ev.ID, session.Ref, ev.OccurredAt, session.LastEventAt)
		return nil
	}

	var (
		transitionErr error
		nextStatus    domain.SessionStatus
	)
	switch ev.Status {
	case "succeeded":
		nextStatus = domain.SessionSucceeded
		_, transitionErr = s.reservations.Confirm(ctx, session.ReservationID, session.Ref)
	case "failed":
		nextStatus = domain.SessionFailed
		_, transitionErr = s.reservations.Cancel(ctx, session.ReservationID, "payment_failed")
	case "canceled":
		nextStatus = domain.SessionCanceled
		_, transitionErr = s.reservations.Cancel(ctx, session.ReservationID, "payment_failed")
	default:
		return s.recordDiscrepancy(ctx, session, ev, "unknown_status", "unhandled gateway status "+ev.Status)
	}

	if transitionErr != nil {
		switch {
		case errors.Is(transitionErr, domain.ErrHoldExpired),
			errors.Is(transitionErr, domain.ErrInvalidTransition),
			errors.Is(transitionErr, domain.ErrPaymentMismatch),
			errors.Is(transitionErr, domain.ErrCancelWindowClosed):
			// Retries cannot fix a missed deadline or an illegal
			// transition; record and move on.
			return s.recordDiscrepancy(ctx, session, ev, "transition_rejected", transitionErr.Error())
		default:
			return transitionErr
		}
	}

	// Mark the event processed only after the reservation transition has
	// landed; a crash before this point causes a harmless redelivery, not
	// a lost update.
	session.Status = nextStatus
	session.LastEventID = ev.ID
	session.LastEventAt = ev.OccurredAt
	session.UpdatedAt = s.clock.Now()
	if err := s.repo.UpdateSession(ctx, session); err != nil {
		return err
	}

	s.logger.Printf("webhook applied event=%s session=%s status=%s reservation=%s", ev.ID, session.Ref, nextStatus, session.ReservationID)
	return nil
}

func (s *WebhookService) recordDiscrepancy(ctx context.Context, session domain.PaymentSession, ev domain.PaymentEvent, reason, detail string) error {
	d := domain.Discrepancy{
		ID:         uuid.NewString(),
		SessionRef: session.Ref,
		EventID:    ev.ID,
		Reason:     reason,
		Detail:     detail,
		CreatedAt:  s.clock.Now(),
	}
	if err := s.repo.CreateDiscrepancy(ctx, d); err != nil {
		return err
	}
	s.logger.Printf("webhook discrepancy event=%s session=%s reason=%s detail=%q", ev.ID, session.Ref, reason, detail)
	return nil
}
