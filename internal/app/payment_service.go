package app

import (
	"context"
	"errors"
	"log"

	"github.com/hlafethi/coworkmy-booking/internal/clock"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
	"github.com/hlafethi/coworkmy-booking/internal/gateway"
)

type PaymentRepository interface {
	GetOpenSessionByReservation(ctx context.Context, reservationID string) (*domain.PaymentSession, error)
	GetSessionByRef(ctx context.Context, ref string) (domain.PaymentSession, error)
	CreateSession(ctx context.Context, session domain.PaymentSession) error
}

// PaymentService bridges reservations to the external payment gateway. At
// most one pending session exists per reservation; opening a second one
// returns the first. Gateway calls never run under a reservation lock.
type PaymentService struct {
	repo    PaymentRepository
	gateway gateway.Gateway
	clock   clock.Clock
	logger  *log.Logger
}

func NewPaymentService(repo PaymentRepository, gw gateway.Gateway, clk clock.Clock, logger *log.Logger) *PaymentService {
	if logger == nil {
		logger = log.Default()
	}
	return &PaymentService{
		repo:    repo,
		gateway: gw,
		clock:   clk,
		logger:  logger,
	}
}

// OpenSession returns the open payment session for a reservation, creating
// one via the gateway if none exists. Idempotent by reservation id.
func (s *PaymentService) OpenSession(ctx context.Context, res domain.Reservation) (domain.PaymentSession, error) {
	if res.ID == "" {
		return domain.PaymentSession{}, domain.ErrInvalidID
	}

	if existing, err := s.repo.GetOpenSessionByReservation(ctx, res.ID); err != nil {
		return domain.PaymentSession{}, err
	} else if existing != nil {
		return *existing, nil
	}

	checkout, err := s.gateway.CreateCheckout(ctx, gateway.CheckoutInput{
		ReservationID: res.ID,
		Amount:        res.Price,
		Currency:      res.Currency,
	})
	if err != nil {
		return domain.PaymentSession{}, err
	}

	now := s.clock.Now()
	session := domain.PaymentSession{
		Ref:           checkout.Ref,
		ReservationID: res.ID,
		Status:        domain.SessionPending,
		Amount:        res.Price,
		Currency:      res.Currency,
		RedirectURL:   checkout.RedirectURL,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.repo.CreateSession(ctx, session); err != nil {
		// A concurrent open for the same reservation won the insert race;
		// return its session so both callers see the same checkout.
		if errors.Is(err, domain.ErrSessionExists) {
			existing, rerr := s.repo.GetOpenSessionByReservation(ctx, res.ID)
			if rerr != nil {
				return domain.PaymentSession{}, rerr
			}
			if existing != nil {
				s.logger.Printf("open session raced reservation=%s winner=%s loser=%s", res.ID, existing.Ref, checkout.Ref)
				return *existing, nil
			}
		}
		return domain.PaymentSession{}, err
	}
	return session, nil
}

// SessionByRef resolves a session from a gateway reference.
func (s *PaymentService) SessionByRef(ctx context.Context, ref string) (domain.PaymentSession, error) {
	if ref == "" {
		return domain.PaymentSession{}, domain.ErrSessionNotFound
	}
	return s.repo.GetSessionByRef(ctx, ref)
}
