package http

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/app"
	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

// ReservationBooker is the minimal interface needed to place a hold.
type ReservationBooker interface {
	CreateHold(ctx context.Context, in app.CreateHoldInput) (domain.Reservation, error)
}

// SessionOpener opens the payment session a new hold redirects to.
type SessionOpener interface {
	OpenSession(ctx context.Context, res domain.Reservation) (domain.PaymentSession, error)
}

// HandleCreateReservation places a hold and opens its payment session. The
// gateway call runs after the hold transaction commits, never under it.
func HandleCreateReservation(svc ReservationBooker, payments SessionOpener, logger *log.Logger) http.HandlerFunc {
	if logger == nil {
		logger = log.Default()
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req createReservationRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		start, end, err := req.parseInterval()
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, codeInvalidInterval, err.Error())
			return
		}

		res, err := svc.CreateHold(r.Context(), app.CreateHoldInput{
			SpaceID:  req.SpaceID,
			OwnerID:  req.OwnerID,
			Interval: domain.Interval{Start: start, End: end},
		})
		if err != nil {
			writeReservationError(w, err)
			return
		}

		session, err := payments.OpenSession(r.Context(), res)
		if err != nil {
			// The hold stands and will be reaped at its TTL; the client
			// may retry the whole booking.
			logger.Printf("open payment session failed reservation=%s err=%v", res.ID, err)
			writeError(w, http.StatusBadGateway, codePaymentUnavailable, "payment session unavailable")
			return
		}

		writeJSON(w, http.StatusCreated, newReservationResponse(res, &session))
	}
}

// ReservationReader serves single-reservation lookups and cancellations.
type ReservationReader interface {
	Get(ctx context.Context, id string) (domain.Reservation, error)
	Cancel(ctx context.Context, id, reason string) (domain.Reservation, error)
}

// HandleReservationByID routes GET /reservations/{id} and
// POST /reservations/{id}/cancel.
func HandleReservationByID(svc ReservationReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
		switch {
		case len(parts) == 2 && parts[0] == "reservations" && parts[1] != "":
			if r.Method != http.MethodGet {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			handleGetReservation(w, r, svc, parts[1])
		case len(parts) == 3 && parts[0] == "reservations" && parts[1] != "" && parts[2] == "cancel":
			if r.Method != http.MethodPost {
				writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
				return
			}
			handleCancelReservation(w, r, svc, parts[1])
		default:
			writeError(w, http.StatusNotFound, codeNotFound, "not found")
		}
	}
}

func handleGetReservation(w http.ResponseWriter, r *http.Request, svc ReservationReader, id string) {
	res, err := svc.Get(r.Context(), id)
	if err != nil {
		writeReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(res, nil))
}

func handleCancelReservation(w http.ResponseWriter, r *http.Request, svc ReservationReader, id string) {
	var req cancelReservationRequest
	if r.Body != nil && r.ContentLength != 0 {
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
	}
	reason := req.Reason
	if reason == "" {
		reason = "user_requested"
	}

	res, err := svc.Cancel(r.Context(), id, reason)
	if err != nil {
		writeReservationError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newReservationResponse(res, nil))
}

func writeReservationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrOwnerRequired):
		writeError(w, http.StatusUnprocessableEntity, codeOwnerRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidInterval):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidInterval, err.Error())
	case errors.Is(err, domain.ErrIntervalTooShort):
		writeError(w, http.StatusUnprocessableEntity, codeIntervalTooShort, err.Error())
	case errors.Is(err, domain.ErrHorizonExceeded):
		writeError(w, http.StatusUnprocessableEntity, codeHorizonExceeded, err.Error())
	case errors.Is(err, domain.ErrNoApplicableTier):
		writeError(w, http.StatusUnprocessableEntity, codeNoApplicableTier, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusUnprocessableEntity, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrSpaceNotFound):
		writeError(w, http.StatusUnprocessableEntity, codeSpaceNotFound, err.Error())
	case errors.Is(err, domain.ErrSpaceInactive):
		writeError(w, http.StatusUnprocessableEntity, codeSpaceInactive, err.Error())
	case errors.Is(err, domain.ErrIntervalConflict):
		writeError(w, http.StatusConflict, codeIntervalConflict, err.Error())
	case errors.Is(err, domain.ErrReservationNotFound):
		writeError(w, http.StatusNotFound, codeReservationNotFound, err.Error())
	case errors.Is(err, domain.ErrCancelWindowClosed):
		writeError(w, http.StatusConflict, codeCancelWindowClosed, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeReservationFinalized, "reservation is already finalized")
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

type createReservationRequest struct {
	SpaceID string `json:"space_id"`
	OwnerID string `json:"owner_id"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

func (r createReservationRequest) parseInterval() (time.Time, time.Time, error) {
	start, err := time.Parse(time.RFC3339, r.Start)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("start must be an RFC 3339 timestamp")
	}
	end, err := time.Parse(time.RFC3339, r.End)
	if err != nil {
		return time.Time{}, time.Time{}, errors.New("end must be an RFC 3339 timestamp")
	}
	return start, end, nil
}

type cancelReservationRequest struct {
	Reason string `json:"reason"`
}

type reservationResponse struct {
	ID            string           `json:"id"`
	SpaceID       string           `json:"space_id"`
	OwnerID       string           `json:"owner_id"`
	Start         time.Time        `json:"start"`
	End           time.Time        `json:"end"`
	Price         int64            `json:"price"`
	Currency      string           `json:"currency"`
	TierLabel     string           `json:"tier_label,omitempty"`
	Status        string           `json:"status"`
	HoldExpiresAt *time.Time       `json:"hold_expires_at,omitempty"`
	Payment       *paymentResponse `json:"payment,omitempty"`
}

type paymentResponse struct {
	Ref         string `json:"ref"`
	RedirectURL string `json:"redirect_url"`
	Status      string `json:"status"`
}

func newReservationResponse(res domain.Reservation, session *domain.PaymentSession) reservationResponse {
	resp := reservationResponse{
		ID:        res.ID,
		SpaceID:   res.SpaceID,
		OwnerID:   res.OwnerID,
		Start:     res.Interval.Start,
		End:       res.Interval.End,
		Price:     res.Price,
		Currency:  res.Currency,
		TierLabel: res.TierLabel,
		Status:    string(res.Status),
	}
	if res.Status == domain.ReservationHeld && !res.HoldExpiresAt.IsZero() {
		expiresAt := res.HoldExpiresAt
		resp.HoldExpiresAt = &expiresAt
	}
	if session != nil {
		resp.Payment = &paymentResponse{
			Ref:         session.Ref,
			RedirectURL: session.RedirectURL,
			Status:      string(session.Status),
		}
	}
	return resp
}
