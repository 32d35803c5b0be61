package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

// EventIngestor durably records payment events for asynchronous
// reconciliation.
type EventIngestor interface {
	Ingest(ctx context.Context, ev domain.PaymentEvent) error
}

// HandlePaymentWebhook receives gateway notifications. An event is
// acknowledged with 200 only once it is durably recorded — after that,
// processing outcomes never propagate back to the gateway, which would
// only trigger redelivery storms. When the event cannot be recorded the
// handler answers 503 so the gateway redelivers it.
func HandlePaymentWebhook(inbox EventIngestor) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			writeError(w, http.StatusMethodNotAllowed, codeMethodNotAllowed, "method not allowed")
			return
		}

		var req paymentWebhookRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}
		if req.EventID == "" || req.SessionRef == "" || req.Status == "" {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "event_id, payment_session_ref and status are required")
			return
		}
		occurredAt, err := time.Parse(time.RFC3339, req.Timestamp)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "timestamp must be an RFC 3339 timestamp")
			return
		}

		err = inbox.Ingest(r.Context(), domain.PaymentEvent{
			ID:         req.EventID,
			SessionRef: req.SessionRef,
			Status:     req.Status,
			OccurredAt: occurredAt.UTC(),
		})
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, codeWebhookUnavailable, "try again later")
			return
		}

		writeJSON(w, http.StatusOK, map[string]bool{"received": true})
	}
}

type paymentWebhookRequest struct {
	EventID    string `json:"event_id"`
	SessionRef string `json:"payment_session_ref"`
	Status     string `json:"status"`
	Timestamp  string `json:"timestamp"`
}
