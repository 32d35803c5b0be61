package http

import (
	"encoding/json"
	"net/http"
)

const (
	codeMethodNotAllowed     = "method_not_allowed"
	codeNotFound             = "not_found"
	codeInvalidRequestBody   = "invalid_request_body"
	codeValidationError      = "validation_error"
	codeInvalidInterval      = "invalid_interval"
	codeIntervalTooShort     = "interval_too_short"
	codeHorizonExceeded      = "horizon_exceeded"
	codeOwnerRequired        = "owner_required"
	codeInvalidID            = "invalid_id"
	codeSpaceNotFound        = "space_not_found"
	codeSpaceInactive        = "space_inactive"
	codeNoApplicableTier     = "no_applicable_tier"
	codeIntervalConflict     = "interval_conflict"
	codeReservationNotFound  = "reservation_not_found"
	codeCancelWindowClosed   = "cancel_window_closed"
	codeReservationFinalized = "reservation_finalized"
	codePaymentUnavailable   = "payment_session_unavailable"
	codeWebhookUnavailable   = "webhook_unavailable"
	codeForbidden            = "forbidden"
	codeInternalError        = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
