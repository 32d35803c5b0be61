package domain

import "time"

type SessionStatus string

const (
	SessionPending   SessionStatus = "pending"
	SessionSucceeded SessionStatus = "succeeded"
	SessionFailed    SessionStatus = "failed"
	SessionCanceled  SessionStatus = "canceled"
)

func (s SessionStatus) Terminal() bool {
	return s != SessionPending
}

// PaymentSession maps a reservation to an external gateway checkout. It is
// created by the payment bridge and mutated only by the webhook reconciler.
type PaymentSession struct {
	Ref           string
	ReservationID string
	Status        SessionStatus
	Amount        int64
	Currency      string
	RedirectURL   string
	// LastEventID and LastEventAt record the most recent gateway event
	// applied to this session; replays of the same event id and events
	// older than LastEventAt are discarded.
	LastEventID string
	LastEventAt time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// PaymentEvent is one gateway lifecycle notification. Delivery is
// at-least-once: duplicates and reordering are expected.
type PaymentEvent struct {
	ID         string
	SessionRef string
	Status     string
	OccurredAt time.Time
}

// Discrepancy records a payment event that could not be legally applied to
// its reservation; these are kept for manual review, never retried.
type Discrepancy struct {
	ID         string
	SessionRef string
	EventID    string
	Reason     string
	Detail     string
	CreatedAt  time.Time
}
