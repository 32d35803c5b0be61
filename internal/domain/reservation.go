package domain

import "time"

type ReservationStatus string

const (
	ReservationHeld      ReservationStatus = "held"
	ReservationConfirmed ReservationStatus = "confirmed"
	ReservationCancelled ReservationStatus = "cancelled"
	ReservationExpired   ReservationStatus = "expired"
	ReservationCompleted ReservationStatus = "completed"
)

// Terminal reports whether no further transition is allowed from s.
func (s ReservationStatus) Terminal() bool {
	switch s {
	case ReservationCancelled, ReservationExpired, ReservationCompleted:
		return true
	}
	return false
}

var reservationTransitions = map[ReservationStatus][]ReservationStatus{
	ReservationHeld:      {ReservationConfirmed, ReservationCancelled, ReservationExpired},
	ReservationConfirmed: {ReservationCancelled, ReservationCompleted},
}

// CanTransition reports whether the reservation state machine permits
// moving from one status to another.
func CanTransition(from, to ReservationStatus) bool {
	for _, next := range reservationTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Reservation claims one space for one interval. While status is held or
// confirmed the interval is occupied; the set of such intervals per space
// is kept pairwise non-overlapping.
type Reservation struct {
	ID                string
	SpaceID           string
	OwnerID           string
	Interval          Interval
	Price             int64
	Currency          string
	TierLabel         string
	Status            ReservationStatus
	HoldExpiresAt     time.Time
	PaymentSessionRef string
	CancelReason      string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}
