package domain

import "time"

type TierKind string

const (
	TierHourly  TierKind = "hourly"
	TierHalfDay TierKind = "half_day"
	TierDaily   TierKind = "daily"
	TierMonthly TierKind = "monthly"
	TierCustom  TierKind = "custom"
)

// KnownTierKind reports whether k is one of the supported tier kinds.
func KnownTierKind(k TierKind) bool {
	switch k {
	case TierHourly, TierHalfDay, TierDaily, TierMonthly, TierCustom:
		return true
	}
	return false
}

// PricingTier is one rate a space can be booked at. Price is in minor
// currency units (cents).
type PricingTier struct {
	Kind  TierKind
	Label string
	Price int64
}

// Space is bookable reference data owned by the catalog; the reservation
// engine treats it as read-only.
type Space struct {
	ID           string
	Name         string
	Capacity     int
	Currency     string
	Active       bool
	CancelNotice time.Duration
	Tiers        []PricingTier
	CreatedAt    time.Time
}

// Tier returns the tier of the given kind, if the space defines one.
func (s Space) Tier(kind TierKind) (PricingTier, bool) {
	for _, t := range s.Tiers {
		if t.Kind == kind {
			return t, true
		}
	}
	return PricingTier{}, false
}
