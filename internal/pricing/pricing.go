package pricing

import (
	"time"

	"github.com/hlafethi/coworkmy-booking/internal/domain"
)

const (
	halfDayBlock = 6 * time.Hour
	fullDay      = 24 * time.Hour
	// Monthly rates are prorated over a 30-day month and only apply to
	// stays of at least 28 days.
	monthLength  = 30 * fullDay
	monthMinStay = 28 * fullDay
	// Half-day blocks stop making sense past two blocks; longer stays are
	// priced daily or monthly.
	halfDayMaxStay = 12 * time.Hour

	// MinDuration is the absolute floor for any reservation.
	MinDuration = 15 * time.Minute
)

// Quote is the price for one space/interval pair. Amount is in minor
// currency units.
type Quote struct {
	Amount    int64
	Currency  string
	TierLabel string
}

// Engine prices an interval against a space's tiers. It holds no state:
// the same inputs always produce the same quote, so the amount stored on a
// reservation at hold time can be recomputed for auditing but is never
// silently replaced.
type Engine struct{}

func NewEngine() *Engine {
	return &Engine{}
}

// Quote selects the cheapest applicable tier covering the interval. Ties go
// to the finer-grained tier.
func (e *Engine) Quote(space domain.Space, iv domain.Interval) (Quote, error) {
	if err := iv.Validate(); err != nil {
		return Quote{}, err
	}

	d := iv.Duration()
	var best *Quote

	consider := func(amount int64, label string) {
		if amount <= 0 {
			return
		}
		if best == nil || amount < best.Amount {
			best = &Quote{Amount: amount, Currency: space.Currency, TierLabel: label}
		}
	}

	if tier, ok := space.Tier(domain.TierHourly); ok {
		consider(tier.Price*ceilDiv(d, time.Hour), tier.Label)
	}
	if tier, ok := space.Tier(domain.TierHalfDay); ok && d <= halfDayMaxStay {
		consider(tier.Price*ceilDiv(d, halfDayBlock), tier.Label)
	}
	if tier, ok := space.Tier(domain.TierDaily); ok {
		consider(tier.Price*ceilDiv(d, fullDay), tier.Label)
	}
	if tier, ok := space.Tier(domain.TierMonthly); ok && d >= monthMinStay {
		consider(prorate(tier.Price, d), tier.Label)
	}
	if tier, ok := space.Tier(domain.TierCustom); ok {
		consider(tier.Price, tier.Label)
	}

	if best == nil {
		return Quote{}, domain.ErrNoApplicableTier
	}
	return *best, nil
}

// Granularity is the minimum bookable duration for a space: the block size
// of its finest tier, floored at MinDuration.
func Granularity(space domain.Space) time.Duration {
	if _, ok := space.Tier(domain.TierCustom); ok {
		return MinDuration
	}
	if _, ok := space.Tier(domain.TierHourly); ok {
		return time.Hour
	}
	if _, ok := space.Tier(domain.TierHalfDay); ok {
		return halfDayBlock
	}
	if _, ok := space.Tier(domain.TierDaily); ok {
		return fullDay
	}
	if _, ok := space.Tier(domain.TierMonthly); ok {
		return monthMinStay
	}
	return MinDuration
}

func ceilDiv(d, unit time.Duration) int64 {
	return int64((d + unit - 1) / unit)
}

// prorate charges a monthly rate by the minute, rounded up to the next
// minor unit.
func prorate(monthlyPrice int64, d time.Duration) int64 {
	minutes := int64(d / time.Minute)
	monthMinutes := int64(monthLength / time.Minute)
	return (monthlyPrice*minutes + monthMinutes - 1) / monthMinutes
}
