package domain

import "time"

// Interval is a half-open [Start, End) time range on a UTC clock.
type Interval struct {
	Start time.Time
	End   time.Time
}

// NewInterval normalizes both bounds to UTC and validates the range.
func NewInterval(start, end time.Time) (Interval, error) {
	iv := Interval{Start: start.UTC(), End: end.UTC()}
	if err := iv.Validate(); err != nil {
		return Interval{}, err
	}
	return iv, nil
}

func (i Interval) Validate() error {
	if i.Start.IsZero() || i.End.IsZero() {
		return ErrInvalidInterval
	}
	if !i.End.After(i.Start) {
		return ErrInvalidInterval
	}
	return nil
}

// Overlaps reports whether two half-open intervals share any instant.
func (i Interval) Overlaps(other Interval) bool {
	return i.Start.Before(other.End) && other.Start.Before(i.End)
}

func (i Interval) Duration() time.Duration {
	return i.End.Sub(i.Start)
}

// ElapsedBy reports whether the interval has fully passed at the given instant.
func (i Interval) ElapsedBy(now time.Time) bool {
	return !now.Before(i.End)
}
