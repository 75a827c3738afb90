package domain

import "time"

const (
	DefaultGraceWindowDays      = 3
	DefaultPartialRefundPercent = 80
)

// RefundPolicy maps how early a cancellation is to the share refunded.
//
// Cancelling GraceWindowDays or more before check-in refunds everything.
// Cancelling later but before the check-in date refunds PartialPercent.
// Cancelling on or after the check-in date refunds nothing.
type RefundPolicy struct {
	GraceWindowDays int
	PartialPercent  int
}

func DefaultRefundPolicy() RefundPolicy {
	return RefundPolicy{
		GraceWindowDays: DefaultGraceWindowDays,
		PartialPercent:  DefaultPartialRefundPercent,
	}
}

func (p RefundPolicy) Validate() error {
	if p.GraceWindowDays < 0 {
		return invalid("grace_window_days", "must not be negative")
	}
	if p.PartialPercent < 0 || p.PartialPercent > 100 {
		return invalid("partial_percent", "must be between 0 and 100")
	}
	return nil
}

func (p RefundPolicy) Refund(amount Money, checkIn, now time.Time) (Money, error) {
	daysBefore := daysBetween(now, checkIn)
	switch {
	case daysBefore <= 0:
		return amount.Percent(0)
	case daysBefore >= p.GraceWindowDays:
		return amount, nil
	default:
		return amount.Percent(p.PartialPercent)
	}
}
