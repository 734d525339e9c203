package policy

import (
	"context"
	"strings"
	"time"

	"github.com/api-sage/payment-reversal-engine/src/internal/domain"
)

// ReversalWindow allows reversals while the money has not settled, and refunds of
// settled payments for a limited number of working days.
type ReversalWindow struct {
	maxWorkingDays int
}

func NewReversalWindow(maxWorkingDays int) *ReversalWindow {
	return &ReversalWindow{maxWorkingDays: maxWorkingDays}
}

func (p *ReversalWindow) Allow(_ context.Context, in domain.ReversalPolicyInput) bool {
	switch in.Transaction.Status {
	case domain.StatusPending:
		return true
	case domain.StatusApproved:
		if !p.settlementStarted(in) {
			return true
		}
		return !p.RefundWindowExceeded(in)
	case domain.StatusFunded:
		return !p.RefundWindowExceeded(in)
	default:
		return false
	}
}

func (p *ReversalWindow) RefundWindowExceeded(in domain.ReversalPolicyInput) bool {
	if in.Transaction.EffectiveDate.IsZero() {
		return false
	}
	return WorkingDaysBetween(in.Transaction.EffectiveDate, in.Now) > p.maxWorkingDays
}

// settlementStarted reports whether the entity's daily payment run has picked up the payment.
func (p *ReversalWindow) settlementStarted(in domain.ReversalPolicyInput) bool {
	effective := in.Transaction.EffectiveDate
	if effective.IsZero() {
		return false
	}

	now := in.Now.In(effective.Location())
	day := time.Date(effective.Year(), effective.Month(), effective.Day(), 0, 0, 0, 0, effective.Location())
	if now.Before(day) {
		return false
	}

	runAt, ok := parseRunTime(in.RunTime)
	if !ok || !in.HandlesCards {
		return now.After(day.AddDate(0, 0, 1))
	}
	return !now.Before(day.Add(runAt))
}

func parseRunTime(raw string) (time.Duration, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return time.Duration(t.Hour())*time.Hour + time.Duration(t.Minute())*time.Minute, true
}

// WorkingDaysBetween counts weekdays after from up to and including to.
func WorkingDaysBetween(from, to time.Time) int {
	start := time.Date(from.Year(), from.Month(), from.Day(), 0, 0, 0, 0, time.UTC)
	end := time.Date(to.Year(), to.Month(), to.Day(), 0, 0, 0, 0, time.UTC)

	days := 0
	for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
		if d.Weekday() != time.Saturday && d.Weekday() != time.Sunday {
			days++
		}
	}
	return days
}
