package scheduling

import (
	"time"

	"github.com/m04kA/SMC-ConsultationService/internal/domain"
)

// QuotaDecision outcome of the quota gate
type QuotaDecision string

const (
	QuotaPermitted             QuotaDecision = "permitted"
	QuotaExceeded              QuotaDecision = "quota_exceeded"
	QuotaAdvanceWindowExceeded QuotaDecision = "advance_window_exceeded"
)

// QuotaResult decision plus the numbers a UI shows next to it
type QuotaResult struct {
	Decision       QuotaDecision
	Tier           domain.Tier
	Used           int
	Limit          int // domain.Unlimited for no limit
	MaxAdvanceDays int
}

func (r QuotaResult) IsPermitted() bool {
	return r.Decision == QuotaPermitted
}

// Remaining returns how many bookings are left in the period, -1 when unlimited
func (r QuotaResult) Remaining() int {
	if r.Limit == domain.Unlimited {
		return domain.Unlimited
	}
	if left := r.Limit - r.Used; left > 0 {
		return left
	}
	return 0
}

// QuotaGate evaluates subscription limits. Stateless: used is read by the
// caller inside the same transaction that will increment it.
type QuotaGate struct{}

// NewQuotaGate creates a quota gate
func NewQuotaGate() *QuotaGate {
	return &QuotaGate{}
}

// Evaluate checks the advance horizon first, then the per-period count.
// desiredDate more than MaxAdvanceDays calendar days after now is rejected;
// used >= limit is rejected unless the plan is unlimited.
func (g *QuotaGate) Evaluate(plan domain.SubscriptionPlan, used int, desiredDate time.Time, now time.Time) QuotaResult {
	result := QuotaResult{
		Decision:       QuotaPermitted,
		Tier:           plan.Tier,
		Used:           used,
		Limit:          plan.MaxBookingsPerPeriod,
		MaxAdvanceDays: plan.MaxAdvanceDays,
	}

	if plan.MaxAdvanceDays > 0 && DaysBetween(now, desiredDate) > plan.MaxAdvanceDays {
		result.Decision = QuotaAdvanceWindowExceeded
		return result
	}

	if !plan.IsUnlimited() && used >= plan.MaxBookingsPerPeriod {
		result.Decision = QuotaExceeded
		return result
	}

	return result
}
