package domain

import (
	"fmt"
	"time"
)

// Tier subscription tier of a client
type Tier string

const (
	TierFree     Tier = "free"
	TierBasic    Tier = "basic"
	TierPremium  Tier = "premium"
	TierUltimate Tier = "ultimate"
)

// Unlimited marks an unbounded per-period booking limit
const Unlimited = -1

// Tiers in upgrade order
var Tiers = []Tier{TierFree, TierBasic, TierPremium, TierUltimate}

func (t Tier) IsValid() bool {
	for _, known := range Tiers {
		if t == known {
			return true
		}
	}
	return false
}

// SubscriptionPlan booking limits of a tier.
// Chatbot and blog quotas live elsewhere.
type SubscriptionPlan struct {
	Tier                 Tier
	MaxBookingsPerPeriod int // Unlimited = no limit
	MaxAdvanceDays       int // 0 = no horizon limit
}

func (p SubscriptionPlan) IsUnlimited() bool {
	return p.MaxBookingsPerPeriod == Unlimited
}

// PlanCatalog plans by tier, loaded from configuration
type PlanCatalog map[Tier]SubscriptionPlan

// Plan returns the plan of a tier, falling back to Free for unknown tiers
func (c PlanCatalog) Plan(tier Tier) SubscriptionPlan {
	if p, ok := c[tier]; ok {
		return p
	}
	if p, ok := c[TierFree]; ok {
		return p
	}
	return SubscriptionPlan{Tier: TierFree, MaxBookingsPerPeriod: DefaultFreeBookingsPerPeriod, MaxAdvanceDays: DefaultMaxAdvanceDays}
}

// UsageCounter active bookings a client created within a quota period
type UsageCounter struct {
	ClientID  int64
	PeriodKey string
	Count     int
}

// QuotaPeriod granularity of usage counters
type QuotaPeriod string

const (
	QuotaPeriodMonth QuotaPeriod = "month"
	QuotaPeriodWeek  QuotaPeriod = "week"
)

// PeriodKey returns the counter key of the period containing t: "2026-10" or "2026-W42"
func (p QuotaPeriod) PeriodKey(t time.Time) string {
	if p == QuotaPeriodWeek {
		year, week := t.ISOWeek()
		return fmt.Sprintf("%04d-W%02d", year, week)
	}
	return t.Format("2006-01")
}

func (p QuotaPeriod) IsValid() bool {
	return p == QuotaPeriodMonth || p == QuotaPeriodWeek
}
