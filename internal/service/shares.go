package service

import (
	"math"
	"time"

	"subly/internal/domain"
)

// ShareBreakdown is the split of a reservation's total price. The three
// shares always sum to the total exactly: the platform share carries the
// commission plus every rounding remainder.
type ShareBreakdown struct {
	PlatformCents   int64 `json:"platform_cents"`
	TenantCents     int64 `json:"tenant_cents"`
	ProprietorCents int64 `json:"proprietor_cents"`
}

// ComputeShares splits totalCents between platform, main tenant and
// proprietor. commissionBps is the platform commission on the gross price;
// tenantShareBps is the tenant's portion of the net, the proprietor gets the
// rest. Pure, no I/O.
func ComputeShares(totalCents int64, commissionBps, tenantShareBps int) (ShareBreakdown, error) {
	if totalCents < 0 {
		return ShareBreakdown{}, domain.Validation("invalid_amount", "total price must be non-negative")
	}
	if commissionBps < 0 || commissionBps > 10000 || tenantShareBps < 0 || tenantShareBps > 10000 {
		return ShareBreakdown{}, domain.Validation("invalid_rate", "rates must be between 0 and 10000 bps")
	}
	netBps := int64(10000 - commissionBps)
	tenant := totalCents * netBps * int64(tenantShareBps) / (10000 * 10000)
	proprietor := totalCents * netBps * int64(10000-tenantShareBps) / (10000 * 10000)
	return ShareBreakdown{
		PlatformCents:   totalCents - tenant - proprietor,
		TenantCents:     tenant,
		ProprietorCents: proprietor,
	}, nil
}

// Cancellation penalty reasons, keyed by tier.
const (
	CancelReasonEarly       = "early_cancellation"    // 30+ days before arrival
	CancelReasonStandard    = "standard_cancellation" // 2..29 days before arrival
	CancelReasonLate        = "late_cancellation"     // under 2 days before, up to 2 days past arrival
	CancelReasonPostArrival = "post_arrival"          // more than 2 days past arrival
)

type CancellationPenalty struct {
	RateBps     int    `json:"rate_bps"`
	AmountCents int64  `json:"amount_cents"`
	Reason      string `json:"reason"`
}

// ComputeCancellationPenalty tiers the penalty by days until arrival,
// measured as ceil((stayStart - now) / 24h). Exactly 2 days past arrival
// counts as a late cancellation; the post-arrival tier starts strictly
// beyond that. Both carry the same 50% rate, only the recorded reason
// differs. Pure, no I/O.
func ComputeCancellationPenalty(stayStart, now time.Time, totalCents int64) CancellationPenalty {
	days := int(math.Ceil(stayStart.Sub(now).Hours() / 24))
	var rateBps int
	var reason string
	switch {
	case days >= 30:
		rateBps, reason = 1500, CancelReasonEarly
	case days >= 2:
		rateBps, reason = 2500, CancelReasonStandard
	case days >= -2:
		rateBps, reason = 5000, CancelReasonLate
	default:
		rateBps, reason = 5000, CancelReasonPostArrival
	}
	return CancellationPenalty{
		RateBps:     rateBps,
		AmountCents: totalCents * int64(rateBps) / 10000,
		Reason:      reason,
	}
}
