package service

import (
	"testing"
	"time"
)

// TestComputeSharesWorkedExample checks the documented 700.00 split: 3%
// commission to the platform, then 60/40 between tenant and proprietor.
func TestComputeSharesWorkedExample(t *testing.T) {
	shares, err := ComputeShares(70000, 300, 6000)
	if err != nil {
		t.Fatalf("ComputeShares: %v", err)
	}
	if shares.TenantCents != 40740 {
		t.Errorf("tenant share: got %d, want 40740", shares.TenantCents)
	}
	if shares.ProprietorCents != 27160 {
		t.Errorf("proprietor share: got %d, want 27160", shares.ProprietorCents)
	}
	if shares.PlatformCents != 2100 {
		t.Errorf("platform share: got %d, want 2100", shares.PlatformCents)
	}
}

// TestComputeSharesSumExact verifies the shares reconcile to the total for
// awkward amounts: the rounding remainder always lands on the platform.
func TestComputeSharesSumExact(t *testing.T) {
	totals := []int64{0, 1, 99, 100, 101, 333, 9999, 70000, 123457, 999999999}
	for _, total := range totals {
		shares, err := ComputeShares(total, 300, 6000)
		if err != nil {
			t.Fatalf("ComputeShares(%d): %v", total, err)
		}
		sum := shares.PlatformCents + shares.TenantCents + shares.ProprietorCents
		if sum != total {
			t.Errorf("total %d: shares sum to %d", total, sum)
		}
		if shares.TenantCents < 0 || shares.ProprietorCents < 0 || shares.PlatformCents < 0 {
			t.Errorf("total %d: negative share %+v", total, shares)
		}
	}
}

func TestComputeSharesRejectsNegative(t *testing.T) {
	if _, err := ComputeShares(-1, 300, 6000); err == nil {
		t.Fatal("expected error for negative total")
	}
}

// TestCancellationPenaltyTiers covers the tier boundaries: days until
// arrival is ceil((start-now)/24h), and the boundary values 2 and 30 select
// the lower-penalty tier.
func TestCancellationPenaltyTiers(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		start    time.Time
		wantBps  int
		wantWhy  string
	}{
		{"45 days out", now.Add(45 * 24 * time.Hour), 1500, CancelReasonEarly},
		{"exactly 30 days out", now.Add(30 * 24 * time.Hour), 1500, CancelReasonEarly},
		{"10 days out", now.Add(10 * 24 * time.Hour), 2500, CancelReasonStandard},
		{"exactly 2 days out", now.Add(2 * 24 * time.Hour), 2500, CancelReasonStandard},
		{"12 hours out", now.Add(12 * time.Hour), 5000, CancelReasonLate},
		{"1 day after arrival", now.Add(-24 * time.Hour), 5000, CancelReasonLate},
		{"exactly 2 days after arrival", now.Add(-2 * 24 * time.Hour), 5000, CancelReasonLate},
		{"3 days after arrival", now.Add(-3 * 24 * time.Hour), 5000, CancelReasonPostArrival},
	}
	for _, tc := range cases {
		p := ComputeCancellationPenalty(tc.start, now, 20000)
		if p.RateBps != tc.wantBps {
			t.Errorf("%s: rate got %d, want %d", tc.name, p.RateBps, tc.wantBps)
		}
		if p.Reason != tc.wantWhy {
			t.Errorf("%s: reason got %s, want %s", tc.name, p.Reason, tc.wantWhy)
		}
	}
}

// TestCancellationPenaltyAmount: 10 days before arrival on 200.00 is a 25%
// penalty of 50.00.
func TestCancellationPenaltyAmount(t *testing.T) {
	now := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p := ComputeCancellationPenalty(now.Add(10*24*time.Hour), now, 20000)
	if p.RateBps != 2500 {
		t.Errorf("rate: got %d, want 2500", p.RateBps)
	}
	if p.AmountCents != 5000 {
		t.Errorf("amount: got %d, want 5000", p.AmountCents)
	}
}
