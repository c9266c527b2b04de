package service

import (
	"context"
	"testing"
	"time"
)

// TestSweepDue settles every due reservation and keeps going when one fails:
// one payee here is ineligible, the other reservation must still settle.
func TestSweepDue(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	good := env.settleableReservation(t, 101, 202, 70000)
	bad := env.settleableReservation(t, 101, 303, 50000)
	env.proc.SetAccountState(env.accountRef(t, 303), false, false, []string{"identity_document"})

	outcomes, err := env.sweeper.SweepDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("SweepDue: %v", err)
	}
	if len(outcomes) != 2 {
		t.Fatalf("outcomes: got %d, want 2", len(outcomes))
	}
	byID := map[uint]SweepOutcome{}
	for _, o := range outcomes {
		byID[o.ReservationID] = o
	}
	if o := byID[good.ID]; !o.Settled || o.Error != "" {
		t.Errorf("good reservation outcome: %+v", o)
	}
	if o := byID[bad.ID]; o.Settled || o.Error == "" {
		t.Errorf("bad reservation outcome: %+v", o)
	}
	if got := env.reload(t, good.ID); !got.BalancesAllocated {
		t.Error("good reservation not settled")
	}
	if got := env.reload(t, bad.ID); got.BalancesAllocated {
		t.Error("bad reservation settled despite ineligible payee")
	}
}

// TestSweepRerunSkipsSettled: once a reservation is completed it no longer
// matches the due query, so a rerun does nothing.
func TestSweepRerunSkipsSettled(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	env.settleableReservation(t, 101, 202, 70000)

	first, err := env.sweeper.SweepDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("first sweep: %v", err)
	}
	if len(first) != 1 || !first[0].Settled {
		t.Fatalf("first sweep outcomes: %+v", first)
	}

	second, err := env.sweeper.SweepDue(ctx, time.Now())
	if err != nil {
		t.Fatalf("second sweep: %v", err)
	}
	if len(second) != 0 {
		t.Errorf("second sweep picked up %d reservations", len(second))
	}
	if owed := env.owed(t, 101); owed != 40740 {
		t.Errorf("tenant owed after rerun: got %d, want 40740", owed)
	}
}

// TestSweepCutoffExcludesFutureStays: a reservation ending after the cutoff
// is left alone.
func TestSweepCutoffExcludesFutureStays(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)

	cutoff := time.Now().AddDate(0, 0, -7) // stay ended 3 days ago
	outcomes, err := env.sweeper.SweepDue(ctx, cutoff)
	if err != nil {
		t.Fatalf("SweepDue: %v", err)
	}
	if len(outcomes) != 0 {
		t.Errorf("outcomes before cutoff: %+v", outcomes)
	}
	if got := env.reload(t, res.ID); got.BalancesAllocated {
		t.Error("reservation settled ahead of its cutoff")
	}
}
