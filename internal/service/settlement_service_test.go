package service

import (
	"context"
	"testing"
	"time"

	"subly/internal/domain"
	"subly/internal/models"
)

// TestSettleLifecycle walks a reservation through settlement: shares are
// computed, one transfer per payee is created, balances are credited and
// the reservation moves to completed.
func TestSettleLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)

	result, err := env.settler.Settle(ctx, res.ID)
	if err != nil {
		t.Fatalf("Settle: %v", err)
	}
	if result.AlreadySettled {
		t.Error("first settle reported already settled")
	}
	if result.TenantTransferRef == "" || result.ProprietorTransferRef == "" {
		t.Fatalf("missing transfer refs: %+v", result)
	}
	if result.TenantCents != 40740 || result.ProprietorCents != 27160 || result.PlatformCents != 2100 {
		t.Errorf("shares: %+v", result)
	}

	got := env.reload(t, res.ID)
	if !got.BalancesAllocated {
		t.Error("balances_allocated not set")
	}
	if got.Status != domain.ReservationCompleted {
		t.Errorf("status: got %s, want completed", got.Status)
	}
	if owed := env.owed(t, 101); owed != 40740 {
		t.Errorf("tenant owed: got %d, want 40740", owed)
	}
	if owed := env.owed(t, 202); owed != 27160 {
		t.Errorf("proprietor owed: got %d, want 27160", owed)
	}
}

// TestSettleIdempotent: a second settle returns the same refs and does not
// credit the balances again.
func TestSettleIdempotent(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)

	first, err := env.settler.Settle(ctx, res.ID)
	if err != nil {
		t.Fatalf("first settle: %v", err)
	}
	second, err := env.settler.Settle(ctx, res.ID)
	if err != nil {
		t.Fatalf("second settle: %v", err)
	}
	if !second.AlreadySettled {
		t.Error("second settle not reported as already settled")
	}
	if second.TenantTransferRef != first.TenantTransferRef ||
		second.ProprietorTransferRef != first.ProprietorTransferRef {
		t.Errorf("transfer refs changed: first=%+v second=%+v", first, second)
	}
	if owed := env.owed(t, 101); owed != 40740 {
		t.Errorf("tenant owed after retry: got %d, want 40740", owed)
	}
	if got := env.reload(t, res.ID); !got.BalancesAllocated {
		t.Error("balances_allocated flipped back")
	}
}

// TestSettlePartialFailure: the proprietor transfer fails after the tenant
// transfer succeeded. The tenant ref must be persisted, the allocation flag
// left unset, and a retry completes only the missing transfer.
func TestSettlePartialFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)
	propRef := env.accountRef(t, 202)
	env.proc.FailTransfersTo[propRef] = true

	_, err := env.settler.Settle(ctx, res.ID)
	if err == nil {
		t.Fatal("expected partial settlement error")
	}
	if !domain.IsKind(err, domain.KindPartialSettlement) {
		t.Fatalf("error kind: got %v", err)
	}
	got := env.reload(t, res.ID)
	if got.TenantTransferRef == "" {
		t.Error("tenant transfer ref not persisted after partial failure")
	}
	if got.ProprietorTransferRef != "" {
		t.Error("proprietor transfer ref set despite failure")
	}
	if got.BalancesAllocated {
		t.Error("balances_allocated set despite partial failure")
	}
	if owed := env.owed(t, 101); owed != 40740 {
		t.Errorf("tenant owed: got %d, want 40740", owed)
	}

	// Retry once the processor accepts the destination again.
	delete(env.proc.FailTransfersTo, propRef)
	result, err := env.settler.Settle(ctx, res.ID)
	if err != nil {
		t.Fatalf("retry settle: %v", err)
	}
	if result.TenantTransferRef != got.TenantTransferRef {
		t.Error("retry recreated the tenant transfer")
	}
	if result.ProprietorTransferRef == "" {
		t.Error("retry did not create the proprietor transfer")
	}
	if owed := env.owed(t, 101); owed != 40740 {
		t.Errorf("tenant owed double-credited: got %d", owed)
	}
	if owed := env.owed(t, 202); owed != 27160 {
		t.Errorf("proprietor owed: got %d, want 27160", owed)
	}
	if got := env.reload(t, res.ID); !got.BalancesAllocated {
		t.Error("balances_allocated not set after retry")
	}
}

// TestSettleGuards rejects reservations that are cancelled, not confirmed,
// still in progress, not flagged ready, or whose payee is ineligible.
func TestSettleGuards(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	cancelled := env.settleableReservation(t, 101, 202, 10000)
	env.db.Model(&models.Reservation{}).Where("id = ?", cancelled.ID).
		Update("status", domain.ReservationCancelled)
	if _, err := env.settler.Settle(ctx, cancelled.ID); !domain.IsCode(err, "reservation_cancelled") {
		t.Errorf("cancelled: got %v", err)
	}

	pending := env.settleableReservation(t, 101, 202, 10000)
	env.db.Model(&models.Reservation{}).Where("id = ?", pending.ID).
		Update("status", domain.ReservationPending)
	if _, err := env.settler.Settle(ctx, pending.ID); !domain.IsCode(err, "not_confirmed") {
		t.Errorf("pending: got %v", err)
	}

	inProgress := env.settleableReservation(t, 101, 202, 10000)
	env.db.Model(&models.Reservation{}).Where("id = ?", inProgress.ID).
		Update("end_date", time.Now().AddDate(0, 0, 5))
	if _, err := env.settler.Settle(ctx, inProgress.ID); !domain.IsCode(err, "stay_not_ended") {
		t.Errorf("in progress: got %v", err)
	}

	notReady := env.settleableReservation(t, 101, 202, 10000)
	env.db.Model(&models.Reservation{}).Where("id = ?", notReady.ID).
		Update("ready_for_payout", false)
	if _, err := env.settler.Settle(ctx, notReady.ID); !domain.IsCode(err, "not_ready") {
		t.Errorf("not ready: got %v", err)
	}

	ineligible := env.settleableReservation(t, 101, 303, 10000)
	env.proc.SetAccountState(env.accountRef(t, 303), false, false, []string{"identity_document"})
	if _, err := env.settler.Settle(ctx, ineligible.ID); !domain.IsCode(err, "payee_not_eligible") {
		t.Errorf("ineligible payee: got %v", err)
	}
}
