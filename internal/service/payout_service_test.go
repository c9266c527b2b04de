package service

import (
	"context"
	"testing"

	"subly/internal/domain"
	"subly/internal/models"
)

// TestPayoutLifecycle dispatches a payee's full owed balance and moves it to
// the lifetime-paid counter only after the processor confirms.
func TestPayoutLifecycle(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)
	if _, err := env.settler.Settle(ctx, res.ID); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	result, err := env.payouts.Payout(ctx, 101)
	if err != nil {
		t.Fatalf("Payout: %v", err)
	}
	if result.AmountCents != 40740 {
		t.Errorf("payout amount: got %d, want 40740", result.AmountCents)
	}
	if result.OrderID == "" || result.ProcessorRef == "" {
		t.Errorf("payout refs missing: %+v", result)
	}
	bal, err := env.balanceRepo.GetByPayeeID(101)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.OwedCents != 0 {
		t.Errorf("owed after payout: got %d, want 0", bal.OwedCents)
	}
	if bal.LifetimePaidCents != 40740 {
		t.Errorf("lifetime paid: got %d, want 40740", bal.LifetimePaidCents)
	}
	rec, err := env.payoutRepo.GetByOrderID(result.OrderID)
	if err != nil {
		t.Fatalf("payout record: %v", err)
	}
	if rec.Status != domain.PayoutConfirmed {
		t.Errorf("payout record status: got %s", rec.Status)
	}
	if rec.CompletedAt == nil {
		t.Error("payout record has no completion time")
	}
}

func TestPayoutNothingOwed(t *testing.T) {
	env := newTestEnv(t)
	if _, err := env.payouts.Payout(context.Background(), 777); !domain.IsCode(err, "nothing_to_pay") {
		t.Fatalf("empty balance payout: got %v", err)
	}
}

// TestPayoutAccountNotReady refuses to dispatch when the payee's account has
// payouts disabled, leaving the owed balance intact.
func TestPayoutAccountNotReady(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)
	if _, err := env.settler.Settle(ctx, res.ID); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	env.proc.SetAccountState(env.accountRef(t, 202), true, false, nil)

	if _, err := env.payouts.Payout(ctx, 202); !domain.IsCode(err, "account_not_ready") {
		t.Fatalf("ineligible payout: got %v", err)
	}
	if owed := env.owed(t, 202); owed != 27160 {
		t.Errorf("owed after refused payout: got %d, want 27160", owed)
	}
}

// TestPayoutProcessorFailure marks the order failed and keeps the balance;
// the retry goes through the same order rather than minting a new one.
func TestPayoutProcessorFailure(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)
	if _, err := env.settler.Settle(ctx, res.ID); err != nil {
		t.Fatalf("Settle: %v", err)
	}
	env.proc.FailPayouts = true

	_, err := env.payouts.Payout(ctx, 101)
	if !domain.IsKind(err, domain.KindExternalProcessor) {
		t.Fatalf("failed payout: got %v", err)
	}
	if owed := env.owed(t, 101); owed != 40740 {
		t.Errorf("owed after failed payout: got %d, want 40740", owed)
	}

	env.proc.FailPayouts = false
	result, err := env.payouts.Payout(ctx, 101)
	if err != nil {
		t.Fatalf("retry payout: %v", err)
	}
	if owed := env.owed(t, 101); owed != 0 {
		t.Errorf("owed after retry: got %d, want 0", owed)
	}
	rows, err := env.payoutRepo.ListByPayee(101)
	if err != nil {
		t.Fatalf("list payouts: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("payout rows: got %d, want 1", len(rows))
	}
	if rows[0].OrderID != result.OrderID || rows[0].Status != domain.PayoutConfirmed {
		t.Errorf("retried order: %+v", rows[0])
	}
}

// TestPayoutDuplicateDispatchPaysOnce: a second dispatch fired while the
// first is between the processor call and the balance move. Both read the
// same owed balance, so both land on the same order and the same processor
// idempotency key: one payment, one balance move, both callers get the same
// receipt.
func TestPayoutDuplicateDispatchPaysOnce(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)
	if _, err := env.settler.Settle(ctx, res.ID); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	proc := &interceptProcessor{Processor: env.proc}
	payouts := NewPayoutService(env.cfg, env.balanceRepo, env.accounts, env.payoutRepo, env.reconRepo, env.auditRepo, proc)
	var duplicate *PayoutResult
	proc.afterPayout = func() {
		r, err := payouts.Payout(ctx, 101)
		if err != nil {
			t.Fatalf("duplicate dispatch: %v", err)
		}
		duplicate = r
	}

	first, err := payouts.Payout(ctx, 101)
	if err != nil {
		t.Fatalf("Payout: %v", err)
	}
	if duplicate == nil {
		t.Fatal("duplicate dispatch never ran")
	}
	if first.OrderID != duplicate.OrderID || first.ProcessorRef != duplicate.ProcessorRef {
		t.Errorf("dispatches diverged: %+v vs %+v", first, duplicate)
	}
	if first.AmountCents != 40740 || duplicate.AmountCents != 40740 {
		t.Errorf("amounts: first=%d duplicate=%d", first.AmountCents, duplicate.AmountCents)
	}

	bal, err := env.balanceRepo.GetByPayeeID(101)
	if err != nil {
		t.Fatalf("balance: %v", err)
	}
	if bal.OwedCents != 0 || bal.LifetimePaidCents != 40740 {
		t.Errorf("balance after duplicate dispatch: owed=%d lifetime=%d", bal.OwedCents, bal.LifetimePaidCents)
	}
	rows, err := env.payoutRepo.ListByPayee(101)
	if err != nil {
		t.Fatalf("list payouts: %v", err)
	}
	if len(rows) != 1 {
		t.Errorf("payout rows: got %d, want 1", len(rows))
	}
}

// TestPayoutUnrecordedQueuesReconciliation: the processor confirms but the
// owed balance no longer covers the amount when the local move runs. The
// dispatch must surface reconciliation_required, queue an operator task and
// leave the order marked unrecorded; the cycle is blocked until an operator
// resolves it.
func TestPayoutUnrecordedQueuesReconciliation(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	res := env.settleableReservation(t, 101, 202, 70000)
	if _, err := env.settler.Settle(ctx, res.ID); err != nil {
		t.Fatalf("Settle: %v", err)
	}

	proc := &interceptProcessor{Processor: env.proc}
	proc.afterPayout = func() {
		// The owed balance vanishes before the local move lands.
		env.db.Model(&models.PayeeBalance{}).
			Where("payee_id = ?", uint(101)).
			Update("owed_cents", 0)
	}
	payouts := NewPayoutService(env.cfg, env.balanceRepo, env.accounts, env.payoutRepo, env.reconRepo, env.auditRepo, proc)

	_, err := payouts.Payout(ctx, 101)
	if !domain.IsKind(err, domain.KindReconciliationRequired) {
		t.Fatalf("unrecorded payout: got %v", err)
	}
	de, _ := domain.AsError(err)
	if de.PayeeID != 101 || de.ProcessorRef == "" {
		t.Errorf("error context: %+v", de)
	}

	rows, err := env.payoutRepo.ListByPayee(101)
	if err != nil {
		t.Fatalf("list payouts: %v", err)
	}
	if len(rows) != 1 || rows[0].Status != domain.PayoutUnrecorded || rows[0].ProcessorRef != de.ProcessorRef {
		t.Fatalf("payout record: %+v", rows)
	}

	tasks, err := env.reconRepo.ListOpen()
	if err != nil {
		t.Fatalf("list tasks: %v", err)
	}
	if len(tasks) != 1 {
		t.Fatalf("open tasks: got %d, want 1", len(tasks))
	}
	task := tasks[0]
	if task.Kind != "payout_unrecorded" || task.PayeeID != 101 ||
		task.AmountCents != 40740 || task.ProcessorRef != de.ProcessorRef {
		t.Errorf("task: %+v", task)
	}

	// New credits land while the task is open: the same cycle must not be
	// re-dispatched automatically.
	if err := env.balanceRepo.Credit(101, 5000); err != nil {
		t.Fatalf("credit: %v", err)
	}
	if _, err := payouts.Payout(ctx, 101); !domain.IsCode(err, "reconciliation_pending") {
		t.Errorf("dispatch with open task: got %v", err)
	}
}
