package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"subly/config"
	"subly/internal/domain"
	"subly/internal/models"
	"subly/internal/repository"
	"subly/pkg/processor"

	"gorm.io/gorm"
)

// PayoutService moves a payee's accumulated transferred balance to their
// external payout destination, zeroing the internal balance only after the
// processor confirms.
type PayoutService struct {
	cfg      *config.Config
	balances *repository.BalanceRepository
	accounts *AccountService
	payouts  *repository.PayoutRepository
	recon    *repository.ReconciliationRepository
	audit    *repository.AuditLogRepository
	proc     processor.Processor
}

func NewPayoutService(
	cfg *config.Config,
	balances *repository.BalanceRepository,
	accounts *AccountService,
	payouts *repository.PayoutRepository,
	recon *repository.ReconciliationRepository,
	audit *repository.AuditLogRepository,
	proc processor.Processor,
) *PayoutService {
	return &PayoutService{
		cfg:      cfg,
		balances: balances,
		accounts: accounts,
		payouts:  payouts,
		recon:    recon,
		audit:    audit,
		proc:     proc,
	}
}

type PayoutResult struct {
	PayeeID      uint   `json:"payee_id"`
	OrderID      string `json:"order_id"`
	AmountCents  int64  `json:"amount_cents"`
	ProcessorRef string `json:"processor_ref"`
}

// Payout dispatches the payee's full owed balance. The order ID is derived
// from the payee and their lifetime-paid watermark, so duplicate or retried
// dispatches of the same balance share one processor idempotency key and the
// processor pays at most once per cycle. If the local balance move fails
// after the processor confirmed, the payout is NOT retried automatically: a
// reconciliation task is queued and a distinguished reconciliation_required
// error is returned for operator review.
func (s *PayoutService) Payout(ctx context.Context, payeeID uint) (*PayoutResult, error) {
	bal, err := s.balances.GetOrCreate(payeeID)
	if err != nil {
		return nil, err
	}
	if bal.OwedCents == 0 {
		return nil, domain.Conflict("nothing_to_pay", "no balance owed to this payee")
	}
	elig, err := s.accounts.CheckEligibility(ctx, payeeID)
	if err != nil {
		return nil, err
	}
	if !elig.PayoutsEnabled {
		return nil, domain.Conflict("account_not_ready", "payee account is not payout-eligible")
	}

	rec, err := s.claimOrder(payeeID, bal)
	if err != nil {
		return nil, err
	}
	if rec.Status == domain.PayoutConfirmed {
		// This cycle was already dispatched; the balance snapshot the caller
		// read predates the move.
		return payoutResult(rec), nil
	}

	receipt, err := s.proc.CreatePayout(ctx, processor.PayoutRequest{
		AmountCents:    rec.AmountCents,
		Currency:       s.cfg.Settlement.Currency,
		Destination:    elig.AccountRef,
		IdempotencyKey: rec.OrderID,
	})
	if err != nil {
		rec.Status = domain.PayoutFailed
		_ = s.payouts.Update(rec)
		return nil, domain.External("payout_failed", "processor rejected the payout", err)
	}

	// The created->confirmed transition decides which of the duplicate
	// dispatchers owns the balance move. The processor deduped on the shared
	// order ID, so there is exactly one payment either way.
	won, err := s.payouts.MarkConfirmed(rec.OrderID, receipt.Ref, time.Now())
	if err != nil {
		return nil, err
	}
	if !won {
		current, gerr := s.payouts.GetByOrderID(rec.OrderID)
		if gerr != nil {
			return nil, gerr
		}
		if current.Status == domain.PayoutConfirmed {
			return payoutResult(current), nil
		}
		return nil, domain.Conflict("payout_in_progress", "a concurrent dispatch changed this order")
	}

	moved, err := s.balances.SettlePayout(payeeID, rec.AmountCents)
	if err != nil || !moved {
		// Money left the platform but the local move did not land. Never
		// auto-retried: that would risk a double payment.
		rec.Status = domain.PayoutUnrecorded
		rec.ProcessorRef = receipt.Ref
		_ = s.payouts.Update(rec)
		task := &models.ReconciliationTask{
			Kind:         "payout_unrecorded",
			PayeeID:      payeeID,
			AmountCents:  rec.AmountCents,
			ProcessorRef: receipt.Ref,
			Note:         fmt.Sprintf("payout %s confirmed by processor; owed balance move failed", rec.OrderID),
		}
		if cerr := s.recon.Create(task); cerr != nil {
			log.Printf("[Payout] CRITICAL: could not queue reconciliation task for payee=%d ref=%s: %v", payeeID, receipt.Ref, cerr)
		}
		log.Printf("[Payout] payee=%d paid but unrecorded amount=%d ref=%s", payeeID, rec.AmountCents, receipt.Ref)
		return nil, domain.Reconciliation(payeeID, receipt.Ref, "payout confirmed by processor but not recorded locally; queued for operator review")
	}

	s.audit.Log("payout.dispatched", "payee", fmt.Sprint(payeeID),
		fmt.Sprintf(`{"order_id":%q,"amount_cents":%d,"processor_ref":%q}`, rec.OrderID, rec.AmountCents, receipt.Ref))
	log.Printf("[Payout] payee=%d paid %d cents ref=%s", payeeID, rec.AmountCents, receipt.Ref)
	return &PayoutResult{
		PayeeID:      payeeID,
		OrderID:      rec.OrderID,
		AmountCents:  rec.AmountCents,
		ProcessorRef: receipt.Ref,
	}, nil
}

// claimOrder finds or creates the payout order for the payee's current
// dispatch cycle. One cycle per lifetime-paid watermark: every caller that
// read the same balance lands on the same order row and the same processor
// idempotency key.
func (s *PayoutService) claimOrder(payeeID uint, bal *models.PayeeBalance) (*models.Payout, error) {
	orderID := fmt.Sprintf("payee%d-payout-%d", payeeID, bal.LifetimePaidCents)
	rec, err := s.payouts.GetByOrderID(orderID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
		rec = &models.Payout{
			PayeeID:     payeeID,
			OrderID:     orderID,
			AmountCents: bal.OwedCents,
			Status:      domain.PayoutCreated,
		}
		if cerr := s.payouts.Create(rec); cerr == nil {
			return rec, nil
		}
		// Unique order index: a concurrent dispatch created the row first.
		if rec, err = s.payouts.GetByOrderID(orderID); err != nil {
			return nil, err
		}
	}
	switch rec.Status {
	case domain.PayoutUnrecorded:
		return nil, domain.Conflict("reconciliation_pending",
			"a previous dispatch for this balance awaits operator reconciliation")
	case domain.PayoutFailed:
		rec.Status = domain.PayoutCreated
		rec.AmountCents = bal.OwedCents
		if err := s.payouts.Update(rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

func payoutResult(rec *models.Payout) *PayoutResult {
	return &PayoutResult{
		PayeeID:      rec.PayeeID,
		OrderID:      rec.OrderID,
		AmountCents:  rec.AmountCents,
		ProcessorRef: rec.ProcessorRef,
	}
}
