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

// SettlementService is the core state machine: once a stay is eligible for
// payout it computes the shares, verifies both payee accounts, creates one
// transfer per payee and persists the outcome idempotently. Transfers are
// created at most once per reservation, enforced by conditional updates on
// the persisted transfer refs, not by in-process locking.
type SettlementService struct {
	cfg          *config.Config
	reservations *repository.ReservationRepository
	accounts     *AccountService
	balances     *repository.BalanceRepository
	audit        *repository.AuditLogRepository
	proc         processor.Processor
}

func NewSettlementService(
	cfg *config.Config,
	reservations *repository.ReservationRepository,
	accounts *AccountService,
	balances *repository.BalanceRepository,
	audit *repository.AuditLogRepository,
	proc processor.Processor,
) *SettlementService {
	return &SettlementService{
		cfg:          cfg,
		reservations: reservations,
		accounts:     accounts,
		balances:     balances,
		audit:        audit,
		proc:         proc,
	}
}

type SettlementResult struct {
	ReservationID         uint   `json:"reservation_id"`
	TenantTransferRef     string `json:"tenant_transfer_ref"`
	ProprietorTransferRef string `json:"proprietor_transfer_ref"`
	PlatformCents         int64  `json:"platform_cents"`
	TenantCents           int64  `json:"tenant_cents"`
	ProprietorCents       int64  `json:"proprietor_cents"`
	AlreadySettled        bool   `json:"already_settled"`
}

// Settle runs the settlement for one reservation. Safe to call repeatedly
// and concurrently: a second call returns the same transfer refs, and a
// retry after a partial failure completes only the missing transfer.
func (s *SettlementService) Settle(ctx context.Context, reservationID uint) (*SettlementResult, error) {
	res, err := s.reservations.GetByID(reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Validation("not_found", "reservation not found")
		}
		return nil, err
	}
	if res.BalancesAllocated {
		return s.resultFor(res, true), nil
	}
	if err := s.checkSettleable(res); err != nil {
		return nil, err
	}
	if !res.SharesComputed {
		shares, err := ComputeShares(res.TotalCents, s.cfg.Settlement.CommissionBps, s.cfg.Settlement.TenantShareBps)
		if err != nil {
			return nil, err
		}
		if _, err := s.reservations.SetShares(res.ID, shares.PlatformCents, shares.TenantCents, shares.ProprietorCents); err != nil {
			return nil, err
		}
		// Re-read: a concurrent caller may have written a different split first.
		if res, err = s.reservations.GetByID(res.ID); err != nil {
			return nil, err
		}
	}

	tenantElig, err := s.accounts.CheckEligibility(ctx, res.TenantID)
	if err != nil {
		return nil, err
	}
	if !tenantElig.Eligible {
		return nil, domain.Conflict("payee_not_eligible", fmt.Sprintf("main tenant %d is not transfer-eligible", res.TenantID))
	}
	propElig, err := s.accounts.CheckEligibility(ctx, res.ProprietorID)
	if err != nil {
		return nil, err
	}
	if !propElig.Eligible {
		return nil, domain.Conflict("payee_not_eligible", fmt.Sprintf("proprietor %d is not transfer-eligible", res.ProprietorID))
	}

	tenantRef, err := s.ensureTransfer(ctx, res, "tenant", res.TenantID, res.TenantCents,
		res.TenantTransferRef, tenantElig.AccountRef, s.reservations.SetTenantTransferRef)
	if err != nil {
		return nil, err
	}
	propRef, err := s.ensureTransfer(ctx, res, "proprietor", res.ProprietorID, res.ProprietorCents,
		res.ProprietorTransferRef, propElig.AccountRef, s.reservations.SetProprietorTransferRef)
	if err != nil {
		if tenantRef != "" {
			// First transfer exists, second failed: money movement is not
			// rolled back. The persisted tenant ref lets a retry complete
			// only the missing half.
			return nil, domain.Partial(res.ID, tenantRef,
				"tenant transfer created but proprietor transfer failed; retry to complete")
		}
		return nil, err
	}

	if won, err := s.reservations.MarkBalancesAllocated(res.ID); err != nil {
		return nil, err
	} else if won {
		if _, err := s.reservations.TransitionStatus(res.ID, domain.ReservationConfirmed, domain.ReservationCompleted); err != nil {
			return nil, err
		}
		s.audit.Log("settlement.completed", "reservation", fmt.Sprint(res.ID),
			fmt.Sprintf(`{"tenant_transfer":%q,"proprietor_transfer":%q}`, tenantRef, propRef))
		log.Printf("[Settle] reservation=%d settled tenant=%s proprietor=%s", res.ID, tenantRef, propRef)
	}

	res, err = s.reservations.GetByID(res.ID)
	if err != nil {
		return nil, err
	}
	return s.resultFor(res, false), nil
}

// checkSettleable enforces the transition guard: a completed, non-cancelled
// stay that is flagged ready and not yet allocated.
func (s *SettlementService) checkSettleable(res *models.Reservation) error {
	switch res.Status {
	case domain.ReservationCancelled:
		return domain.Conflict("reservation_cancelled", "cancelled reservations are not settled")
	case domain.ReservationPending:
		return domain.Conflict("not_confirmed", "reservation was never confirmed")
	case domain.ReservationConfirmed:
		if res.EndDate.After(time.Now()) {
			return domain.Conflict("stay_not_ended", "the stay has not ended yet")
		}
	}
	if !res.ReadyForPayout {
		return domain.Conflict("not_ready", "reservation is not flagged ready for payout")
	}
	return nil
}

// ensureTransfer creates the payee's transfer unless a ref already exists.
// The conditional ref write decides a single winner; only the winner
// credits the payee's owed balance, so retries cannot double-credit.
func (s *SettlementService) ensureTransfer(
	ctx context.Context,
	res *models.Reservation,
	role string,
	payeeID uint,
	amountCents int64,
	existingRef, destination string,
	setRef func(uint, string) (bool, error),
) (string, error) {
	if existingRef != "" {
		return existingRef, nil
	}
	if amountCents == 0 {
		return "", nil
	}
	transfer, err := s.proc.CreateTransfer(ctx, processor.TransferRequest{
		AmountCents:    amountCents,
		Currency:       s.cfg.Settlement.Currency,
		Destination:    destination,
		IdempotencyKey: fmt.Sprintf("res%d-%s-transfer", res.ID, role),
		Description:    fmt.Sprintf("reservation %d %s share", res.ID, role),
	})
	if err != nil {
		return "", domain.External("transfer_failed", fmt.Sprintf("could not create %s transfer", role), err)
	}
	won, err := setRef(res.ID, transfer.Ref)
	if err != nil {
		return "", err
	}
	if !won {
		// A concurrent settle wrote a ref first; ours is the same transfer
		// thanks to the idempotency key. Use the persisted value.
		current, rerr := s.reservations.GetByID(res.ID)
		if rerr != nil {
			return "", rerr
		}
		if role == "tenant" {
			return current.TenantTransferRef, nil
		}
		return current.ProprietorTransferRef, nil
	}
	if err := s.balances.Credit(payeeID, amountCents); err != nil {
		return "", err
	}
	log.Printf("[Settle] reservation=%d %s transfer=%s amount=%d payee=%d", res.ID, role, transfer.Ref, amountCents, payeeID)
	return transfer.Ref, nil
}

func (s *SettlementService) resultFor(res *models.Reservation, already bool) *SettlementResult {
	return &SettlementResult{
		ReservationID:         res.ID,
		TenantTransferRef:     res.TenantTransferRef,
		ProprietorTransferRef: res.ProprietorTransferRef,
		PlatformCents:         res.PlatformCents,
		TenantCents:           res.TenantCents,
		ProprietorCents:       res.ProprietorCents,
		AlreadySettled:        already,
	}
}
