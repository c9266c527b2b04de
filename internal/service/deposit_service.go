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

// DepositService drives the refundable deposit hold lifecycle. The processor
// call always happens first; the local write follows processor confirmation
// and is retried without ever re-issuing the processor call.
type DepositService struct {
	cfg          *config.Config
	reservations *repository.ReservationRepository
	deposits     *repository.DepositRepository
	recon        *repository.ReconciliationRepository
	audit        *repository.AuditLogRepository
	proc         processor.Processor
}

func NewDepositService(
	cfg *config.Config,
	reservations *repository.ReservationRepository,
	deposits *repository.DepositRepository,
	recon *repository.ReconciliationRepository,
	audit *repository.AuditLogRepository,
	proc processor.Processor,
) *DepositService {
	return &DepositService{
		cfg:          cfg,
		reservations: reservations,
		deposits:     deposits,
		recon:        recon,
		audit:        audit,
		proc:         proc,
	}
}

// CaptureOutcome reports a capture. AlreadyDone marks the idempotent case:
// the hold was already captured for the same amount by a concurrent caller.
type CaptureOutcome struct {
	ReservationID uint              `json:"reservation_id"`
	Status        domain.HoldStatus `json:"status"`
	CapturedCents int64             `json:"captured_cents"`
	ChargeRef     string            `json:"charge_ref"`
	AlreadyDone   bool              `json:"already_done"`
}

type ReleaseOutcome struct {
	ReservationID uint              `json:"reservation_id"`
	Status        domain.HoldStatus `json:"status"`
	AlreadyDone   bool              `json:"already_done"`
}

// Authorize creates the deposit hold for a reservation, capped at the
// configured maximum. Fails with already_authorized if a hold exists.
func (s *DepositService) Authorize(ctx context.Context, reservationID uint, paymentInstrument string) (*models.DepositHold, error) {
	if paymentInstrument == "" {
		return nil, domain.Validation("missing_instrument", "payment instrument is required")
	}
	if _, err := s.reservations.GetByID(reservationID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Validation("not_found", "reservation not found")
		}
		return nil, err
	}
	if existing, err := s.deposits.GetByReservationID(reservationID); err == nil && existing != nil {
		return nil, domain.Conflict("already_authorized", "a deposit hold already exists for this reservation")
	}
	hold, err := s.proc.AuthorizeHold(ctx, processor.HoldRequest{
		ReservationID:     reservationID,
		PaymentInstrument: paymentInstrument,
		AmountCents:       s.cfg.Settlement.DepositMaxCents,
		Currency:          s.cfg.Settlement.Currency,
		IdempotencyKey:    fmt.Sprintf("res%d-deposit-hold", reservationID),
	})
	if err != nil {
		if errors.Is(err, processor.ErrDeclined) {
			return nil, domain.Conflict("instrument_rejected", "the payment instrument was declined")
		}
		return nil, domain.External("hold_failed", "could not authorize deposit hold", err)
	}
	rec := &models.DepositHold{
		ReservationID: reservationID,
		ProcessorRef:  hold.Ref,
		MaxCents:      hold.AmountCents,
		Status:        domain.HoldAuthorized,
	}
	err = s.persistAfterProcessor(func() error {
		if err := s.deposits.Create(rec); err != nil {
			return err
		}
		return s.reservations.SetDeposit(reservationID, domain.DepositAuthorized, hold.Ref)
	})
	if err != nil {
		// The hold exists at the processor; surface for reconciliation
		// rather than re-authorizing.
		return nil, s.reconcile(reservationID, "deposit_hold_unrecorded", hold.Ref, hold.AmountCents,
			"deposit hold authorized but not recorded locally")
	}
	log.Printf("[Deposit] reservation=%d authorized hold=%s max=%d", reservationID, hold.Ref, hold.AmountCents)
	return rec, nil
}

// Capture settles part or all of the hold against the guest, on dispute.
// Records litigation and the cause on the reservation for audit.
func (s *DepositService) Capture(ctx context.Context, reservationID uint, amountCents int64, reason string) (*CaptureOutcome, error) {
	if amountCents <= 0 {
		return nil, domain.Validation("invalid_amount", "capture amount must be positive")
	}
	hold, err := s.getHold(reservationID)
	if err != nil {
		return nil, err
	}
	switch hold.Status {
	case domain.HoldCaptured:
		if hold.CapturedCents == amountCents {
			return &CaptureOutcome{
				ReservationID: reservationID,
				Status:        hold.Status,
				CapturedCents: hold.CapturedCents,
				ChargeRef:     hold.ChargeRef,
				AlreadyDone:   true,
			}, nil
		}
		return nil, domain.Conflict("already_captured", fmt.Sprintf("hold already captured for %d cents", hold.CapturedCents))
	case domain.HoldCanceled, domain.HoldExpired:
		return nil, domain.Conflict("not_capturable", "deposit hold is in a terminal state")
	}
	if amountCents > hold.MaxCents {
		return nil, domain.Conflict("amount_exceeds_authorization", fmt.Sprintf("capture amount exceeds the authorized maximum of %d cents", hold.MaxCents))
	}
	capture, err := s.proc.CaptureHold(ctx, hold.ProcessorRef, amountCents, fmt.Sprintf("res%d-deposit-capture", reservationID))
	if err != nil {
		return nil, domain.External("capture_failed", "could not capture deposit hold", err)
	}
	won := false
	err = s.persistAfterProcessor(func() error {
		var perr error
		won, perr = s.deposits.MarkCaptured(reservationID, amountCents, capture.ChargeRef, reason)
		if perr != nil {
			return perr
		}
		if !won {
			return nil
		}
		if perr := s.reservations.SetDepositStatus(reservationID, domain.DepositCaptured); perr != nil {
			return perr
		}
		return s.reservations.SetLitigation(reservationID, reason)
	})
	if err != nil {
		return nil, s.reconcile(reservationID, "deposit_capture_unrecorded", capture.ChargeRef, amountCents,
			"deposit captured at processor but not recorded locally")
	}
	if !won {
		// Lost the race: someone else transitioned the hold first.
		current, rerr := s.getHold(reservationID)
		if rerr != nil {
			return nil, rerr
		}
		if current.Status == domain.HoldCaptured && current.CapturedCents == amountCents {
			return &CaptureOutcome{
				ReservationID: reservationID,
				Status:        current.Status,
				CapturedCents: current.CapturedCents,
				ChargeRef:     current.ChargeRef,
				AlreadyDone:   true,
			}, nil
		}
		return nil, domain.Conflict("not_capturable", "deposit hold state changed concurrently")
	}
	s.audit.Log("deposit.capture", "reservation", fmt.Sprint(reservationID),
		fmt.Sprintf(`{"amount_cents":%d,"reason":%q,"charge_ref":%q}`, amountCents, reason, capture.ChargeRef))
	log.Printf("[Deposit] reservation=%d captured %d cents charge=%s reason=%s", reservationID, amountCents, capture.ChargeRef, reason)
	return &CaptureOutcome{
		ReservationID: reservationID,
		Status:        domain.HoldCaptured,
		CapturedCents: amountCents,
		ChargeRef:     capture.ChargeRef,
	}, nil
}

// Release cancels the authorization. Idempotent: releasing an already
// canceled or expired hold returns the current state without error.
func (s *DepositService) Release(ctx context.Context, reservationID uint) (*ReleaseOutcome, error) {
	hold, err := s.getHold(reservationID)
	if err != nil {
		return nil, err
	}
	switch hold.Status {
	case domain.HoldCaptured:
		return nil, domain.Conflict("not_capturable", "deposit hold is already captured")
	case domain.HoldCanceled, domain.HoldExpired:
		return &ReleaseOutcome{ReservationID: reservationID, Status: hold.Status, AlreadyDone: true}, nil
	}
	if _, err := s.proc.CancelHold(ctx, hold.ProcessorRef, fmt.Sprintf("res%d-deposit-cancel", reservationID)); err != nil {
		return nil, domain.External("release_failed", "could not cancel deposit hold", err)
	}
	won := false
	err = s.persistAfterProcessor(func() error {
		var perr error
		won, perr = s.deposits.MarkCanceled(reservationID)
		if perr != nil {
			return perr
		}
		if !won {
			return nil
		}
		return s.reservations.SetDepositStatus(reservationID, domain.DepositReleased)
	})
	if err != nil {
		return nil, s.reconcile(reservationID, "deposit_release_unrecorded", hold.ProcessorRef, 0,
			"deposit hold canceled at processor but not recorded locally")
	}
	if !won {
		current, rerr := s.getHold(reservationID)
		if rerr != nil {
			return nil, rerr
		}
		if current.Status == domain.HoldCanceled || current.Status == domain.HoldExpired {
			return &ReleaseOutcome{ReservationID: reservationID, Status: current.Status, AlreadyDone: true}, nil
		}
		return nil, domain.Conflict("not_capturable", "deposit hold state changed concurrently")
	}
	log.Printf("[Deposit] reservation=%d released hold=%s", reservationID, hold.ProcessorRef)
	return &ReleaseOutcome{ReservationID: reservationID, Status: domain.HoldCanceled}, nil
}

// MarkExpired records processor-side hold expiry observed via webhook.
func (s *DepositService) MarkExpired(reservationID uint) error {
	won, err := s.deposits.MarkExpired(reservationID)
	if err != nil {
		return err
	}
	if won {
		log.Printf("[Deposit] reservation=%d hold expired at processor", reservationID)
		return s.reservations.SetDepositStatus(reservationID, domain.DepositReleased)
	}
	return nil
}

func (s *DepositService) getHold(reservationID uint) (*models.DepositHold, error) {
	hold, err := s.deposits.GetByReservationID(reservationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Validation("not_found", "no deposit hold for this reservation")
		}
		return nil, err
	}
	return hold, nil
}

// reconcile queues the operator task for a processor effect that could not
// be recorded locally and returns the matching error, carrying the
// reservation and processor refs for manual review.
func (s *DepositService) reconcile(reservationID uint, kind, processorRef string, amountCents int64, note string) error {
	task := &models.ReconciliationTask{
		Kind:          kind,
		ReservationID: reservationID,
		AmountCents:   amountCents,
		ProcessorRef:  processorRef,
		Note:          note,
	}
	if err := s.recon.Create(task); err != nil {
		log.Printf("[Deposit] CRITICAL: could not queue reconciliation task for reservation=%d ref=%s: %v", reservationID, processorRef, err)
	}
	derr := domain.Reconciliation(0, processorRef, note)
	derr.ReservationID = reservationID
	return derr
}

// persistAfterProcessor retries the local write a few times. The processor
// side effect already happened, so failing here means reconciliation, never
// a second processor call.
func (s *DepositService) persistAfterProcessor(write func() error) error {
	var err error
	for attempt := 0; attempt < 3; attempt++ {
		if err = write(); err == nil {
			return nil
		}
		log.Printf("[Deposit] local write failed (attempt %d): %v", attempt+1, err)
		time.Sleep(time.Duration(attempt+1) * 100 * time.Millisecond)
	}
	return err
}
