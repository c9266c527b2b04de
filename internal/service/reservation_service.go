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

	"gorm.io/gorm"
)

// ReservationService drives the booking lifecycle around the settlement
// core: create pending, confirm (shares + deposit hold), cancel (penalty +
// deposit release), mark ready for payout after checkout.
type ReservationService struct {
	cfg          *config.Config
	reservations *repository.ReservationRepository
	deposits     *DepositService
	audit        *repository.AuditLogRepository
}

func NewReservationService(
	cfg *config.Config,
	reservations *repository.ReservationRepository,
	deposits *DepositService,
	audit *repository.AuditLogRepository,
) *ReservationService {
	return &ReservationService{
		cfg:          cfg,
		reservations: reservations,
		deposits:     deposits,
		audit:        audit,
	}
}

type CreateReservationInput struct {
	ListingID    uint      `json:"listing_id"`
	GuestID      uint      `json:"guest_id"`
	TenantID     uint      `json:"tenant_id"`
	ProprietorID uint      `json:"proprietor_id"`
	StartDate    time.Time `json:"start_date"`
	EndDate      time.Time `json:"end_date"`
	TotalCents   int64     `json:"total_cents"`
}

func (s *ReservationService) Create(ctx context.Context, in CreateReservationInput) (*models.Reservation, error) {
	if in.TotalCents < 0 {
		return nil, domain.Validation("invalid_amount", "total price must be non-negative")
	}
	if !in.EndDate.After(in.StartDate) {
		return nil, domain.Validation("invalid_dates", "stay end must be after stay start")
	}
	if in.TenantID == 0 || in.ProprietorID == 0 {
		return nil, domain.Validation("missing_payee", "tenant and proprietor are required")
	}
	res := &models.Reservation{
		ListingID:     in.ListingID,
		GuestID:       in.GuestID,
		TenantID:      in.TenantID,
		ProprietorID:  in.ProprietorID,
		StartDate:     in.StartDate,
		EndDate:       in.EndDate,
		TotalCents:    in.TotalCents,
		Status:        domain.ReservationPending,
		DepositStatus: domain.DepositNone,
	}
	if err := s.reservations.Create(res); err != nil {
		return nil, err
	}
	log.Printf("[Reservation] created id=%d listing=%d total=%d", res.ID, res.ListingID, res.TotalCents)
	return res, nil
}

func (s *ReservationService) Get(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.reservations.GetByID(id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.Validation("not_found", "reservation not found")
		}
		return nil, err
	}
	return res, nil
}

// Confirm computes the revenue split, authorizes the deposit hold and moves
// the reservation to confirmed. The deposit is authorized before the status
// flips so a declined instrument leaves the booking pending.
func (s *ReservationService) Confirm(ctx context.Context, id uint, paymentInstrument string) (*models.Reservation, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != domain.ReservationPending {
		if res.Status == domain.ReservationConfirmed {
			return res, nil
		}
		return nil, domain.Conflict("illegal_transition",
			fmt.Sprintf("cannot confirm a %s reservation", res.Status))
	}
	shares, err := ComputeShares(res.TotalCents, s.cfg.Settlement.CommissionBps, s.cfg.Settlement.TenantShareBps)
	if err != nil {
		return nil, err
	}
	if _, err := s.reservations.SetShares(id, shares.PlatformCents, shares.TenantCents, shares.ProprietorCents); err != nil {
		return nil, err
	}
	if _, err := s.deposits.Authorize(ctx, id, paymentInstrument); err != nil {
		if !domain.IsCode(err, "already_authorized") {
			return nil, err
		}
	}
	if won, err := s.reservations.TransitionStatus(id, domain.ReservationPending, domain.ReservationConfirmed); err != nil {
		return nil, err
	} else if won {
		s.audit.Log("reservation.confirmed", "reservation", fmt.Sprint(id), "")
		log.Printf("[Reservation] confirmed id=%d tenant_share=%d proprietor_share=%d", id, shares.TenantCents, shares.ProprietorCents)
	}
	return s.Get(ctx, id)
}

type CancellationResult struct {
	Reservation *models.Reservation `json:"reservation"`
	Penalty     CancellationPenalty `json:"penalty"`
}

// Cancel applies the tiered penalty, releases the deposit hold and moves
// the reservation to cancelled.
func (s *ReservationService) Cancel(ctx context.Context, id uint) (*CancellationResult, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !res.Status.CanTransitionTo(domain.ReservationCancelled) {
		return nil, domain.Conflict("illegal_transition",
			fmt.Sprintf("cannot cancel a %s reservation", res.Status))
	}
	penalty := ComputeCancellationPenalty(res.StartDate, time.Now(), res.TotalCents)
	won, err := s.reservations.TransitionStatus(id, res.Status, domain.ReservationCancelled)
	if err != nil {
		return nil, err
	}
	if !won {
		return nil, domain.Conflict("illegal_transition", "reservation state changed concurrently")
	}
	if err := s.reservations.SetCancellation(id, penalty.RateBps, penalty.AmountCents, penalty.Reason); err != nil {
		return nil, err
	}
	if res.DepositStatus == domain.DepositAuthorized {
		if _, err := s.deposits.Release(ctx, id); err != nil {
			// The booking is cancelled either way; a stuck hold expires at
			// the processor on its own window.
			log.Printf("[Reservation] cancel id=%d deposit release failed: %v", id, err)
		}
	}
	s.audit.Log("reservation.cancelled", "reservation", fmt.Sprint(id),
		fmt.Sprintf(`{"rate_bps":%d,"penalty_cents":%d,"reason":%q}`, penalty.RateBps, penalty.AmountCents, penalty.Reason))
	log.Printf("[Reservation] cancelled id=%d penalty=%d (%s)", id, penalty.AmountCents, penalty.Reason)
	out, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &CancellationResult{Reservation: out, Penalty: penalty}, nil
}

// MarkReady flags a confirmed reservation as eligible for the payout sweep.
// Idempotent.
func (s *ReservationService) MarkReady(ctx context.Context, id uint) (*models.Reservation, error) {
	res, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if res.Status != domain.ReservationConfirmed {
		return nil, domain.Conflict("not_confirmed", "only confirmed reservations can be marked ready for payout")
	}
	if err := s.reservations.SetReadyForPayout(id); err != nil {
		return nil, err
	}
	return s.Get(ctx, id)
}
