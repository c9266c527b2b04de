package service

import (
	"context"
	"log"
	"time"

	"subly/internal/repository"
)

// SweepService is the cron-driven driver that feeds reservations whose stay
// has ended into the settlement orchestrator. Re-entrant: re-running for the
// same cutoff is safe because Settle itself is idempotent.
type SweepService struct {
	reservations *repository.ReservationRepository
	settler      *SettlementService
}

func NewSweepService(reservations *repository.ReservationRepository, settler *SettlementService) *SweepService {
	return &SweepService{reservations: reservations, settler: settler}
}

type SweepOutcome struct {
	ReservationID  uint   `json:"reservation_id"`
	Settled        bool   `json:"settled"`
	AlreadySettled bool   `json:"already_settled"`
	Error          string `json:"error,omitempty"`
}

// SweepDue settles every due reservation, continuing past individual
// failures so one bad reservation cannot block the rest.
func (s *SweepService) SweepDue(ctx context.Context, cutoff time.Time) ([]SweepOutcome, error) {
	due, err := s.reservations.DueForSettlement(cutoff)
	if err != nil {
		return nil, err
	}
	log.Printf("[Sweep] cutoff=%s found %d due reservations", cutoff.Format("2006-01-02"), len(due))
	outcomes := make([]SweepOutcome, 0, len(due))
	for _, res := range due {
		result, err := s.settler.Settle(ctx, res.ID)
		if err != nil {
			log.Printf("[Sweep] reservation=%d failed: %v", res.ID, err)
			outcomes = append(outcomes, SweepOutcome{ReservationID: res.ID, Error: err.Error()})
			continue
		}
		outcomes = append(outcomes, SweepOutcome{
			ReservationID:  res.ID,
			Settled:        !result.AlreadySettled,
			AlreadySettled: result.AlreadySettled,
		})
	}
	return outcomes, nil
}
