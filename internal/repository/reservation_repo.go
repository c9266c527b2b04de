package repository

import (
	"time"

	"subly/internal/domain"
	"subly/internal/models"

	"gorm.io/gorm"
)

type ReservationRepository struct {
	db *gorm.DB
}

func NewReservationRepository(db *gorm.DB) *ReservationRepository {
	return &ReservationRepository{db: db}
}

func (r *ReservationRepository) Create(res *models.Reservation) error {
	return r.db.Create(res).Error
}

func (r *ReservationRepository) GetByID(id uint) (*models.Reservation, error) {
	var res models.Reservation
	if err := r.db.First(&res, id).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// TransitionStatus moves the reservation from one status to another as a
// conditional update. Returns false when the row was no longer in `from`,
// meaning a concurrent caller won the transition.
func (r *ReservationRepository) TransitionStatus(id uint, from, to domain.ReservationStatus) (bool, error) {
	tx := r.db.Model(&models.Reservation{}).
		Where("id = ? AND status = ?", id, from).
		Update("status", to)
	return tx.RowsAffected > 0, tx.Error
}

// SetShares persists the computed split once. The shares_computed guard
// keeps a concurrent confirm from overwriting an existing split.
func (r *ReservationRepository) SetShares(id uint, platform, tenant, proprietor int64) (bool, error) {
	tx := r.db.Model(&models.Reservation{}).
		Where("id = ? AND shares_computed = ?", id, false).
		Updates(map[string]interface{}{
			"platform_cents":   platform,
			"tenant_cents":     tenant,
			"proprietor_cents": proprietor,
			"shares_computed":  true,
		})
	return tx.RowsAffected > 0, tx.Error
}

// SetTenantTransferRef writes the tenant transfer reference only if none is
// recorded yet. The caller that wins the write is responsible for crediting
// the payee balance.
func (r *ReservationRepository) SetTenantTransferRef(id uint, ref string) (bool, error) {
	tx := r.db.Model(&models.Reservation{}).
		Where("id = ? AND tenant_transfer_ref = ''", id).
		Update("tenant_transfer_ref", ref)
	return tx.RowsAffected > 0, tx.Error
}

func (r *ReservationRepository) SetProprietorTransferRef(id uint, ref string) (bool, error) {
	tx := r.db.Model(&models.Reservation{}).
		Where("id = ? AND proprietor_transfer_ref = ''", id).
		Update("proprietor_transfer_ref", ref)
	return tx.RowsAffected > 0, tx.Error
}

// MarkBalancesAllocated flips the one-way balances_allocated flag. Only one
// caller ever gets true back, however many settle retries race.
func (r *ReservationRepository) MarkBalancesAllocated(id uint) (bool, error) {
	tx := r.db.Model(&models.Reservation{}).
		Where("id = ? AND balances_allocated = ?", id, false).
		Update("balances_allocated", true)
	return tx.RowsAffected > 0, tx.Error
}

func (r *ReservationRepository) SetReadyForPayout(id uint) error {
	return r.db.Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("ready_for_payout", true).Error
}

func (r *ReservationRepository) SetDeposit(id uint, status domain.DepositStatus, holdRef string) error {
	return r.db.Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"deposit_status": status, "deposit_hold_ref": holdRef}).Error
}

func (r *ReservationRepository) SetDepositStatus(id uint, status domain.DepositStatus) error {
	return r.db.Model(&models.Reservation{}).
		Where("id = ?", id).
		Update("deposit_status", status).Error
}

func (r *ReservationRepository) SetLitigation(id uint, cause string) error {
	return r.db.Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"litigation": true, "litigation_cause": cause}).Error
}

func (r *ReservationRepository) SetCancellation(id uint, rateBps int, penaltyCents int64, reason string) error {
	return r.db.Model(&models.Reservation{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"cancel_rate_bps":      rateBps,
			"cancel_penalty_cents": penaltyCents,
			"cancel_reason":        reason,
		}).Error
}

// DueForSettlement returns reservations whose stay ended at or before the
// cutoff, are confirmed and flagged ready, and have not been settled.
func (r *ReservationRepository) DueForSettlement(cutoff time.Time) ([]models.Reservation, error) {
	var out []models.Reservation
	err := r.db.
		Where("end_date <= ? AND status = ? AND ready_for_payout = ? AND balances_allocated = ?",
			cutoff, domain.ReservationConfirmed, true, false).
		Order("end_date asc").
		Find(&out).Error
	return out, err
}
