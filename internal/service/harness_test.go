package service

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"subly/config"
	"subly/internal/database"
	"subly/internal/domain"
	"subly/internal/models"
	"subly/internal/repository"
	"subly/pkg/processor"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq atomic.Int64

// testEnv wires the services against an in-memory sqlite database and the
// stub processor, so the conditional-update semantics run for real.
type testEnv struct {
	cfg  *config.Config
	db   *gorm.DB
	proc *processor.StubProcessor

	reservationRepo *repository.ReservationRepository
	depositRepo     *repository.DepositRepository
	accountRepo     *repository.AccountRepository
	balanceRepo     *repository.BalanceRepository
	payoutRepo      *repository.PayoutRepository
	reconRepo       *repository.ReconciliationRepository
	auditRepo       *repository.AuditLogRepository

	accounts *AccountService
	deposits *DepositService
	settler  *SettlementService
	payouts  *PayoutService
	sweeper  *SweepService
	bookings *ReservationService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:svc%d?mode=memory&cache=shared", testDBSeq.Add(1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	cfg := &config.Config{
		Settlement: config.SettlementConfig{
			CommissionBps:   300,
			TenantShareBps:  6000,
			DepositMaxCents: 30000,
			Currency:        "EUR",
		},
	}
	proc := processor.NewStubProcessor()

	env := &testEnv{
		cfg:             cfg,
		db:              db,
		proc:            proc,
		reservationRepo: repository.NewReservationRepository(db),
		depositRepo:     repository.NewDepositRepository(db),
		accountRepo:     repository.NewAccountRepository(db),
		balanceRepo:     repository.NewBalanceRepository(db),
		payoutRepo:      repository.NewPayoutRepository(db),
		reconRepo:       repository.NewReconciliationRepository(db),
	}
	env.auditRepo = repository.NewAuditLogRepository(db)
	env.accounts = NewAccountService(env.accountRepo, proc)
	env.deposits = NewDepositService(cfg, env.reservationRepo, env.depositRepo, env.reconRepo, env.auditRepo, proc)
	env.settler = NewSettlementService(cfg, env.reservationRepo, env.accounts, env.balanceRepo, env.auditRepo, proc)
	env.payouts = NewPayoutService(cfg, env.balanceRepo, env.accounts, env.payoutRepo, env.reconRepo, env.auditRepo, proc)
	env.sweeper = NewSweepService(env.reservationRepo, env.settler)
	env.bookings = NewReservationService(cfg, env.reservationRepo, env.deposits, env.auditRepo)
	return env
}

// interceptProcessor wraps another processor and fires a hook after a
// successful call returns, before the caller's local write. Hooks run once,
// simulating another writer landing in that gap.
type interceptProcessor struct {
	processor.Processor
	afterAuthorize func()
	afterPayout    func()
}

func (p *interceptProcessor) AuthorizeHold(ctx context.Context, req processor.HoldRequest) (*processor.Hold, error) {
	hold, err := p.Processor.AuthorizeHold(ctx, req)
	if err == nil && p.afterAuthorize != nil {
		hook := p.afterAuthorize
		p.afterAuthorize = nil
		hook()
	}
	return hold, err
}

func (p *interceptProcessor) CreatePayout(ctx context.Context, req processor.PayoutRequest) (*processor.PayoutReceipt, error) {
	receipt, err := p.Processor.CreatePayout(ctx, req)
	if err == nil && p.afterPayout != nil {
		hook := p.afterPayout
		p.afterPayout = nil
		hook()
	}
	return receipt, err
}

// settleableReservation inserts a confirmed, ready reservation whose stay
// ended in the past, with payee accounts provisioned at the stub.
func (e *testEnv) settleableReservation(t *testing.T, tenantID, proprietorID uint, totalCents int64) *models.Reservation {
	t.Helper()
	ctx := context.Background()
	if _, err := e.accounts.EnsureAccount(ctx, tenantID, fmt.Sprintf("tenant%d@example.com", tenantID)); err != nil {
		t.Fatalf("ensure tenant account: %v", err)
	}
	if _, err := e.accounts.EnsureAccount(ctx, proprietorID, fmt.Sprintf("prop%d@example.com", proprietorID)); err != nil {
		t.Fatalf("ensure proprietor account: %v", err)
	}
	res := &models.Reservation{
		ListingID:      1,
		GuestID:        9,
		TenantID:       tenantID,
		ProprietorID:   proprietorID,
		StartDate:      time.Now().AddDate(0, 0, -10),
		EndDate:        time.Now().AddDate(0, 0, -3),
		TotalCents:     totalCents,
		Status:         domain.ReservationConfirmed,
		DepositStatus:  domain.DepositNone,
		ReadyForPayout: true,
	}
	if err := e.reservationRepo.Create(res); err != nil {
		t.Fatalf("create reservation: %v", err)
	}
	return res
}

func (e *testEnv) accountRef(t *testing.T, payeeID uint) string {
	t.Helper()
	rec, err := e.accountRepo.GetByPayeeID(payeeID)
	if err != nil {
		t.Fatalf("account for payee %d: %v", payeeID, err)
	}
	return rec.AccountRef
}

func (e *testEnv) reload(t *testing.T, id uint) *models.Reservation {
	t.Helper()
	res, err := e.reservationRepo.GetByID(id)
	if err != nil {
		t.Fatalf("reload reservation %d: %v", id, err)
	}
	return res
}

func (e *testEnv) owed(t *testing.T, payeeID uint) int64 {
	t.Helper()
	bal, err := e.balanceRepo.GetOrCreate(payeeID)
	if err != nil {
		t.Fatalf("balance for payee %d: %v", payeeID, err)
	}
	return bal.OwedCents
}
