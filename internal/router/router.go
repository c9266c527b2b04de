package router

import (
	"time"

	"subly/config"
	"subly/internal/handler"
	"subly/internal/middleware"
	"subly/internal/repository"
	"subly/internal/service"
	"subly/pkg/processor"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func Setup(cfg *config.Config, db *gorm.DB, proc processor.Processor) *gin.Engine {
	if cfg.Server.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RateLimit(middleware.NewInMemoryRateLimiter(100, 60*time.Second)))

	// Repositories
	reservationRepo := repository.NewReservationRepository(db)
	depositRepo := repository.NewDepositRepository(db)
	accountRepo := repository.NewAccountRepository(db)
	balanceRepo := repository.NewBalanceRepository(db)
	payoutRepo := repository.NewPayoutRepository(db)
	reconRepo := repository.NewReconciliationRepository(db)
	operatorRepo := repository.NewOperatorRepository(db)
	auditRepo := repository.NewAuditLogRepository(db)

	// Services
	accountSvc := service.NewAccountService(accountRepo, proc)
	depositSvc := service.NewDepositService(cfg, reservationRepo, depositRepo, reconRepo, auditRepo, proc)
	settlementSvc := service.NewSettlementService(cfg, reservationRepo, accountSvc, balanceRepo, auditRepo, proc)
	payoutSvc := service.NewPayoutService(cfg, balanceRepo, accountSvc, payoutRepo, reconRepo, auditRepo, proc)
	sweepSvc := service.NewSweepService(reservationRepo, settlementSvc)
	reservationSvc := service.NewReservationService(cfg, reservationRepo, depositSvc, auditRepo)

	// Handlers
	authHandler := handler.NewAuthHandler(cfg, operatorRepo)
	reservationHandler := handler.NewReservationHandler(reservationSvc)
	settlementHandler := handler.NewSettlementHandler(settlementSvc)
	depositHandler := handler.NewDepositHandler(depositSvc)
	payoutHandler := handler.NewPayoutHandler(payoutSvc)
	accountHandler := handler.NewAccountHandler(accountSvc)
	sweepHandler := handler.NewSweepHandler(sweepSvc)
	reconHandler := handler.NewReconciliationHandler(reconRepo)
	webhookHandler := handler.NewProcessorWebhookHandler(cfg, depositSvc, accountSvc, depositRepo)

	authMw := middleware.AuthRequired(&cfg.JWT)

	api := r.Group("/api/v1")
	{
		api.POST("/auth/login", authHandler.Login)

		ops := api.Group("")
		ops.Use(authMw)
		{
			ops.POST("/reservations", reservationHandler.Create)
			ops.GET("/reservations/:id", reservationHandler.Get)
			ops.POST("/reservations/:id/confirm", reservationHandler.Confirm)
			ops.POST("/reservations/:id/cancel", reservationHandler.Cancel)
			ops.POST("/reservations/:id/ready", reservationHandler.MarkReady)

			ops.POST("/settle", settlementHandler.Settle)
			ops.POST("/deposit/capture", depositHandler.Capture)
			ops.POST("/deposit/release", depositHandler.Release)
			ops.POST("/payout", payoutHandler.Dispatch)

			ops.GET("/account-status/:payee_id", accountHandler.Status)
			ops.POST("/accounts/:payee_id/onboarding-link", accountHandler.OnboardingLink)
			ops.POST("/accounts/:payee_id/update-link", accountHandler.UpdateLink)

			ops.GET("/reconciliation", reconHandler.List)
			ops.POST("/reconciliation/:id/resolve", reconHandler.Resolve)
		}

		// Cron caller authenticates with the shared sweep secret.
		api.POST("/sweep", middleware.SweepSecret(cfg.Settlement.SweepSecret), sweepHandler.Run)

		api.POST("/webhooks/processor", webhookHandler.Handle)
	}

	return r
}
