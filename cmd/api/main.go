package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	_ "github.com/jackc/pgx/v5/stdlib"

	"frontdesk-platform/internal/account"
	"frontdesk-platform/internal/audit"
	"frontdesk-platform/internal/auth"
	"frontdesk-platform/internal/billing"
	"frontdesk-platform/internal/calls"
	"frontdesk-platform/internal/config"
	"frontdesk-platform/internal/httpapi"
	"frontdesk-platform/internal/payments"
	"frontdesk-platform/internal/reporting"
	"frontdesk-platform/internal/telephony"
	"frontdesk-platform/pkg/logger"
	"frontdesk-platform/pkg/utils"
)

func main() {
	// Root context that cancels on shutdown
	rootCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", "err", err)
		os.Exit(1)
	}

	log := logger.New(cfg.App.Env)
	slog.SetDefault(log)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	authManager, err := auth.NewManager(cfg.Auth)
	if err != nil {
		log.Error("auth init failed", "err", err)
		os.Exit(1)
	}

	db, err := utils.OpenPostgres(rootCtx, "pgx", cfg.PostgresDSN(), utils.PostgresPoolConfig{})
	if err != nil {
		log.Error("postgres init failed", "err", err)
		os.Exit(1)
	}
	defer db.Close()

	rdb, err := utils.OpenRedis(rootCtx, utils.RedisConfig{Addr: cfg.RedisAddr()})
	if err != nil {
		log.Error("redis init failed", "err", err)
		os.Exit(1)
	}
	defer rdb.Close()

	// Stores
	accounts := account.NewPostgresStore(db)
	records := billing.NewPostgresRecordRepo(db)
	callStore := calls.NewPostgresStore(db)

	// Services
	auditSvc := audit.NewService(audit.NewPostgresRepo(db))
	invoicer := payments.NewStripeInvoicer(cfg.Stripe.SecretKey, log)
	billingSvc := billing.NewService(accounts, records, invoicer, auditSvc, log, cfg.BillingCycle())
	reportingSvc := reporting.NewService(accounts, billingSvc, records, callStore)

	// Gin router
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(logger.Middleware(log))

	registerRoutes(r, routeDeps{
		cfg:  cfg,
		rdb:  rdb,
		auth: authManager,
		handlers: httpapi.Handlers{
			Auth:      authManager,
			Billing:   billingSvc,
			Reporting: reportingSvc,
			Audit:     auditSvc,
		},
		stripe: payments.NewWebhookHandler(billingSvc, rdb, cfg.Stripe.WebhookSecret),
		twilio: &telephony.WebhookHandler{
			Accounts: accounts,
			Calls:    callStore,
			Billing:  billingSvc,
		},
		sendgrid: &httpapi.SendGridWebhook{Billing: billingSvc, Redis: rdb},
		health: func(ctx context.Context) error {
			return utils.HealthCheck(ctx, db, 2*time.Second)
		},
	})

	srv := &http.Server{
		Addr:              cfg.HTTPAddr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("api listening", "addr", srv.Addr, "env", cfg.App.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "err", err)
			stop()
		}
	}()

	<-rootCtx.Done()
	log.Info("shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 20*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "err", err)
	}
}
