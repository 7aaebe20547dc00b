package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"lv-tradedesk/internal/admin"
	"lv-tradedesk/internal/audit"
	"lv-tradedesk/internal/auth"
	"lv-tradedesk/internal/balance"
	"lv-tradedesk/internal/config"
	"lv-tradedesk/internal/db"
	"lv-tradedesk/internal/depositmethods"
	"lv-tradedesk/internal/events"
	"lv-tradedesk/internal/health"
	"lv-tradedesk/internal/httpserver"
	"lv-tradedesk/internal/ledger"
	"lv-tradedesk/internal/loans"
	"lv-tradedesk/internal/logger"
	"lv-tradedesk/internal/orders"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	_ = godotenv.Load()
	cfg, err := config.Load()
	if err != nil {
		log.Fatal(err)
	}
	logger.Init(cfg.AppMode == "production")
	defer func() { _ = logger.Log.Sync() }()

	startedAt := time.Now().UTC()
	ctx := context.Background()
	pool, err := db.NewPool(ctx, cfg.DBDSN)
	if err != nil {
		logger.Log.Fatal("connect database", zap.Error(err))
	}
	defer pool.Close()
	if err := db.Migrate(ctx, pool); err != nil {
		logger.Log.Fatal("apply migrations", zap.Error(err))
	}

	bus := events.NewBus()
	facts := balance.NewPgFactsReader(pool)
	balanceSvc := balance.NewService(facts)
	orderStore := orders.NewPgStore(pool)
	orderSvc := orders.NewService(orderStore, balanceSvc, bus, logger.Log)
	ledgerStore := ledger.NewPgStore(pool)
	ledgerSvc := ledger.NewService(ledgerStore, balanceSvc, logger.Log)
	loanStore := loans.NewPgStore(pool)
	loanSvc := loans.NewService(loanStore, logger.Log)
	authSvc := auth.NewService(pool, cfg.JWTIssuer, []byte(cfg.JWTSecret), cfg.JWTTTL)

	auditJob := audit.NewJob(pool, balanceSvc, facts, logger.Log)
	if err := auditJob.Start(cfg.AuditSchedule); err != nil {
		logger.Log.Fatal("start audit job", zap.Error(err))
	}
	defer auditJob.Stop()

	router := httpserver.NewRouter(httpserver.RouterDeps{
		AuthHandler:    auth.NewHandler(authSvc),
		BalanceHandler: balance.NewHandler(balanceSvc),
		OrderHandler:   orders.NewHandler(orderSvc),
		LedgerHandler:  ledger.NewHandler(ledgerSvc),
		LoanHandler:    loans.NewHandler(loanSvc),
		AdminHandler:   admin.NewHandler(pool, cfg.JWTSecret),
		MethodsHandler: depositmethods.NewHandler(pool),
		HealthHandler:  health.NewHandler(pool, startedAt, cfg.HTTPAddr, cfg.AppMode),
		AuthService:    authSvc,
		JWTSecret:      cfg.JWTSecret,
		WSHandler:      httpserver.NewWSHandler(bus, authSvc, cfg.WebSocketOrigin),
		AdminWSHandler: httpserver.NewAdminWSHandler(bus, cfg.WebSocketOrigin),
	})
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	logger.Log.Info("server listening", zap.String("addr", cfg.HTTPAddr), zap.String("mode", cfg.AppMode))
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Log.Fatal("server stopped", zap.Error(err))
	}
}
