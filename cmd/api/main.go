package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"washdesk/internal/allowance"
	"washdesk/internal/catalog"
	"washdesk/internal/config"
	"washdesk/internal/db"
	"washdesk/internal/httpserver"
	"washdesk/internal/metrics"
	custstore "washdesk/internal/repository/customer"
	customersvc "washdesk/internal/service/customer"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)

	ctx := context.Background()

	cat, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatalf("load plan catalog: %v", err)
	}

	engineCfg := allowance.DefaultConfig()
	if cfg.SameDayPolicy == "confirm" {
		engineCfg.SameDay = allowance.SameDayConfirm
	}
	engineCfg.InclusiveExpiry = cfg.InclusiveExpiry
	engineCfg.LogRenewalVisit = cfg.LogRenewalVisit
	engine := allowance.New(engineCfg)

	var store custstore.Store
	var pinger httpserver.Pinger
	switch cfg.StoreKind {
	case "sheet":
		sheet, err := custstore.NewSheet(cfg.SheetPath, logger)
		if err != nil {
			logger.Fatalf("open sheet store: %v", err)
		}
		defer sheet.Close()
		store = sheet
		pinger = sheet
	default:
		pool, err := db.Connect(ctx, cfg.DBConnString)
		if err != nil {
			logger.Fatalf("connect to db: %v", err)
		}
		defer pool.Close()
		store = custstore.NewPostgres(pool, logger)
		pinger = pool
	}

	m := metrics.New()
	service := customersvc.New(store, engine, cat, m)

	srv, err := httpserver.New(cfg.HTTPAddr, logger, pinger, httpserver.Deps{
		CustomerSvc: service,
		Metrics:     m,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (store=%s)", cfg.HTTPAddr, cfg.StoreKind)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}
