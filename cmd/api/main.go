package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/jizhang-jingling/jizhang/internal/auth"
	"github.com/jizhang-jingling/jizhang/internal/config"
	"github.com/jizhang-jingling/jizhang/internal/database"
	"github.com/jizhang-jingling/jizhang/internal/export"
	jizhangHttp "github.com/jizhang-jingling/jizhang/internal/http"
	accountHandler "github.com/jizhang-jingling/jizhang/internal/http/account"
	categoryHandler "github.com/jizhang-jingling/jizhang/internal/http/category"
	exportHandler "github.com/jizhang-jingling/jizhang/internal/http/export"
	importHandler "github.com/jizhang-jingling/jizhang/internal/http/importcsv"
	txHandler "github.com/jizhang-jingling/jizhang/internal/http/transaction"
	"github.com/jizhang-jingling/jizhang/internal/importer"
	"github.com/jizhang-jingling/jizhang/internal/intake"
	"github.com/jizhang-jingling/jizhang/internal/logging"
	"github.com/jizhang-jingling/jizhang/internal/matching"
	matchingStore "github.com/jizhang-jingling/jizhang/internal/matching/store"
	"github.com/jizhang-jingling/jizhang/internal/transaction"
	txStore "github.com/jizhang-jingling/jizhang/internal/transaction/store"
	"github.com/jizhang-jingling/jizhang/internal/user"
	userStore "github.com/jizhang-jingling/jizhang/internal/user/store"
)

const shutdownTimeout = 10 * time.Second

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.App.LogLevel, cfg.IsDevelopment())

	// Accounts live in PostgreSQL, so the server ignores STORAGE_MODE.
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	var (
		transactionService = transaction.NewService(txStore.New(db))
		matchingService    = matching.NewService(matchingStore.New(db))
		intakeService      = intake.NewService(txStore.New(db),
			intake.WithMatcher(matchingService),
			intake.WithLookback(time.Duration(cfg.Intake.LookbackHours)*time.Hour),
			intake.WithThreshold(cfg.Intake.SimilarityThreshold),
		)
		userService   = user.NewService(userStore.New(db))
		importService = importer.NewService()
		exportService = export.NewService(transactionService)
		tokens        = auth.NewTokens(cfg.Auth.JWTSecret, cfg.Auth.TokenTTL)
	)

	var (
		accountH     = accountHandler.NewHandler(userService, tokens)
		transactionH = txHandler.NewHandler(intakeService, transactionService)
		categoryH    = categoryHandler.NewHandler(intakeService.Classifier(), matchingService)
		importH      = importHandler.NewHandler(importService, intakeService)
		exportH      = exportHandler.NewHandler(exportService)
	)

	router := jizhangHttp.New(jizhangHttp.Security{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Tokens:         tokens,
		LoginLimiter:   auth.NewRateLimiter(cfg.Auth.LoginRate, cfg.Auth.LoginBurst),
	}, accountH, transactionH, categoryH, importH, exportH)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.Server.Timeout,
		WriteTimeout:      cfg.Server.Timeout,
		IdleTimeout:       2 * cfg.Server.Timeout,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		slog.Info("starting server", "addr", srv.Addr, "env", cfg.App.Env)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("shutting down server")

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
