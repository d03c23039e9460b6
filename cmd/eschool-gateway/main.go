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

	"github.com/reschool/eschool-gateway/internal/config"
	gatewayhttp "github.com/reschool/eschool-gateway/internal/http"
	"github.com/reschool/eschool-gateway/pkg/eschool"
	"github.com/reschool/eschool-gateway/pkg/repository"
	"github.com/reschool/eschool-gateway/pkg/verify"
)

func main() {
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	db, err := repository.NewDB(repository.Config{
		Host:     cfg.DBHost,
		Port:     cfg.DBPort,
		User:     cfg.DBUser,
		Password: cfg.DBPassword,
		DBName:   cfg.DBName,
		SSLMode:  cfg.DBSSLMode,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	ctx := context.Background()
	if err := repository.EnsureSchema(ctx, db); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	sessionsRepo := repository.NewUpstreamSessionsRepository(db)
	recordsRepo := repository.NewAccessRecordsRepository(db)
	homeworkRepo := repository.NewHomeworkRepository(db)

	client := eschool.NewClient(cfg.UpstreamBaseURL, cfg.UpstreamTimeout)
	sessions := eschool.NewManager(client, sessionsRepo, cfg.EschoolUsername, cfg.EschoolPassword, logger)

	// A failed startup login is not fatal: the server comes up anyway and
	// session-dependent endpoints answer 503 until the upstream recovers.
	if err := sessions.Initialize(ctx); err != nil {
		logger.Error("upstream authentication failed at startup", "error", err)
	}

	engine := verify.NewEngine(sessions, recordsRepo, logger)

	router := gatewayhttp.NewRouter(gatewayhttp.RouterConfig{
		Logger:               logger,
		Sessions:             sessions,
		Engine:               engine,
		Records:              recordsRepo,
		Homework:             homeworkRepo,
		RateLimitEnabled:     cfg.RateLimitEnabled,
		GlobalRequestsPerMin: cfg.GlobalRequestsPerMin,
		UploadDir:            cfg.UploadDir,
	})

	addr := fmt.Sprintf("%s:%d", cfg.ServerAddr, cfg.ServerPort)
	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  60 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logger.Info("server starting", "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
