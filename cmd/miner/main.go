// Package main запускает HTTP-сервер майнинг-приложения.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/mmeshcher/miner-system/internal/adsgram"
	"github.com/mmeshcher/miner-system/internal/config"
	"github.com/mmeshcher/miner-system/internal/handler"
	"github.com/mmeshcher/miner-system/internal/middleware"
	"github.com/mmeshcher/miner-system/internal/model"
	"github.com/mmeshcher/miner-system/internal/repository"
	"github.com/mmeshcher/miner-system/internal/service"
)

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	repo, err := repository.NewSQLiteRepository(cfg.StoragePath)
	if err != nil {
		sugar.Fatalw("storage initialization error", "error", err.Error())
	}
	defer repo.Close()

	bootstrap := model.DefaultSettings()
	if cfg.SettingsFile != "" {
		bootstrap, err = model.LoadSettingsFile(cfg.SettingsFile)
		if err != nil {
			sugar.Fatalw("settings file error", "error", err.Error())
		}
	}

	var adsClient service.AdVerifier
	if cfg.AdsgramAddress != "" {
		adsClient = adsgram.NewClient(cfg.AdsgramAddress)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc, err := service.NewService(ctx, repo, adsClient, bootstrap, logger)
	if err != nil {
		sugar.Fatalw("service initialization error", "error", err.Error())
	}
	defer svc.Close()

	if cfg.DisplayName != "" {
		svc.SetDisplayName(cfg.DisplayName)
	}

	adminAuth := middleware.NewAdminAuth(func() string {
		return svc.Settings().AdminSecret
	})
	h := handler.NewHandler(svc, logger, adminAuth)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:    cfg.RunAddress,
		Handler: r,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Запуск наблюдателя за истечением майнинг-сессии
	g.Go(func() error {
		svc.RunSessionWatcher(ctx)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting miner server", "addr", cfg.RunAddress)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})

	// Graceful shutdown при отмене контекста (сигнал или ошибка в другой горутине)
	g.Go(func() error {
		<-ctx.Done()
		sugar.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("server shutdown error: %w", err)
		}
		sugar.Info("server stopped gracefully")
		return nil
	})

	if err := g.Wait(); err != nil {
		sugar.Fatalw("application terminated with error", "error", err)
	}
}
