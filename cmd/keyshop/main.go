// Package main запускает HTTP-сервер магазина ключей.
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

	"github.com/mmeshcher/keyshop/internal/catalog"
	"github.com/mmeshcher/keyshop/internal/config"
	"github.com/mmeshcher/keyshop/internal/handler"
	"github.com/mmeshcher/keyshop/internal/metrics"
	"github.com/mmeshcher/keyshop/internal/middleware"
	"github.com/mmeshcher/keyshop/internal/repository"
	"github.com/mmeshcher/keyshop/internal/service"
)

const stockReportInterval = 30 * time.Second

func main() {
	logger, _ := zap.NewProduction()
	defer logger.Sync()

	sugar := logger.Sugar()

	cfg, err := config.Parse()
	if err != nil {
		sugar.Fatalw("configuration error", "error", err.Error())
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	repo, err := repository.Open(ctx, cfg.DatabaseURI, cfg.StorePath)
	if err != nil {
		sugar.Fatalw("store initialization error", "error", err.Error())
	}

	m := metrics.New()

	svc, err := service.NewService(ctx, repo,
		service.WithRecorder(m),
		service.WithMaxQuantity(cfg.MaxQuantity),
	)
	if err != nil {
		repo.Close()
		sugar.Fatalw("store load error", "error", err.Error())
	}
	defer svc.Close()

	cat := catalog.Default()
	if cfg.CatalogPath != "" {
		cat, err = catalog.Load(cfg.CatalogPath)
		if err != nil {
			sugar.Fatalw("catalog error", "error", err.Error(), "path", cfg.CatalogPath)
		}
	}
	if err := svc.SyncCatalog(ctx, cat.Items()); err != nil {
		sugar.Fatalw("catalog sync error", "error", err.Error())
	}
	sugar.Infow("catalog synced", "products", len(cat.Items()))

	if cfg.AuthSecret == "" {
		sugar.Warn("AUTH_SECRET is empty, issued tokens will not survive a restart")
	}
	if len(cfg.AdminUserIDs) == 0 {
		sugar.Warn("ADMIN_USER_IDS is empty, admin API is unreachable")
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.AuthSecret, cfg.AdminUserIDs)
	h := handler.NewHandler(svc, logger, authMiddleware, m)

	r := h.SetupRouter()

	server := &http.Server{
		Addr:              cfg.RunAddress,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	// Периодическая публикация остатков в метрики
	g.Go(func() error {
		svc.ReportStock(ctx, stockReportInterval)
		return nil
	})

	// Запуск HTTP-сервера
	g.Go(func() error {
		sugar.Infow("starting keyshop server", "addr", cfg.RunAddress, "max_quantity", svc.MaxQuantity())
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
