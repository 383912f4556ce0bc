package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/basel-ax/imgworkshop/internal/config"
	"github.com/basel-ax/imgworkshop/internal/events"
	"github.com/basel-ax/imgworkshop/internal/infrastructure/openai"
	"github.com/basel-ax/imgworkshop/internal/repository"
	"github.com/basel-ax/imgworkshop/internal/retention"
	"github.com/basel-ax/imgworkshop/internal/service"
	"github.com/basel-ax/imgworkshop/internal/web"
)

const (
	readHeaderTimeout = 10 * time.Second
	shutdownTimeout   = 15 * time.Second
	// generation plus fetch, with headroom
	writeTimeout = 200 * time.Second
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web server",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := setup(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync() //nolint:errcheck

			if host, _ := cmd.Flags().GetString("host"); host != "" {
				cfg.Host = host
			}
			if port, _ := cmd.Flags().GetString("port"); port != "" {
				cfg.Port = port
			}

			return serve(cmd.Context(), cfg, logger)
		},
	}

	cmd.Flags().String("host", "", "listen host (overrides HOST)")
	cmd.Flags().String("port", "", "listen port (overrides PORT)")

	return cmd
}

func serve(parent context.Context, cfg *config.Config, logger *zap.Logger) error {
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AppPassword == "" {
		logger.Warn("APP_PASSWORD is not set; every generation request will be refused")
	}
	if cfg.OpenAIAPIKey == "" {
		logger.Warn("OPENAI_API_KEY is not set; every generation request will be refused")
	}

	repo, closeRepo, err := repository.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to open last image storage: %w", err)
	}
	defer closeRepo()
	logger.Info("last image storage ready", zap.String("backend", cfg.LastImageBackend), zap.String("ref", repo.Ref()))

	publisher, err := events.Open(cfg.Events, logger)
	if err != nil {
		return fmt.Errorf("failed to open event sinks: %w", err)
	}
	defer publisher.Close()

	client := openai.NewClient(openai.Options{
		BaseURL:           cfg.OpenAIBaseURL,
		APIKey:            cfg.OpenAIAPIKey,
		GenerationTimeout: cfg.GenerationTimeout,
		FetchTimeout:      cfg.FetchTimeout,
	})
	svc := service.NewImageGenerationService(cfg, client, repo, publisher, logger)

	if cfg.Retention > 0 {
		purger := retention.NewPurger(repo, cfg.Retention, logger)
		if err := purger.Start(ctx, cfg.PurgeSchedule); err != nil {
			return err
		}
	}

	gin.SetMode(gin.ReleaseMode)
	handler := web.NewHandler(cfg, svc, logger)
	srv := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           web.NewRouter(cfg, handler, logger),
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down gracefully")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}
