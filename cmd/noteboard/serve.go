package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/samejima-ai/minute-board-app/infrastructure/config"
	"github.com/samejima-ai/minute-board-app/infrastructure/di"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the board API and the layout loop",
	Long: `serve starts the layout engine, exposes the board over HTTP and streams
frames to clients as server-sent events. Layout parameters in the config
directory are reloaded live.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	l, err := loader()
	if err != nil {
		return err
	}
	cfg, err := l.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	container, cleanup, err := di.InitializeContainer(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to initialize container: %w", err)
	}
	defer cleanup()
	logger := container.Logger
	defer logger.Sync() //nolint:errcheck

	if info, statErr := os.Stat(l.BasePath()); statErr == nil && info.IsDir() {
		watcher, err := config.NewWatcher(l, logger.Named("config"))
		if err != nil {
			logger.Warn("live configuration reload disabled", zap.Error(err))
		} else {
			watcher.OnChange(func(next *config.Config) {
				container.ApplyConfig(ctx, next)
			})
			watcher.Start()
			defer watcher.Stop()
		}
	} else {
		logger.Info("no configuration directory, live reload disabled", zap.String("path", l.BasePath()))
	}

	// frame streams only end when the loop closes
	container.Server.RegisterOnShutdown(container.FrameLoop.Close)

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("address", container.Server.Addr),
			zap.String("environment", string(cfg.Environment)),
			zap.Strings("config_sources", cfg.LoadedFrom))
		if err := container.Server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case <-ctx.Done():
	case err, ok := <-serveErr:
		if ok {
			return fmt.Errorf("server failed: %w", err)
		}
	}

	logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := container.Server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown error", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
