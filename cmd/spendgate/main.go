package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/kailas-cloud/spendgate/internal/config"
	logpkg "github.com/kailas-cloud/spendgate/internal/logger"
	"github.com/kailas-cloud/spendgate/internal/metrics"
	chiTransport "github.com/kailas-cloud/spendgate/internal/transport/chi"
	"github.com/kailas-cloud/spendgate/internal/transport/line"
	openaiUsage "github.com/kailas-cloud/spendgate/internal/transport/openai"
	breakeruc "github.com/kailas-cloud/spendgate/internal/usecase/breaker"
	healthuc "github.com/kailas-cloud/spendgate/internal/usecase/health"
	"github.com/kailas-cloud/spendgate/internal/version"
)

func main() {
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting spendgate",
		zap.String("version", version.Version),
		zap.String("commit", version.Commit),
		zap.String("env", env),
		zap.String("listen_addr", cfg.Listener.Addr()),
		zap.String("upstream", cfg.Upstream.BaseURL),
		zap.Bool("credential_set", cfg.Upstream.APIKey != ""),
		zap.Bool("ops_enabled", cfg.Ops.IsEnabled()),
	)
	if cfg.Upstream.APIKey == "" {
		logger.Warn("No upstream credential configured: every STATUS will answer FALSE")
	}

	metrics.RegisterBreakerMetrics()

	usage, err := openaiUsage.NewUsageClient(&openaiUsage.Config{
		APIKey:            cfg.Upstream.APIKey,
		BaseURL:           cfg.Upstream.BaseURL,
		Timeout:           cfg.Upstream.Timeout(),
		RequestsPerSecond: cfg.Upstream.RequestsPerSecond,
		Logger:            logger,
	})
	if err != nil {
		logger.Fatal("Failed to create billing usage client", zap.Error(err))
	}

	breakerSvc := breakeruc.New(usage, logger)
	server := line.NewServer(line.Config{
		Addr:         cfg.Listener.Addr(),
		ReadTimeout:  cfg.Listener.ReadTimeout(),
		WriteTimeout: cfg.Listener.WriteTimeout(),
		MaxLineBytes: cfg.Listener.MaxLineBytes,
	}, line.NewHandler(breakerSvc), logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.ListenAndServe(gctx)
	})

	if cfg.Ops.IsEnabled() {
		healthSvc := healthuc.New(server, cfg.Upstream.APIKey != "")
		opsSrv := &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Ops.Port),
			Handler:           chiTransport.NewRouter(healthSvc, logger),
			ReadHeaderTimeout: 5 * time.Second,
		}

		g.Go(func() error {
			logger.Info("Starting ops HTTP server", zap.String("addr", opsSrv.Addr))
			if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("ops server: %w", err)
			}
			return nil
		})

		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.Ops.ShutdownSec)*time.Second)
			defer cancel()
			if err := opsSrv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Error during ops server shutdown", zap.Error(err))
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		// Bind failures land here before any connection is served.
		logger.Fatal("Server error", zap.Error(err))
	}

	logger.Info("Server stopped gracefully")
}
