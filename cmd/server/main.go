package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/lobby-backend/internal/bot"
	"github.com/DoyleJ11/lobby-backend/internal/config"
	"github.com/DoyleJ11/lobby-backend/internal/engine"
	"github.com/DoyleJ11/lobby-backend/internal/httpapi"
	"github.com/DoyleJ11/lobby-backend/internal/hub"
	"github.com/DoyleJ11/lobby-backend/internal/lobby"
	"github.com/DoyleJ11/lobby-backend/internal/logging"
	"github.com/DoyleJ11/lobby-backend/internal/match"
	"github.com/DoyleJ11/lobby-backend/internal/ws"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, level, err := logging.New(cfg.LogLevel)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err = run(ctx, cfg, logger, level)
	err = multierr.Append(err, ignoreSyncError(logger.Sync()))
	if err != nil {
		log.Fatalf("server: %v", err)
	}
}

func run(ctx context.Context, cfg config.Config, logger *zap.Logger, level zap.AtomicLevel) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	table := bot.DefaultTable()
	runner := match.NewRunner(match.RunnerConfig{
		Interval:  cfg.RewardInterval,
		Rounds:    cfg.RewardRounds,
		OfferSize: cfg.OfferSize,
		Table:     table,
		Logger:    logger.Named("match"),
	})

	h := hub.NewHub(ctx, lobby.Config{
		GracePeriod:   cfg.GracePeriod,
		SettleDelay:   cfg.SettleDelay,
		BotArchetypes: table.Archetypes(),
		OnHandoff: func(code string, hf engine.Handoff) {
			runner.Start(ctx, code, hf)
		},
		Logger: logger.Named("lobby"),
	})

	srv := &http.Server{
		Addr: cfg.Addr,
		Handler: httpapi.SetupRoutes(h, ws.Options{
			DefaultTeamSize: cfg.DefaultTeamSize,
			OriginPatterns:  cfg.AllowedOrigins,
			Logger:          logger.Named("ws"),
		}, level),
		ReadHeaderTimeout: 5 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		serveErr <- srv.ListenAndServe()
	}()

	var err error
	select {
	case err = <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			err = nil
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		err = srv.Shutdown(shutdownCtx)
	}

	select {
	case h.Inbox() <- hub.ShutdownHub{}:
	case <-h.Done():
	}
	<-h.Done()
	cancel()
	runner.Stop()
	return err
}

// Sync on a terminal stderr returns EINVAL/ENOTTY; that is not a failure.
func ignoreSyncError(err error) error {
	if errors.Is(err, syscall.EINVAL) || errors.Is(err, syscall.ENOTTY) {
		return nil
	}
	return err
}
