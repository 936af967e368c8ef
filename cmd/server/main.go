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

	"github.com/DoyleJ11/promptparty/internal/config"
	"github.com/DoyleJ11/promptparty/internal/engine"
	"github.com/DoyleJ11/promptparty/internal/httpapi"
	"github.com/DoyleJ11/promptparty/internal/hub"
	"github.com/DoyleJ11/promptparty/internal/lobby"
	"github.com/DoyleJ11/promptparty/internal/logging"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		return err
	}
	defer log.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	h := hub.NewHub(ctx, hub.Config{
		Rules: engine.Rules{
			MaxPlayers:    cfg.MaxPlayers,
			TotalRounds:   cfg.TotalRounds,
			RoundDuration: cfg.RoundDuration,
		},
		Room: lobby.Options{
			Logger:         log,
			PostRoundDelay: cfg.PostRoundDelay,
			ImageDelay:     time.Second,
		},
	})

	// Build the router *with* the hub injected
	srv := &http.Server{
		Addr:              cfg.ServerAddr,
		Handler:           httpapi.SetupRoutes(h, log, cfg.OriginPatterns...),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("listening", zap.String("addr", cfg.ServerAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		h.Inbox() <- hub.ShutdownHub{}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
