package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/DoyleJ11/promptparty/internal/bootstrap"
	"github.com/DoyleJ11/promptparty/internal/client"
	"github.com/DoyleJ11/promptparty/internal/config"
	"github.com/DoyleJ11/promptparty/internal/logging"
	"github.com/DoyleJ11/promptparty/internal/metrics"
	"github.com/DoyleJ11/promptparty/internal/transport"
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

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)

	ui := newTerminal(os.Stdout)
	c := client.New(ctx, client.Options{
		URL:          cfg.WebsocketURL(),
		Dialer:       transport.WebsocketDialer{ReadLimit: cfg.MaxFrameBytes},
		Rooms:        bootstrap.New(cfg.RoomsURL(), nil, log),
		Logger:       log,
		Metrics:      m,
		Observer:     ui,
		WriteTimeout: cfg.WriteTimeout,
		OutboxSize:   cfg.OutboxSize,
	})
	defer c.Close()

	g, ctx := errgroup.WithContext(ctx)

	if cfg.MetricsAddr != "" {
		r := chi.NewRouter()
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		srv := &http.Server{Addr: cfg.MetricsAddr, Handler: r, ReadHeaderTimeout: 5 * time.Second}
		g.Go(func() error {
			log.Info("metrics listening", zap.String("addr", cfg.MetricsAddr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()

	g.Go(func() error {
		ui.printf("commands: /create NAME, /join ROOM NAME, /start, /leave, /state, /quit; anything else is a guess")
		for {
			select {
			case <-ctx.Done():
				return nil
			case line, ok := <-lines:
				if !ok {
					return errQuit
				}
				if err := handleLine(ctx, c, ui, line); err != nil {
					return err
				}
			}
		}
	})

	if err := g.Wait(); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}
