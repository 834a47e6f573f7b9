package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	"github.com/nextlevelbuilder/recap/internal/channels/discord"
	"github.com/nextlevelbuilder/recap/internal/config"
	"github.com/nextlevelbuilder/recap/internal/metrics"
	"github.com/nextlevelbuilder/recap/internal/sessions"
	"github.com/nextlevelbuilder/recap/internal/summary"
	"github.com/nextlevelbuilder/recap/internal/tracing"
	"github.com/nextlevelbuilder/recap/internal/window"
)

func runBot() {
	setupLogging()

	cfgPath := resolveConfigPath()
	cfg, err := config.Load(cfgPath)
	if err != nil {
		slog.Error("failed to load config", "path", cfgPath, "error", err)
		os.Exit(1)
	}
	if cfg.Discord.Token == "" {
		slog.Error("no discord token configured; set DISCORD_TOKEN in the environment or a .env file next to the config")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := serve(ctx, cfg); err != nil {
		slog.Error("bot stopped with error", "error", err)
		os.Exit(1)
	}
}

// serve wires the bot together and blocks until ctx is cancelled.
func serve(ctx context.Context, cfg *config.Config) error {
	shutdownTracing, err := tracing.Setup(ctx, cfg.Telemetry, Version)
	if err != nil {
		slog.Warn("tracing unavailable", "error", err)
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			slog.Warn("tracing shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.MustNewMetrics(reg)

	summarizer, err := newSummarizer(cfg.Summarizer)
	if err != nil {
		return err
	}

	ch, err := discord.New(cfg.Discord)
	if err != nil {
		return err
	}
	mgr := sessions.NewManager(ch, sessions.Options{
		Capacity: cfg.Window.Capacity,
		Filter:   window.NewFilter(ch.Exclude),
		Metrics:  m,
	})
	ch.Bind(mgr, summary.NewService(mgr, summarizer, m, cfg.Discord.WakeWord))

	if err := ch.Start(ctx); err != nil {
		return err
	}
	defer func() {
		if err := ch.Stop(context.Background()); err != nil {
			slog.Warn("discord stop failed", "error", err)
		}
	}()

	g, gctx := errgroup.WithContext(ctx)
	if cfg.Metrics.Addr != "" {
		g.Go(func() error {
			if err := metrics.Serve(gctx, cfg.Metrics.Addr, reg); err != nil {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
	}
	if len(cfg.Window.WarmChannels) > 0 {
		g.Go(func() error {
			if err := mgr.Warm(gctx, cfg.Window.WarmChannels); err != nil {
				slog.Warn("some channels could not be warmed", "error", err)
			}
			return nil
		})
	}
	g.Go(func() error {
		<-gctx.Done()
		slog.Info("graceful shutdown initiated")
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
