package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/klima7/signalbot/internal/admin"
	"github.com/klima7/signalbot/internal/bot"
	"github.com/klima7/signalbot/internal/config"
	"github.com/klima7/signalbot/internal/cron"
	"github.com/klima7/signalbot/internal/history"
	"github.com/klima7/signalbot/internal/logging"
	"github.com/klima7/signalbot/internal/telemetry"
	"github.com/klima7/signalbot/pkg/signalapi"
)

func runCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to the relay and start processing messages",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfgPath, _ := cmd.Flags().GetString("config")
			if cfgPath == "" {
				resolved, err := resolveConfigPath()
				if err != nil {
					return err
				}
				cfgPath = resolved
			}

			cfg, err := config.Load(cfgPath)
			if err != nil {
				return err
			}
			cfg.Defaults()
			if err := cfg.Validate(); err != nil {
				return err
			}

			return run(cfg)
		},
	}
	cmd.Flags().StringP("config", "c", "", "Path to configuration file")
	return cmd
}

func run(cfg *config.Config) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	return runWith(ctx, cfg)
}

func runWith(ctx context.Context, cfg *config.Config) error {
	var handler slog.Handler = slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: logLevel(cfg.LogLevel),
	})
	if cfg.LogMaskNumbers {
		handler = logging.NewMaskingHandler(handler)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, cfg.Telemetry.Endpoint, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = shutdownTracing(flushCtx)
	}()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := signalapi.NewMetrics(registry)

	client := signalapi.NewClient(cfg.SignalService, cfg.PhoneNumber,
		signalapi.WithTimeout(time.Duration(cfg.HTTPTimeout)),
		signalapi.WithLogger(logger),
		signalapi.WithMetrics(metrics),
	)

	var store *history.Store
	if cfg.History.Path != "" {
		store, err = history.Open(cfg.History.Path)
		if err != nil {
			return err
		}
		defer func() { _ = store.Close() }()
	}

	b := bot.New(client, bot.Config{
		QueueSize:     cfg.Receive.QueueSize,
		Workers:       cfg.Receive.Workers,
		SkipMalformed: cfg.Receive.SkipMalformed,
		ReconnectWait: time.Duration(cfg.Receive.ReconnectWait),
	}, logger, store)
	registerHandlers(b)

	if cfg.Admin.Listen != "" {
		adminSrv := admin.New(cfg.Admin.Listen, logger, registry, func() admin.Status {
			return admin.Status{
				Number:    client.Number(),
				Processed: b.Processed(),
				Handlers:  b.Handlers(),
			}
		})
		if err := adminSrv.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			_ = adminSrv.Stop(stopCtx)
		}()
	}

	if len(cfg.Schedule) > 0 {
		scheduler := cron.NewScheduler(logger)
		for _, entry := range cfg.Schedule {
			job := &cron.SendJob{Entry: entry, Sender: client, Logger: logger}
			if err := scheduler.RegisterJob(job); err != nil {
				return err
			}
		}
		if err := scheduler.Start(); err != nil {
			return err
		}
		defer func() {
			stopCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			_ = scheduler.Stop(stopCtx)
		}()
	}

	logger.Info("signalbot starting",
		"version", version,
		"relay", cfg.SignalService,
		"account", cfg.PhoneNumber,
	)

	err = b.Run(ctx)
	if ctx.Err() != nil {
		logger.Info("signalbot stopped")
		return nil
	}
	return err
}

// registerHandlers wires the built-in commands. Applications embedding the
// bot register their own handlers instead.
func registerHandlers(b *bot.Bot) {
	b.Register(bot.Triggered(bot.HandlerFunc(func(ctx context.Context, c *bot.Context) error {
		return c.Reply(ctx, "pong")
	}), "ping"))
}

func logLevel(name string) slog.Level {
	switch name {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
