package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/italolelis/docx2xlsx/internal/cleanup"
	"github.com/italolelis/docx2xlsx/internal/config"
	"github.com/italolelis/docx2xlsx/internal/converter"
	"github.com/italolelis/docx2xlsx/internal/http/web"
	"github.com/italolelis/docx2xlsx/internal/logctx"
	"github.com/italolelis/docx2xlsx/internal/notifier"
	"github.com/italolelis/docx2xlsx/internal/progress"
	"github.com/italolelis/docx2xlsx/internal/session"
	"github.com/italolelis/docx2xlsx/internal/telemetry"
	"github.com/italolelis/docx2xlsx/internal/uploader"
	"golang.org/x/sync/errgroup"
)

// version is set at build time.
var version = "dev"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("config error", "err", err)
		os.Exit(1)
	}

	handler := logctx.NewTraceHandler(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	logger := slog.New(handler).With("instance_id", logctx.InstanceID())
	slog.SetDefault(logger)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	slog.Info("docx2xlsx starting...", "log_level", cfg.LogLevel, "version", version)

	if err := run(logctx.WithLogger(ctx, logger), cfg); err != nil {
		slog.Error("fatal error", "err", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config) error {
	logger := logctx.LoggerFromContext(ctx)

	// =========================================================================
	// Start Telemetry
	tel, err := telemetry.New(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    cfg.Telemetry.ServiceName,
		ServiceVersion: version,
		OTLPEndpoint:   cfg.Telemetry.OTLPEndpoint,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	defer func() {
		// The parent context is already cancelled at this point.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := tel.Shutdown(ctx); err != nil {
			logger.Error("failed to shutdown telemetry", "err", err)
		}
	}()

	// =========================================================================
	// Start Converter Client
	client := converter.NewInstrumentedClient(
		converter.NewClient(cfg.ConverterURL, cfg.ConverterTimeout),
		tel,
	)

	// =========================================================================
	// Start Uploader
	up := uploader.NewUploader(
		client,
		progress.Simulator{
			Interval: cfg.ProgressInterval,
			Step:     cfg.ProgressStep,
			Ceiling:  cfg.ProgressCeiling,
		},
		tel,
		buildNotifier(ctx, cfg),
	)

	sessions := session.NewStore(tel)

	// =========================================================================
	// Start API Service
	server := setupServer(ctx, web.NewHandler(sessions, client, up, tel, cfg.MaxUploadSize), cfg)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("Initializing web support", "host", cfg.Web.BindAddress, "converter_url", cfg.ConverterURL)

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}

		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		logger.Info("start shutdown")

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Web.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(ctx); err != nil {
			logger.Error("failed to gracefully shutdown the server", "err", err)

			if err = server.Close(); err != nil {
				return fmt.Errorf("could not stop server gracefully: %w", err)
			}
		}

		return nil
	})

	// =========================================================================
	// Start Cleanup
	g.Go(func() error {
		logger.Info("expiring idle sessions",
			"interval", cfg.CleanupInterval.String(),
			"ttl", cfg.SessionTTL.String(),
		)

		return cleanup.Run(gctx, sessions, cfg.CleanupInterval, cfg.SessionTTL)
	})

	return g.Wait()
}

func buildNotifier(ctx context.Context, cfg *config.Config) notifier.Notifier {
	if cfg.DiscordWebhookURL == "" {
		return notifier.Nop{}
	}

	logctx.LoggerFromContext(ctx).Info("discord notifications enabled")

	return notifier.NewDiscordNotifier(cfg.DiscordWebhookURL)
}

// setupServer prepares the handlers and services to create the http server.
func setupServer(ctx context.Context, h *web.Handler, cfg *config.Config) *http.Server {
	return &http.Server{
		Addr:         cfg.Web.BindAddress,
		ReadTimeout:  cfg.Web.ReadTimeout,
		WriteTimeout: cfg.Web.WriteTimeout,
		IdleTimeout:  cfg.Web.IdleTimeout,
		Handler:      h.Routes(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}
}
