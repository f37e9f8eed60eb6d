package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/austindbirch/bugsignal/internal/api"
	"github.com/austindbirch/bugsignal/internal/auth"
	"github.com/austindbirch/bugsignal/internal/config"
	"github.com/austindbirch/bugsignal/internal/health"
	"github.com/austindbirch/bugsignal/internal/logging"
	"github.com/austindbirch/bugsignal/internal/metrics"
	"github.com/austindbirch/bugsignal/internal/tracing"
	"github.com/austindbirch/bugsignal/internal/webhook"
)

func main() {
	cfg := config.FromEnv()
	ctx := context.Background()

	logger := logging.New("bugsignal-notifierd")

	shutdown, err := tracing.InitTracing(ctx, "bugsignal-notifierd")
	if err != nil {
		logger.Plain().WithError(err).Fatal("Failed to initialize tracing")
	}
	defer shutdown()

	reg := prometheus.NewRegistry()
	metrics.MustRegister(reg)

	clock := webhook.RealClock()
	store := webhook.NewStore(clock)
	exec := webhook.NewExecutor(cfg.Dispatcher.AttemptTimeout, clock)
	engine := webhook.NewEngine(exec, store, clock)
	dispatcher := webhook.NewDispatcher(store, engine, clock, webhook.DispatcherOptions{
		TickInterval:   cfg.Dispatcher.TickInterval,
		MaxConcurrency: cfg.Dispatcher.MaxConcurrency,
	})
	sweeper := webhook.NewSweeper(store, clock, webhook.SweeperOptions{
		Interval:  cfg.Retention.SweepInterval,
		Retention: cfg.Retention.Window,
	})

	var validator *auth.JWTValidator
	if cfg.Auth.Enabled {
		validator, err = auth.NewJWTValidator(cfg.Auth.PublicKeyPEM, cfg.Auth.Issuer, cfg.Auth.Audience)
		if err != nil {
			logger.Plain().WithError(err).Fatal("invalid JWT public key")
		}
	}

	srv := api.NewServer(dispatcher)
	handler := srv.Routes(validator,
		health.HTTPHandler(dispatcher),
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{}),
	)

	httpSrv := &http.Server{
		Addr:         cfg.HTTP.Port,
		Handler:      handler,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  cfg.HTTP.IdleTimeout,
	}
	go func() {
		logger.Plain().WithField("addr", httpSrv.Addr).Info("notifier HTTP server starting")
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Plain().WithError(err).Fatal("notifier HTTP server failed")
		}
	}()

	dispatcher.Start()
	sweeper.Start()
	logger.Plain().Info("notifier service started")

	// Graceful stop
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGTERM, syscall.SIGINT)
	<-stop

	logger.Plain().Info("Shutting down notifier service")
	sweeper.Stop()
	dispatcher.Stop()
	_ = httpSrv.Shutdown(context.Background())
	logger.Plain().Info("notifier service stopped")
}
