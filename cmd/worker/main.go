package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"

	"github.com/medagenda/clinic-api/internal/config"
	"github.com/medagenda/clinic-api/internal/email"
	"github.com/medagenda/clinic-api/internal/repository/postgres"
	"github.com/medagenda/clinic-api/internal/worker"
	"github.com/medagenda/clinic-api/pkg/logger"
	"github.com/medagenda/clinic-api/pkg/metrics"
)

func main() {
	log.Logger = logger.NewLogger(nil).ZL

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := postgres.NewDB(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	appointmentRepo := postgres.NewAppointmentRepository(db)
	emailSvc := email.NewService(cfg.SMTP)
	m := metrics.New("clinic_worker")

	reminderWorker := worker.NewReminderWorker(
		appointmentRepo,
		emailSvc,
		m,
		&log.Logger,
		worker.DefaultReminderConfig(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go reminderWorker.Start(ctx)

	// Metrics endpoint so the worker is scrapeable alongside the API.
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: mux,
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start metrics server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down worker...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("metrics server forced to shutdown")
	}

	log.Info().Msg("worker exited properly")
}
