package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/medagenda/clinic-api/internal/config"
	"github.com/medagenda/clinic-api/internal/email"
	"github.com/medagenda/clinic-api/internal/handler"
	appointmentHandler "github.com/medagenda/clinic-api/internal/handler/appointment"
	authHandler "github.com/medagenda/clinic-api/internal/handler/auth"
	clinicHandler "github.com/medagenda/clinic-api/internal/handler/clinic"
	doctorHandler "github.com/medagenda/clinic-api/internal/handler/doctor"
	patientHandler "github.com/medagenda/clinic-api/internal/handler/patient"
	"github.com/medagenda/clinic-api/internal/middleware"
	"github.com/medagenda/clinic-api/internal/repository/postgres"
	"github.com/medagenda/clinic-api/internal/router"
	appointmentService "github.com/medagenda/clinic-api/internal/service/appointment"
	authService "github.com/medagenda/clinic-api/internal/service/auth"
	clinicService "github.com/medagenda/clinic-api/internal/service/clinic"
	doctorService "github.com/medagenda/clinic-api/internal/service/doctor"
	patientService "github.com/medagenda/clinic-api/internal/service/patient"
	sessionService "github.com/medagenda/clinic-api/internal/service/session"
	"github.com/medagenda/clinic-api/pkg/auth"
	"github.com/medagenda/clinic-api/pkg/logger"
	"github.com/medagenda/clinic-api/pkg/messaging"
	"github.com/medagenda/clinic-api/pkg/messaging/redis"
	"github.com/medagenda/clinic-api/pkg/metrics"
	"github.com/medagenda/clinic-api/pkg/revalidate"
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

	// Repositories
	userRepo := postgres.NewUserRepository(db)
	clinicRepo := postgres.NewClinicRepository(db)
	doctorRepo := postgres.NewDoctorRepository(db)
	patientRepo := postgres.NewPatientRepository(db)
	appointmentRepo := postgres.NewAppointmentRepository(db)

	// Redis broker for cross-replica cache invalidation. Optional: without it
	// the listing cache is per-process only.
	var broker messaging.Broker
	if cfg.Redis.URL != "" {
		broker, err = redis.NewRedisBroker(redis.Config{
			URL:          cfg.Redis.URL,
			MaxRetries:   cfg.Redis.MaxRetries,
			RetryBackoff: cfg.Redis.RetryBackoff,
			PoolSize:     cfg.Redis.PoolSize,
			MinIdleConns: cfg.Redis.MinIdleConns,
		}, &log.Logger)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to connect to Redis")
		}
		defer broker.Close()
	}

	invalidator := revalidate.New(revalidate.Config{
		TTL:             cfg.Cache.TTL,
		CleanupInterval: cfg.Cache.CleanupInterval,
	}, broker, &log.Logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		if err := invalidator.Listen(ctx); err != nil {
			log.Error().Err(err).Msg("invalidation listener stopped")
		}
	}()

	// Services
	jwtSvc := auth.NewJWTService(auth.Config{
		Secret:        cfg.JWT.Secret,
		RefreshSecret: cfg.JWT.RefreshSecret,
		Expiry:        time.Duration(cfg.JWT.ExpiryHours) * time.Hour,
		RefreshExpiry: time.Duration(cfg.JWT.RefreshExpiryHours) * time.Hour,
	})
	emailSvc := email.NewService(cfg.SMTP)

	authSvc := authService.NewService(userRepo, jwtSvc, emailSvc, time.Duration(cfg.JWT.ExpiryHours)*time.Hour)
	sessionSvc := sessionService.NewService(clinicRepo)
	clinicSvc := clinicService.NewService(clinicRepo, invalidator)
	doctorSvc := doctorService.NewService(doctorRepo, invalidator)
	patientSvc := patientService.NewService(patientRepo, invalidator)
	appointmentSvc := appointmentService.NewService(appointmentRepo, patientRepo, doctorRepo, invalidator)

	// Middleware and handlers
	authMiddleware := middleware.NewAuthMiddleware(authSvc, sessionSvc)

	h := handler.NewHandler(db)
	authH := authHandler.NewHandler(authSvc, clinicSvc)
	clinicH := clinicHandler.NewHandler(clinicSvc)
	doctorH := doctorHandler.NewHandler(doctorSvc)
	patientH := patientHandler.NewHandler(patientSvc)
	appointmentH := appointmentHandler.NewHandler(appointmentSvc)

	m := metrics.New("clinic_api")

	r := router.NewRouter(
		authMiddleware,
		authH,
		clinicH,
		doctorH,
		patientH,
		appointmentH,
		h,
		m,
		router.Config{
			RateLimit: middleware.RateLimiterConfig{
				RPS:   cfg.RateLimit.RPS,
				Burst: cfg.RateLimit.Burst,
			},
			CORS:           middleware.DefaultCORSConfig(),
			RequestTimeout: cfg.Server.RequestTimeout,
		},
	)
	r.Setup()

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: r.Engine(),
	}

	go func() {
		log.Info().Int("port", cfg.Server.Port).Msg("starting server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("shutting down server...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server exited properly")
}
