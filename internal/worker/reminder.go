package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/medagenda/clinic-api/internal/email"
	"github.com/medagenda/clinic-api/internal/repository"
	"github.com/medagenda/clinic-api/pkg/circuitbreaker"
	"github.com/medagenda/clinic-api/pkg/metrics"
)

// ReminderConfig controls the reminder scan loop.
type ReminderConfig struct {
	Interval  time.Duration
	Horizon   time.Duration
	BatchSize int
}

func DefaultReminderConfig() ReminderConfig {
	return ReminderConfig{
		Interval:  5 * time.Minute,
		Horizon:   24 * time.Hour,
		BatchSize: 100,
	}
}

// ReminderWorker periodically scans for appointments starting within the
// horizon and emails the patient once per appointment. A failed send is left
// unmarked and retried on the next tick.
type ReminderWorker struct {
	repo     repository.AppointmentRepository
	emailSvc email.Service
	breaker  *circuitbreaker.CircuitBreaker
	metrics  *metrics.Metrics
	logger   *zerolog.Logger
	cfg      ReminderConfig
}

func NewReminderWorker(
	repo repository.AppointmentRepository,
	emailSvc email.Service,
	m *metrics.Metrics,
	logger *zerolog.Logger,
	cfg ReminderConfig,
) *ReminderWorker {
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultReminderConfig().Interval
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = DefaultReminderConfig().Horizon
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultReminderConfig().BatchSize
	}
	return &ReminderWorker{
		repo:     repo,
		emailSvc: emailSvc,
		breaker: circuitbreaker.New(circuitbreaker.Settings{
			Name:        "smtp",
			MaxFailures: 5,
			Timeout:     time.Minute,
		}),
		metrics: m,
		logger:  logger,
		cfg:     cfg,
	}
}

// Start runs the scan loop until ctx is cancelled.
func (w *ReminderWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.logger.Info().
		Dur("interval", w.cfg.Interval).
		Dur("horizon", w.cfg.Horizon).
		Msg("reminder worker started")

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("reminder worker stopped")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

func (w *ReminderWorker) runOnce(ctx context.Context) {
	horizon := time.Now().Add(w.cfg.Horizon)

	reminders, err := w.repo.DueReminders(ctx, horizon, w.cfg.BatchSize)
	if err != nil {
		w.logger.Error().Err(err).Msg("failed to list due reminders")
		return
	}
	if len(reminders) == 0 {
		return
	}

	for _, r := range reminders {
		err := w.breaker.Execute(func() error {
			return w.emailSvc.SendAppointmentReminder(ctx, r.PatientEmail, r.PatientName, r.DoctorName, r.Date)
		})
		if err != nil {
			w.metrics.RemindersFailed.Inc()
			w.logger.Error().Err(err).
				Str("appointment_id", r.ID.String()).
				Msg("failed to send reminder")
			continue
		}

		if err := w.repo.MarkReminderSent(ctx, r.ID); err != nil {
			w.logger.Error().Err(err).
				Str("appointment_id", r.ID.String()).
				Msg("failed to mark reminder sent")
			continue
		}
		w.metrics.RemindersSent.Inc()
	}

	w.logger.Info().Int("count", len(reminders)).Msg("reminder batch processed")
}
