package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
)

type appointmentRepository struct {
	db *sqlx.DB
}

func NewAppointmentRepository(db *sqlx.DB) repository.AppointmentRepository {
	return &appointmentRepository{db: db}
}

// Create inserts a new row. An id already taken (necessarily by another
// clinic, since the caller's own rows go through Update) surfaces as
// ErrConflict instead of a driver error.
func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (
			id, clinic_id, patient_id, doctor_id, date,
			appointment_price_in_cents, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`
	now := time.Now()
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, query,
		appointment.ID,
		appointment.ClinicID,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.AppointmentPriceInCents,
		appointment.CreatedAt,
		appointment.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create appointment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read create result: %w", err)
	}
	if rows == 0 {
		return repository.ErrConflict
	}
	return nil
}

// Update rewrites the rescheduleable fields only. clinic_id is part of the
// predicate, never the set clause.
func (r *appointmentRepository) Update(ctx context.Context, clinicID uuid.UUID, appointment *model.Appointment) error {
	query := `
		UPDATE appointments
		SET patient_id = $1, doctor_id = $2, date = $3,
			appointment_price_in_cents = $4, updated_at = $5
		WHERE id = $6 AND clinic_id = $7
	`
	appointment.UpdatedAt = time.Now()

	res, err := r.db.ExecContext(ctx, query,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.Date,
		appointment.AppointmentPriceInCents,
		appointment.UpdatedAt,
		appointment.ID,
		clinicID,
	)
	if err != nil {
		return fmt.Errorf("failed to update appointment: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read update result: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentRepository) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error) {
	query := `SELECT * FROM appointments WHERE id = $1 AND clinic_id = $2`
	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query, id, clinicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get appointment: %w", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, clinicID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	var sb strings.Builder
	sb.WriteString(`SELECT * FROM appointments WHERE clinic_id = $1`)
	args := []interface{}{clinicID}

	if filters != nil {
		if filters.PatientID != uuid.Nil {
			args = append(args, filters.PatientID)
			sb.WriteString(` AND patient_id = $` + strconv.Itoa(len(args)))
		}
		if filters.DoctorID != uuid.Nil {
			args = append(args, filters.DoctorID)
			sb.WriteString(` AND doctor_id = $` + strconv.Itoa(len(args)))
		}
		if !filters.From.IsZero() {
			args = append(args, filters.From)
			sb.WriteString(` AND date >= $` + strconv.Itoa(len(args)))
		}
		if !filters.To.IsZero() {
			args = append(args, filters.To)
			sb.WriteString(` AND date <= $` + strconv.Itoa(len(args)))
		}
	}
	sb.WriteString(` ORDER BY date`)

	var appointments []*model.Appointment
	if err := r.db.SelectContext(ctx, &appointments, sb.String(), args...); err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) DueReminders(ctx context.Context, horizon time.Time, limit int) ([]*model.AppointmentReminder, error) {
	query := `
		SELECT a.id, a.date,
			p.name AS patient_name, p.email AS patient_email,
			d.name AS doctor_name
		FROM appointments a
		JOIN patients p ON p.id = a.patient_id
		JOIN doctors d ON d.id = a.doctor_id
		WHERE a.reminder_sent_at IS NULL
			AND a.date > NOW()
			AND a.date <= $1
		ORDER BY a.date
		LIMIT $2
	`
	var reminders []*model.AppointmentReminder
	if err := r.db.SelectContext(ctx, &reminders, query, horizon, limit); err != nil {
		return nil, fmt.Errorf("failed to list due reminders: %w", err)
	}
	return reminders, nil
}

func (r *appointmentRepository) MarkReminderSent(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE appointments SET reminder_sent_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id); err != nil {
		return fmt.Errorf("failed to mark reminder sent: %w", err)
	}
	return nil
}
