package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
)

type doctorRepository struct {
	db *sqlx.DB
}

func NewDoctorRepository(db *sqlx.DB) repository.DoctorRepository {
	return &doctorRepository{db: db}
}

// Upsert is a full-field overwrite keyed by id. clinic_id is deliberately
// absent from the update set so a row can never migrate tenants, and the
// conflict branch carries a clinic_id predicate so an id owned by another
// clinic matches zero rows and surfaces as ErrConflict.
func (r *doctorRepository) Upsert(ctx context.Context, doctor *model.Doctor) error {
	query := `
		INSERT INTO doctors (
			id, clinic_id, name, avatar_image_url, specialty,
			appointment_price_in_cents, available_from_week_day, available_to_week_day,
			available_from_time, available_to_time, created_at, updated_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			avatar_image_url = EXCLUDED.avatar_image_url,
			specialty = EXCLUDED.specialty,
			appointment_price_in_cents = EXCLUDED.appointment_price_in_cents,
			available_from_week_day = EXCLUDED.available_from_week_day,
			available_to_week_day = EXCLUDED.available_to_week_day,
			available_from_time = EXCLUDED.available_from_time,
			available_to_time = EXCLUDED.available_to_time,
			updated_at = EXCLUDED.updated_at
		WHERE doctors.clinic_id = EXCLUDED.clinic_id
	`
	now := time.Now()
	if doctor.CreatedAt.IsZero() {
		doctor.CreatedAt = now
	}
	doctor.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, query,
		doctor.ID,
		doctor.ClinicID,
		doctor.Name,
		doctor.AvatarImageURL,
		doctor.Specialty,
		doctor.AppointmentPriceInCents,
		doctor.AvailableFromWeekDay,
		doctor.AvailableToWeekDay,
		doctor.AvailableFromTime,
		doctor.AvailableToTime,
		doctor.CreatedAt,
		doctor.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert doctor: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read upsert result: %w", err)
	}
	if rows == 0 {
		return repository.ErrConflict
	}
	return nil
}

func (r *doctorRepository) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE id = $1 AND clinic_id = $2`
	var doctor model.Doctor
	err := r.db.GetContext(ctx, &doctor, query, id, clinicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get doctor: %w", err)
	}
	return &doctor, nil
}

func (r *doctorRepository) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Doctor, error) {
	query := `SELECT * FROM doctors WHERE clinic_id = $1 ORDER BY name`
	var doctors []*model.Doctor
	if err := r.db.SelectContext(ctx, &doctors, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}
	return doctors, nil
}
