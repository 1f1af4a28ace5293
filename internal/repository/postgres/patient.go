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

type patientRepository struct {
	db *sqlx.DB
}

func NewPatientRepository(db *sqlx.DB) repository.PatientRepository {
	return &patientRepository{db: db}
}

// Upsert overwrites all mutable fields on id conflict; clinic_id stays fixed.
// The conflict branch only matches rows already owned by the same clinic, so
// an id from another tenant touches nothing and returns ErrConflict.
func (r *patientRepository) Upsert(ctx context.Context, patient *model.Patient) error {
	query := `
		INSERT INTO patients (id, clinic_id, name, email, phone_number, sex, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO UPDATE SET
			name = EXCLUDED.name,
			email = EXCLUDED.email,
			phone_number = EXCLUDED.phone_number,
			sex = EXCLUDED.sex,
			updated_at = EXCLUDED.updated_at
		WHERE patients.clinic_id = EXCLUDED.clinic_id
	`
	now := time.Now()
	if patient.CreatedAt.IsZero() {
		patient.CreatedAt = now
	}
	patient.UpdatedAt = now

	res, err := r.db.ExecContext(ctx, query,
		patient.ID,
		patient.ClinicID,
		patient.Name,
		patient.Email,
		patient.PhoneNumber,
		patient.Sex,
		patient.CreatedAt,
		patient.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert patient: %w", err)
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

func (r *patientRepository) Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error) {
	query := `SELECT * FROM patients WHERE id = $1 AND clinic_id = $2`
	var patient model.Patient
	err := r.db.GetContext(ctx, &patient, query, id, clinicID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get patient: %w", err)
	}
	return &patient, nil
}

func (r *patientRepository) List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error) {
	query := `SELECT * FROM patients WHERE clinic_id = $1 ORDER BY name`
	var patients []*model.Patient
	if err := r.db.SelectContext(ctx, &patients, query, clinicID); err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}
	return patients, nil
}

// Delete fans out to the patient's appointments before the patient row, all
// inside one transaction and all filtered by clinic_id. The schema's FK
// cascade would cover the appointments anyway; the explicit delete keeps the
// behavior portable to stores without cascade.
func (r *patientRepository) Delete(ctx context.Context, clinicID, id uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM appointments WHERE patient_id = $1 AND clinic_id = $2`, id, clinicID); err != nil {
		return fmt.Errorf("failed to delete patient appointments: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`DELETE FROM patients WHERE id = $1 AND clinic_id = $2`, id, clinicID)
	if err != nil {
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read delete result: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit patient deletion: %w", err)
	}
	return nil
}
