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

type clinicRepository struct {
	db *sqlx.DB
}

func NewClinicRepository(db *sqlx.DB) repository.ClinicRepository {
	return &clinicRepository{db: db}
}

func (r *clinicRepository) CreateWithMembership(ctx context.Context, clinic *model.Clinic, userID uuid.UUID) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()
	clinic.CreatedAt = now
	clinic.UpdatedAt = now

	clinicQuery := `
		INSERT INTO clinics (id, name, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, clinicQuery, clinic.ID, clinic.Name, clinic.CreatedAt, clinic.UpdatedAt); err != nil {
		return fmt.Errorf("failed to create clinic: %w", err)
	}

	membershipQuery := `
		INSERT INTO users_to_clinics (user_id, clinic_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := tx.ExecContext(ctx, membershipQuery, userID, clinic.ID, now, now); err != nil {
		return fmt.Errorf("failed to create clinic membership: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clinic creation: %w", err)
	}
	return nil
}

func (r *clinicRepository) Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error) {
	query := `SELECT * FROM clinics WHERE id = $1`
	var clinic model.Clinic
	err := r.db.GetContext(ctx, &clinic, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic: %w", err)
	}
	return &clinic, nil
}

func (r *clinicRepository) ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Clinic, error) {
	query := `
		SELECT c.* FROM clinics c
		JOIN users_to_clinics uc ON uc.clinic_id = c.id
		WHERE uc.user_id = $1
		ORDER BY uc.created_at
	`
	var clinics []*model.Clinic
	if err := r.db.SelectContext(ctx, &clinics, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}
	return clinics, nil
}

// FirstMembership picks the earliest membership by created_at. The result is
// deterministic but the "first clinic wins" rule is an arbitrary choice, not
// a primary-clinic guarantee.
func (r *clinicRepository) FirstMembership(ctx context.Context, userID uuid.UUID) (*model.UserClinic, error) {
	query := `
		SELECT * FROM users_to_clinics
		WHERE user_id = $1
		ORDER BY created_at
		LIMIT 1
	`
	var membership model.UserClinic
	err := r.db.GetContext(ctx, &membership, query, userID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, repository.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get clinic membership: %w", err)
	}
	return &membership, nil
}
