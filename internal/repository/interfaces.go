package repository

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/clinic-api/internal/model"
)

// ErrNotFound is returned when a row does not exist inside the caller's
// clinic. A cross-tenant id looks identical to a missing one on purpose.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned when an insert or upsert collides with a row the
// caller's clinic does not own. The row is left untouched.
var ErrConflict = errors.New("conflicting row")

type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	Get(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

type ClinicRepository interface {
	// CreateWithMembership inserts the clinic row and the acting user's
	// membership row in one transaction.
	CreateWithMembership(ctx context.Context, clinic *model.Clinic, userID uuid.UUID) error
	Get(ctx context.Context, id uuid.UUID) (*model.Clinic, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*model.Clinic, error)
	// FirstMembership returns the user's earliest membership, or ErrNotFound
	// when the user belongs to no clinic.
	FirstMembership(ctx context.Context, userID uuid.UUID) (*model.UserClinic, error)
}

type DoctorRepository interface {
	Upsert(ctx context.Context, doctor *model.Doctor) error
	Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Doctor, error)
	List(ctx context.Context, clinicID uuid.UUID) ([]*model.Doctor, error)
}

type PatientRepository interface {
	Upsert(ctx context.Context, patient *model.Patient) error
	Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Patient, error)
	List(ctx context.Context, clinicID uuid.UUID) ([]*model.Patient, error)
	// Delete removes the patient and its appointments in one transaction,
	// scoped by clinic. Returns ErrNotFound when no row matched.
	Delete(ctx context.Context, clinicID, id uuid.UUID) error
}

type AppointmentRepository interface {
	Create(ctx context.Context, appointment *model.Appointment) error
	// Update rewrites patient, doctor, date and price for an existing row.
	// The clinic_id column is never restamped on update.
	Update(ctx context.Context, clinicID uuid.UUID, appointment *model.Appointment) error
	Get(ctx context.Context, clinicID, id uuid.UUID) (*model.Appointment, error)
	List(ctx context.Context, clinicID uuid.UUID, filters *model.AppointmentFilters) ([]*model.Appointment, error)
	// DueReminders lists appointments starting before the horizon that have
	// not been reminded yet, joined with patient and doctor details.
	DueReminders(ctx context.Context, horizon time.Time, limit int) ([]*model.AppointmentReminder, error)
	MarkReminderSent(ctx context.Context, id uuid.UUID) error
}
