package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
	apperrors "github.com/medagenda/clinic-api/pkg/errors"
	"github.com/medagenda/clinic-api/pkg/revalidate"
	"github.com/medagenda/clinic-api/pkg/validator"
)

const listPath = "/appointments"

// ReferenceTimezone is the fixed timezone appointment timestamps and daily
// schedules are interpreted in.
var ReferenceTimezone = time.UTC

type Service struct {
	repo        repository.AppointmentRepository
	patientRepo repository.PatientRepository
	doctorRepo  repository.DoctorRepository
	invalidator *revalidate.Invalidator
}

func NewService(
	repo repository.AppointmentRepository,
	patientRepo repository.PatientRepository,
	doctorRepo repository.DoctorRepository,
	invalidator *revalidate.Invalidator,
) *Service {
	return &Service{
		repo:        repo,
		patientRepo: patientRepo,
		doctorRepo:  doctorRepo,
		invalidator: invalidator,
	}
}

// UpsertAppointment combines the calendar date with the time of day, checks
// the referenced patient and doctor belong to the acting clinic, then takes
// the insert or update branch. Updates never restamp clinic_id; a supplied id
// that matches no row in the clinic falls back to an insert, so upsert
// semantics hold for both branches.
func (s *Service) UpsertAppointment(ctx context.Context, authCtx model.AuthContext, req *model.UpsertAppointmentRequest) (*model.Appointment, error) {
	fields := validator.Struct(req)

	date, err := CombineDateTime(req.Date, req.Time)
	if err != nil {
		if fields == nil {
			fields = make(map[string]string)
		}
		var dateErr *dateTimeError
		if errors.As(err, &dateErr) {
			fields[dateErr.field] = dateErr.message
		} else {
			fields["date"] = "invalid date"
		}
	}

	if fields != nil {
		return nil, apperrors.Validation(fields)
	}

	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	patientID := uuid.MustParse(req.PatientID)
	doctorID := uuid.MustParse(req.DoctorID)

	if _, err := s.patientRepo.Get(ctx, authCtx.ClinicID, patientID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, err
	}
	if _, err := s.doctorRepo.Get(ctx, authCtx.ClinicID, doctorID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, err
	}

	appointment := &model.Appointment{
		PatientID:               patientID,
		DoctorID:                doctorID,
		Date:                    date,
		AppointmentPriceInCents: req.AppointmentPriceInCents,
	}

	if req.ID != "" {
		id, err := uuid.Parse(req.ID)
		if err != nil {
			return nil, apperrors.Validation(map[string]string{"id": "must be a valid UUID"})
		}
		appointment.ID = id

		err = s.repo.Update(ctx, authCtx.ClinicID, appointment)
		if err == nil {
			s.invalidator.Invalidate(ctx, authCtx.ClinicID, listPath)
			return appointment, nil
		}
		if !errors.Is(err, repository.ErrNotFound) {
			return nil, fmt.Errorf("failed to update appointment: %w", err)
		}
		// fall through to insert with the supplied id
	} else {
		appointment.ID = uuid.New()
	}

	appointment.ClinicID = authCtx.ClinicID
	if err := s.repo.Create(ctx, appointment); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("appointment id already in use", err)
		}
		return nil, fmt.Errorf("failed to create appointment: %w", err)
	}

	s.invalidator.Invalidate(ctx, authCtx.ClinicID, listPath)
	return appointment, nil
}

func (s *Service) GetAppointment(ctx context.Context, authCtx model.AuthContext, id uuid.UUID) (*model.Appointment, error) {
	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	appointment, err := s.repo.Get(ctx, authCtx.ClinicID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("appointment", err)
		}
		return nil, err
	}
	return appointment, nil
}

func (s *Service) ListAppointments(ctx context.Context, authCtx model.AuthContext, filters *model.AppointmentFilters) ([]*model.Appointment, error) {
	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	unfiltered := filters == nil || (filters.PatientID == uuid.Nil && filters.DoctorID == uuid.Nil && filters.From.IsZero() && filters.To.IsZero())

	if unfiltered {
		if cached, ok := s.invalidator.Get(authCtx.ClinicID, listPath); ok {
			if appointments, ok := cached.([]*model.Appointment); ok {
				return appointments, nil
			}
		}
	}

	appointments, err := s.repo.List(ctx, authCtx.ClinicID, filters)
	if err != nil {
		return nil, fmt.Errorf("failed to list appointments: %w", err)
	}

	if unfiltered {
		s.invalidator.Set(authCtx.ClinicID, listPath, appointments)
	}
	return appointments, nil
}

type dateTimeError struct {
	field   string
	message string
}

func (e *dateTimeError) Error() string {
	return e.field + ": " + e.message
}

// CombineDateTime builds one absolute timestamp from a calendar date and a
// wall-clock time, both interpreted in the reference timezone. The date part
// accepts 2006-01-02 or a full RFC 3339 value (whose own time of day is
// discarded).
func CombineDateTime(dateRaw, timeRaw string) (time.Time, error) {
	var date time.Time
	var err error
	for _, layout := range []string{"2006-01-02", time.RFC3339} {
		if date, err = time.Parse(layout, dateRaw); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, &dateTimeError{field: "date", message: "invalid date"}
	}

	var tod time.Time
	for _, layout := range []string{"15:04:05", "15:04"} {
		if tod, err = time.Parse(layout, timeRaw); err == nil {
			break
		}
	}
	if err != nil {
		return time.Time{}, &dateTimeError{field: "time", message: "invalid time of day"}
	}

	return time.Date(
		date.Year(), date.Month(), date.Day(),
		tod.Hour(), tod.Minute(), tod.Second(), 0,
		ReferenceTimezone,
	), nil
}
