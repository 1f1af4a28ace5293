package doctor

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

const listPath = "/doctors"

type Service struct {
	repo        repository.DoctorRepository
	invalidator *revalidate.Invalidator
}

func NewService(repo repository.DoctorRepository, invalidator *revalidate.Invalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

// UpsertDoctor validates, normalizes the availability window and writes the
// row. On insert the clinic id comes from the session, never from the
// request; on id conflict every field except clinic_id is overwritten.
func (s *Service) UpsertDoctor(ctx context.Context, authCtx model.AuthContext, req *model.UpsertDoctorRequest) (*model.Doctor, error) {
	fields := validator.Struct(req)

	fromTime, fromErr := NormalizeTimeOfDay(req.AvailableFromTime)
	toTime, toErr := NormalizeTimeOfDay(req.AvailableToTime)
	if fromErr != nil || toErr != nil || fromTime >= toTime {
		if fields == nil {
			fields = make(map[string]string)
		}
		switch {
		case fromErr != nil:
			fields["available_from_time"] = "invalid time of day"
		case toErr != nil:
			fields["available_to_time"] = "invalid time of day"
		default:
			fields["available_to_time"] = "end time must be after start time"
		}
	}

	if fields != nil {
		return nil, apperrors.Validation(fields)
	}

	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	id, err := resolveID(req.ID)
	if err != nil {
		return nil, apperrors.Validation(map[string]string{"id": "must be a valid UUID"})
	}

	doctor := &model.Doctor{
		Base:                    model.Base{ID: id},
		ClinicID:                authCtx.ClinicID,
		Name:                    req.Name,
		AvatarImageURL:          req.AvatarImageURL,
		Specialty:               req.Specialty,
		AppointmentPriceInCents: req.AppointmentPriceInCents,
		AvailableFromWeekDay:    req.AvailableFromWeekDay,
		AvailableToWeekDay:      req.AvailableToWeekDay,
		AvailableFromTime:       fromTime,
		AvailableToTime:         toTime,
	}

	if err := s.repo.Upsert(ctx, doctor); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("doctor id already in use", err)
		}
		return nil, fmt.Errorf("failed to upsert doctor: %w", err)
	}

	s.invalidator.Invalidate(ctx, authCtx.ClinicID, listPath)
	return doctor, nil
}

func (s *Service) GetDoctor(ctx context.Context, authCtx model.AuthContext, id uuid.UUID) (*model.Doctor, error) {
	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	doctor, err := s.repo.Get(ctx, authCtx.ClinicID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("doctor", err)
		}
		return nil, err
	}
	return doctor, nil
}

func (s *Service) ListDoctors(ctx context.Context, authCtx model.AuthContext) ([]*model.Doctor, error) {
	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	if cached, ok := s.invalidator.Get(authCtx.ClinicID, listPath); ok {
		if doctors, ok := cached.([]*model.Doctor); ok {
			return doctors, nil
		}
	}

	doctors, err := s.repo.List(ctx, authCtx.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list doctors: %w", err)
	}

	s.invalidator.Set(authCtx.ClinicID, listPath, doctors)
	return doctors, nil
}

// NormalizeTimeOfDay canonicalizes a wall-clock value to HH:mm:ss. Values
// describe a daily schedule in the fixed UTC reference timezone, so
// "09:00:00" round-trips unchanged and "9:00" gains its padding and seconds.
func NormalizeTimeOfDay(value string) (string, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, value); err == nil {
			return t.Format("15:04:05"), nil
		}
	}
	return "", fmt.Errorf("invalid time of day: %q", value)
}

func resolveID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}
