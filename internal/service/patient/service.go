package patient

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
	apperrors "github.com/medagenda/clinic-api/pkg/errors"
	"github.com/medagenda/clinic-api/pkg/revalidate"
	"github.com/medagenda/clinic-api/pkg/validator"
)

const listPath = "/patients"

type Service struct {
	repo        repository.PatientRepository
	invalidator *revalidate.Invalidator
}

func NewService(repo repository.PatientRepository, invalidator *revalidate.Invalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

func (s *Service) UpsertPatient(ctx context.Context, authCtx model.AuthContext, req *model.UpsertPatientRequest) (*model.Patient, error) {
	if fields := validator.Struct(req); fields != nil {
		return nil, apperrors.Validation(fields)
	}

	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	id, err := resolveID(req.ID)
	if err != nil {
		return nil, apperrors.Validation(map[string]string{"id": "must be a valid UUID"})
	}

	patient := &model.Patient{
		Base:        model.Base{ID: id},
		ClinicID:    authCtx.ClinicID,
		Name:        req.Name,
		Email:       req.Email,
		PhoneNumber: req.PhoneNumber,
		Sex:         model.PatientSex(req.Sex),
	}

	if err := s.repo.Upsert(ctx, patient); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, apperrors.Conflict("patient id already in use", err)
		}
		return nil, fmt.Errorf("failed to upsert patient: %w", err)
	}

	s.invalidator.Invalidate(ctx, authCtx.ClinicID, listPath)
	return patient, nil
}

func (s *Service) GetPatient(ctx context.Context, authCtx model.AuthContext, id uuid.UUID) (*model.Patient, error) {
	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	patient, err := s.repo.Get(ctx, authCtx.ClinicID, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("patient", err)
		}
		return nil, err
	}
	return patient, nil
}

func (s *Service) ListPatients(ctx context.Context, authCtx model.AuthContext) ([]*model.Patient, error) {
	if !authCtx.HasClinic {
		return nil, apperrors.ClinicRequired()
	}

	if cached, ok := s.invalidator.Get(authCtx.ClinicID, listPath); ok {
		if patients, ok := cached.([]*model.Patient); ok {
			return patients, nil
		}
	}

	patients, err := s.repo.List(ctx, authCtx.ClinicID)
	if err != nil {
		return nil, fmt.Errorf("failed to list patients: %w", err)
	}

	s.invalidator.Set(authCtx.ClinicID, listPath, patients)
	return patients, nil
}

// DeletePatient removes a patient and, through the repository's fan-out, all
// of its appointments. The delete predicate carries clinic_id, so an id from
// another tenant deletes nothing and surfaces as not found.
func (s *Service) DeletePatient(ctx context.Context, authCtx model.AuthContext, id uuid.UUID) error {
	if !authCtx.HasClinic {
		return apperrors.ClinicRequired()
	}

	if err := s.repo.Delete(ctx, authCtx.ClinicID, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("patient", err)
		}
		return fmt.Errorf("failed to delete patient: %w", err)
	}

	s.invalidator.Invalidate(ctx, authCtx.ClinicID, listPath, "/appointments")
	return nil
}

func resolveID(raw string) (uuid.UUID, error) {
	if raw == "" {
		return uuid.New(), nil
	}
	return uuid.Parse(raw)
}
