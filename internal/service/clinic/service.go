package clinic

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

// The clinic listing is per-user, not per-clinic, so its cache entries are
// keyed by the user id.
const listPath = "/clinics"

type Service struct {
	repo        repository.ClinicRepository
	invalidator *revalidate.Invalidator
}

func NewService(repo repository.ClinicRepository, invalidator *revalidate.Invalidator) *Service {
	return &Service{repo: repo, invalidator: invalidator}
}

// CreateClinic is the one mutation that needs authentication but no existing
// clinic: it establishes the caller's first clinic and membership atomically.
func (s *Service) CreateClinic(ctx context.Context, authCtx model.AuthContext, req *model.CreateClinicRequest) (*model.Clinic, error) {
	if fields := validator.Struct(req); fields != nil {
		return nil, apperrors.Validation(fields)
	}

	clinic := &model.Clinic{
		Base: model.Base{ID: uuid.New()},
		Name: req.Name,
	}

	if err := s.repo.CreateWithMembership(ctx, clinic, authCtx.UserID); err != nil {
		return nil, fmt.Errorf("failed to create clinic: %w", err)
	}

	s.invalidator.Invalidate(ctx, authCtx.UserID, listPath)
	return clinic, nil
}

func (s *Service) GetClinic(ctx context.Context, authCtx model.AuthContext, id uuid.UUID) (*model.Clinic, error) {
	if !authCtx.HasClinic || authCtx.ClinicID != id {
		return nil, apperrors.NotFound("clinic", nil)
	}

	clinic, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("clinic", err)
		}
		return nil, err
	}
	return clinic, nil
}

func (s *Service) ListClinics(ctx context.Context, authCtx model.AuthContext) ([]*model.Clinic, error) {
	if cached, ok := s.invalidator.Get(authCtx.UserID, listPath); ok {
		if clinics, ok := cached.([]*model.Clinic); ok {
			return clinics, nil
		}
	}

	clinics, err := s.repo.ListForUser(ctx, authCtx.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to list clinics: %w", err)
	}

	s.invalidator.Set(authCtx.UserID, listPath, clinics)
	return clinics, nil
}
