package session

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
)

// Service resolves an authenticated identity to its clinic context. Pure
// read-only lookup; the result is passed to actions explicitly.
type Service struct {
	clinicRepo repository.ClinicRepository
}

func NewService(clinicRepo repository.ClinicRepository) *Service {
	return &Service{clinicRepo: clinicRepo}
}

// Resolve builds the AuthContext for a user. A user with no membership gets
// HasClinic=false rather than an error; whether that is terminal depends on
// the action (clinic creation is the one that proceeds without a clinic).
func (s *Service) Resolve(ctx context.Context, userID uuid.UUID) (model.AuthContext, error) {
	membership, err := s.clinicRepo.FirstMembership(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return model.AuthContext{UserID: userID}, nil
		}
		return model.AuthContext{}, err
	}

	return model.AuthContext{
		UserID:    userID,
		ClinicID:  membership.ClinicID,
		HasClinic: true,
	}, nil
}
