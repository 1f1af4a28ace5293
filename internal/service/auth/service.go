package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/medagenda/clinic-api/internal/email"
	"github.com/medagenda/clinic-api/internal/model"
	"github.com/medagenda/clinic-api/internal/repository"
	"github.com/medagenda/clinic-api/pkg/auth"
	apperrors "github.com/medagenda/clinic-api/pkg/errors"
	"github.com/medagenda/clinic-api/pkg/security"
	"github.com/medagenda/clinic-api/pkg/validator"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

const bcryptCost = 12

type Service struct {
	userRepo repository.UserRepository
	jwtSvc   auth.JWTService
	emailSvc email.Service
	hasher   security.PasswordHasher
	expiry   time.Duration
}

func NewService(userRepo repository.UserRepository, jwtSvc auth.JWTService, emailSvc email.Service, expiry time.Duration) *Service {
	return &Service{
		userRepo: userRepo,
		jwtSvc:   jwtSvc,
		emailSvc: emailSvc,
		hasher:   security.NewBcryptHasher(bcryptCost),
		expiry:   expiry,
	}
}

func (s *Service) Register(ctx context.Context, req *model.RegisterRequest) (*model.User, *model.TokenResponse, error) {
	if fields := validator.Struct(req); fields != nil {
		return nil, nil, apperrors.Validation(fields)
	}

	if existing, _ := s.userRepo.GetByEmail(ctx, req.Email); existing != nil {
		return nil, nil, apperrors.Conflict("email already registered", nil)
	}

	hashed, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &model.User{
		Base:         model.Base{ID: uuid.New()},
		Email:        req.Email,
		Name:         req.Name,
		PasswordHash: hashed,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	if s.emailSvc != nil {
		if err := s.emailSvc.SendWelcome(ctx, user.Email, user.Name); err != nil {
			log.Warn().Err(err).Str("email", user.Email).Msg("failed to send welcome email")
		}
	}

	tokens, err := s.generateTokens(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *Service) Login(ctx context.Context, req *model.LoginRequest) (*model.TokenResponse, error) {
	if fields := validator.Struct(req); fields != nil {
		return nil, apperrors.Validation(fields)
	}

	user, err := s.userRepo.GetByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperrors.Unauthenticated(ErrInvalidCredentials)
	}

	if err := s.hasher.Compare(user.PasswordHash, req.Password); err != nil {
		return nil, apperrors.Unauthenticated(ErrInvalidCredentials)
	}

	return s.generateTokens(user)
}

func (s *Service) Refresh(ctx context.Context, refreshToken string) (*model.TokenResponse, error) {
	userID, err := s.jwtSvc.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, apperrors.Unauthenticated(err)
	}

	user, err := s.userRepo.Get(ctx, userID)
	if err != nil {
		return nil, apperrors.Unauthenticated(err)
	}

	return s.generateTokens(user)
}

func (s *Service) ValidateToken(ctx context.Context, token string) (*auth.TokenClaims, error) {
	claims, err := s.jwtSvc.ValidateToken(token)
	if err != nil {
		return nil, apperrors.Unauthenticated(err)
	}
	return claims, nil
}

func (s *Service) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	user, err := s.userRepo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("user", err)
		}
		return nil, err
	}
	return user, nil
}

func (s *Service) generateTokens(user *model.User) (*model.TokenResponse, error) {
	access, err := s.jwtSvc.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtSvc.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	return &model.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresIn:    int64(s.expiry.Seconds()),
	}, nil
}
