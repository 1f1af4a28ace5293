package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// TokenClaims is the identity carried by an access token. The clinic is
// resolved per-request from the membership table, never baked into the token.
type TokenClaims struct {
	UserID uuid.UUID
	Email  string
}

type JWTService interface {
	GenerateAccessToken(userID uuid.UUID, email string) (string, error)
	GenerateRefreshToken(userID uuid.UUID) (string, error)
	ValidateToken(token string) (*TokenClaims, error)
	ValidateRefreshToken(token string) (uuid.UUID, error)
}

type Config struct {
	Secret        string
	RefreshSecret string
	Expiry        time.Duration
	RefreshExpiry time.Duration
}

type jwtService struct {
	cfg Config
}

func NewJWTService(cfg Config) JWTService {
	return &jwtService{cfg: cfg}
}

func (s *jwtService) GenerateAccessToken(userID uuid.UUID, email string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"email":   email,
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.Expiry).Unix(),
	})
	return token.SignedString([]byte(s.cfg.Secret))
}

func (s *jwtService) GenerateRefreshToken(userID uuid.UUID) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID.String(),
		"iat":     now.Unix(),
		"exp":     now.Add(s.cfg.RefreshExpiry).Unix(),
	})
	return token.SignedString([]byte(s.cfg.RefreshSecret))
}

func (s *jwtService) ValidateToken(tokenString string) (*TokenClaims, error) {
	claims, err := s.parse(tokenString, s.cfg.Secret)
	if err != nil {
		return nil, err
	}

	userID, err := claimUserID(claims)
	if err != nil {
		return nil, err
	}

	email, _ := claims["email"].(string)
	return &TokenClaims{UserID: userID, Email: email}, nil
}

func (s *jwtService) ValidateRefreshToken(tokenString string) (uuid.UUID, error) {
	claims, err := s.parse(tokenString, s.cfg.RefreshSecret)
	if err != nil {
		return uuid.Nil, err
	}
	return claimUserID(claims)
}

func (s *jwtService) parse(tokenString, secret string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid token: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}

func claimUserID(claims jwt.MapClaims) (uuid.UUID, error) {
	raw, ok := claims["user_id"].(string)
	if !ok {
		return uuid.Nil, fmt.Errorf("missing user_id claim")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid user_id claim")
	}
	return userID, nil
}
