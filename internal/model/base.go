package model

import (
	"time"

	"github.com/google/uuid"
)

// Base contains common fields for all models
type Base struct {
	ID        uuid.UUID `json:"id" db:"id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AuthContext is the resolved identity for one request. It is built once at
// the boundary and passed to every service call explicitly; services never
// read identity out of ambient state.
type AuthContext struct {
	UserID    uuid.UUID
	ClinicID  uuid.UUID
	HasClinic bool
}
