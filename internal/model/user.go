package model

import (
	"time"

	"github.com/google/uuid"
)

type User struct {
	Base
	Email        string `db:"email" json:"email"`
	Name         string `db:"name" json:"name"`
	PasswordHash string `db:"password_hash" json:"-"`
}

// UserClinic links a user to a clinic. Many-to-many at the schema level; the
// session resolver currently picks a single membership per user.
type UserClinic struct {
	UserID    uuid.UUID `db:"user_id" json:"user_id"`
	ClinicID  uuid.UUID `db:"clinic_id" json:"clinic_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}
