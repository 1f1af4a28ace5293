package model

import (
	"github.com/google/uuid"
)

type PatientSex string

const (
	PatientSexMale   PatientSex = "male"
	PatientSexFemale PatientSex = "female"
)

type Patient struct {
	Base
	ClinicID    uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	Name        string     `db:"name" json:"name"`
	Email       string     `db:"email" json:"email"`
	PhoneNumber string     `db:"phone_number" json:"phone_number"`
	Sex         PatientSex `db:"sex" json:"sex"`
}

type UpsertPatientRequest struct {
	ID          string `json:"id" validate:"omitempty,uuid"`
	Name        string `json:"name" validate:"required,min=1"`
	Email       string `json:"email" validate:"required,email"`
	PhoneNumber string `json:"phone_number" validate:"required,min=1"`
	Sex         string `json:"sex" validate:"required,oneof=male female"`
}
