package model

import (
	"time"

	"github.com/google/uuid"
)

// Appointment references one patient and one doctor inside one clinic. Date
// holds the combined calendar date and time of day.
type Appointment struct {
	Base
	ClinicID                uuid.UUID  `db:"clinic_id" json:"clinic_id"`
	PatientID               uuid.UUID  `db:"patient_id" json:"patient_id"`
	DoctorID                uuid.UUID  `db:"doctor_id" json:"doctor_id"`
	Date                    time.Time  `db:"date" json:"date"`
	AppointmentPriceInCents int        `db:"appointment_price_in_cents" json:"appointment_price_in_cents"`
	ReminderSentAt          *time.Time `db:"reminder_sent_at" json:"reminder_sent_at,omitempty"`
}

type UpsertAppointmentRequest struct {
	ID                      string `json:"id" validate:"omitempty,uuid"`
	PatientID               string `json:"patient_id" validate:"required,uuid"`
	DoctorID                string `json:"doctor_id" validate:"required,uuid"`
	AppointmentPriceInCents int    `json:"appointment_price_in_cents" validate:"gte=0"`
	Date                    string `json:"date" validate:"required"`
	Time                    string `json:"time" validate:"required"`
}

// AppointmentReminder is the joined row the reminder worker mails out.
type AppointmentReminder struct {
	ID           uuid.UUID `db:"id"`
	Date         time.Time `db:"date"`
	PatientName  string    `db:"patient_name"`
	PatientEmail string    `db:"patient_email"`
	DoctorName   string    `db:"doctor_name"`
}

// AppointmentFilters narrows clinic-scoped listing queries.
type AppointmentFilters struct {
	PatientID uuid.UUID
	DoctorID  uuid.UUID
	From      time.Time
	To        time.Time
}
