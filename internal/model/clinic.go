package model

// Clinic is the tenant boundary. Doctors, patients, appointments and
// memberships all hang off a clinic and are cascade-deleted with it.
type Clinic struct {
	Base
	Name string `db:"name" json:"name"`
}

type CreateClinicRequest struct {
	Name string `json:"name" validate:"required,min=1"`
}
