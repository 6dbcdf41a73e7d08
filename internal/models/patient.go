package models

import (
	"database/sql"
	"time"
)

// Patient is the registry row for one patient.
type Patient struct {
	ID               int64
	FullName         string
	DateOfBirth      time.Time
	Gender           string
	PhoneNumber      string
	Email            sql.NullString
	Address          sql.NullString
	BloodType        sql.NullString
	Allergies        sql.NullString
	Status           string
	RegistrationDate time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type CreatePatientRequest struct {
	FullName    string `json:"full_name" validate:"required,max=255"`
	DateOfBirth string `json:"date_of_birth" validate:"required"` // YYYY-MM-DD
	Gender      string `json:"gender" validate:"required,oneof=male female other"`
	PhoneNumber string `json:"phone_number" validate:"required,max=30"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address" validate:"omitempty"`
	BloodType   string `json:"blood_type" validate:"omitempty,max=5"`
	Allergies   string `json:"allergies" validate:"omitempty"`
}

type UpdatePatientRequest struct {
	FullName    string `json:"full_name" validate:"omitempty,max=255"`
	PhoneNumber string `json:"phone_number" validate:"omitempty,max=30"`
	Email       string `json:"email" validate:"omitempty,email"`
	Address     string `json:"address" validate:"omitempty"`
	BloodType   string `json:"blood_type" validate:"omitempty,max=5"`
	Allergies   string `json:"allergies" validate:"omitempty"`
	Status      string `json:"status" validate:"omitempty,oneof=active archived"`
}

type PatientResponse struct {
	ID               int64  `json:"id"`
	FullName         string `json:"full_name"`
	DateOfBirth      string `json:"date_of_birth"`
	Gender           string `json:"gender"`
	PhoneNumber      string `json:"phone_number"`
	Email            string `json:"email,omitempty"`
	Address          string `json:"address,omitempty"`
	BloodType        string `json:"blood_type,omitempty"`
	Allergies        string `json:"allergies,omitempty"`
	Status           string `json:"status"`
	RegistrationDate string `json:"registration_date"`
}

func ToPatientResponse(p Patient) PatientResponse {
	return PatientResponse{
		ID:               p.ID,
		FullName:         p.FullName,
		DateOfBirth:      p.DateOfBirth.Format("2006-01-02"),
		Gender:           p.Gender,
		PhoneNumber:      p.PhoneNumber,
		Email:            p.Email.String,
		Address:          p.Address.String,
		BloodType:        p.BloodType.String,
		Allergies:        p.Allergies.String,
		Status:           p.Status,
		RegistrationDate: p.RegistrationDate.Format("2006-01-02"),
	}
}
