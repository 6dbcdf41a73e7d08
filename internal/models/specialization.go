package models

import (
	"database/sql"
	"time"
)

// Specialization is a department that owns one queue and one capacity
// limit.
type Specialization struct {
	ID          int64
	Name        string
	Code        string
	Description sql.NullString
	MaxCapacity int
	IsActive    string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type CreateSpecializationRequest struct {
	Name        string `json:"name" validate:"required,max=255"`
	Code        string `json:"code" validate:"required,max=10"`
	Description string `json:"description" validate:"omitempty"`
	MaxCapacity int    `json:"max_capacity" validate:"required,min=1,max=1000"`
	IsActive    string `json:"is_active" validate:"omitempty,oneof=y n"`
}

type UpdateSpecializationRequest struct {
	Name        string `json:"name" validate:"omitempty,max=255"`
	Code        string `json:"code" validate:"omitempty,max=10"`
	Description string `json:"description" validate:"omitempty"`
	MaxCapacity *int   `json:"max_capacity" validate:"omitempty,min=1,max=1000"`
	IsActive    string `json:"is_active" validate:"omitempty,oneof=y n"`
}

type SpecializationResponse struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Code        string `json:"code"`
	Description string `json:"description,omitempty"`
	MaxCapacity int    `json:"max_capacity"`
	IsActive    string `json:"is_active"`
}

func ToSpecializationResponse(s Specialization) SpecializationResponse {
	return SpecializationResponse{
		ID:          s.ID,
		Name:        s.Name,
		Code:        s.Code,
		Description: s.Description.String,
		MaxCapacity: s.MaxCapacity,
		IsActive:    s.IsActive,
	}
}
