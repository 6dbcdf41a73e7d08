package models

import (
	"time"
)

// Staff roles. super_user manages the registries and reports,
// front_desk operates the queues.
const (
	RoleSuperUser = "super_user"
	RoleFrontDesk = "front_desk"
)

// User is the staff account row as stored.
type User struct {
	ID        int64
	Name      string
	Email     string
	Password  string
	Role      string
	IsBanned  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type CreateUserRequest struct {
	Name     string `json:"name" validate:"required,max=255"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Role     string `json:"role" validate:"required,oneof=super_user front_desk"`
}

type UpdateUserRequest struct {
	Name     string `json:"name" validate:"omitempty,max=255"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"omitempty,min=8"`
	Role     string `json:"role" validate:"omitempty,oneof=super_user front_desk"`
	IsBanned string `json:"is_banned" validate:"omitempty,oneof=y n"`
}

// UserResponse is the API shape; never carries the password hash.
type UserResponse struct {
	ID    int64  `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

func ToUserResponse(u User) UserResponse {
	return UserResponse{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}
}
