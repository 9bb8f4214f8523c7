package dto

import (
	"time"

	md "github.com/quotegrid/quotegrid/internal/models"
)

type UserResponse struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	Role      md.Role    `json:"role"`
	CompanyID *int64     `json:"companyId"`
	IsActive  bool       `json:"isActive"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
}

func NewUserResponse(u *md.User) *UserResponse {
	return &UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		CompanyID: u.CompanyID,
		IsActive:  u.IsActive,
		LastLogin: u.LastLogin,
	}
}

type PaginatedUserResponse struct {
	Data        []*UserResponse `json:"data"`
	Count       int64           `json:"count"`
	TotalPages  int             `json:"totalPages"`
	CurrentPage int             `json:"currentPage"`
	HasNextPage bool            `json:"hasNextPage"`
}

type CreateUserRequest struct {
	Username  string  `json:"username"  validate:"required"`
	Email     string  `json:"email"     validate:"required,email"`
	Password  string  `json:"password"  validate:"required,min=8"`
	Role      md.Role `json:"role"      validate:"required,oneof=member owner admin"`
	CompanyID *int64  `json:"companyId"`
}

type CreateUserResponse struct {
	ID int64 `json:"id"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword"     validate:"required,min=8"`
}
