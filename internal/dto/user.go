package dto

import (
	"time"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
)

// CreateUserRequest defines the data needed to register a new user.
type CreateUserRequest struct {
	Email         string  `json:"email" binding:"required,email"`
	Password      string  `json:"password" binding:"required,min=8"`
	Name          string  `json:"name" binding:"required"`
	Role          string  `json:"role" binding:"omitempty,oneof=ADMIN EMPLOYEE MANAGER DIRECTOR VP CFO"`
	CompanyID     string  `json:"companyID" binding:"required,uuid"`
	ManagerID     *string `json:"managerID,omitempty" binding:"omitempty,uuid"`
	Department    string  `json:"department,omitempty"`
	EmployeeLevel string  `json:"employeeLevel,omitempty"`
}

// UpdateUserRequest defines the fields that may be changed on a user.
type UpdateUserRequest struct {
	Name          *string `json:"name,omitempty"`
	Role          *string `json:"role,omitempty" binding:"omitempty,oneof=ADMIN EMPLOYEE MANAGER DIRECTOR VP CFO"`
	ManagerID     *string `json:"managerID,omitempty" binding:"omitempty,uuid"`
	Department    *string `json:"department,omitempty"`
	EmployeeLevel *string `json:"employeeLevel,omitempty"`
	IsActive      *bool   `json:"isActive,omitempty"`
}

// UserResponse defines the data returned for a user.
type UserResponse struct {
	UserID        string          `json:"userID"`
	Email         string          `json:"email"`
	Name          string          `json:"name"`
	Role          domain.UserRole `json:"role"`
	CompanyID     string          `json:"companyID"`
	ManagerID     *string         `json:"managerID,omitempty"`
	Department    string          `json:"department,omitempty"`
	EmployeeLevel string          `json:"employeeLevel,omitempty"`
	IsActive      bool            `json:"isActive"`
	CreatedAt     time.Time       `json:"createdAt"`
}

// ToUserResponse converts a domain.User to UserResponse DTO
func ToUserResponse(u *domain.User) UserResponse {
	return UserResponse{
		UserID:        u.UserID,
		Email:         u.Email,
		Name:          u.Name,
		Role:          u.Role,
		CompanyID:     u.CompanyID,
		ManagerID:     u.ManagerID,
		Department:    u.Department,
		EmployeeLevel: u.EmployeeLevel,
		IsActive:      u.IsActive,
		CreatedAt:     u.CreatedAt,
	}
}

// ToListUserResponse converts a slice of domain.User to UserResponse DTOs
func ToListUserResponse(users []domain.User) []UserResponse {
	res := make([]UserResponse, len(users))
	for i := range users {
		res[i] = ToUserResponse(&users[i])
	}
	return res
}
