package domain

import "time"

// UserRole identifies a user's position in the approval hierarchy.
// Roles double as the approver roles referenced by approval rule levels.
type UserRole string

const (
	RoleAdmin    UserRole = "ADMIN"
	RoleEmployee UserRole = "EMPLOYEE"
	RoleManager  UserRole = "MANAGER"
	RoleDirector UserRole = "DIRECTOR"
	RoleVP       UserRole = "VP"
	RoleCFO      UserRole = "CFO"
)

// Auth providers recognised on a user record.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User represents an application user (requester or approver).
type User struct {
	UserID        string   `json:"userID"` // Primary Key (UUID)
	Email         string   `json:"email"`
	Name          string   `json:"name"`
	PasswordHash  string   `json:"-"`
	Role          UserRole `json:"role"`
	CompanyID     string   `json:"companyID"`
	ManagerID     *string  `json:"managerID,omitempty"` // Self-reference, nullable
	Department    string   `json:"department,omitempty"`
	EmployeeLevel string   `json:"employeeLevel,omitempty"` // e.g. L1..L5, used by rule conditions
	AuthProvider  string   `json:"authProvider,omitempty"`  // "local" or "google"
	IsActive      bool     `json:"isActive"`

	// Refresh token state for session renewal.
	RefreshTokenHash       string     `json:"-"`
	RefreshTokenExpiryTime *time.Time `json:"-"`

	AuditFields
}
