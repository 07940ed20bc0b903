package models

import "database/sql"

// User is the database representation of an application user.
type User struct {
	UserID        string         `db:"user_id"`
	Email         string         `db:"email"`
	Name          string         `db:"name"`
	PasswordHash  sql.NullString `db:"password_hash"`
	Role          string         `db:"role"`
	CompanyID     sql.NullString `db:"company_id"`
	ManagerID     sql.NullString `db:"manager_id"`
	Department    sql.NullString `db:"department"`
	EmployeeLevel sql.NullString `db:"employee_level"`
	AuthProvider  string         `db:"auth_provider"`
	IsActive      bool           `db:"is_active"`

	RefreshTokenHash       sql.NullString `db:"refresh_token_hash"`
	RefreshTokenExpiryTime sql.NullTime   `db:"refresh_token_expiry_time"`

	AuditFields
}
