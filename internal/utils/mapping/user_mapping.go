package mapping

import (
	"database/sql"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/models"
)

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

// ToModelUser converts a domain User to a model User
func ToModelUser(d domain.User) models.User {
	m := models.User{
		UserID:        d.UserID,
		Email:         d.Email,
		Name:          d.Name,
		PasswordHash:  nullString(d.PasswordHash),
		Role:          string(d.Role),
		CompanyID:     nullString(d.CompanyID),
		ManagerID:     nullStringPtr(d.ManagerID),
		Department:    nullString(d.Department),
		EmployeeLevel: nullString(d.EmployeeLevel),
		AuthProvider:  d.AuthProvider,
		IsActive:      d.IsActive,
		AuditFields:   ToModelAuditFields(d.AuditFields),
	}
	m.RefreshTokenHash = nullString(d.RefreshTokenHash)
	if d.RefreshTokenExpiryTime != nil {
		m.RefreshTokenExpiryTime = sql.NullTime{Time: *d.RefreshTokenExpiryTime, Valid: true}
	}
	return m
}

// ToDomainUser converts a model User to a domain User
func ToDomainUser(m models.User) domain.User {
	d := domain.User{
		UserID:        m.UserID,
		Email:         m.Email,
		Name:          m.Name,
		PasswordHash:  m.PasswordHash.String,
		Role:          domain.UserRole(m.Role),
		CompanyID:     m.CompanyID.String,
		Department:    m.Department.String,
		EmployeeLevel: m.EmployeeLevel.String,
		AuthProvider:  m.AuthProvider,
		IsActive:      m.IsActive,
		AuditFields:   ToDomainAuditFields(m.AuditFields),
	}
	if m.ManagerID.Valid {
		managerID := m.ManagerID.String
		d.ManagerID = &managerID
	}
	d.RefreshTokenHash = m.RefreshTokenHash.String
	if m.RefreshTokenExpiryTime.Valid {
		expiry := m.RefreshTokenExpiryTime.Time
		d.RefreshTokenExpiryTime = &expiry
	}
	return d
}

// ToDomainUserSlice converts a slice of model Users to domain Users
func ToDomainUserSlice(ms []models.User) []domain.User {
	ds := make([]domain.User, len(ms))
	for i, m := range ms {
		ds[i] = ToDomainUser(m)
	}
	return ds
}
