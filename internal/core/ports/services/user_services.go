package services

import (
	"context"
	"time"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
	"github.com/expensehub/expense_approval_app/internal/dto"
)

// UserReaderSvc defines read operations for user data
type UserReaderSvc interface {
	// GetUserByID retrieves a specific user by their ID.
	GetUserByID(ctx context.Context, userID string) (*domain.User, error)

	// GetUserByEmail retrieves a specific user by email.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// ListUsersByCompany retrieves users belonging to a company.
	ListUsersByCompany(ctx context.Context, companyID string, limit int, offset int) ([]domain.User, error)
}

// UserWriterSvc defines write operations for user data
type UserWriterSvc interface {
	// CreateUser registers a new user with a bcrypt-hashed password.
	CreateUser(ctx context.Context, req dto.CreateUserRequest, creatorUserID string) (*domain.User, error)

	// UpdateUser merges the given fields into an existing user.
	UpdateUser(ctx context.Context, userID string, req dto.UpdateUserRequest, updaterUserID string) (*domain.User, error)
}

// UserAuthenticatorSvc defines authentication-related operations
type UserAuthenticatorSvc interface {
	// AuthenticateUser verifies email/password credentials.
	AuthenticateUser(ctx context.Context, email string, password string) (*domain.User, error)

	// FindOrCreateOAuthUser resolves a user from an external identity, creating
	// one on first sign-in.
	FindOrCreateOAuthUser(ctx context.Context, email string, name string, provider string) (*domain.User, error)

	// UpdateRefreshTokenHash stores the hash and expiry of the user's refresh token.
	UpdateRefreshTokenHash(ctx context.Context, userID string, tokenHash string, expiry time.Time) error

	// ClearRefreshToken invalidates the user's stored refresh token (logout).
	ClearRefreshToken(ctx context.Context, userID string) error
}

// UserSvcFacade combines all user-related service interfaces
type UserSvcFacade interface {
	UserReaderSvc
	UserWriterSvc
	UserAuthenticatorSvc
}
