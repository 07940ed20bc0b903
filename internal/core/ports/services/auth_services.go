package services

import (
	"context"
	"time"

	"github.com/expensehub/expense_approval_app/internal/core/domain"
)

// TokenSvcFacade issues and validates access and refresh tokens.
type TokenSvcFacade interface {
	// GenerateAccessToken creates a signed JWT for the user.
	GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// GenerateRefreshToken creates a new opaque refresh token and its expiry.
	GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error)

	// ValidateAndParseRefreshToken checks a presented refresh token against the
	// user's stored hash and returns the user when valid.
	ValidateAndParseRefreshToken(ctx context.Context, userID string, refreshToken string) (*domain.User, error)
}

// GoogleOAuthSvcFacade handles the Google OAuth sign-in exchange.
type GoogleOAuthSvcFacade interface {
	// AuthCodeURL builds the Google consent page URL for the given state.
	AuthCodeURL(state string) string

	// ExchangeCode exchanges an authorization code for the user's verified
	// email and display name.
	ExchangeCode(ctx context.Context, code string) (email string, name string, err error)
}
