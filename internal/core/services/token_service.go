package services

import (
	"context"
	"fmt"
	"time"

	"github.com/expensehub/expense_approval_app/internal/apperrors"
	"github.com/expensehub/expense_approval_app/internal/core/domain"
	portsrepo "github.com/expensehub/expense_approval_app/internal/core/ports/repositories"
	portssvc "github.com/expensehub/expense_approval_app/internal/core/ports/services"
	"github.com/expensehub/expense_approval_app/internal/utils"
	"github.com/expensehub/expense_approval_app/pkg/config"
)

// refreshTokenBytes is the entropy of an opaque refresh token before hex encoding.
const refreshTokenBytes = 32

// tokenService issues short-lived JWT access tokens and opaque refresh tokens.
// Only the SHA256 hash of a refresh token is ever stored.
type tokenService struct {
	cfg      *config.AuthConfig
	userRepo portsrepo.UserRepositoryFacade
}

// NewTokenService creates a new token service.
func NewTokenService(cfg *config.AuthConfig, userRepo portsrepo.UserRepositoryFacade) portssvc.TokenSvcFacade {
	return &tokenService{cfg: cfg, userRepo: userRepo}
}

var _ portssvc.TokenSvcFacade = (*tokenService)(nil)

// GenerateAccessToken creates a signed JWT for the user.
func (s *tokenService) GenerateAccessToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	expiry := time.Duration(s.cfg.AccessTokenExpiryMinutes) * time.Minute
	token, err := utils.GenerateJWT(user.UserID, s.cfg.JWTSecret, expiry, s.cfg.Issuer)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, time.Now().Add(expiry), nil
}

// GenerateRefreshToken creates a new opaque refresh token, stores its hash on
// the user row, and returns the plaintext token with its expiry.
func (s *tokenService) GenerateRefreshToken(ctx context.Context, user *domain.User) (string, time.Time, error) {
	token, err := utils.GenerateSecureRandomString(refreshTokenBytes)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to generate refresh token: %w", err)
	}
	expiry := time.Now().Add(time.Duration(s.cfg.RefreshTokenExpiryDays) * 24 * time.Hour)
	hash := utils.HashRefreshToken(token)
	if err := s.userRepo.UpdateRefreshToken(ctx, user.UserID, &hash, &expiry); err != nil {
		return "", time.Time{}, fmt.Errorf("failed to store refresh token hash: %w", err)
	}
	return token, expiry, nil
}

// ValidateAndParseRefreshToken checks a presented refresh token against the
// user's stored hash and expiry, returning the user when valid.
func (s *tokenService) ValidateAndParseRefreshToken(ctx context.Context, userID string, refreshToken string) (*domain.User, error) {
	user, err := s.userRepo.FindUserByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.RefreshTokenHash == "" || !utils.CompareRefreshTokenHash(refreshToken, user.RefreshTokenHash) {
		return nil, fmt.Errorf("%w: refresh token mismatch", apperrors.ErrUnauthorized)
	}
	if user.RefreshTokenExpiryTime == nil || time.Now().After(*user.RefreshTokenExpiryTime) {
		return nil, apperrors.ErrRefreshTokenExpired
	}
	return user, nil
}
