package dto

import "time"

// LoginRequest defines the credentials for password login.
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest carries the user whose refresh token cookie is being redeemed.
type RefreshRequest struct {
	UserID string `json:"userID" binding:"required,uuid"`
}

// AuthResponse is returned on successful login/refresh.
type AuthResponse struct {
	User        UserResponse `json:"user"`
	AccessToken string       `json:"accessToken"`
	ExpiresAt   time.Time    `json:"expiresAt"`
}
