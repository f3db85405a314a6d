// Package dto contains request and response bodies for the HTTP API.
package dto

import (
	"time"

	"github.com/authcore/authcore/internal/model"
)

// TokenTypeBearer is reported in token responses.
const TokenTypeBearer = "Bearer"

// RegisterRequest is the body of POST /auth/register.
type RegisterRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	PhoneNo   string `json:"phone_no,omitempty"`
	Location  string `json:"location,omitempty"`
	Country   string `json:"country,omitempty"`
}

// RegisterResponse is returned after a successful registration.
type RegisterResponse struct {
	Message string `json:"message"`
	UserID  int64  `json:"user_id"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TokenResponse carries issued tokens. RefreshToken is omitted on refresh.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
	ExpiresIn    int64  `json:"expires_in"`
}

// RefreshRequest is the optional body of POST /auth/refresh and /auth/logout.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Message string `json:"message"`
}

// ProfileResponse is returned by GET /auth/profile.
type ProfileResponse = model.UserProfile

// ErrorResponse represents an API error.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// NewTokenResponse builds a TokenResponse for the given access token claims.
func NewTokenResponse(access, refresh string, claims *model.TokenClaims) TokenResponse {
	var expiresIn int64
	if claims != nil {
		expiresIn = int64(claims.ExpiresAt.Sub(claims.IssuedAt) / time.Second)
	}
	return TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    TokenTypeBearer,
		ExpiresIn:    expiresIn,
	}
}
