package dto

import (
	"time"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// LoginRequest payload. Identifier is a username or an email address.
type LoginRequest struct {
	Identifier string `json:"identifier" validate:"required"`
	Password   string `json:"password" validate:"required"`
}

// PasswordChangeRequest payload for authenticated password changes.
type PasswordChangeRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=8"`
}

// AuthResponse standard response for auth endpoints.
type AuthResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// LoginResponse bundles the authenticated account with its token.
type LoginResponse struct {
	Account AccountResponse `json:"account"`
	Auth    AuthResponse    `json:"auth"`
}

// NewLoginResponse maps a login result to the wire shape.
func NewLoginResponse(account *domain.Account, token string, expiresAt time.Time) LoginResponse {
	return LoginResponse{
		Account: NewAccountResponse(account),
		Auth:    AuthResponse{Token: token, ExpiresAt: expiresAt},
	}
}
