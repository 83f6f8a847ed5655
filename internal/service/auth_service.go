package service

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AuthService coordinates credential verification and token issuance.
type AuthService struct {
	accounts repository.AccountRepository
	tokenMgr *auth.TokenManager
	now      func() time.Time
}

// NewAuthService builds the service.
func NewAuthService(cfg config.Config, accounts repository.AccountRepository) *AuthService {
	return &AuthService{
		accounts: accounts,
		tokenMgr: auth.NewTokenManager(cfg.Auth.JWTSecret, cfg.Auth.AccessTokenTTLMinutes),
		now:      time.Now,
	}
}

// Login authenticates by username or email and issues a signed token.
// Deactivated and expired accounts are rejected even with a correct
// password.
func (s *AuthService) Login(ctx context.Context, identifier, password string) (*domain.Account, string, time.Time, error) {
	account, err := s.accounts.GetByUsername(ctx, identifier)
	if err == pgx.ErrNoRows {
		account, err = s.accounts.GetByEmail(ctx, identifier)
	}
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
		}
		return nil, "", time.Time{}, apperrors.MapError(err)
	}
	if !account.Active {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account deactivated")
	}
	if account.Expired(s.now()) {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("account expired")
	}
	if err := auth.ComparePassword(account.PasswordHash, password); err != nil {
		return nil, "", time.Time{}, apperrors.NewUnauthorized("invalid credentials")
	}

	token, exp, err := s.tokenMgr.GenerateToken(account.ID, account.Role)
	if err != nil {
		return nil, "", time.Time{}, apperrors.NewInternalError(err)
	}
	return sanitize(account), token, exp, nil
}

// TokenManager exposes the underlying token manager for the session
// guard.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokenMgr
}
