package auth

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// Principal is the enforcement context derived per request from a
// verified token. It is recomputed from the live account record on
// every call so deactivation and expiry take effect immediately.
type Principal struct {
	AccountID string
	Role      domain.Role
	Account   *domain.Account
}

// SessionGuard turns bearer tokens into enforcement contexts.
type SessionGuard struct {
	tokens   *TokenManager
	accounts repository.AccountRepository
	now      func() time.Time
}

// NewSessionGuard constructs the guard.
func NewSessionGuard(tokens *TokenManager, accounts repository.AccountRepository) *SessionGuard {
	return &SessionGuard{tokens: tokens, accounts: accounts, now: time.Now}
}

// Authenticate verifies the token, loads the live account and rejects
// callers that are missing, deactivated, or expired. Claims embedded
// in the token are never trusted for active/expiry state.
func (g *SessionGuard) Authenticate(ctx context.Context, token string) (*Principal, error) {
	claims, err := g.tokens.ParseToken(token)
	if err != nil {
		return nil, apperrors.NewUnauthorized("invalid token")
	}

	account, err := g.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewUnauthorized("account not found")
		}
		return nil, apperrors.MapError(err)
	}
	if !account.Active {
		return nil, apperrors.NewUnauthorized("account deactivated")
	}
	if account.Expired(g.now()) {
		return nil, apperrors.NewUnauthorized("account expired")
	}

	return &Principal{AccountID: account.ID, Role: account.Role, Account: account}, nil
}

// AuthenticateOptional runs the same checks but degrades to no
// principal when the token is absent or stale, for routes where
// anonymous access is explicitly allowed.
func (g *SessionGuard) AuthenticateOptional(ctx context.Context, token string) *Principal {
	if token == "" {
		return nil
	}
	principal, err := g.Authenticate(ctx, token)
	if err != nil {
		return nil
	}
	return principal
}
