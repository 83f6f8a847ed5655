package service

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/helpdesk-service/internal/auth"
	"github.com/spec-kit/helpdesk-service/internal/authz"
	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

// AccountService provisions and manages accounts in the hierarchy.
type AccountService struct {
	accounts   repository.AccountRepository
	dispatcher events.Dispatcher
	bcryptCost int
	now        func() time.Time
}

// AccountDependencies bundles collaborators for the account service.
type AccountDependencies struct {
	AccountRepo repository.AccountRepository
	Dispatcher  events.Dispatcher
}

// NewAccountService constructs the service.
func NewAccountService(cfg config.Config, deps AccountDependencies) *AccountService {
	return &AccountService{
		accounts:   deps.AccountRepo,
		dispatcher: deps.Dispatcher,
		bcryptCost: cfg.Auth.BcryptCost,
		now:        time.Now,
	}
}

// CreateAccountInput describes a provisioning request.
type CreateAccountInput struct {
	Role         domain.Role
	Username     string
	Email        string
	Password     string
	Location     string
	BusinessType *domain.BusinessType
	ExpiryDate   *time.Time
}

// UpdateAccountInput describes a partial account update. Nil fields
// are left untouched. AccountLimit is never client-settable; it is
// recomputed from BusinessType.
type UpdateAccountInput struct {
	Username     *string
	Email        *string
	Location     *string
	BusinessType *domain.BusinessType
	ExpiryDate   *time.Time
}

// CreateAccount provisions a new account under creatorID, computing
// the child's owner chain from the creator's and enforcing the role
// allow table, required fields, uniqueness and the direct-creation
// quota of limited super admins.
func (s *AccountService) CreateAccount(ctx context.Context, input CreateAccountInput, creatorID string) (*domain.Account, error) {
	creator, err := s.loadAccount(ctx, creatorID, "creator")
	if err != nil {
		return nil, err
	}
	if !creator.Active {
		return nil, apperrors.NewForbidden("creator account deactivated")
	}
	if creator.Expired(s.now()) {
		return nil, apperrors.NewForbidden("creator account expired")
	}

	if !authz.CanCreate(creator.Role, input.Role) {
		return nil, apperrors.NewForbidden("role not allowed to create the requested account type")
	}

	quotaLimited := creator.Role == domain.RoleSuperAdmin && creator.AccountLimit != nil
	if quotaLimited {
		count, err := s.accounts.CountActiveCreatedBy(ctx, creator.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if count >= *creator.AccountLimit {
			return nil, apperrors.NewForbidden("account quota exceeded")
		}
	}

	account, err := s.buildAccount(input, creator)
	if err != nil {
		return nil, err
	}

	usernameTaken, emailTaken, err := s.accounts.FindIdentityConflict(ctx, account.Username, account.Email)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if usernameTaken {
		return nil, apperrors.NewConflict("username already in use", map[string]any{"username": account.Username})
	}
	if emailTaken {
		return nil, apperrors.NewConflict("email already in use", map[string]any{"email": account.Email})
	}

	hash, err := auth.HashPassword(input.Password, s.bcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	account.PasswordHash = hash

	// The insert re-checks the quota inside a transaction so two
	// concurrent creations cannot both pass the count above.
	if quotaLimited {
		err = s.accounts.CreateWithinQuota(ctx, account, creator.ID, *creator.AccountLimit)
	} else {
		err = s.accounts.Create(ctx, account)
	}
	if err != nil {
		if err == repository.ErrQuotaExceeded {
			return nil, apperrors.NewForbidden("account quota exceeded")
		}
		return nil, apperrors.MapError(err)
	}

	s.publish(ctx, events.Event{
		Type:    events.EventAccountCreated,
		ActorID: creator.ID,
		Payload: events.AccountCreatedPayload{
			AccountID: account.ID,
			Role:      account.Role,
			CreatedBy: creator.ID,
		},
	})
	return sanitize(account), nil
}

func (s *AccountService) buildAccount(input CreateAccountInput, creator *domain.Account) (*domain.Account, error) {
	username := strings.TrimSpace(input.Username)
	email := strings.TrimSpace(input.Email)
	if username == "" || email == "" || input.Password == "" {
		return nil, apperrors.NewValidationError("username, email and password required", nil)
	}

	account := &domain.Account{
		Username:  username,
		Email:     email,
		Role:      input.Role,
		Active:    true,
		Location:  strings.TrimSpace(input.Location),
		CreatedBy: &creator.ID,
		Chain:     domain.ChildChain(creator),
	}

	if input.Role == domain.RoleSuperAdmin {
		if input.BusinessType == nil {
			return nil, apperrors.NewValidationError("business type required for super admin accounts", nil)
		}
		if account.Location == "" {
			return nil, apperrors.NewValidationError("location required for super admin accounts", nil)
		}
		limit, ok := domain.LimitForBusinessType(*input.BusinessType)
		if !ok {
			return nil, apperrors.NewValidationError("unknown business type", map[string]any{"business_type": *input.BusinessType})
		}
		bt := *input.BusinessType
		account.BusinessType = &bt
		account.AccountLimit = &limit
		// Expiry only ever means something on super admin tenants.
		account.ExpiryDate = input.ExpiryDate
	}

	return account, nil
}

// GetAccount returns the account when the caller owns it through the
// hierarchy or is the account itself.
func (s *AccountService) GetAccount(ctx context.Context, targetID, callerID string) (*domain.Account, error) {
	caller, err := s.loadAccount(ctx, callerID, "caller")
	if err != nil {
		return nil, err
	}
	target, err := s.loadAccount(ctx, targetID, "account")
	if err != nil {
		return nil, err
	}
	if caller.ID != target.ID && !domain.Owns(caller, target) {
		return nil, apperrors.NewForbidden("account outside caller scope")
	}
	return sanitize(target), nil
}

// UpdateAccount applies a partial update. Username and email change
// only through self-service; location, business type and expiry are
// manager-updatable, requiring both the management allow table and
// chain ownership. Changing the business type of a super admin
// recomputes its account limit from the fixed table.
func (s *AccountService) UpdateAccount(ctx context.Context, targetID string, input UpdateAccountInput, updaterID string) (*domain.Account, error) {
	updater, err := s.loadAccount(ctx, updaterID, "updater")
	if err != nil {
		return nil, err
	}
	target, err := s.loadAccount(ctx, targetID, "account")
	if err != nil {
		return nil, err
	}

	selfService := updater.ID == target.ID
	if !selfService {
		if !authz.CanManage(updater.Role, target.Role) || !domain.Owns(updater, target) {
			return nil, apperrors.NewForbidden("not allowed to manage this account")
		}
	}
	if selfService && (input.BusinessType != nil || input.ExpiryDate != nil) {
		return nil, apperrors.NewForbidden("privileged fields require a manager")
	}
	if !selfService && (input.Username != nil || input.Email != nil) {
		return nil, apperrors.NewForbidden("username and email are self-service fields")
	}

	changed := false
	newUsername := target.Username
	newEmail := target.Email
	if input.Username != nil && strings.TrimSpace(*input.Username) != target.Username {
		newUsername = strings.TrimSpace(*input.Username)
		if newUsername == "" {
			return nil, apperrors.NewValidationError("username cannot be empty", nil)
		}
		changed = true
	}
	if input.Email != nil && strings.TrimSpace(*input.Email) != target.Email {
		newEmail = strings.TrimSpace(*input.Email)
		if newEmail == "" {
			return nil, apperrors.NewValidationError("email cannot be empty", nil)
		}
		changed = true
	}

	if newUsername != target.Username || newEmail != target.Email {
		usernameTaken, emailTaken, err := s.accounts.FindIdentityConflict(ctx, newUsername, newEmail)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if newUsername != target.Username && usernameTaken {
			return nil, apperrors.NewConflict("username already in use", map[string]any{"username": newUsername})
		}
		if newEmail != target.Email && emailTaken {
			return nil, apperrors.NewConflict("email already in use", map[string]any{"email": newEmail})
		}
	}
	target.Username = newUsername
	target.Email = newEmail

	if input.Location != nil && *input.Location != target.Location {
		target.Location = *input.Location
		changed = true
	}
	if input.BusinessType != nil && target.Role == domain.RoleSuperAdmin {
		limit, ok := domain.LimitForBusinessType(*input.BusinessType)
		if !ok {
			return nil, apperrors.NewValidationError("unknown business type", map[string]any{"business_type": *input.BusinessType})
		}
		bt := *input.BusinessType
		target.BusinessType = &bt
		target.AccountLimit = &limit
		changed = true
	}
	if input.ExpiryDate != nil && target.Role == domain.RoleSuperAdmin {
		target.ExpiryDate = input.ExpiryDate
		changed = true
	}

	if !changed {
		return sanitize(target), nil
	}
	if err := s.accounts.Update(ctx, target); err != nil {
		return nil, apperrors.MapError(err)
	}
	return sanitize(target), nil
}

// ChangePassword re-verifies the current password before storing the
// new hash.
func (s *AccountService) ChangePassword(ctx context.Context, accountID, currentPassword, newPassword string) error {
	account, err := s.loadAccount(ctx, accountID, "account")
	if err != nil {
		return err
	}
	if err := auth.ComparePassword(account.PasswordHash, currentPassword); err != nil {
		return apperrors.NewUnauthorized("invalid credentials")
	}
	if newPassword == "" {
		return apperrors.NewValidationError("new password required", nil)
	}
	hash, err := auth.HashPassword(newPassword, s.bcryptCost)
	if err != nil {
		return apperrors.NewInternalError(err)
	}
	account.PasswordHash = hash
	if err := s.accounts.Update(ctx, account); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

// DeactivateAccount soft-deletes: the active flag flips to false and
// the record stays. Tickets and attachments are never cascaded.
func (s *AccountService) DeactivateAccount(ctx context.Context, targetID, updaterID string) error {
	updater, err := s.loadAccount(ctx, updaterID, "updater")
	if err != nil {
		return err
	}
	target, err := s.loadAccount(ctx, targetID, "account")
	if err != nil {
		return err
	}
	if !authz.CanManage(updater.Role, target.Role) || !domain.Owns(updater, target) {
		return apperrors.NewForbidden("not allowed to manage this account")
	}
	if !target.Active {
		return nil
	}
	target.Active = false
	if err := s.accounts.Update(ctx, target); err != nil {
		return apperrors.MapError(err)
	}
	s.publish(ctx, events.Event{
		Type:    events.EventAccountDeactivated,
		ActorID: updater.ID,
		Payload: events.AccountDeactivatedPayload{AccountID: target.ID, Role: target.Role},
	})
	return nil
}

func (s *AccountService) loadAccount(ctx context.Context, id, label string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFound(label, map[string]any{"id": id})
		}
		return nil, apperrors.MapError(err)
	}
	return account, nil
}

func (s *AccountService) publish(ctx context.Context, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = s.now()
	}
	_ = s.dispatcher.Publish(ctx, event)
}

// sanitize strips credentials before records leave the service.
func sanitize(account *domain.Account) *domain.Account {
	copied := *account
	copied.PasswordHash = ""
	return &copied
}
