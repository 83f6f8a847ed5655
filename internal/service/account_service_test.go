package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/spec-kit/helpdesk-service/internal/config"
	"github.com/spec-kit/helpdesk-service/internal/domain"
	"github.com/spec-kit/helpdesk-service/internal/events"
	"github.com/spec-kit/helpdesk-service/internal/repository"
	apperrors "github.com/spec-kit/helpdesk-service/pkg/util"
)

func testConfig() config.Config {
	return config.Config{
		Auth: config.AuthConfig{
			JWTSecret:             "test-secret",
			AccessTokenTTLMinutes: 60,
			BcryptCost:            bcrypt.MinCost,
		},
	}
}

func newAccountService(repo repository.AccountRepository, dispatcher events.Dispatcher) *AccountService {
	return NewAccountService(testConfig(), AccountDependencies{AccountRepo: repo, Dispatcher: dispatcher})
}

func TestCreateAccountBuildsChainFromCreator(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	created, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleUser,
		Username: "fresh",
		Email:    "fresh@helpdesk.local",
		Password: "secret123",
	}, h.ItPerson.ID)
	require.NoError(t, err)

	require.Equal(t, domain.RoleUser, created.Role)
	require.NotNil(t, created.CreatedBy)
	require.Equal(t, h.ItPerson.ID, *created.CreatedBy)
	require.Equal(t, h.Owner.ID, *created.Chain.SystemOwnerID)
	require.Equal(t, h.SuperAdmin.ID, *created.Chain.SuperAdminID)
	require.Equal(t, h.Admin.ID, *created.Chain.AdminID)
	require.Equal(t, h.ItPerson.ID, *created.Chain.ItPersonID)
	require.Empty(t, created.PasswordHash)
}

func TestCreateAccountEnforcesRoleTable(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	_, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleUser,
		Username: "direct",
		Email:    "direct@helpdesk.local",
		Password: "secret123",
	}, h.Owner.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleSuperAdmin,
		Username: "peer",
		Email:    "peer@helpdesk.local",
		Password: "secret123",
	}, h.User.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestCreateSuperAdminRequiresBusinessTypeAndLocation(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	_, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleSuperAdmin,
		Username: "tenant2",
		Email:    "tenant2@helpdesk.local",
		Password: "secret123",
		Location: "Bergen",
	}, h.Owner.ID)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	bt := domain.BusinessLarge
	_, err = svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:         domain.RoleSuperAdmin,
		Username:     "tenant2",
		Email:        "tenant2@helpdesk.local",
		Password:     "secret123",
		BusinessType: &bt,
	}, h.Owner.ID)
	require.True(t, apperrors.IsCode(err, "VALIDATION_FAILED"))

	created, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:         domain.RoleSuperAdmin,
		Username:     "tenant2",
		Email:        "tenant2@helpdesk.local",
		Password:     "secret123",
		Location:     "Bergen",
		BusinessType: &bt,
	}, h.Owner.ID)
	require.NoError(t, err)
	require.NotNil(t, created.AccountLimit)
	require.Equal(t, 3000, *created.AccountLimit)
}

func TestCreateAccountQuota(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	limit := 2
	stored := repo.accounts[h.SuperAdmin.ID]
	stored.AccountLimit = &limit

	// One active admin already hangs off the super admin.
	second, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleAdmin,
		Username: "admin2",
		Email:    "admin2@helpdesk.local",
		Password: "secret123",
	}, h.SuperAdmin.ID)
	require.NoError(t, err)

	_, err = svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleAdmin,
		Username: "admin3",
		Email:    "admin3@helpdesk.local",
		Password: "secret123",
	}, h.SuperAdmin.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	// Deactivating a direct creation frees a slot.
	require.NoError(t, svc.DeactivateAccount(context.Background(), second.ID, h.SuperAdmin.ID))

	_, err = svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleAdmin,
		Username: "admin3",
		Email:    "admin3@helpdesk.local",
		Password: "secret123",
	}, h.SuperAdmin.ID)
	require.NoError(t, err)
}

func TestCreateAccountRejectsDuplicateIdentity(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	_, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleUser,
		Username: "enduser",
		Email:    "someone@helpdesk.local",
		Password: "secret123",
	}, h.ItPerson.ID)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))

	_, err = svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleUser,
		Username: "someone",
		Email:    "enduser@helpdesk.local",
		Password: "secret123",
	}, h.ItPerson.ID)
	require.True(t, apperrors.IsCode(err, "CONFLICT"))
}

func TestCreateAccountPublishesEvent(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	dispatcher := events.NewInMemoryDispatcher()

	var got events.Event
	dispatcher.Subscribe(events.EventAccountCreated, func(_ context.Context, event events.Event) error {
		got = event
		return nil
	})

	svc := newAccountService(repo, dispatcher)
	created, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:     domain.RoleUser,
		Username: "fresh",
		Email:    "fresh@helpdesk.local",
		Password: "secret123",
	}, h.ItPerson.ID)
	require.NoError(t, err)

	require.Equal(t, events.EventAccountCreated, got.Type)
	payload, ok := got.Payload.(events.AccountCreatedPayload)
	require.True(t, ok)
	require.Equal(t, created.ID, payload.AccountID)
}

func TestUpdateAccountSelfServiceLimits(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	updated, err := svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		Location: strPtr("Trondheim"),
	}, h.User.ID)
	require.NoError(t, err)
	require.Equal(t, "Trondheim", updated.Location)

	expiry := time.Now().Add(24 * time.Hour)
	_, err = svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		ExpiryDate: &expiry,
	}, h.User.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestCreateAccountStoresExpiryOnlyForSuperAdmins(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	created, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:       domain.RoleUser,
		Username:   "fresh",
		Email:      "fresh@helpdesk.local",
		Password:   "secret123",
		ExpiryDate: &expiry,
	}, h.ItPerson.ID)
	require.NoError(t, err)
	require.Nil(t, created.ExpiryDate)

	bt := domain.BusinessSmall
	tenant, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		Role:         domain.RoleSuperAdmin,
		Username:     "tenant2",
		Email:        "tenant2@helpdesk.local",
		Password:     "secret123",
		Location:     "Bergen",
		BusinessType: &bt,
		ExpiryDate:   &expiry,
	}, h.Owner.ID)
	require.NoError(t, err)
	require.NotNil(t, tenant.ExpiryDate)
	require.True(t, tenant.ExpiryDate.Equal(expiry))
}

func TestManagerCannotRewriteIdentity(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	// Username and email are self-service fields, even for a manager
	// who passes the allow table and owns the target.
	_, err := svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		Username: strPtr("renamed"),
	}, h.Admin.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	_, err = svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		Email: strPtr("renamed@helpdesk.local"),
	}, h.Admin.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))

	// The account itself still may.
	updated, err := svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		Username: strPtr("renamed"),
	}, h.User.ID)
	require.NoError(t, err)
	require.Equal(t, "renamed", updated.Username)

	// Managers keep the privileged set, location included.
	updated, err = svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		Location: strPtr("Lab 2"),
	}, h.Admin.ID)
	require.NoError(t, err)
	require.Equal(t, "Lab 2", updated.Location)
}

func TestUpdateAccountRequiresOwnership(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)

	// A second admin outside the user's chain.
	outsider := &domain.Account{
		ID:        "adm-2",
		Username:  "other.admin",
		Email:     "other.admin@helpdesk.local",
		Role:      domain.RoleAdmin,
		Active:    true,
		CreatedBy: &h.SuperAdmin.ID,
		Chain:     domain.ChildChain(h.SuperAdmin),
	}
	repo.add(outsider)

	svc := newAccountService(repo, nil)
	_, err := svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		Location: strPtr("Nowhere"),
	}, outsider.ID)
	require.True(t, apperrors.IsCode(err, "FORBIDDEN"))
}

func TestUpdateBusinessTypeRecomputesLimit(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	bt := domain.BusinessLarge
	updated, err := svc.UpdateAccount(context.Background(), h.SuperAdmin.ID, UpdateAccountInput{
		BusinessType: &bt,
	}, h.Owner.ID)
	require.NoError(t, err)
	require.Equal(t, domain.BusinessLarge, *updated.BusinessType)
	require.Equal(t, 3000, *updated.AccountLimit)
}

func TestUpdateAccountNoChangeSkipsWrite(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	before := repo.updates
	_, err := svc.UpdateAccount(context.Background(), h.User.ID, UpdateAccountInput{
		Username: strPtr(h.User.Username),
	}, h.User.ID)
	require.NoError(t, err)
	require.Equal(t, before, repo.updates)
}

func TestDeactivateAccountIsSoftAndIdempotent(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	require.NoError(t, svc.DeactivateAccount(context.Background(), h.User.ID, h.Admin.ID))

	stored, err := repo.GetByID(context.Background(), h.User.ID)
	require.NoError(t, err)
	require.False(t, stored.Active)

	// Second call is a no-op, not an error.
	require.NoError(t, svc.DeactivateAccount(context.Background(), h.User.ID, h.Admin.ID))
}

func TestChangePasswordVerifiesCurrent(t *testing.T) {
	repo := newFakeAccountRepo()
	h := seedHierarchy(repo)
	svc := newAccountService(repo, nil)

	hash, err := bcrypt.GenerateFromPassword([]byte("old-secret"), bcrypt.MinCost)
	require.NoError(t, err)
	stored := repo.accounts[h.User.ID]
	stored.PasswordHash = string(hash)

	err = svc.ChangePassword(context.Background(), h.User.ID, "wrong", "new-secret")
	require.True(t, apperrors.IsCode(err, "UNAUTHORIZED"))

	require.NoError(t, svc.ChangePassword(context.Background(), h.User.ID, "old-secret", "new-secret"))

	stored = repo.accounts[h.User.ID]
	require.NoError(t, bcrypt.CompareHashAndPassword([]byte(stored.PasswordHash), []byte("new-secret")))
}
