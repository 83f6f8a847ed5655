package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/helpdesk-service/internal/domain"
)

// ErrQuotaExceeded signals that a creator's direct-creation quota is
// already consumed. Raised inside the quota transaction so concurrent
// creations cannot both slip past the count.
var ErrQuotaExceeded = errors.New("account quota exceeded")

const accountColumns = `id, username, email, password_hash, role, active, location, created_by,
               system_owner_id, super_admin_id, admin_id, it_person_id,
               business_type, account_limit, expiry_date, created_at, updated_at`

// AccountRepository defines persistence access for accounts.
type AccountRepository interface {
	Create(ctx context.Context, account *domain.Account) error
	CreateWithinQuota(ctx context.Context, account *domain.Account, creatorID string, limit int) error
	Update(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindIdentityConflict(ctx context.Context, username, email string) (usernameTaken, emailTaken bool, err error)
	CountActiveCreatedBy(ctx context.Context, creatorID string) (int, error)
	CountActiveInSubtree(ctx context.Context, ownerID string) (map[domain.Role]int, error)
}

type accountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository returns a Postgres-backed implementation.
func NewAccountRepository(pool *pgxpool.Pool) AccountRepository {
	return &accountRepository{pool: pool}
}

func (r *accountRepository) Create(ctx context.Context, account *domain.Account) error {
	const query = `
        INSERT INTO accounts (username, email, password_hash, role, active, location, created_by,
                              system_owner_id, super_admin_id, admin_id, it_person_id,
                              business_type, account_limit, expiry_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Active,
		account.Location,
		account.CreatedBy,
		account.Chain.SystemOwnerID,
		account.Chain.SuperAdminID,
		account.Chain.AdminID,
		account.Chain.ItPersonID,
		account.BusinessType,
		account.AccountLimit,
		account.ExpiryDate,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt)
}

// CreateWithinQuota inserts the account only if the creator's count of
// active direct creations is below limit. The creator row is locked
// for the duration of the transaction so two concurrent creations
// cannot both pass the count.
func (r *accountRepository) CreateWithinQuota(ctx context.Context, account *domain.Account, creatorID string, limit int) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	var lockedID string
	if err := tx.QueryRow(ctx, `SELECT id FROM accounts WHERE id=$1 FOR UPDATE`, creatorID).Scan(&lockedID); err != nil {
		return err
	}

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE created_by=$1 AND active`, creatorID).Scan(&count); err != nil {
		return err
	}
	if count >= limit {
		return ErrQuotaExceeded
	}

	const query = `
        INSERT INTO accounts (username, email, password_hash, role, active, location, created_by,
                              system_owner_id, super_admin_id, admin_id, it_person_id,
                              business_type, account_limit, expiry_date)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
        RETURNING id, created_at, updated_at`
	if err := tx.QueryRow(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Role,
		account.Active,
		account.Location,
		account.CreatedBy,
		account.Chain.SystemOwnerID,
		account.Chain.SuperAdminID,
		account.Chain.AdminID,
		account.Chain.ItPersonID,
		account.BusinessType,
		account.AccountLimit,
		account.ExpiryDate,
	).Scan(&account.ID, &account.CreatedAt, &account.UpdatedAt); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

func (r *accountRepository) Update(ctx context.Context, account *domain.Account) error {
	const query = `
        UPDATE accounts SET username=$1, email=$2, password_hash=$3, active=$4, location=$5,
            business_type=$6, account_limit=$7, expiry_date=$8, updated_at=NOW()
        WHERE id=$9`
	cmd, err := r.pool.Exec(ctx, query,
		account.Username,
		account.Email,
		account.PasswordHash,
		account.Active,
		account.Location,
		account.BusinessType,
		account.AccountLimit,
		account.ExpiryDate,
		account.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *accountRepository) GetByID(ctx context.Context, id string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE id=$1`, id)
}

func (r *accountRepository) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE username=$1`, username)
}

func (r *accountRepository) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return r.fetchSingle(ctx, `SELECT `+accountColumns+` FROM accounts WHERE email=$1`, email)
}

func (r *accountRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Account, error) {
	var account domain.Account
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&account.ID,
		&account.Username,
		&account.Email,
		&account.PasswordHash,
		&account.Role,
		&account.Active,
		&account.Location,
		&account.CreatedBy,
		&account.Chain.SystemOwnerID,
		&account.Chain.SuperAdminID,
		&account.Chain.AdminID,
		&account.Chain.ItPersonID,
		&account.BusinessType,
		&account.AccountLimit,
		&account.ExpiryDate,
		&account.CreatedAt,
		&account.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &account, nil
}

// FindIdentityConflict checks username and email collisions across
// accounts of any role, case-sensitive as stored.
func (r *accountRepository) FindIdentityConflict(ctx context.Context, username, email string) (bool, bool, error) {
	const query = `
        SELECT
            EXISTS (SELECT 1 FROM accounts WHERE username=$1),
            EXISTS (SELECT 1 FROM accounts WHERE email=$2)`
	var usernameTaken, emailTaken bool
	if err := r.pool.QueryRow(ctx, query, username, email).Scan(&usernameTaken, &emailTaken); err != nil {
		return false, false, err
	}
	return usernameTaken, emailTaken, nil
}

func (r *accountRepository) CountActiveCreatedBy(ctx context.Context, creatorID string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM accounts WHERE created_by=$1 AND active`, creatorID).Scan(&count)
	return count, err
}

// CountActiveInSubtree groups active accounts carrying ownerID in any
// chain slot by role.
func (r *accountRepository) CountActiveInSubtree(ctx context.Context, ownerID string) (map[domain.Role]int, error) {
	const query = `
        SELECT role, COUNT(*) FROM accounts
        WHERE active AND (system_owner_id=$1 OR super_admin_id=$1 OR admin_id=$1 OR it_person_id=$1)
        GROUP BY role`
	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := make(map[domain.Role]int)
	for rows.Next() {
		var role domain.Role
		var count int
		if err := rows.Scan(&role, &count); err != nil {
			return nil, err
		}
		counts[role] = count
	}
	return counts, rows.Err()
}
