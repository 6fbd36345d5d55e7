// internal/repository/postgres/account_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"

	"pocket-agency-service/internal/domain/account"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type AccountRepository struct {
	db *DB
}

func NewAccountRepository(db *DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) Create(ctx context.Context, acc *account.Account) error {
	query := `
		INSERT INTO accounts (email, full_name, password_hash, role, status)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at, updated_at
	`

	err := r.db.pool.QueryRow(
		ctx, query,
		acc.Email, acc.FullName, acc.PasswordHash, acc.Role, acc.Status,
	).Scan(&acc.ID, &acc.CreatedAt, &acc.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create account: %w", err)
	}

	return nil
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*account.Account, error) {
	query := `
		SELECT id, email, full_name, password_hash, role, status, created_at, updated_at
		FROM accounts
		WHERE email = $1
	`

	var acc account.Account
	err := r.db.pool.QueryRow(ctx, query, email).Scan(
		&acc.ID, &acc.Email, &acc.FullName, &acc.PasswordHash,
		&acc.Role, &acc.Status, &acc.CreatedAt, &acc.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find account: %w", err)
	}

	return &acc, nil
}

func (r *AccountRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE email = $1)`

	var exists bool
	if err := r.db.pool.QueryRow(ctx, query, email).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check email: %w", err)
	}

	return exists, nil
}

func (r *AccountRepository) SuperAdminExists(ctx context.Context) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM accounts WHERE role = 'super_admin' AND status = 'active')`

	var exists bool
	if err := r.db.pool.QueryRow(ctx, query).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check super admin existence: %w", err)
	}

	return exists, nil
}
