// internal/repository/postgres/invite_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pocket-agency-service/internal/domain/invite"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

type InviteRepository struct {
	db *DB
}

func NewInviteRepository(db *DB) *InviteRepository {
	return &InviteRepository{db: db}
}

func (r *InviteRepository) Create(ctx context.Context, inv *invite.Invitation) error {
	query := `
		INSERT INTO admin_invitations (token, email, role, expires_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id, created_at
	`

	err := r.db.pool.QueryRow(ctx, query, inv.Token, inv.Email, inv.Role, inv.ExpiresAt).
		Scan(&inv.ID, &inv.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create invitation: %w", err)
	}

	return nil
}

func (r *InviteRepository) FindByToken(ctx context.Context, token string) (*invite.Invitation, error) {
	query := `
		SELECT id, token, email, role, used, used_at, created_at, expires_at
		FROM admin_invitations
		WHERE token = $1
	`

	var inv invite.Invitation
	err := r.db.pool.QueryRow(ctx, query, token).Scan(
		&inv.ID, &inv.Token, &inv.Email, &inv.Role,
		&inv.Used, &inv.UsedAt, &inv.CreatedAt, &inv.ExpiresAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find invitation: %w", err)
	}

	return &inv, nil
}

// MarkUsed flips the single-use flag. The used=false guard in the WHERE
// clause means a token redeemed concurrently is consumed exactly once.
func (r *InviteRepository) MarkUsed(ctx context.Context, token string, now time.Time) error {
	query := `
		UPDATE admin_invitations
		SET used = TRUE, used_at = $1
		WHERE token = $2 AND used = FALSE
	`

	result, err := r.db.pool.Exec(ctx, query, now, token)
	if err != nil {
		return fmt.Errorf("failed to mark invitation used: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrTokenUsed
	}

	return nil
}
