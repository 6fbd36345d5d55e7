// internal/repository/postgres/subscription_repo.go
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"pocket-agency-service/internal/domain/subscription"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const subscriptionColumns = `
	id, user_id, email, plan, status, amount,
	prorated_charge, effective_date, gateway_token,
	association_token, association_expiry,
	created_at, updated_at`

type SubscriptionRepository struct {
	db *DB
}

func NewSubscriptionRepository(db *DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) scanRow(row pgx.Row) (*subscription.Subscription, error) {
	var sub subscription.Subscription

	err := row.Scan(
		&sub.ID, &sub.UserID, &sub.Email, &sub.Plan, &sub.Status, &sub.Amount,
		&sub.ProratedCharge, &sub.EffectiveDate, &sub.GatewayToken,
		&sub.AssociationToken, &sub.AssociationExpiry,
		&sub.CreatedAt, &sub.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan subscription: %w", err)
	}

	return &sub, nil
}

// Create persists a new subscription record.
func (r *SubscriptionRepository) Create(ctx context.Context, sub *subscription.Subscription) error {
	query := `
		INSERT INTO subscriptions (
			id, user_id, email, plan, status, amount,
			association_token, association_expiry
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING created_at, updated_at
	`

	err := r.db.pool.QueryRow(
		ctx, query,
		sub.ID, sub.UserID, sub.Email, sub.Plan, sub.Status, sub.Amount,
		sub.AssociationToken, sub.AssociationExpiry,
	).Scan(&sub.CreatedAt, &sub.UpdatedAt)

	if err != nil {
		return fmt.Errorf("failed to create subscription: %w", err)
	}

	return nil
}

// FindByID retrieves a subscription by its id (which doubles as the
// gateway payment reference).
func (r *SubscriptionRepository) FindByID(ctx context.Context, id string) (*subscription.Subscription, error) {
	query := `SELECT ` + subscriptionColumns + ` FROM subscriptions WHERE id = $1`
	return r.scanRow(r.db.pool.QueryRow(ctx, query, id))
}

// FindCurrentByUser retrieves the user's most recent subscription. Status
// filtering is a service-level decision: a cancelled record still answers
// "what is my subscription" and distinguishes 400 from 404 on cancel.
func (r *SubscriptionRepository) FindCurrentByUser(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	query := `
		SELECT ` + subscriptionColumns + `
		FROM subscriptions
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanRow(r.db.pool.QueryRow(ctx, query, userID))
}

// MarkActive flips a pending record to active. The status check lives in
// the WHERE clause so two concurrent COMPLETE deliveries race on the
// database row, not in application code: exactly one caller observes
// activated=true.
func (r *SubscriptionRepository) MarkActive(ctx context.Context, id string) (bool, error) {
	query := `
		UPDATE subscriptions
		SET status = 'active', updated_at = $1
		WHERE id = $2 AND status = 'pending'
	`

	result, err := r.db.pool.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return false, fmt.Errorf("failed to mark subscription active: %w", err)
	}

	return result.RowsAffected() > 0, nil
}

// MarkCancelled flips status to cancelled unless it already is.
func (r *SubscriptionRepository) MarkCancelled(ctx context.Context, id string) error {
	query := `
		UPDATE subscriptions
		SET status = 'cancelled', updated_at = $1
		WHERE id = $2 AND status <> 'cancelled'
	`

	result, err := r.db.pool.Exec(ctx, query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to cancel subscription: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrAlreadyCancelled
	}

	return nil
}

// UpdatePlanUpgrade records an immediate plan change with its prorated
// charge. The subscription update and its plan_changes history row land in
// one transaction so the billing history never disagrees with the record.
func (r *SubscriptionRepository) UpdatePlanUpgrade(ctx context.Context, id string, from, to subscription.PlanID, amount, proratedCharge string) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin plan change: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE subscriptions
		SET plan = $1, amount = $2, prorated_charge = $3,
		    effective_date = NULL, updated_at = $4
		WHERE id = $5
	`

	result, err := tx.Exec(ctx, query, to, amount, proratedCharge, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to apply plan upgrade: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	history := `
		INSERT INTO plan_changes (subscription_id, from_plan, to_plan, prorated_charge)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := tx.Exec(ctx, history, id, from, to, proratedCharge); err != nil {
		return fmt.Errorf("failed to record plan change: %w", err)
	}

	return tx.Commit(ctx)
}

// UpdatePlanDowngrade records a plan change whose billing effect is deferred.
// The plan field changes now; effective_date marks when billing follows.
func (r *SubscriptionRepository) UpdatePlanDowngrade(ctx context.Context, id string, from, to subscription.PlanID, amount string, effectiveDate time.Time) error {
	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin plan change: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE subscriptions
		SET plan = $1, amount = $2, prorated_charge = NULL,
		    effective_date = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := tx.Exec(ctx, query, to, amount, effectiveDate, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to apply plan downgrade: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	history := `
		INSERT INTO plan_changes (subscription_id, from_plan, to_plan, effective_date)
		VALUES ($1, $2, $3, $4)
	`

	if _, err := tx.Exec(ctx, history, id, from, to, effectiveDate); err != nil {
		return fmt.Errorf("failed to record plan change: %w", err)
	}

	return tx.Commit(ctx)
}

// SetGatewayToken stores the gateway subscription token delivered with the
// first COMPLETE notification.
func (r *SubscriptionRepository) SetGatewayToken(ctx context.Context, id, token string) error {
	query := `UPDATE subscriptions SET gateway_token = $1, updated_at = $2 WHERE id = $3`

	result, err := r.db.pool.Exec(ctx, query, token, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to set gateway token: %w", err)
	}

	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}

	return nil
}

// ClaimByAssociationToken binds an anonymous subscription to a user. The
// token match, single-use reset and expiry check all happen in one
// conditional update.
func (r *SubscriptionRepository) ClaimByAssociationToken(ctx context.Context, token string, userID int64, now time.Time) (*subscription.Subscription, error) {
	query := `
		UPDATE subscriptions
		SET user_id = $1, association_token = NULL, association_expiry = NULL, updated_at = $2
		WHERE association_token = $3 AND association_expiry > $2 AND user_id IS NULL
		RETURNING ` + subscriptionColumns

	sub, err := r.scanRow(r.db.pool.QueryRow(ctx, query, userID, now, token))
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, xerrors.ErrInvalidInput
	}
	if err != nil {
		return nil, err
	}

	return sub, nil
}

// CountPendingOrActiveByUser supports the best-effort "one live subscription
// per user" rule. A partial unique index on (user_id) WHERE status <>
// 'cancelled' backs this at the schema level; see scripts/schema.sql.
func (r *SubscriptionRepository) CountPendingOrActiveByUser(ctx context.Context, userID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM subscriptions WHERE user_id = $1 AND status <> 'cancelled'`

	var count int64
	if err := r.db.pool.QueryRow(ctx, query, userID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	return count, nil
}
