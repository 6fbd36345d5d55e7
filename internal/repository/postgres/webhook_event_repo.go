// internal/repository/postgres/webhook_event_repo.go
package postgres

import (
	"context"
	"fmt"

	"pocket-agency-service/internal/domain/subscription"
)

// WebhookEventRepository keeps the raw notification audit trail. Rows are
// append-only; they exist so a human can replay the "gateway succeeded,
// local write failed" window by hand.
type WebhookEventRepository struct {
	db *DB
}

func NewWebhookEventRepository(db *DB) *WebhookEventRepository {
	return &WebhookEventRepository{db: db}
}

func (r *WebhookEventRepository) Insert(ctx context.Context, event *subscription.WebhookEvent) error {
	query := `
		INSERT INTO webhook_events (payment_id, status, payload)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`

	err := r.db.pool.QueryRow(ctx, query, event.PaymentID, event.Status, event.Payload).
		Scan(&event.ID, &event.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert webhook event: %w", err)
	}

	return nil
}
