// internal/domain/subscription/entity.go
package subscription

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

type PlanID string

const (
	PlanBasic PlanID = "basic"
	PlanPro   PlanID = "pro"
)

type SubscriptionStatus string

const (
	StatusPending   SubscriptionStatus = "pending"
	StatusActive    SubscriptionStatus = "active"
	StatusCancelled SubscriptionStatus = "cancelled"
)

// planPrices is the fixed price table. Plans are never priced freeform;
// an unknown plan is a validation error everywhere it can appear.
var planPrices = map[PlanID]decimal.Decimal{
	PlanBasic: decimal.NewFromInt(3000),
	PlanPro:   decimal.NewFromInt(8000),
}

// PlanPrice looks up the fixed price for a plan.
func PlanPrice(plan PlanID) (decimal.Decimal, bool) {
	price, ok := planPrices[plan]
	return price, ok
}

// Plans lists the known plan identifiers.
func Plans() []PlanID {
	return []PlanID{PlanBasic, PlanPro}
}

type Subscription struct {
	ID     string             `json:"id" db:"id"`
	UserID sql.NullInt64      `json:"user_id,omitempty" db:"user_id"`
	Email  string             `json:"email" db:"email"`
	Plan   PlanID             `json:"plan" db:"plan"`
	Status SubscriptionStatus `json:"status" db:"status"`

	// Amount is the recurring charge, always rendered with two fraction digits.
	Amount decimal.Decimal `json:"amount" db:"amount"`

	// Set on upgrades: the partial-period charge billed through the gateway.
	ProratedCharge decimal.NullDecimal `json:"prorated_charge,omitempty" db:"prorated_charge"`

	// Set on downgrades: the day the lower recurring amount takes effect.
	EffectiveDate sql.NullTime `json:"effective_date,omitempty" db:"effective_date"`

	// Token issued by the gateway once the subscription goes active; required
	// for gateway-side cancellation and recurring-amount updates.
	GatewayToken sql.NullString `json:"-" db:"gateway_token"`

	// Anonymous subscribe flow: the subscription can be claimed into an
	// account later with this token, until it expires.
	AssociationToken  sql.NullString `json:"-" db:"association_token"`
	AssociationExpiry sql.NullTime   `json:"-" db:"association_expiry"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// WebhookEvent is the audit row persisted for every gateway notification,
// kept for manual reconciliation of partial failures.
type WebhookEvent struct {
	ID        int64     `json:"id" db:"id"`
	PaymentID string    `json:"payment_id" db:"payment_id"`
	Status    string    `json:"status" db:"status"`
	Payload   string    `json:"payload" db:"payload"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
