// internal/domain/invite/entity.go
package invite

import (
	"database/sql"
	"time"
)

// TTL is how long an invitation stays redeemable after creation.
const TTL = 24 * time.Hour

type Invitation struct {
	ID        int64        `json:"id" db:"id"`
	Token     string       `json:"-" db:"token"`
	Email     string       `json:"email" db:"email"`
	Role      string       `json:"role" db:"role"`
	Used      bool         `json:"used" db:"used"`
	UsedAt    sql.NullTime `json:"used_at,omitempty" db:"used_at"`
	CreatedAt time.Time    `json:"created_at" db:"created_at"`
	ExpiresAt time.Time    `json:"expires_at" db:"expires_at"`
}

// Expired reports whether the invitation is past its expiry at the given instant.
func (i *Invitation) Expired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
