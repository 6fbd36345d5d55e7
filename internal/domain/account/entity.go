// internal/domain/account/entity.go
package account

import (
	"database/sql"
	"time"
)

type Account struct {
	ID           int64          `json:"id" db:"id"`
	Email        string         `json:"email" db:"email"`
	FullName     sql.NullString `json:"full_name,omitempty" db:"full_name"`
	PasswordHash string         `json:"-" db:"password_hash"`
	Role         string         `json:"role" db:"role"`
	Status       string         `json:"status" db:"status"`
	CreatedAt    time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at" db:"updated_at"`
}
