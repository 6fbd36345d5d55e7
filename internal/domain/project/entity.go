// internal/domain/project/entity.go
package project

import (
	"database/sql"
	"time"
)

type ProjectStatus string

const (
	StatusSubmitted  ProjectStatus = "submitted"
	StatusInProgress ProjectStatus = "in_progress"
	StatusCompleted  ProjectStatus = "completed"
	StatusArchived   ProjectStatus = "archived"
)

// ValidStatus reports whether s is a known project status.
func ValidStatus(s ProjectStatus) bool {
	switch s {
	case StatusSubmitted, StatusInProgress, StatusCompleted, StatusArchived:
		return true
	}
	return false
}

type Project struct {
	ID         int64          `json:"id" db:"id"`
	Reference  string         `json:"reference" db:"reference"`
	CustomerID int64          `json:"customer_id" db:"customer_id"`
	Title      string         `json:"title" db:"title"`
	Brief      string         `json:"brief" db:"brief"`
	Status     ProjectStatus  `json:"status" db:"status"`
	AssignedTo sql.NullInt64  `json:"assigned_to,omitempty" db:"assigned_to"`
	Tags       []string       `json:"tags,omitempty" db:"tags"`
	Notes      sql.NullString `json:"notes,omitempty" db:"notes"`
	CreatedAt  time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at" db:"updated_at"`
}
