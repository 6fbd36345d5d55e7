// internal/pkg/jwt/claims.go
package jwt

import (
	"github.com/golang-jwt/jwt/v5"
)

// Role values recognised across the service.
const (
	RoleCustomer   = "customer"
	RoleContractor = "contractor"
	RoleAdmin      = "admin"
	RoleSuperAdmin = "super_admin"
)

// Claims represents the identity token claims.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email,omitempty"`
	Role   string `json:"role"`
	jwt.RegisteredClaims
}

// HasRole checks whether the claims carry a specific role.
func (c *Claims) HasRole(role string) bool {
	return c.Role == role
}

// IsSuperAdmin checks if the holder is a super admin.
func (c *Claims) IsSuperAdmin() bool {
	return c.Role == RoleSuperAdmin
}

// IsAdmin checks if the holder is an admin (including super admin).
func (c *Claims) IsAdmin() bool {
	return c.Role == RoleAdmin || c.IsSuperAdmin()
}

// IsStaff checks if the holder may act on projects (contractor or any admin).
func (c *Claims) IsStaff() bool {
	return c.Role == RoleContractor || c.IsAdmin()
}

// VerifyAudience checks if the expected audience is listed in the claims.
func (c *Claims) VerifyAudience(audience string, required bool) bool {
	if len(c.Audience) == 0 {
		return !required
	}

	for _, aud := range c.Audience {
		if aud == audience {
			return true
		}
	}

	return false
}
