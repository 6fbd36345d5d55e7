// internal/middleware/helpers.go
package middleware

import (
	"github.com/gin-gonic/gin"
)

// MustGetUserID gets the user id from context or panics
func MustGetUserID(c *gin.Context) int64 {
	userID, exists := GetUserID(c)
	if !exists {
		panic("user_id not found in context")
	}
	return userID
}

// IsAuthenticated checks if the request is authenticated
func IsAuthenticated(c *gin.Context) bool {
	_, exists := c.Get("user_id")
	return exists
}

// IsAdmin checks if the user is an admin
func IsAdmin(c *gin.Context) bool {
	claims, ok := GetClaims(c)
	return ok && claims.IsAdmin()
}

// IsStaff checks if the user may act on projects (contractor or any admin)
func IsStaff(c *gin.Context) bool {
	claims, ok := GetClaims(c)
	return ok && claims.IsStaff()
}
