// internal/domain/invite/dto.go
package invite

type CreateInviteRequest struct {
	Email string `json:"email" binding:"required,email"`
	Role  string `json:"role" binding:"omitempty,oneof=admin super_admin"`
}

type AcceptInviteRequest struct {
	Token    string `json:"token" binding:"required"`
	FullName string `json:"full_name" binding:"required,max=255"`
	Password string `json:"password" binding:"required,min=8"`
}
