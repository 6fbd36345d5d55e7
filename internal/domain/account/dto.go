// internal/domain/account/dto.go
package account

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token   string   `json:"token"`
	Account *Account `json:"account"`
}
