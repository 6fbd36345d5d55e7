// internal/handlers/auth/auth_handler.go
package auth

import (
	"net/http"

	"pocket-agency-service/internal/domain/account"
	"pocket-agency-service/internal/domain/invite"
	"pocket-agency-service/internal/pkg/response"
	authsvc "pocket-agency-service/internal/service/auth"
	invitesvc "pocket-agency-service/internal/service/invite"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type AuthHandler struct {
	authService   *authsvc.AuthService
	inviteService *invitesvc.InviteService
	logger        *zap.Logger
}

func NewAuthHandler(authService *authsvc.AuthService, inviteService *invitesvc.InviteService, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		authService:   authService,
		inviteService: inviteService,
		logger:        logger,
	}
}

// Login authenticates an admin/contractor account.
func (h *AuthHandler) Login(c *gin.Context) {
	var req account.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "login failed", err)
		return
	}

	response.Success(c, http.StatusOK, "login successful", result)
}

// CreateInvite issues an admin invitation (super admin only).
func (h *AuthHandler) CreateInvite(c *gin.Context) {
	var req invite.CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.inviteService.CreateInvite(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to create invitation", err)
		return
	}

	response.Success(c, http.StatusCreated, "invitation sent", result)
}

// AcceptInvite redeems an invitation token and creates the admin account.
func (h *AuthHandler) AcceptInvite(c *gin.Context) {
	var req invite.AcceptInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.authService.AcceptInvite(c.Request.Context(), &req)
	if err != nil {
		response.FromError(c, "failed to accept invitation", err)
		return
	}

	response.Success(c, http.StatusCreated, "invitation accepted", result)
}
