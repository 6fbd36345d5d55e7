// internal/handlers/subscription/subscription_handler.go
package subscription

import (
	"net/http"

	"pocket-agency-service/internal/domain/subscription"
	"pocket-agency-service/internal/middleware"
	"pocket-agency-service/internal/pkg/response"
	service "pocket-agency-service/internal/service/subscription"

	"github.com/gin-gonic/gin"
)

type SubscriptionHandler struct {
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(subscriptionService *service.SubscriptionService) *SubscriptionHandler {
	return &SubscriptionHandler{
		subscriptionService: subscriptionService,
	}
}

// ListPlans returns the public price list.
func (h *SubscriptionHandler) ListPlans(c *gin.Context) {
	plans := make([]subscription.PlanInfo, 0, 2)
	for _, plan := range subscription.Plans() {
		price, _ := subscription.PlanPrice(plan)
		plans = append(plans, subscription.PlanInfo{
			Plan:  plan,
			Price: price.StringFixed(2),
		})
	}

	response.Success(c, http.StatusOK, "plans retrieved", plans)
}

// Subscribe creates a pending subscription and returns the signed redirect
// URL for the hosted payment page. Works authenticated or anonymous (with
// an email address).
func (h *SubscriptionHandler) Subscribe(c *gin.Context) {
	var req subscription.SubscribeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	var userID *int64
	if middleware.IsAuthenticated(c) {
		id := middleware.MustGetUserID(c)
		userID = &id
	}

	result, err := h.subscriptionService.Subscribe(c.Request.Context(), userID, &req)
	if err != nil {
		response.FromError(c, "failed to create subscription", err)
		return
	}

	response.Success(c, http.StatusCreated, "subscription created, redirect to complete payment", result)
}

// Claim binds an anonymous subscription to the authenticated user.
func (h *SubscriptionHandler) Claim(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req subscription.ClaimRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.subscriptionService.Claim(c.Request.Context(), userID, req.Token)
	if err != nil {
		response.FromError(c, "failed to claim subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription claimed", result)
}

// GetCurrent returns the authenticated user's subscription.
func (h *SubscriptionHandler) GetCurrent(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	result, err := h.subscriptionService.GetCurrent(c.Request.Context(), userID)
	if err != nil {
		response.FromError(c, "no subscription found", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription retrieved", result)
}

// ChangePlan upgrades or downgrades the authenticated user's plan.
func (h *SubscriptionHandler) ChangePlan(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	var req subscription.ChangePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, http.StatusBadRequest, "invalid request", err)
		return
	}

	result, err := h.subscriptionService.ChangePlan(c.Request.Context(), userID, req.Plan)
	if err != nil {
		response.FromError(c, "failed to change plan", err)
		return
	}

	response.Success(c, http.StatusOK, "plan changed", result)
}

// Cancel cancels the authenticated user's subscription.
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	userID := middleware.MustGetUserID(c)

	if err := h.subscriptionService.Cancel(c.Request.Context(), userID); err != nil {
		response.FromError(c, "failed to cancel subscription", err)
		return
	}

	response.Success(c, http.StatusOK, "subscription cancelled", nil)
}
