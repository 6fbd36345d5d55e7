// internal/domain/subscription/dto.go
package subscription

type SubscribeRequest struct {
	Plan      PlanID `json:"plan" binding:"required"`
	Email     string `json:"email" binding:"omitempty,email"`
	NameFirst string `json:"name_first" binding:"omitempty,max=100"`
	NameLast  string `json:"name_last" binding:"omitempty,max=100"`
}

type SubscribeResponse struct {
	SubscriptionID string `json:"subscription_id"`
	RedirectURL    string `json:"redirect_url"`

	// Returned only for anonymous subscriptions, so the caller can claim
	// the record into an account after payment.
	AssociationToken string `json:"association_token,omitempty"`
}

type ChangePlanRequest struct {
	Plan PlanID `json:"plan" binding:"required"`
}

// PlanChangeResult describes what a plan change did: an upgrade charges a
// prorated amount immediately, a downgrade defers the billing effect.
type PlanChangeResult struct {
	Plan           PlanID `json:"plan"`
	ProratedCharge string `json:"prorated_charge,omitempty"`
	EffectiveDate  string `json:"effective_date,omitempty"`
	ChargedNow     bool   `json:"charged_now"`
}

type ClaimRequest struct {
	Token string `json:"token" binding:"required"`
}

// PlanInfo is the public price list entry.
type PlanInfo struct {
	Plan  PlanID `json:"plan"`
	Price string `json:"price"`
}
