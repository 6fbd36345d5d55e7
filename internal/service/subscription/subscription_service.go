// internal/service/subscription/subscription_service.go
package subscription

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"pocket-agency-service/internal/domain/subscription"
	"pocket-agency-service/internal/gateway/payfast"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"github.com/oklog/ulid/v2"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// associationTTL bounds how long an anonymous subscription can wait to be
// claimed into an account.
const associationTTL = 24 * time.Hour

// SubscriptionRepo is the persistence surface the service needs. The
// postgres implementation lives in internal/repository/postgres.
type SubscriptionRepo interface {
	Create(ctx context.Context, sub *subscription.Subscription) error
	FindByID(ctx context.Context, id string) (*subscription.Subscription, error)
	FindCurrentByUser(ctx context.Context, userID int64) (*subscription.Subscription, error)
	MarkActive(ctx context.Context, id string) (bool, error)
	MarkCancelled(ctx context.Context, id string) error
	UpdatePlanUpgrade(ctx context.Context, id string, from, to subscription.PlanID, amount, proratedCharge string) error
	UpdatePlanDowngrade(ctx context.Context, id string, from, to subscription.PlanID, amount string, effectiveDate time.Time) error
	SetGatewayToken(ctx context.Context, id, token string) error
	ClaimByAssociationToken(ctx context.Context, token string, userID int64, now time.Time) (*subscription.Subscription, error)
	CountPendingOrActiveByUser(ctx context.Context, userID int64) (int64, error)
}

type WebhookEventRepo interface {
	Insert(ctx context.Context, event *subscription.WebhookEvent) error
}

// Gateway is the slice of the payment gateway's subscription API this
// service calls. *payfast.Client satisfies it.
type Gateway interface {
	CancelSubscription(ctx context.Context, token string) error
	UpdateRecurringAmount(ctx context.Context, token string, amount decimal.Decimal) error
	ChargeAdhoc(ctx context.Context, token string, amount decimal.Decimal, itemName string) error
}

type Mailer interface {
	Send(to, subject, bodyHTML string) error
}

type SubscriptionService struct {
	repo    SubscriptionRepo
	events  WebhookEventRepo
	gateway Gateway
	dedupe  DedupeStore
	mailer  Mailer
	pfCfg   payfast.Config
	logger  *zap.Logger

	// now is swapped out in tests; proration depends on the calendar.
	now func() time.Time
}

func NewSubscriptionService(
	repo SubscriptionRepo,
	events WebhookEventRepo,
	gateway Gateway,
	dedupe DedupeStore,
	mailer Mailer,
	pfCfg payfast.Config,
	logger *zap.Logger,
) *SubscriptionService {
	return &SubscriptionService{
		repo:    repo,
		events:  events,
		gateway: gateway,
		dedupe:  dedupe,
		mailer:  mailer,
		pfCfg:   pfCfg,
		logger:  logger,
		now:     time.Now,
	}
}

// Subscribe creates a pending subscription and returns the signed redirect
// URL for the gateway's hosted payment page. userID is nil for the
// anonymous flow, in which case an association token is issued so the
// record can be claimed after payment.
func (s *SubscriptionService) Subscribe(ctx context.Context, userID *int64, req *subscription.SubscribeRequest) (*subscription.SubscribeResponse, error) {
	price, ok := subscription.PlanPrice(req.Plan)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", xerrors.ErrInvalidInput, req.Plan)
	}

	if userID == nil && req.Email == "" {
		return nil, fmt.Errorf("%w: email is required for anonymous subscriptions", xerrors.ErrInvalidInput)
	}

	// Best-effort one-live-subscription rule; the partial unique index in
	// scripts/schema.sql closes the remaining race at the database.
	if userID != nil {
		count, err := s.repo.CountPendingOrActiveByUser(ctx, *userID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, fmt.Errorf("%w: user already has a live subscription", xerrors.ErrConflict)
		}
	}

	sub := &subscription.Subscription{
		ID:     ulid.Make().String(),
		Email:  req.Email,
		Plan:   req.Plan,
		Status: subscription.StatusPending,
		Amount: price,
	}
	if userID != nil {
		sub.UserID.Int64 = *userID
		sub.UserID.Valid = true
	}

	var associationToken string
	if userID == nil {
		tok, err := newHexToken()
		if err != nil {
			return nil, fmt.Errorf("failed to generate association token: %w", err)
		}
		associationToken = tok
		sub.AssociationToken.String = tok
		sub.AssociationToken.Valid = true
		sub.AssociationExpiry.Time = s.now().Add(associationTTL)
		sub.AssociationExpiry.Valid = true
	}

	if err := s.repo.Create(ctx, sub); err != nil {
		return nil, err
	}

	payReq := payfast.PaymentRequest{
		NameFirst:         req.NameFirst,
		NameLast:          req.NameLast,
		EmailAddress:      req.Email,
		PaymentID:         sub.ID,
		Amount:            price,
		ItemName:          fmt.Sprintf("Pocket Agency %s plan", req.Plan),
		CustomStr1:        string(req.Plan),
		EmailConfirmation: true,
		SubscriptionType:  payfast.SubscriptionTypeRecurring,
		RecurringAmount:   price,
		Frequency:         payfast.FrequencyMonthly,
		Cycles:            payfast.CyclesIndefinite,
	}

	s.logger.Info("subscription created pending payment",
		zap.String("subscription_id", sub.ID),
		zap.String("plan", string(req.Plan)),
		zap.Bool("anonymous", userID == nil),
	)

	return &subscription.SubscribeResponse{
		SubscriptionID:   sub.ID,
		RedirectURL:      s.pfCfg.RedirectURL(payReq),
		AssociationToken: associationToken,
	}, nil
}

// ApplyPaymentComplete transitions a pending subscription to active. Safe
// under at-least-once webhook delivery: a redis dedupe key short-circuits
// repeats, and the conditional update in the repository closes the race
// between two concurrent deliveries. At most one activation email goes out.
func (s *SubscriptionService) ApplyPaymentComplete(ctx context.Context, paymentID, gatewayToken string) error {
	dedupeKey := "payfast:complete:" + paymentID
	acquired, err := s.dedupe.Acquire(ctx, dedupeKey, associationTTL)
	if err != nil {
		// Redis being down must not drop a payment notification; the
		// conditional update below is the real idempotency guarantee.
		s.logger.Warn("webhook dedupe store unavailable, relying on conditional update",
			zap.String("payment_id", paymentID), zap.Error(err))
	} else if !acquired {
		s.logger.Info("duplicate COMPLETE notification skipped",
			zap.String("payment_id", paymentID))
		return nil
	}

	sub, err := s.repo.FindByID(ctx, paymentID)
	if err != nil {
		s.releaseDedupe(ctx, dedupeKey)
		s.logger.Error("COMPLETE notification for unknown payment",
			zap.String("payment_id", paymentID), zap.Error(err))
		return err
	}

	switch sub.Status {
	case subscription.StatusActive:
		return nil
	case subscription.StatusCancelled:
		s.logger.Warn("COMPLETE notification for cancelled subscription ignored",
			zap.String("subscription_id", sub.ID))
		return nil
	}

	if gatewayToken != "" {
		if err := s.repo.SetGatewayToken(ctx, sub.ID, gatewayToken); err != nil {
			s.logger.Error("failed to store gateway token",
				zap.String("subscription_id", sub.ID), zap.Error(err))
		}
	}

	activated, err := s.repo.MarkActive(ctx, sub.ID)
	if err != nil {
		s.releaseDedupe(ctx, dedupeKey)
		return err
	}

	if !activated {
		// Another delivery won the race; nothing left to do.
		return nil
	}

	s.logger.Info("subscription activated",
		zap.String("subscription_id", sub.ID),
		zap.String("plan", string(sub.Plan)),
	)

	if sub.Email != "" {
		body := fmt.Sprintf(
			"<p>Your Pocket Agency <strong>%s</strong> subscription is now active.</p>"+
				"<p>Recurring amount: %s per month.</p>",
			sub.Plan, payfast.FormatAmount(sub.Amount),
		)
		if err := s.mailer.Send(sub.Email, "Subscription active", body); err != nil {
			s.logger.Error("failed to send activation email",
				zap.String("subscription_id", sub.ID), zap.Error(err))
		}
	}

	return nil
}

// RecordWebhookEvent persists the raw notification for reconciliation.
func (s *SubscriptionService) RecordWebhookEvent(ctx context.Context, paymentID, status, payload string) {
	event := &subscription.WebhookEvent{
		PaymentID: paymentID,
		Status:    status,
		Payload:   payload,
	}
	if err := s.events.Insert(ctx, event); err != nil {
		s.logger.Error("failed to record webhook event",
			zap.String("payment_id", paymentID),
			zap.String("payment_status", status),
			zap.Error(err),
		)
	}
}

// ChangePlan switches the user's subscription between plans. Upgrades are
// charged pro rata immediately; downgrades keep this month's billing and
// defer the lower amount to the first of the next month while the plan
// field itself changes right away.
func (s *SubscriptionService) ChangePlan(ctx context.Context, userID int64, newPlan subscription.PlanID) (*subscription.PlanChangeResult, error) {
	newPrice, ok := subscription.PlanPrice(newPlan)
	if !ok {
		return nil, fmt.Errorf("%w: unknown plan %q", xerrors.ErrInvalidInput, newPlan)
	}

	sub, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if sub.Status != subscription.StatusActive {
		return nil, fmt.Errorf("%w: subscription is %s, not active", xerrors.ErrInvalidInput, sub.Status)
	}

	if sub.Plan == newPlan {
		return nil, fmt.Errorf("%w: already on plan %q", xerrors.ErrInvalidInput, newPlan)
	}

	if !sub.GatewayToken.Valid {
		return nil, fmt.Errorf("%w: subscription has no gateway token", xerrors.ErrInvalidInput)
	}

	currentPrice, ok := subscription.PlanPrice(sub.Plan)
	if !ok {
		return nil, fmt.Errorf("%w: stored plan %q not in price table", xerrors.ErrInvalidInput, sub.Plan)
	}

	now := s.now()
	daysInMonth := daysIn(now)
	daysRemaining := daysInMonth - now.Day() + 1

	if newPrice.GreaterThan(currentPrice) {
		// Prorated upgrade charge, rounded half-up to two decimals.
		prorated := newPrice.Sub(currentPrice).
			Mul(decimal.NewFromInt(int64(daysRemaining))).
			Div(decimal.NewFromInt(int64(daysInMonth))).
			Round(2)

		itemName := fmt.Sprintf("Pocket Agency upgrade to %s (prorated)", newPlan)
		if err := s.gateway.ChargeAdhoc(ctx, sub.GatewayToken.String, prorated, itemName); err != nil {
			s.logger.Error("prorated upgrade charge failed, record left unmodified",
				zap.String("subscription_id", sub.ID),
				zap.String("action", "change_plan"),
				zap.Error(err),
			)
			return nil, err
		}

		if err := s.gateway.UpdateRecurringAmount(ctx, sub.GatewayToken.String, newPrice); err != nil {
			s.logger.Error("recurring amount update failed after prorated charge; manual reconciliation required",
				zap.String("subscription_id", sub.ID),
				zap.String("action", "change_plan"),
				zap.Error(err),
			)
			return nil, err
		}

		err = s.repo.UpdatePlanUpgrade(ctx, sub.ID, sub.Plan, newPlan,
			payfast.FormatAmount(newPrice), payfast.FormatAmount(prorated))
		if err != nil {
			s.logger.Error("gateway charge succeeded but local plan update failed; manual reconciliation required",
				zap.String("subscription_id", sub.ID),
				zap.String("action", "change_plan"),
				zap.Error(err),
			)
			return nil, err
		}

		s.logger.Info("plan upgraded",
			zap.String("subscription_id", sub.ID),
			zap.String("plan", string(newPlan)),
			zap.String("prorated_charge", payfast.FormatAmount(prorated)),
		)

		return &subscription.PlanChangeResult{
			Plan:           newPlan,
			ProratedCharge: payfast.FormatAmount(prorated),
			ChargedNow:     true,
		}, nil
	}

	// Downgrade: the gateway applies the new recurring amount from the
	// next billing run, which lines up with the first of next month.
	effectiveDate := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location()).AddDate(0, 1, 0)

	if err := s.gateway.UpdateRecurringAmount(ctx, sub.GatewayToken.String, newPrice); err != nil {
		s.logger.Error("recurring amount update failed, record left unmodified",
			zap.String("subscription_id", sub.ID),
			zap.String("action", "change_plan"),
			zap.Error(err),
		)
		return nil, err
	}

	err = s.repo.UpdatePlanDowngrade(ctx, sub.ID, sub.Plan, newPlan, payfast.FormatAmount(newPrice), effectiveDate)
	if err != nil {
		s.logger.Error("gateway update succeeded but local plan update failed; manual reconciliation required",
			zap.String("subscription_id", sub.ID),
			zap.String("action", "change_plan"),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("plan downgraded",
		zap.String("subscription_id", sub.ID),
		zap.String("plan", string(newPlan)),
		zap.Time("effective_date", effectiveDate),
	)

	return &subscription.PlanChangeResult{
		Plan:          newPlan,
		EffectiveDate: effectiveDate.Format("2006-01-02"),
		ChargedNow:    false,
	}, nil
}

// Cancel ends the user's subscription. The gateway is cancelled first;
// local state flips only after the gateway confirms, so the record never
// claims a cancellation the gateway does not reflect.
func (s *SubscriptionService) Cancel(ctx context.Context, userID int64) error {
	sub, err := s.repo.FindCurrentByUser(ctx, userID)
	if err != nil {
		return err
	}

	if sub.Status == subscription.StatusCancelled {
		return xerrors.ErrAlreadyCancelled
	}

	// A pending record was never activated on the gateway, so there is
	// nothing to cancel remotely.
	if sub.GatewayToken.Valid {
		if err := s.gateway.CancelSubscription(ctx, sub.GatewayToken.String); err != nil {
			s.logger.Error("gateway cancellation failed, local record left unmodified",
				zap.String("subscription_id", sub.ID),
				zap.String("action", "cancel"),
				zap.Error(err),
			)
			return err
		}
	}

	if err := s.repo.MarkCancelled(ctx, sub.ID); err != nil {
		s.logger.Error("gateway cancelled but local status update failed; manual reconciliation required",
			zap.String("subscription_id", sub.ID),
			zap.String("action", "cancel"),
			zap.Error(err),
		)
		return err
	}

	s.logger.Info("subscription cancelled", zap.String("subscription_id", sub.ID))
	return nil
}

// GetCurrent returns the user's most recent subscription.
func (s *SubscriptionService) GetCurrent(ctx context.Context, userID int64) (*subscription.Subscription, error) {
	return s.repo.FindCurrentByUser(ctx, userID)
}

// Claim binds an anonymous subscription to the authenticated user.
func (s *SubscriptionService) Claim(ctx context.Context, userID int64, token string) (*subscription.Subscription, error) {
	if token == "" {
		return nil, fmt.Errorf("%w: association token is required", xerrors.ErrInvalidInput)
	}

	sub, err := s.repo.ClaimByAssociationToken(ctx, token, userID, s.now())
	if err != nil {
		return nil, fmt.Errorf("%w: association token invalid or expired", xerrors.ErrInvalidInput)
	}

	s.logger.Info("subscription claimed",
		zap.String("subscription_id", sub.ID),
		zap.Int64("user_id", userID),
	)

	return sub, nil
}

func (s *SubscriptionService) releaseDedupe(ctx context.Context, key string) {
	if err := s.dedupe.Release(ctx, key); err != nil {
		s.logger.Warn("failed to release dedupe key", zap.String("key", key), zap.Error(err))
	}
}

// daysIn returns the number of days in t's month.
func daysIn(t time.Time) int {
	return time.Date(t.Year(), t.Month()+1, 0, 0, 0, 0, 0, t.Location()).Day()
}

// newHexToken returns 16 random bytes as lowercase hex (128-bit entropy).
func newHexToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
