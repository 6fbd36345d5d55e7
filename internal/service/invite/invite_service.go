// internal/service/invite/invite_service.go
package invite

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"pocket-agency-service/internal/domain/invite"
	xerrors "pocket-agency-service/internal/pkg/errors"

	"go.uber.org/zap"
)

type InviteRepo interface {
	Create(ctx context.Context, inv *invite.Invitation) error
	FindByToken(ctx context.Context, token string) (*invite.Invitation, error)
	MarkUsed(ctx context.Context, token string, now time.Time) error
}

type Mailer interface {
	Send(to, subject, bodyHTML string) error
}

type InviteService struct {
	repo    InviteRepo
	mailer  Mailer
	baseURL string
	logger  *zap.Logger

	now func() time.Time
}

func NewInviteService(repo InviteRepo, mailer Mailer, baseURL string, logger *zap.Logger) *InviteService {
	return &InviteService{
		repo:    repo,
		mailer:  mailer,
		baseURL: baseURL,
		logger:  logger,
		now:     time.Now,
	}
}

// CreateInvite issues a single-use admin invitation and emails the link.
// The token is 16 random bytes of hex and expires 24 hours after creation.
func (s *InviteService) CreateInvite(ctx context.Context, req *invite.CreateInviteRequest) (*invite.Invitation, error) {
	role := req.Role
	if role == "" {
		role = "admin"
	}

	token, err := newHexToken()
	if err != nil {
		return nil, fmt.Errorf("failed to generate invitation token: %w", err)
	}

	now := s.now()
	inv := &invite.Invitation{
		Token:     token,
		Email:     req.Email,
		Role:      role,
		ExpiresAt: now.Add(invite.TTL),
	}

	if err := s.repo.Create(ctx, inv); err != nil {
		return nil, err
	}

	link := fmt.Sprintf("%s/accept-invite?token=%s", s.baseURL, token)
	body := fmt.Sprintf(
		"<p>You have been invited to join Pocket Agency as <strong>%s</strong>.</p>"+
			"<p><a class=\"button\" href=\"%s\">Accept invitation</a></p>"+
			"<p>This link expires in 24 hours and can be used once.</p>",
		role, link,
	)
	if err := s.mailer.Send(req.Email, "Pocket Agency admin invitation", body); err != nil {
		s.logger.Error("failed to send invitation email",
			zap.String("email", req.Email), zap.Error(err))
		// The invitation row exists; the super admin can resend the link.
	}

	s.logger.Info("admin invitation created",
		zap.String("email", req.Email),
		zap.String("role", role),
		zap.Time("expires_at", inv.ExpiresAt),
	)

	return inv, nil
}

// Validate checks an invitation token without consuming it.
func (s *InviteService) Validate(ctx context.Context, token string) (*invite.Invitation, error) {
	inv, err := s.repo.FindByToken(ctx, token)
	if err != nil {
		return nil, err
	}

	if inv.Used {
		return nil, xerrors.ErrTokenUsed
	}

	if inv.Expired(s.now()) {
		return nil, xerrors.ErrTokenExpired
	}

	return inv, nil
}

// Redeem validates and consumes an invitation in one step. The conditional
// update in MarkUsed guarantees a token redeemed concurrently is consumed
// exactly once.
func (s *InviteService) Redeem(ctx context.Context, token string) (*invite.Invitation, error) {
	inv, err := s.Validate(ctx, token)
	if err != nil {
		return nil, err
	}

	if err := s.repo.MarkUsed(ctx, token, s.now()); err != nil {
		if errors.Is(err, xerrors.ErrTokenUsed) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to consume invitation: %w", err)
	}

	return inv, nil
}

// newHexToken returns 16 random bytes as lowercase hex (128-bit entropy).
func newHexToken() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
