// internal/service/auth/auth_service.go
package auth

import (
	"context"
	"database/sql"
	"fmt"

	"pocket-agency-service/internal/domain/account"
	"pocket-agency-service/internal/domain/invite"
	xerrors "pocket-agency-service/internal/pkg/errors"
	"pocket-agency-service/internal/pkg/jwt"
	invitesvc "pocket-agency-service/internal/service/invite"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type AccountRepo interface {
	Create(ctx context.Context, acc *account.Account) error
	FindByEmail(ctx context.Context, email string) (*account.Account, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	SuperAdminExists(ctx context.Context) (bool, error)
}

type AuthService struct {
	accounts AccountRepo
	invites  *invitesvc.InviteService
	jwtGen   *jwt.Generator
	logger   *zap.Logger
}

func NewAuthService(accounts AccountRepo, invites *invitesvc.InviteService, jwtGen *jwt.Generator, logger *zap.Logger) *AuthService {
	return &AuthService{
		accounts: accounts,
		invites:  invites,
		jwtGen:   jwtGen,
		logger:   logger,
	}
}

// AcceptInvite consumes an invitation token and creates the invited admin
// account, returning a signed token so the new admin is logged in at once.
func (s *AuthService) AcceptInvite(ctx context.Context, req *invite.AcceptInviteRequest) (*account.LoginResponse, error) {
	// Check before consuming the token so a duplicate email does not burn
	// a still-valid invitation.
	inv, err := s.invites.Validate(ctx, req.Token)
	if err != nil {
		return nil, err
	}

	exists, err := s.accounts.ExistsByEmail(ctx, inv.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, fmt.Errorf("%w: account for %s already exists", xerrors.ErrConflict, inv.Email)
	}

	if _, err := s.invites.Redeem(ctx, req.Token); err != nil {
		return nil, err
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &account.Account{
		Email:        inv.Email,
		FullName:     sql.NullString{String: req.FullName, Valid: req.FullName != ""},
		PasswordHash: string(hashed),
		Role:         inv.Role,
		Status:       "active",
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		return nil, err
	}

	token, _, err := s.jwtGen.Generate(acc.ID, acc.Email, acc.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	s.logger.Info("invitation accepted",
		zap.String("email", acc.Email),
		zap.String("role", acc.Role),
		zap.Int64("account_id", acc.ID),
	)

	return &account.LoginResponse{Token: token, Account: acc}, nil
}

// Login authenticates an account by email and password.
func (s *AuthService) Login(ctx context.Context, req *account.LoginRequest) (*account.LoginResponse, error) {
	acc, err := s.accounts.FindByEmail(ctx, req.Email)
	if err != nil {
		// Same error for unknown email and bad password.
		return nil, xerrors.ErrUnauthorized
	}

	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		return nil, xerrors.ErrUnauthorized
	}

	if acc.Status != "active" {
		return nil, xerrors.ErrForbidden
	}

	token, _, err := s.jwtGen.Generate(acc.ID, acc.Email, acc.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}

	return &account.LoginResponse{Token: token, Account: acc}, nil
}

// EnsureSuperAdminExists creates the super admin account on startup if none
// exists yet.
func (s *AuthService) EnsureSuperAdminExists(ctx context.Context, email, password, fullName string) error {
	exists, err := s.accounts.SuperAdminExists(ctx)
	if err != nil {
		return fmt.Errorf("failed to check super admin existence: %w", err)
	}

	if exists {
		s.logger.Info("super admin already exists, skipping creation")
		return nil
	}

	if email == "" || password == "" || fullName == "" {
		return fmt.Errorf("super admin email, password, and name must be provided via environment variables")
	}

	emailExists, err := s.accounts.ExistsByEmail(ctx, email)
	if err != nil {
		return fmt.Errorf("failed to check email: %w", err)
	}
	if emailExists {
		return fmt.Errorf("email %s already exists but super admin role not assigned", email)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	acc := &account.Account{
		Email:        email,
		FullName:     sql.NullString{String: fullName, Valid: true},
		PasswordHash: string(hashed),
		Role:         jwt.RoleSuperAdmin,
		Status:       "active",
	}

	if err := s.accounts.Create(ctx, acc); err != nil {
		return fmt.Errorf("failed to create super admin: %w", err)
	}

	s.logger.Info("super admin created successfully",
		zap.String("email", email),
		zap.Int64("account_id", acc.ID),
	)

	return nil
}
