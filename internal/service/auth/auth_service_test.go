package auth

import (
	"context"
	"crypto/rand"
	"crypto/rsa"
	"testing"
	"time"

	"pocket-agency-service/internal/domain/account"
	"pocket-agency-service/internal/domain/invite"
	xerrors "pocket-agency-service/internal/pkg/errors"
	"pocket-agency-service/internal/pkg/jwt"
	invitesvc "pocket-agency-service/internal/service/invite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

type fakeAccounts struct {
	byEmail    map[string]*account.Account
	superAdmin bool
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{byEmail: map[string]*account.Account{}}
}

func (f *fakeAccounts) Create(_ context.Context, acc *account.Account) error {
	acc.ID = int64(len(f.byEmail) + 1)
	f.byEmail[acc.Email] = acc
	return nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*account.Account, error) {
	acc, ok := f.byEmail[email]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return acc, nil
}

func (f *fakeAccounts) ExistsByEmail(_ context.Context, email string) (bool, error) {
	_, ok := f.byEmail[email]
	return ok, nil
}

func (f *fakeAccounts) SuperAdminExists(_ context.Context) (bool, error) {
	return f.superAdmin, nil
}

type fakeInviteRepo struct {
	byToken map[string]*invite.Invitation
}

func (f *fakeInviteRepo) Create(_ context.Context, inv *invite.Invitation) error {
	f.byToken[inv.Token] = inv
	return nil
}

func (f *fakeInviteRepo) FindByToken(_ context.Context, token string) (*invite.Invitation, error) {
	inv, ok := f.byToken[token]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return inv, nil
}

func (f *fakeInviteRepo) MarkUsed(_ context.Context, token string, _ time.Time) error {
	inv, ok := f.byToken[token]
	if !ok || inv.Used {
		return xerrors.ErrTokenUsed
	}
	inv.Used = true
	return nil
}

type noopMailer struct{}

func (noopMailer) Send(_, _, _ string) error { return nil }

type fixture struct {
	svc      *AuthService
	accounts *fakeAccounts
	invites  *invitesvc.InviteService
	repo     *fakeInviteRepo
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	priv, err := rsa.GenerateKey(rand.Reader, 2048)
	require.NoError(t, err)
	gen := jwt.NewGenerator(priv, "pocket-agency", "pocket-agency-users", "test-key", time.Hour)

	f := &fixture{
		accounts: newFakeAccounts(),
		repo:     &fakeInviteRepo{byToken: map[string]*invite.Invitation{}},
	}
	f.invites = invitesvc.NewInviteService(f.repo, noopMailer{}, "https://app.example.com", zap.NewNop())
	f.svc = NewAuthService(f.accounts, f.invites, gen, zap.NewNop())
	return f
}

func (f *fixture) seedAccount(t *testing.T, email, password, role, status string) *account.Account {
	t.Helper()
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	acc := &account.Account{
		ID:           int64(len(f.accounts.byEmail) + 1),
		Email:        email,
		PasswordHash: string(hashed),
		Role:         role,
		Status:       status,
	}
	f.accounts.byEmail[email] = acc
	return acc
}

func (f *fixture) seedInvite(email string) *invite.Invitation {
	inv := &invite.Invitation{
		Token:     "invitetoken123",
		Email:     email,
		Role:      jwt.RoleAdmin,
		ExpiresAt: time.Now().Add(time.Hour),
	}
	f.repo.byToken[inv.Token] = inv
	return inv
}

func TestAcceptInviteCreatesAccount(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvite("new-admin@example.com")

	resp, err := f.svc.AcceptInvite(context.Background(), &invite.AcceptInviteRequest{
		Token:    inv.Token,
		FullName: "New Admin",
		Password: "s3cret-pass",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "new-admin@example.com", resp.Account.Email)
	assert.Equal(t, jwt.RoleAdmin, resp.Account.Role)
	assert.True(t, inv.Used)

	// Password must be stored hashed, never verbatim.
	assert.NotEqual(t, "s3cret-pass", resp.Account.PasswordHash)
	assert.NoError(t, bcrypt.CompareHashAndPassword(
		[]byte(resp.Account.PasswordHash), []byte("s3cret-pass")))
}

func TestAcceptInviteDuplicateEmailKeepsToken(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvite("taken@example.com")
	f.seedAccount(t, "taken@example.com", "pw", jwt.RoleAdmin, "active")

	_, err := f.svc.AcceptInvite(context.Background(), &invite.AcceptInviteRequest{
		Token:    inv.Token,
		FullName: "Dup",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, xerrors.ErrConflict)
	// The invitation is not burned by a failed attempt.
	assert.False(t, inv.Used)
}

func TestAcceptInviteUsedToken(t *testing.T) {
	f := newFixture(t)
	inv := f.seedInvite("a@example.com")
	inv.Used = true

	_, err := f.svc.AcceptInvite(context.Background(), &invite.AcceptInviteRequest{
		Token:    inv.Token,
		FullName: "A",
		Password: "whatever1",
	})
	assert.ErrorIs(t, err, xerrors.ErrTokenUsed)
}

func TestLoginSuccess(t *testing.T) {
	f := newFixture(t)
	f.seedAccount(t, "admin@example.com", "correct-pw", jwt.RoleAdmin, "active")

	resp, err := f.svc.Login(context.Background(), &account.LoginRequest{
		Email:    "admin@example.com",
		Password: "correct-pw",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, jwt.RoleAdmin, resp.Account.Role)
}

func TestLoginUniformFailure(t *testing.T) {
	f := newFixture(t)
	f.seedAccount(t, "admin@example.com", "correct-pw", jwt.RoleAdmin, "active")

	// Unknown email and wrong password are indistinguishable to the caller.
	_, err := f.svc.Login(context.Background(), &account.LoginRequest{
		Email: "ghost@example.com", Password: "correct-pw",
	})
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)

	_, err = f.svc.Login(context.Background(), &account.LoginRequest{
		Email: "admin@example.com", Password: "wrong-pw",
	})
	assert.ErrorIs(t, err, xerrors.ErrUnauthorized)
}

func TestLoginInactiveAccount(t *testing.T) {
	f := newFixture(t)
	f.seedAccount(t, "admin@example.com", "correct-pw", jwt.RoleAdmin, "suspended")

	_, err := f.svc.Login(context.Background(), &account.LoginRequest{
		Email: "admin@example.com", Password: "correct-pw",
	})
	assert.ErrorIs(t, err, xerrors.ErrForbidden)
}

func TestEnsureSuperAdminIdempotent(t *testing.T) {
	f := newFixture(t)

	err := f.svc.EnsureSuperAdminExists(context.Background(), "root@example.com", "root-pw-123", "Root")
	require.NoError(t, err)
	acc := f.accounts.byEmail["root@example.com"]
	require.NotNil(t, acc)
	assert.Equal(t, jwt.RoleSuperAdmin, acc.Role)

	f.accounts.superAdmin = true
	err = f.svc.EnsureSuperAdminExists(context.Background(), "root@example.com", "root-pw-123", "Root")
	assert.NoError(t, err)
}
