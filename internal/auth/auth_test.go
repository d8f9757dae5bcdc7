package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"ralph-xpert/internal/models"
)

type memAdmins struct {
	admins  []models.AdminUser
	touched map[string]time.Time
	listErr error
}

func (m *memAdmins) ListAdmins(context.Context) ([]models.AdminUser, error) {
	return m.admins, m.listErr
}

func (m *memAdmins) TouchAdminLogin(_ context.Context, username string, at time.Time) error {
	if m.touched == nil {
		m.touched = map[string]time.Time{}
	}
	m.touched[username] = at
	return nil
}

func newAuth(t *testing.T, admins ...models.AdminUser) (*Authenticator, *memAdmins, *time.Time) {
	t.Helper()
	src := &memAdmins{admins: admins}
	a := NewAuthenticator(src, "test-secret", 24*time.Hour, zap.NewNop())
	now := time.Date(2025, 3, 14, 9, 0, 0, 0, time.UTC)
	a.now = func() time.Time { return now }
	return a, src, &now
}

func TestCheckPassword(t *testing.T) {
	hash, err := HashPassword("s3cret")
	require.NoError(t, err)
	assert.True(t, IsHashed(hash))

	assert.True(t, CheckPassword(hash, "s3cret"))
	assert.False(t, CheckPassword(hash, "wrong"))
	assert.True(t, CheckPassword("AdminAdmin", "AdminAdmin"))
	assert.False(t, CheckPassword("AdminAdmin", "adminadmin"))
	assert.False(t, CheckPassword("", ""))
}

func TestLogin(t *testing.T) {
	ctx := context.Background()
	a, src, now := newAuth(t, models.AdminUser{Username: "AdminAdmin", Password: "AdminAdmin"})

	_, _, err := a.Login(ctx, "", "x")
	assert.ErrorIs(t, err, ErrMissingCredentials)
	_, _, err = a.Login(ctx, "AdminAdmin", "bad")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, _, err = a.Login(ctx, "ghost", "AdminAdmin")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	token, session, err := a.Login(ctx, "AdminAdmin", "AdminAdmin")
	require.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.Equal(t, "AdminAdmin", session.Username)
	assert.Equal(t, "2025-03-14T09:00:00Z", session.LoginTime)
	assert.Equal(t, *now, src.touched["AdminAdmin"])

	got, err := a.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, session.Username, got.Username)
	assert.Equal(t, session.LoginTime, got.LoginTime)
	assert.Equal(t, session.ID, got.ID)
}

func TestLogin_StoreError(t *testing.T) {
	a, src, _ := newAuth(t)
	src.listErr = errors.New("disk")
	_, _, err := a.Login(context.Background(), "a", "b")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrInvalidCredentials)
}

func TestLogin_BcryptAdmin(t *testing.T) {
	hash, err := HashPassword("pw")
	require.NoError(t, err)
	a, _, _ := newAuth(t, models.AdminUser{Username: "ops", Password: hash})

	_, _, err = a.Login(context.Background(), "ops", "pw")
	assert.NoError(t, err)
}

func TestVerify(t *testing.T) {
	ctx := context.Background()
	a, _, now := newAuth(t, models.AdminUser{Username: "AdminAdmin", Password: "AdminAdmin"})
	token, _, err := a.Login(ctx, "AdminAdmin", "AdminAdmin")
	require.NoError(t, err)

	_, err = a.Verify("")
	assert.ErrorIs(t, err, ErrNoToken)
	_, err = a.Verify("garbage")
	assert.ErrorIs(t, err, ErrInvalidToken)

	other := NewAuthenticator(&memAdmins{}, "another-secret", time.Hour, zap.NewNop())
	other.now = a.now
	_, err = other.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)

	*now = now.Add(25 * time.Hour)
	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestVerify_RejectsNoneAlgorithm(t *testing.T) {
	a, _, now := newAuth(t)
	claims := Claims{
		Username: "AdminAdmin",
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodNone, claims).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	_, err = a.Verify(token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestRevoke(t *testing.T) {
	ctx := context.Background()
	a, _, _ := newAuth(t, models.AdminUser{Username: "AdminAdmin", Password: "AdminAdmin"})

	first, _, err := a.Login(ctx, "AdminAdmin", "AdminAdmin")
	require.NoError(t, err)
	second, _, err := a.Login(ctx, "AdminAdmin", "AdminAdmin")
	require.NoError(t, err)

	require.NoError(t, a.Revoke(first))
	_, err = a.Verify(first)
	assert.ErrorIs(t, err, ErrInvalidToken)

	_, err = a.Verify(second)
	assert.NoError(t, err, "other sessions stay valid")

	assert.ErrorIs(t, a.Revoke("garbage"), ErrInvalidToken)
}
