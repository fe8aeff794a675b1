package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"vansales-service/internal/models"
	"vansales-service/internal/testutil"
)

func newAuthFixture(t *testing.T) (*AuthService, *testutil.MemoryStore) {
	t.Helper()
	st := testutil.NewMemoryStore()

	hash, err := bcrypt.GenerateFromPassword([]byte("demo123"), bcrypt.MinCost)
	require.NoError(t, err)

	st.AddUser(models.User{Username: "agent1", Password: string(hash), Name: "Agent One", Role: models.RoleAgent, IsEnabled: true})
	st.AddUser(models.User{Username: "agent2", Password: string(hash), Name: "Agent Two", Role: models.RoleAgent, IsEnabled: false})

	return NewAuthService(st, "test-secret", time.Hour), st
}

func TestLogin(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	result, err := auth.Login(ctx, "agent1", "demo123")
	require.NoError(t, err)
	assert.Equal(t, "agent1", result.User.Username)
	assert.NotEmpty(t, result.Token)

	userID, err := auth.ParseToken(result.Token)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, userID)
}

func TestLoginFailures(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, "nobody", "demo123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "agent1", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = auth.Login(ctx, "", "")
	_, ok := IsValidationError(err)
	assert.True(t, ok)
}

func TestLoginDisabledRegardlessOfPassword(t *testing.T) {
	auth, _ := newAuthFixture(t)
	ctx := context.Background()

	_, err := auth.Login(ctx, "agent2", "demo123")
	assert.ErrorIs(t, err, ErrAccountDisabled)

	_, err = auth.Login(ctx, "agent2", "not-the-password")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestParseTokenRejectsTampering(t *testing.T) {
	auth, _ := newAuthFixture(t)

	other := NewAuthService(testutil.NewMemoryStore(), "another-secret", time.Hour)
	token, _, err := other.IssueToken(&models.User{ID: 1, Role: models.RoleAdmin})
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)

	_, err = auth.ParseToken("not-a-token")
	assert.ErrorIs(t, err, ErrUnauthorized)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{Subject: "1", Issuer: tokenIssuer})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = auth.ParseToken(unsigned)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestParseTokenRejectsExpired(t *testing.T) {
	auth := NewAuthService(testutil.NewMemoryStore(), "s", time.Hour)
	auth.ttl = -time.Minute

	token, _, err := auth.IssueToken(&models.User{ID: 4})
	require.NoError(t, err)

	_, err = auth.ParseToken(token)
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestAuthenticate(t *testing.T) {
	auth, st := newAuthFixture(t)
	ctx := context.Background()

	enabled, err := st.GetUserByUsername(ctx, "agent1")
	require.NoError(t, err)
	disabled, err := st.GetUserByUsername(ctx, "agent2")
	require.NoError(t, err)

	user, err := auth.Authenticate(ctx, enabled.ID)
	require.NoError(t, err)
	assert.Equal(t, enabled.ID, user.ID)

	_, err = auth.Authenticate(ctx, disabled.ID)
	assert.ErrorIs(t, err, ErrAccountDisabled)

	_, err = auth.Authenticate(ctx, 9999)
	assert.ErrorIs(t, err, ErrUnauthorized)
}
