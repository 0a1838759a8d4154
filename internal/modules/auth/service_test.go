package auth

import (
	"context"
	"testing"

	"storefront/internal/domain"
	"storefront/internal/pkg/jwt"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func registerReq(username string) RegisterRequest {
	return RegisterRequest{
		Username:  username,
		Email:     username + "@example.com",
		Password:  "s3cret-pass",
		FirstName: "Test",
	}
}

func TestService_RegisterLogsIn(t *testing.T) {
	f := newFixture(t)

	res, err := f.svc.Register(context.Background(), registerReq("asha"))
	require.NoError(t, err)
	assert.Equal(t, domain.RoleCommon, res.User.Role)
	assert.True(t, res.User.IsActive)
	assert.Equal(t, int64(600), res.ExpiresIn)
	assert.NotEqual(t, "s3cret-pass", res.User.PasswordHash)

	claims, err := f.tokens.Verify(res.Tokens.AccessToken, jwt.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, claims.UserID)
}

func TestService_RegisterDuplicates(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerReq("asha"))
	require.NoError(t, err)

	_, err = f.svc.Register(context.Background(), registerReq("asha"))
	assert.ErrorIs(t, err, ErrUsernameExists)

	dup := registerReq("asha2")
	dup.Email = "ASHA@example.com"
	_, err = f.svc.Register(context.Background(), dup)
	assert.ErrorIs(t, err, ErrEmailExists)
}

func TestService_Login(t *testing.T) {
	f := newFixture(t)
	reg, err := f.svc.Register(context.Background(), registerReq("ravi"))
	require.NoError(t, err)

	res, err := f.svc.Login(context.Background(), LoginRequest{Username: "ravi", Password: "s3cret-pass"})
	require.NoError(t, err)
	assert.NotEqual(t, reg.Tokens.RefreshToken, res.Tokens.RefreshToken)

	_, err = f.svc.Login(context.Background(), LoginRequest{Username: "ravi", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(context.Background(), LoginRequest{Username: "nobody", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	require.NoError(t, f.users.SetActive(context.Background(), reg.User.ID, false))
	_, err = f.svc.Login(context.Background(), LoginRequest{Username: "ravi", Password: "s3cret-pass"})
	assert.ErrorIs(t, err, ErrAccountInactive)
}

func TestService_DeactivateRevokesRefreshTokens(t *testing.T) {
	f := newFixture(t)
	admin := f.seedUser(t, "admin", domain.RoleAdmin)
	reg, err := f.svc.Register(context.Background(), registerReq("meera"))
	require.NoError(t, err)

	user, err := f.svc.SetActive(context.Background(), admin.Identity(), reg.User.ID, false)
	require.NoError(t, err)
	assert.False(t, user.IsActive)

	n, err := f.store.CountActive(context.Background(), reg.User.ID)
	require.NoError(t, err)
	assert.Zero(t, n)

	_, err = f.svc.Refresh(context.Background(), reg.Tokens.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	_, err = f.svc.SetActive(context.Background(), admin.Identity(), admin.ID, false)
	assert.ErrorIs(t, err, ErrSelfDeactivate)

	_, err = f.svc.SetActive(context.Background(), admin.Identity(), 9999, true)
	assert.ErrorIs(t, err, ErrUserNotFound)
}

func TestService_SetRole(t *testing.T) {
	f := newFixture(t)
	super := f.seedUser(t, "root", domain.RoleSuperAdmin)
	target := f.seedUser(t, "dev", domain.RoleCommon)

	user, err := f.svc.SetRole(context.Background(), super.Identity(), target.ID, "admin")
	require.NoError(t, err)
	assert.Equal(t, domain.RoleAdmin, user.Role)

	_, err = f.svc.SetRole(context.Background(), super.Identity(), super.ID, "common")
	assert.ErrorIs(t, err, ErrSelfRoleChange)

	_, err = f.svc.SetRole(context.Background(), super.Identity(), target.ID, "anonymous")
	assert.ErrorIs(t, err, ErrInvalidRole)
}

func TestService_UpdateProfile(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.Register(context.Background(), registerReq("taken"))
	require.NoError(t, err)
	reg, err := f.svc.Register(context.Background(), registerReq("lata"))
	require.NoError(t, err)

	user, err := f.svc.UpdateProfile(context.Background(), reg.User.ID, UpdateProfileRequest{
		LastName: strPtr("Iyer"),
		Mobile:   strPtr("+919876543210"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Iyer", user.LastName)
	assert.Equal(t, "Test", user.FirstName)

	_, err = f.svc.UpdateProfile(context.Background(), reg.User.ID, UpdateProfileRequest{Email: strPtr("taken@example.com")})
	assert.ErrorIs(t, err, ErrEmailExists)

	// same address in a different case is not a conflict with itself
	_, err = f.svc.UpdateProfile(context.Background(), reg.User.ID, UpdateProfileRequest{Email: strPtr("LATA@example.com")})
	assert.NoError(t, err)
}

func TestService_CreateUserRejectsAnonymousRole(t *testing.T) {
	f := newFixture(t)
	_, err := f.svc.CreateUser(context.Background(), NewUser{
		Username: "ghost",
		Email:    "ghost@example.com",
		Password: "s3cret-pass",
		Role:     domain.RoleAnonymous,
	})
	assert.ErrorIs(t, err, ErrInvalidRole)
}
