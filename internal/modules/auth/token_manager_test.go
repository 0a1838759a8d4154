package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/domain"
	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/jwt"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

const testPepper = "pepper"

type fakeClock struct{ now time.Time }

func (f *fakeClock) Now() time.Time { return f.now }

func (f *fakeClock) Advance(d time.Duration) { f.now = f.now.Add(d) }

type fixture struct {
	db     *gorm.DB
	clock  *fakeClock
	users  *repository.UserRepository
	store  *repository.RefreshTokenRepository
	tokens *TokenManager
	svc    *Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := database.Connect("file:auth_"+uuid.NewString()+"?mode=memory&cache=shared", zerolog.Nop())
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec := jwt.New("test-secret", 10*time.Minute, 7*24*time.Hour).WithClock(clock.Now)
	users := repository.NewUserRepository(db)
	store := repository.NewRefreshTokenRepository(db)
	tokens := NewTokenManager(codec, store, users, testPepper)

	return &fixture{
		db:     db,
		clock:  clock,
		users:  users,
		store:  store,
		tokens: tokens,
		svc:    NewService(users, tokens, zerolog.Nop()),
	}
}

func (f *fixture) seedUser(t *testing.T, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "unused",
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, f.users.Create(context.Background(), u))
	return u
}

func TestTokenManager_IssueThenVerify(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "asha", domain.RoleAdmin)

	pair, err := f.tokens.Issue(context.Background(), user)
	require.NoError(t, err)
	assert.Equal(t, f.clock.now.Add(10*time.Minute), pair.AccessExpiresAt)
	assert.Equal(t, f.clock.now.Add(7*24*time.Hour), pair.RefreshExpiresAt)

	claims, err := f.tokens.Verify(pair.AccessToken, jwt.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, "asha", claims.Username)
	assert.Equal(t, "admin", claims.Role)

	f.clock.Advance(9*time.Minute + 59*time.Second)
	_, err = f.tokens.Verify(pair.AccessToken, jwt.TokenTypeAccess)
	assert.NoError(t, err)

	f.clock.Advance(time.Second)
	_, err = f.tokens.Verify(pair.AccessToken, jwt.TokenTypeAccess)
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)
}

func TestTokenManager_IssueCreatesRowPerLogin(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "ravi", domain.RoleCommon)

	first, err := f.tokens.Issue(context.Background(), user)
	require.NoError(t, err)
	second, err := f.tokens.Issue(context.Background(), user)
	require.NoError(t, err)
	assert.NotEqual(t, first.RefreshToken, second.RefreshToken)

	n, err := f.store.CountActive(context.Background(), user.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	row, err := f.store.GetByHash(context.Background(), hashTokenWithPepper(first.RefreshToken, testPepper))
	require.NoError(t, err)
	assert.True(t, row.Active)
	assert.Equal(t, user.ID, row.UserID)
}

func TestTokenManager_RotateAccess(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "meera", domain.RoleCommon)
	pair, err := f.tokens.Issue(context.Background(), user)
	require.NoError(t, err)

	f.clock.Advance(time.Hour)
	grant, err := f.tokens.RotateAccess(context.Background(), pair.RefreshToken)
	require.NoError(t, err)

	claims, err := f.tokens.Verify(grant.AccessToken, jwt.TokenTypeAccess)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)

	// refresh token is not rotated and keeps working
	_, err = f.tokens.RotateAccess(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenManager_RotateAccessFailsForInactiveRow(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "dev", domain.RoleCommon)
	pair, err := f.tokens.Issue(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, f.db.Model(&domain.RefreshToken{}).Where("user_id = ?", user.ID).Update("active", false).Error)

	// signature and embedded expiry are still fine
	_, err = f.tokens.Verify(pair.RefreshToken, jwt.TokenTypeRefresh)
	require.NoError(t, err)

	_, err = f.tokens.RotateAccess(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTokenManager_RotateAccessRejections(t *testing.T) {
	tests := []struct {
		name  string
		setup func(t *testing.T, f *fixture, user *domain.User, pair *TokenPair) string
	}{
		{
			name: "garbage",
			setup: func(t *testing.T, f *fixture, user *domain.User, pair *TokenPair) string {
				return "not-a-token"
			},
		},
		{
			name: "access token presented as refresh",
			setup: func(t *testing.T, f *fixture, user *domain.User, pair *TokenPair) string {
				return pair.AccessToken
			},
		},
		{
			name: "expired",
			setup: func(t *testing.T, f *fixture, user *domain.User, pair *TokenPair) string {
				f.clock.Advance(7*24*time.Hour + time.Second)
				return pair.RefreshToken
			},
		},
		{
			name: "expired in store only",
			setup: func(t *testing.T, f *fixture, user *domain.User, pair *TokenPair) string {
				require.NoError(t, f.db.Model(&domain.RefreshToken{}).
					Where("user_id = ?", user.ID).
					Update("expires_at", f.clock.now.Add(-time.Minute)).Error)
				return pair.RefreshToken
			},
		},
		{
			name: "unknown to store",
			setup: func(t *testing.T, f *fixture, user *domain.User, pair *TokenPair) string {
				require.NoError(t, f.db.Where("user_id = ?", user.ID).Delete(&domain.RefreshToken{}).Error)
				return pair.RefreshToken
			},
		},
		{
			name: "inactive user",
			setup: func(t *testing.T, f *fixture, user *domain.User, pair *TokenPair) string {
				require.NoError(t, f.users.SetActive(context.Background(), user.ID, false))
				return pair.RefreshToken
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			user := f.seedUser(t, "user", domain.RoleCommon)
			pair, err := f.tokens.Issue(context.Background(), user)
			require.NoError(t, err)

			token := tt.setup(t, f, user, pair)
			_, err = f.tokens.RotateAccess(context.Background(), token)
			assert.ErrorIs(t, err, ErrInvalidRefreshToken)
			assert.Equal(t, "Invalid or expired refresh token", apperr.From(err).Message)
		})
	}
}

func TestTokenManager_RevokeIsIdempotent(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "kiran", domain.RoleCommon)
	pair, err := f.tokens.Issue(context.Background(), user)
	require.NoError(t, err)

	require.NoError(t, f.tokens.Revoke(context.Background(), user.ID, pair.RefreshToken))
	require.NoError(t, f.tokens.Revoke(context.Background(), user.ID, pair.RefreshToken))
	require.NoError(t, f.tokens.Revoke(context.Background(), 0, "never-issued"))

	row, err := f.store.GetByHash(context.Background(), hashTokenWithPepper(pair.RefreshToken, testPepper))
	require.NoError(t, err)
	assert.False(t, row.Active)
	assert.NotNil(t, row.RevokedAt)

	_, err = f.tokens.RotateAccess(context.Background(), pair.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)
}

func TestTokenManager_RevokeScopedToOwner(t *testing.T) {
	f := newFixture(t)
	owner := f.seedUser(t, "owner", domain.RoleCommon)
	other := f.seedUser(t, "other", domain.RoleCommon)
	pair, err := f.tokens.Issue(context.Background(), owner)
	require.NoError(t, err)

	require.NoError(t, f.tokens.Revoke(context.Background(), other.ID, pair.RefreshToken))

	_, err = f.tokens.RotateAccess(context.Background(), pair.RefreshToken)
	assert.NoError(t, err)
}

func TestTokenManager_ExpireStaleKeepsRows(t *testing.T) {
	f := newFixture(t)
	user := f.seedUser(t, "lata", domain.RoleCommon)
	_, err := f.tokens.Issue(context.Background(), user)
	require.NoError(t, err)

	f.clock.Advance(8 * 24 * time.Hour)
	n, err := f.tokens.ExpireStale(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	var count int64
	require.NoError(t, f.db.Model(&domain.RefreshToken{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}

type mockTokenStore struct {
	mock.Mock
}

func (m *mockTokenStore) Create(ctx context.Context, t *domain.RefreshToken) error {
	return m.Called(ctx, t).Error(0)
}

func (m *mockTokenStore) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	args := m.Called(ctx, hash)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RefreshToken), args.Error(1)
}

func (m *mockTokenStore) Deactivate(ctx context.Context, hash string, userID int64, now time.Time) error {
	return m.Called(ctx, hash, userID, now).Error(0)
}

func (m *mockTokenStore) DeactivateByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	args := m.Called(ctx, userID, now)
	return args.Get(0).(int64), args.Error(1)
}

func (m *mockTokenStore) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	args := m.Called(ctx, now)
	return args.Get(0).(int64), args.Error(1)
}

func TestTokenManager_StoreFailuresAreInternal(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)}
	codec := jwt.New("test-secret", 10*time.Minute, time.Hour).WithClock(clock.Now)
	store := new(mockTokenStore)
	tokens := NewTokenManager(codec, store, nil, testPepper)

	dbErr := errors.New("connection reset")
	store.On("Create", mock.Anything, mock.AnythingOfType("*domain.RefreshToken")).Return(dbErr)
	store.On("Deactivate", mock.Anything, hashTokenWithPepper("tok", testPepper), int64(7), clock.now).Return(dbErr)

	_, err := tokens.Issue(context.Background(), &domain.User{ID: 7, Username: "x", Role: domain.RoleCommon})
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))
	assert.ErrorIs(t, err, dbErr)

	err = tokens.Revoke(context.Background(), 7, "tok")
	assert.True(t, apperr.IsKind(err, apperr.KindInternal))

	store.AssertExpectations(t)
}
