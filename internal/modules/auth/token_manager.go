package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pkg/apperr"
	"storefront/internal/pkg/jwt"
	"storefront/internal/repository"
)

// TokenPair is the result of a login.
type TokenPair struct {
	AccessToken      string
	RefreshToken     string
	AccessExpiresAt  time.Time
	RefreshExpiresAt time.Time
}

// AccessGrant is the result of exchanging a refresh token.
type AccessGrant struct {
	AccessToken string
	ExpiresAt   time.Time
}

// TokenManager issues access/refresh pairs and tracks refresh tokens in the
// store. Access tokens are never looked up; refresh tokens must be both
// cryptographically valid and active in the store.
type TokenManager struct {
	codec  TokenCodec
	store  RefreshTokenStore
	users  UserRepository
	pepper string
}

func NewTokenManager(codec TokenCodec, store RefreshTokenStore, users UserRepository, pepper string) *TokenManager {
	return &TokenManager{codec: codec, store: store, users: users, pepper: pepper}
}

// Issue mints a fresh pair for user and persists the refresh token.
func (m *TokenManager) Issue(ctx context.Context, user *domain.User) (*TokenPair, error) {
	sub := jwt.Subject{UserID: user.ID, Username: user.Username, Role: string(user.Role)}

	access, accessExp, err := m.codec.Sign(sub, jwt.TokenTypeAccess)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	refresh, refreshExp, err := m.codec.Sign(sub, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	row := &domain.RefreshToken{
		UserID:    user.ID,
		TokenHash: hashTokenWithPepper(refresh, m.pepper),
		IssuedAt:  m.codec.Now().UTC(),
		ExpiresAt: refreshExp.UTC(),
		Active:    true,
	}
	if err := m.store.Create(ctx, row); err != nil {
		return nil, apperr.Internal(err)
	}

	return &TokenPair{
		AccessToken:      access,
		RefreshToken:     refresh,
		AccessExpiresAt:  accessExp,
		RefreshExpiresAt: refreshExp,
	}, nil
}

// Verify checks a token of the expected type. Errors are jwt.ErrTokenExpired
// or jwt.ErrTokenInvalid.
func (m *TokenManager) Verify(token, expectedType string) (*jwt.Claims, error) {
	return m.codec.Verify(token, expectedType)
}

// RotateAccess mints a new access token from a refresh token. The refresh
// token itself is reused until it expires or is revoked. Every rejection is
// reported as ErrInvalidRefreshToken.
func (m *TokenManager) RotateAccess(ctx context.Context, refreshToken string) (*AccessGrant, error) {
	claims, err := m.codec.Verify(refreshToken, jwt.TokenTypeRefresh)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	row, err := m.store.GetByHash(ctx, hashTokenWithPepper(refreshToken, m.pepper))
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperr.Internal(err)
	}
	if row.UserID != claims.UserID || !row.Usable(m.codec.Now()) {
		return nil, ErrInvalidRefreshToken
	}

	user, err := m.users.GetByID(ctx, row.UserID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrInvalidRefreshToken
		}
		return nil, apperr.Internal(err)
	}
	if !user.IsActive {
		return nil, ErrInvalidRefreshToken
	}

	access, exp, err := m.codec.Sign(jwt.Subject{UserID: user.ID, Username: user.Username, Role: string(user.Role)}, jwt.TokenTypeAccess)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	return &AccessGrant{AccessToken: access, ExpiresAt: exp}, nil
}

// Revoke deactivates refreshToken. userID 0 revokes regardless of owner.
// Unknown and already revoked tokens are not an error.
func (m *TokenManager) Revoke(ctx context.Context, userID int64, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	hash := hashTokenWithPepper(refreshToken, m.pepper)
	if err := m.store.Deactivate(ctx, hash, userID, m.codec.Now().UTC()); err != nil {
		return apperr.Internal(err)
	}
	return nil
}

// RevokeAll deactivates every active refresh token of userID.
func (m *TokenManager) RevokeAll(ctx context.Context, userID int64) (int64, error) {
	n, err := m.store.DeactivateByUser(ctx, userID, m.codec.Now().UTC())
	if err != nil {
		return 0, apperr.Internal(err)
	}
	return n, nil
}

// ExpireStale marks expired refresh tokens inactive without deleting them.
func (m *TokenManager) ExpireStale(ctx context.Context) (int64, error) {
	return m.store.DeactivateExpired(ctx, m.codec.Now().UTC())
}

func (m *TokenManager) Now() time.Time { return m.codec.Now() }

// ExpiresIn is the access token lifetime in seconds.
func (m *TokenManager) ExpiresIn() int64 { return int64(m.codec.AccessTTL() / time.Second) }

func hashTokenWithPepper(raw, pepper string) string {
	sum := sha256.Sum256([]byte(raw + pepper))
	return hex.EncodeToString(sum[:])
}
