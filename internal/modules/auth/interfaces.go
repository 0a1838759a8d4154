package auth

import (
	"context"
	"time"

	"storefront/internal/domain"
	"storefront/internal/pkg/jwt"
)

// UserRepository is the Credential Store as seen by this module.
type UserRepository interface {
	Create(ctx context.Context, u *domain.User) error
	GetByID(ctx context.Context, id int64) (*domain.User, error)
	GetByUsername(ctx context.Context, username string) (*domain.User, error)
	ExistsByUsername(ctx context.Context, username string) (bool, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)
	UpdateProfile(ctx context.Context, u *domain.User) error
	SetActive(ctx context.Context, id int64, active bool) error
	SetRole(ctx context.Context, id int64, role domain.Role) error
	List(ctx context.Context, limit, offset int) ([]domain.User, int64, error)
}

// RefreshTokenStore persists refresh token hashes.
type RefreshTokenStore interface {
	Create(ctx context.Context, t *domain.RefreshToken) error
	GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error)
	Deactivate(ctx context.Context, hash string, userID int64, now time.Time) error
	DeactivateByUser(ctx context.Context, userID int64, now time.Time) (int64, error)
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// TokenCodec signs and parses session tokens.
type TokenCodec interface {
	Sign(sub jwt.Subject, tokenType string) (string, time.Time, error)
	Verify(token, expectedType string) (*jwt.Claims, error)
	Now() time.Time
	AccessTTL() time.Duration
}
