package repository

import (
	"context"
	"time"

	"storefront/internal/domain"

	"gorm.io/gorm"
)

// RefreshTokenRepository provides DB access for refresh tokens.
type RefreshTokenRepository struct {
	db *gorm.DB
}

func NewRefreshTokenRepository(db *gorm.DB) *RefreshTokenRepository {
	return &RefreshTokenRepository{db: db}
}

func (r *RefreshTokenRepository) Create(ctx context.Context, t *domain.RefreshToken) error {
	return r.db.WithContext(ctx).Create(t).Error
}

func (r *RefreshTokenRepository) GetByHash(ctx context.Context, hash string) (*domain.RefreshToken, error) {
	var t domain.RefreshToken
	err := r.db.WithContext(ctx).Where("token_hash = ?", hash).First(&t).Error
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// Deactivate marks the active row with this hash inactive. userID 0 matches
// any owner. Missing or already inactive rows are not an error.
func (r *RefreshTokenRepository) Deactivate(ctx context.Context, hash string, userID int64, now time.Time) error {
	q := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("token_hash = ? AND active = ?", hash, true)
	if userID != 0 {
		q = q.Where("user_id = ?", userID)
	}
	return q.Updates(map[string]any{"active": false, "revoked_at": now}).Error
}

func (r *RefreshTokenRepository) DeactivateByUser(ctx context.Context, userID int64, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND active = ?", userID, true).
		Updates(map[string]any{"active": false, "revoked_at": now})
	return res.RowsAffected, res.Error
}

// DeactivateExpired flips expired rows to inactive; rows are kept for audit.
func (r *RefreshTokenRepository) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("active = ? AND expires_at <= ?", true, now).
		Update("active", false)
	return res.RowsAffected, res.Error
}

func (r *RefreshTokenRepository) CountActive(ctx context.Context, userID int64) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Model(&domain.RefreshToken{}).
		Where("user_id = ? AND active = ?", userID, true).Count(&n).Error
	return n, err
}
