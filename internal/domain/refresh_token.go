package domain

import "time"

// RefreshToken is the server-side record of an issued refresh token.
//
// Only the SHA-256 hash of the token is stored. Rows are deactivated on
// logout and never deleted, so they double as a session audit trail.
type RefreshToken struct {
	ID int64 `json:"id" gorm:"primaryKey"`

	UserID int64 `json:"user_id" gorm:"index;not null"`
	User   User  `json:"-" gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE"`

	TokenHash string `json:"-" gorm:"size:64;uniqueIndex;not null"`

	IssuedAt  time.Time  `json:"issued_at" gorm:"not null"`
	ExpiresAt time.Time  `json:"expires_at" gorm:"index;not null"`
	Active    bool       `json:"active" gorm:"index;not null"`
	RevokedAt *time.Time `json:"revoked_at"`
}

func (t *RefreshToken) IsExpired(now time.Time) bool {
	return !now.Before(t.ExpiresAt)
}

// Usable is the store half of refresh-token validity; the signature half is
// checked by the token codec.
func (t *RefreshToken) Usable(now time.Time) bool {
	return t.Active && !t.IsExpired(now)
}
