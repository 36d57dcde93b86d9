package service

import (
	"time"

	"casthub/internal/domain/entity"

	"github.com/google/uuid"
)

// SessionTTL is the lifetime of a session token. Expiry is the only
// invalidation mechanism, there is no revocation list.
const SessionTTL = 7 * 24 * time.Hour

// SessionClaims is the decoded payload of a session token.
type SessionClaims struct {
	UserID      uint
	UserUUID    uuid.UUID
	Email       string
	DisplayName string
	AvatarURL   string
	StreamKey   string
	Provider    entity.ProviderType
	ExpiresAt   time.Time
	IssuedAt    time.Time
}

// TokenService defines the interface for minting and validating session tokens.
// This abstracts the details of token creation from the use cases.
type TokenService interface {
	// Issue mints a fresh signed session token for the given identity.
	Issue(user *entity.UserIdentity) (string, error)

	// Validate checks a token string and returns its decoded claims.
	Validate(tokenString string) (*SessionClaims, error)
}
