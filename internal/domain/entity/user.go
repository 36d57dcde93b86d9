// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import (
	"time"

	"github.com/google/uuid"
)

// StreamKeyBytes is the number of random bytes behind a stream key.
// Hex encoding doubles it, so keys are 48 characters on the wire.
const StreamKeyBytes = 24

// UserIdentity is the canonical account record. Every login, whether by
// password or by OAuth callback, resolves to exactly one UserIdentity.
type UserIdentity struct {
	ID           uint         // Internal numeric id. Stable, never exposed outside the API boundary.
	UUID         uuid.UUID    // Public identifier, safe for external exposure.
	Email        string       // Primary contact email, also the linking key for OAuth reconciliation.
	DisplayName  string       // Display name, refreshed from the provider profile on every OAuth login.
	AvatarURL    string       // Avatar URL reported by the provider. May be empty.
	StreamKey    string       // Opaque ingest credential, 48 hex characters. Immutable unless rotated.
	Provider     ProviderType // OAuth provider currently attached, or ProviderNone for password accounts.
	ProviderID   string       // The provider's own subject identifier. Unique per provider.
	OAuthEmail   string       // Shadow copy of the email last reported by the OAuth provider.
	PasswordHash string       // bcrypt hash, present only for password accounts.
	CreatedAt    time.Time    // Timestamp of account creation.
	UpdatedAt    time.Time    // Timestamp of the last modification.
}

// HasPassword reports whether the account can log in with a password.
func (u *UserIdentity) HasPassword() bool {
	return u.PasswordHash != ""
}

// LinkedTo reports whether the account is attached to the given OAuth provider subject.
func (u *UserIdentity) LinkedTo(provider ProviderType, providerID string) bool {
	return u.Provider == provider && u.ProviderID == providerID
}
