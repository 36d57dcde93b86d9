// Package service defines interfaces for core, stateless domain logic.
// These services encapsulate business rules that don't naturally fit within a single entity.
package service

import (
	"context"

	"casthub/internal/domain/entity"
)

// OAuthProfile is the normalized identity tuple every provider adapter
// produces, regardless of the provider's own profile shape. It contains
// facts only, no decisions.
type OAuthProfile struct {
	Provider    entity.ProviderType // The OAuth provider this profile came from.
	ProviderID  string              // Provider-scoped stable subject identifier (e.g. Google's 'sub').
	Email       string              // Email reported by the provider. Empty when the provider returned none.
	DisplayName string              // Display name reported by the provider.
	AvatarURL   string              // Avatar URL reported by the provider. Empty when absent.
}

// OAuthProvider defines the contract every external OAuth provider adapter
// must implement. Implementations return identity facts only and must not
// perform account lookup, linking, or session issuance.
type OAuthProvider interface {
	// Name returns the provider identifier used for routing and storage.
	Name() entity.ProviderType

	// AuthCodeURL returns the provider's authorization URL for the given
	// anti-forgery state parameter.
	AuthCodeURL(state string) string

	// Exchange trades an authorization code for the provider's profile and
	// normalizes it. A profile with no email or avatar is returned with the
	// corresponding fields empty, never as an error.
	Exchange(ctx context.Context, code string) (*OAuthProfile, error)
}
