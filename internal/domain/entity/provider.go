// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

// ProviderType represents the external OAuth provider an identity came from.
type ProviderType string

const (
	// ProviderGoogle indicates a Google OAuth identity.
	ProviderGoogle ProviderType = "google"
	// ProviderTwitch indicates a Twitch OAuth identity.
	ProviderTwitch ProviderType = "twitch"
	// ProviderNone indicates a password account with no OAuth provider attached.
	ProviderNone ProviderType = ""
)

// String returns the string representation of the ProviderType.
func (p ProviderType) String() string {
	return string(p)
}

// IsValid checks if the ProviderType names a supported OAuth provider.
func (p ProviderType) IsValid() bool {
	switch p {
	case ProviderGoogle, ProviderTwitch:
		return true
	default:
		return false
	}
}
