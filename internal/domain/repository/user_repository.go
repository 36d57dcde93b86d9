// Package repository defines the interfaces for the persistence layer.
// These interfaces act as a contract between the domain/application layers and the infrastructure layer.
package repository

import (
	"context"
	"errors"

	"casthub/internal/domain/entity"

	"github.com/google/uuid"
)

// ErrUserNotFound is a domain-specific error returned when a user is not found.
var ErrUserNotFound = errors.New("user not found")

// UserRepository defines the standard operations for identity persistence.
// The application layer depends on this interface, not the concrete implementation.
//
// The store must enforce a uniqueness constraint on (provider, provider_id).
// Two concurrent reconciliations for a never-seen provider subject may both
// reach Create; the loser surfaces the constraint violation and is replayed
// as an ordinary provider-id match. The engine relies on this, it takes no
// locks of its own.
type UserRepository interface {
	// FindByProvider retrieves the identity attached to an OAuth provider subject.
	FindByProvider(ctx context.Context, provider entity.ProviderType, providerID string) (*entity.UserIdentity, error)

	// FindByEmail retrieves a single identity by its primary email address.
	FindByEmail(ctx context.Context, email string) (*entity.UserIdentity, error)

	// FindByUUID retrieves a single identity by its public uuid.
	FindByUUID(ctx context.Context, id uuid.UUID) (*entity.UserIdentity, error)

	// Create persists a new identity to the storage.
	Create(ctx context.Context, user *entity.UserIdentity) error

	// Update modifies an existing identity in the storage.
	Update(ctx context.Context, user *entity.UserIdentity) error
}
