// Package usecase contains the application-specific business rules.
// It orchestrates the domain layer to perform tasks.
package usecase

import (
	"context"

	"casthub/internal/domain/entity"
	"casthub/internal/domain/service"

	"github.com/google/uuid"
)

// --- Input DTOs ---

// RegisterInput defines the data required to register a password account.
type RegisterInput struct {
	DisplayName string `json:"displayName" validate:"required,max=100"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
}

// LoginInput defines the data required for a password login.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// --- Output DTOs ---

// ReconcileOutput is the result of mapping an OAuth profile to a canonical
// account. The flags drive client-side UX branching only; the token is the
// authoritative session credential.
type ReconcileOutput struct {
	User          *entity.UserIdentity
	SessionToken  string
	IsNewUser     bool // A brand-new account was created for this profile.
	AccountLinked bool // The profile was attached to a pre-existing account via email match.
}

// AuthOutput returns the session token after a successful password auth.
type AuthOutput struct {
	User         *entity.UserIdentity
	SessionToken string
}

// AccountUsecase defines the interface for account-related business operations.
// This is the contract that the delivery layer (e.g. API handlers) depends on.
type AccountUsecase interface {
	// ReconcileOAuth maps a normalized provider profile to exactly one canonical
	// account, creating or linking as needed, and mints a session token for it.
	ReconcileOAuth(ctx context.Context, profile *service.OAuthProfile) (*ReconcileOutput, error)

	// Register creates a new password account and logs it in.
	Register(ctx context.Context, input *RegisterInput) (*AuthOutput, error)

	// Login authenticates a password account.
	Login(ctx context.Context, input *LoginInput) (*AuthOutput, error)

	// GetByUUID loads an account by its public uuid.
	GetByUUID(ctx context.Context, id uuid.UUID) (*entity.UserIdentity, error)

	// RotateStreamKey replaces the account's stream key with a fresh one.
	RotateStreamKey(ctx context.Context, id uuid.UUID) (*entity.UserIdentity, error)
}
